// Package repository implements the domain repository interfaces on
// SQLite. Submission data is stored as a JSON document per record; the
// engine evaluates queries in memory, so the SQL here stays to simple
// fetch, insert and update statements.
package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"formquery/internal/domain"
)

const sqliteTimeFormat = "2006-01-02 15:04:05"

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

// parseTime accepts the formats SQLite hands back for stored timestamps.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, sqliteTimeFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// placeholders builds "?, ?, ?" for an IN clause of n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
