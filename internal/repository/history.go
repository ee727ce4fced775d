package repository

import (
	"context"
	"database/sql"
	"time"

	"formquery/internal/domain"
)

// HistoryRepo records executed statements for auditing.
type HistoryRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewHistoryRepo(writeDB, readDB *sql.DB) *HistoryRepo {
	return &HistoryRepo{writeDB: writeDB, readDB: readDB}
}

func (r *HistoryRepo) Record(ctx context.Context, entry *domain.QueryHistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var errMsg any
	if entry.ErrorMessage != nil {
		errMsg = *entry.ErrorMessage
	}

	res, err := r.writeDB.ExecContext(ctx, `
		INSERT INTO query_history (statement, statement_type, status, error_message, duration_ms, rows_returned, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Statement, entry.StatementType, entry.Status, errMsg,
		entry.DurationMs, entry.RowsReturned,
		entry.CreatedAt.UTC().Format(sqliteTimeFormat))
	if err != nil {
		return mapDBError(err)
	}
	entry.ID, err = res.LastInsertId()
	return err
}

func (r *HistoryRepo) List(ctx context.Context, filter domain.QueryHistoryFilter) ([]*domain.QueryHistoryEntry, error) {
	query := `
		SELECT id, statement, statement_type, status, error_message, duration_ms, rows_returned, created_at
		FROM query_history
		WHERE 1=1`
	var args []any

	if filter.StatementType != nil {
		query += " AND statement_type = ?"
		args = append(args, *filter.StatementType)
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}

	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := r.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []*domain.QueryHistoryEntry
	for rows.Next() {
		var e domain.QueryHistoryEntry
		var errMsg sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Statement, &e.StatementType, &e.Status, &errMsg, &e.DurationMs, &e.RowsReturned, &createdAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			e.ErrorMessage = &errMsg.String
		}
		e.CreatedAt = parseTime(createdAt)
		out = append(out, &e)
	}
	return out, rows.Err()
}
