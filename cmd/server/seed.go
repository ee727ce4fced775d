package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"formquery/internal/domain"
	"formquery/internal/repository"
)

// Demo data ids are fixed so example queries in the README work out of
// the box.
const (
	demoFormID   = "f0000000-0000-4000-8000-000000000001"
	demoNameID   = "f1000000-0000-4000-8000-000000000001"
	demoScoreID  = "f1000000-0000-4000-8000-000000000002"
	demoDeptID   = "f1000000-0000-4000-8000-000000000003"
	demoReviewID = "f1000000-0000-4000-8000-000000000004"
)

// seedDemo populates an empty database with a demo form, a handful of
// submissions, and directory entries. Idempotent.
func seedDemo(ctx context.Context, writeDB *sql.DB, subs *repository.SubmissionRepo, logger *slog.Logger) error {
	var count int
	if err := writeDB.QueryRowContext(ctx, "SELECT count(*) FROM forms").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	if _, err := writeDB.ExecContext(ctx,
		`INSERT INTO forms (id, name) VALUES (?, ?)`, demoFormID, "Employee Survey"); err != nil {
		return err
	}

	fieldRows := []struct {
		id, label, typ string
		weightage      float64
	}{
		{demoNameID, "Name", "text", 1},
		{demoScoreID, "Score", "number", 2},
		{demoDeptID, "Department", "text", 1},
		{demoReviewID, "Reviewers", "user_reference", 1},
	}
	for _, f := range fieldRows {
		if _, err := writeDB.ExecContext(ctx,
			`INSERT INTO form_fields (id, form_id, label, type, weightage) VALUES (?, ?, ?, ?, ?)`,
			f.id, demoFormID, f.label, f.typ, f.weightage); err != nil {
			return err
		}
	}

	users := [][2]string{
		{"u0000000-0000-4000-8000-000000000001", "Alice Berg"},
		{"u0000000-0000-4000-8000-000000000002", "Bjorn Holm"},
		{"u0000000-0000-4000-8000-000000000003", "Carol Lund"},
	}
	for _, u := range users {
		if _, err := writeDB.ExecContext(ctx,
			`INSERT INTO users (id, name) VALUES (?, ?)`, u[0], u[1]); err != nil {
			return err
		}
	}
	if _, err := writeDB.ExecContext(ctx,
		`INSERT INTO groups (id, name) VALUES (?, ?)`, "g0000000-0000-4000-8000-000000000001", "Engineering"); err != nil {
		return err
	}

	submissions := []struct {
		by    string
		score float64
		dept  string
	}{
		{"Alice Berg", 72, "engineering"},
		{"Bjorn Holm", 91, "engineering"},
		{"Carol Lund", 64, "operations"},
	}
	for i, s := range submissions {
		rec := &domain.SubmissionRecord{
			ID:          domain.NewID(),
			StableRef:   domain.NewStableRef(),
			FormID:      demoFormID,
			SubmittedBy: s.by,
			SubmittedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
			Data: map[string]any{
				demoNameID:   s.by,
				demoScoreID:  s.score,
				demoDeptID:   s.dept,
				demoReviewID: map[string]any{"users": []any{users[0][0]}},
			},
		}
		if err := subs.Insert(ctx, rec); err != nil {
			return err
		}
	}

	logger.Info("seeded demo form", "form_id", demoFormID, "submissions", len(submissions))
	return nil
}
