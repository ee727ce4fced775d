package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"formquery/internal/domain"
)

// SubmissionRepo stores submission records with their answer data as a
// JSON document. Reads go through the read pool, writes through the
// single-connection write pool.
type SubmissionRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewSubmissionRepo(writeDB, readDB *sql.DB) *SubmissionRepo {
	return &SubmissionRepo{writeDB: writeDB, readDB: readDB}
}

func (r *SubmissionRepo) FetchByForm(ctx context.Context, formID string) ([]*domain.SubmissionRecord, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, stable_ref, form_id, submitted_by, submitted_at, data
		FROM submissions
		WHERE form_id = ?
		ORDER BY submitted_at, id`, formID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []*domain.SubmissionRecord
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SubmissionRepo) Persist(ctx context.Context, rec *domain.SubmissionRecord) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal submission data: %w", err)
	}

	res, err := r.writeDB.ExecContext(ctx,
		`UPDATE submissions SET data = ? WHERE id = ?`, string(data), rec.ID)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("submission %s not found", rec.ID)}
	}
	return nil
}

func (r *SubmissionRepo) Insert(ctx context.Context, rec *domain.SubmissionRecord) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal submission data: %w", err)
	}

	_, err = r.writeDB.ExecContext(ctx, `
		INSERT INTO submissions (id, stable_ref, form_id, submitted_by, submitted_at, data)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StableRef, rec.FormID, rec.SubmittedBy,
		rec.SubmittedAt.UTC().Format(time.RFC3339Nano), string(data))
	return mapDBError(err)
}

func scanSubmission(rows *sql.Rows) (*domain.SubmissionRecord, error) {
	var rec domain.SubmissionRecord
	var submittedAt, data string
	if err := rows.Scan(&rec.ID, &rec.StableRef, &rec.FormID, &rec.SubmittedBy, &submittedAt, &data); err != nil {
		return nil, err
	}
	rec.SubmittedAt = parseTime(submittedAt)
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("decode submission %s data: %w", rec.ID, err)
	}
	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	return &rec, nil
}
