package repository

import (
	"context"
	"database/sql"

	"formquery/internal/domain"
)

// FieldRepo serves field metadata for forms.
type FieldRepo struct {
	readDB *sql.DB
}

func NewFieldRepo(readDB *sql.DB) *FieldRepo {
	return &FieldRepo{readDB: readDB}
}

func (r *FieldRepo) FetchByForm(ctx context.Context, formID string) ([]*domain.FieldDefinition, error) {
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, form_id, label, type, weightage
		FROM form_fields
		WHERE form_id = ?
		ORDER BY rowid`, formID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return scanFields(rows)
}

func (r *FieldRepo) FetchByIDs(ctx context.Context, ids []string) ([]*domain.FieldDefinition, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.readDB.QueryContext(ctx, `
		SELECT id, form_id, label, type, weightage
		FROM form_fields
		WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return scanFields(rows)
}

func scanFields(rows *sql.Rows) ([]*domain.FieldDefinition, error) {
	var out []*domain.FieldDefinition
	for rows.Next() {
		var d domain.FieldDefinition
		if err := rows.Scan(&d.ID, &d.FormID, &d.Label, &d.Type, &d.Weightage); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
