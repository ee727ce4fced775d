package repository

import (
	"context"
	"database/sql"

	"formquery/internal/domain"
)

// directoryTables maps a system-table name to its selectable columns.
// Table and column names are interpolated into SQL, so only entries in
// this map are ever queried.
var directoryTables = map[string][]string{
	"users":  {"id", "name", "email"},
	"groups": {"id", "name"},
	"forms":  {"id", "name", "created_at"},
}

// DirectoryRepo serves the users, groups and forms system tables.
type DirectoryRepo struct {
	readDB *sql.DB
}

func NewDirectoryRepo(readDB *sql.DB) *DirectoryRepo {
	return &DirectoryRepo{readDB: readDB}
}

func (r *DirectoryRepo) ListRows(ctx context.Context, resource string) ([]*domain.DirectoryRow, error) {
	cols, ok := directoryTables[resource]
	if !ok {
		return nil, domain.ErrValidation("unknown system table %q", resource)
	}

	query := "SELECT "
	for i, c := range cols {
		if i > 0 {
			query += ", "
		}
		query += c
	}
	query += " FROM " + resource + " ORDER BY " + cols[0]

	rows, err := r.readDB.QueryContext(ctx, query)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []*domain.DirectoryRow
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// Byte slices come back for TEXT columns on some drivers.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, &domain.DirectoryRow{Columns: cols, Values: values})
	}
	return out, rows.Err()
}

// ListColumns reports a system table's selectable columns without
// touching storage, so callers can shape empty results.
func (r *DirectoryRepo) ListColumns(_ context.Context, resource string) ([]string, error) {
	cols, ok := directoryTables[resource]
	if !ok {
		return nil, domain.ErrValidation("unknown system table %q", resource)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

func (r *DirectoryRepo) FetchByID(ctx context.Context, resource string, ids []string) (map[string]string, error) {
	if _, ok := directoryTables[resource]; !ok {
		return nil, domain.ErrValidation("unknown system table %q", resource)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.readDB.QueryContext(ctx,
		"SELECT id, name FROM "+resource+" WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	out := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}
