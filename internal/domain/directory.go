package domain

// User is a row of the "users" system table.
type User struct {
	ID    string
	Name  string
	Email string
}

// Group is a row of the "groups" system table.
type Group struct {
	ID   string
	Name string
}

// DirectoryRow is one generic system-table row: ordered column names
// shared across the result, with per-row values. Used so users, groups,
// and forms queries flow through the same pipeline as form queries.
type DirectoryRow struct {
	Columns []string
	Values  []any
}

// Column returns the value under the named column, or nil.
func (r *DirectoryRow) Column(name string) any {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i]
		}
	}
	return nil
}
