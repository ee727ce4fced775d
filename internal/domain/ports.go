package domain

import "context"

// SubmissionRepository is the fetch/persist capability the engine
// consumes from the storage layer. The engine never issues native
// storage queries; it loads records into memory and evaluates there.
type SubmissionRepository interface {
	FetchByForm(ctx context.Context, formID string) ([]*SubmissionRecord, error)
	Persist(ctx context.Context, rec *SubmissionRecord) error
	Insert(ctx context.Context, rec *SubmissionRecord) error
}

// FieldRepository lists field metadata for a form.
type FieldRepository interface {
	FetchByForm(ctx context.Context, formID string) ([]*FieldDefinition, error)
	FetchByIDs(ctx context.Context, ids []string) ([]*FieldDefinition, error)
}

// DirectoryRepository serves the system tables (users, groups, forms)
// and the id-batch lookups used by post-processing resolution.
type DirectoryRepository interface {
	ListRows(ctx context.Context, resource string) ([]*DirectoryRow, error)
	ListColumns(ctx context.Context, resource string) ([]string, error)
	FetchByID(ctx context.Context, resource string, ids []string) (map[string]string, error)
}

// HistoryRepository records and lists executed statements.
type HistoryRepository interface {
	Record(ctx context.Context, entry *QueryHistoryEntry) error
	List(ctx context.Context, filter QueryHistoryFilter) ([]*QueryHistoryEntry, error)
}
