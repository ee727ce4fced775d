package domain

import "time"

// QueryHistoryEntry records a single statement execution.
type QueryHistoryEntry struct {
	ID            int64
	Statement     string
	StatementType string // SELECT, UPDATE_FORM, INSERT, ...
	Status        string // "success" or "error"
	ErrorMessage  *string
	DurationMs    int64
	RowsReturned  int64
	CreatedAt     time.Time
}

// QueryHistoryFilter holds filter parameters for listing query history.
type QueryHistoryFilter struct {
	StatementType *string
	Status        *string
	Limit         int
	Offset        int
}
