package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string for application-owned entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewStableRef generates the externally durable reference assigned to a
// submission at insert time. Distinct from the storage-internal id so
// records can be re-keyed without breaking references held by callers.
func NewStableRef() string {
	return uuid.Must(uuid.NewV7()).String()
}
