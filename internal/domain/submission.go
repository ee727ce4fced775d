package domain

import "time"

// SubmissionRecord is one semi-structured form submission. Data maps
// UUID-shaped field ids to arbitrary JSON-shaped values: scalars,
// arrays, or nested objects such as cross-reference payloads.
type SubmissionRecord struct {
	ID          string
	StableRef   string // externally durable identifier, distinct from ID
	FormID      string
	SubmittedBy string
	SubmittedAt time.Time
	Data        map[string]any
}

// FieldValue returns the value stored under the given field id, or nil
// when the record has no value for it.
func (r *SubmissionRecord) FieldValue(fieldID string) any {
	if r.Data == nil {
		return nil
	}
	return r.Data[fieldID]
}

// Clone returns a deep-enough copy for write pipelines: the Data map is
// copied so mutating the clone does not alias the original. Values are
// shared; callers replace, never mutate, them.
func (r *SubmissionRecord) Clone() *SubmissionRecord {
	out := *r
	out.Data = make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		out.Data[k] = v
	}
	return &out
}
