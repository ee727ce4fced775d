package engine

import (
	"formquery/internal/domain"
)

// RecordView is what an expression evaluates against: one submission
// record, one system-table row, or one projected row. The ok results
// distinguish "this view cannot serve that reference" (an unresolved
// reference) from "the value is null".
type RecordView interface {
	// Field reads a field value by UUID id. ok is false when the view
	// has no field access at all; a missing field reads as (nil, true).
	Field(id string) (any, bool)
	// System reads submission_id, submitted_by, or submitted_at.
	System(name string) (any, bool)
	// Column reads by plain name: a field label for form records, a
	// column name for system rows, or a projected column name.
	Column(name string) (any, bool)
}

// submissionView adapts one SubmissionRecord plus its form's field
// metadata to the RecordView interface.
type submissionView struct {
	rec    *domain.SubmissionRecord
	fields *domain.FieldSet
}

func newSubmissionView(rec *domain.SubmissionRecord, fields *domain.FieldSet) *submissionView {
	return &submissionView{rec: rec, fields: fields}
}

func (v *submissionView) Field(id string) (any, bool) {
	return v.rec.FieldValue(id), true
}

func (v *submissionView) System(name string) (any, bool) {
	switch name {
	case "submission_id":
		return v.rec.StableRef, true
	case "submitted_by":
		return v.rec.SubmittedBy, true
	case "submitted_at":
		return v.rec.SubmittedAt, true
	}
	return nil, false
}

func (v *submissionView) Column(name string) (any, bool) {
	if val, ok := v.System(name); ok {
		return val, true
	}
	if def := v.fields.ByLabel(name); def != nil {
		return v.rec.FieldValue(def.ID), true
	}
	return nil, false
}

// directoryView adapts one system-table row. Field access is not
// available on system tables.
type directoryView struct {
	row *domain.DirectoryRow
}

func newDirectoryView(row *domain.DirectoryRow) *directoryView {
	return &directoryView{row: row}
}

func (v *directoryView) Field(string) (any, bool) { return nil, false }
func (v *directoryView) System(string) (any, bool) { return nil, false }

func (v *directoryView) Column(name string) (any, bool) {
	for _, c := range v.row.Columns {
		if c == name {
			return v.row.Column(name), true
		}
	}
	return nil, false
}

// scalarView is the empty view used for procedural statements, where
// only variables and literals may appear.
type scalarView struct{}

func (scalarView) Field(string) (any, bool)  { return nil, false }
func (scalarView) System(string) (any, bool) { return nil, false }
func (scalarView) Column(string) (any, bool) { return nil, false }

// projectedView exposes one projected result row by column name (alias
// or rendered expression), with fallback to the group's source record
// for expressions that were not projected. Used by HAVING and ORDER BY.
type projectedView struct {
	names  map[string]any
	source RecordView // first record of the group; may be nil
}

func newProjectedView(columns []string, cells []any, extra map[string]any, source RecordView) *projectedView {
	names := make(map[string]any, len(columns)+len(extra))
	for i, c := range columns {
		if i < len(cells) {
			names[c] = cells[i]
		}
	}
	for k, v := range extra {
		names[k] = v
	}
	return &projectedView{names: names, source: source}
}

func (v *projectedView) Field(id string) (any, bool) {
	if v.source != nil {
		return v.source.Field(id)
	}
	return nil, false
}

func (v *projectedView) System(name string) (any, bool) {
	if val, ok := v.names[name]; ok {
		return val, true
	}
	if v.source != nil {
		return v.source.System(name)
	}
	return nil, false
}

func (v *projectedView) Column(name string) (any, bool) {
	if val, ok := v.names[name]; ok {
		return val, true
	}
	if v.source != nil {
		return v.source.Column(name)
	}
	return nil, false
}
