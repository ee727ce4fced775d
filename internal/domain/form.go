package domain

import (
	"strings"
	"time"
)

// Form is the metadata header of a form: submissions reference it by id
// and field definitions belong to it.
type Form struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// FieldDefinition describes one field of a form. Weightage is a numeric
// multiplier used by WEIGHTED_VALUE-style computed columns; it defaults
// to 1 when unconfigured.
type FieldDefinition struct {
	ID        string // UUID-shaped field id
	FormID    string
	Label     string
	Type      string
	Weightage float64
}

// FieldSet is a read-only snapshot of a form's field definitions,
// fetched once per query and indexed both ways.
type FieldSet struct {
	byID    map[string]*FieldDefinition
	byLabel map[string]*FieldDefinition
	ordered []*FieldDefinition
}

// NewFieldSet builds a FieldSet from a definition list. Labels are
// matched case-insensitively; later duplicates win.
func NewFieldSet(defs []*FieldDefinition) *FieldSet {
	fs := &FieldSet{
		byID:    make(map[string]*FieldDefinition, len(defs)),
		byLabel: make(map[string]*FieldDefinition, len(defs)),
		ordered: defs,
	}
	for _, d := range defs {
		fs.byID[normalizeKey(d.ID)] = d
		fs.byLabel[normalizeKey(d.Label)] = d
	}
	return fs
}

// ByID returns the definition for a field id, or nil.
func (fs *FieldSet) ByID(id string) *FieldDefinition {
	if fs == nil {
		return nil
	}
	return fs.byID[normalizeKey(id)]
}

// ByLabel returns the definition matching a display label, or nil.
func (fs *FieldSet) ByLabel(label string) *FieldDefinition {
	if fs == nil {
		return nil
	}
	return fs.byLabel[normalizeKey(label)]
}

// Weightage returns the configured multiplier for a field, defaulting
// to 1 for unknown fields or unset weightage.
func (fs *FieldSet) Weightage(id string) float64 {
	d := fs.ByID(id)
	if d == nil || d.Weightage == 0 {
		return 1
	}
	return d.Weightage
}

// All returns the definitions in their stored order.
func (fs *FieldSet) All() []*FieldDefinition {
	if fs == nil {
		return nil
	}
	return fs.ordered
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
