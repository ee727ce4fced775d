package formsql

// === Statement Nodes ===

// SystemTables is the fixed allow-list of system resources that may
// appear as a FROM target instead of a form id.
var SystemTables = map[string]bool{
	"users":  true,
	"groups": true,
	"forms":  true,
}

// Target identifies the record source of a read statement: either a form
// (by UUID) or a system table from the allow-list.
type Target struct {
	FormID string // set for form submission queries
	System string // set for system-table queries
}

// IsSystem reports whether the target is a system table.
func (t Target) IsSystem() bool { return t.System != "" }

// AggregateRef tags a select item as an aggregate over a wrapped
// reference. The reference is kept as-parsed, not pre-evaluated, because
// aggregation happens over many records.
type AggregateRef struct {
	Func string // COUNT, SUM, AVG, MIN, MAX (uppercase)
	Arg  Expr   // wrapped reference; nil for COUNT(*)
	Star bool   // COUNT(*)
}

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool // SELECT * — expands to all columns of the target
	Expr      Expr
	Alias     string
	Aggregate *AggregateRef // non-nil when the item is an aggregate
}

// IsAggregate reports whether the item is an aggregate select item.
func (s SelectItem) IsAggregate() bool { return s.Aggregate != nil }

// OrderByItem represents an item in the ORDER BY clause.
type OrderByItem struct {
	Expr Expr
	Desc bool
}

// SelectStmt represents a SELECT statement.
type SelectStmt struct {
	Distinct bool
	Items    []SelectItem
	Target   Target
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderByItem
	Limit    *int
	Offset   *int
}

func (*SelectStmt) node()     {}
func (*SelectStmt) stmtNode() {}

// UpdateValueKind classifies the SET value of an UPDATE FORM statement.
type UpdateValueKind int

// UpdateSubquery and friends classify how the new field value is
// computed for each matched record.
const (
	UpdateSubquery  UpdateValueKind = iota // (SELECT ...) resolved once
	UpdateComputed                         // expression evaluated per record
	UpdateFieldCopy                        // FIELD()/VALUE_OF() copied per record
	UpdateLiteral                          // static literal
)

// UpdateValue carries the SET value with its classification tag.
type UpdateValue struct {
	Kind     UpdateValueKind
	Subquery *SelectStmt // UpdateSubquery
	Expr     Expr        // UpdateComputed
	Field    *FieldRef   // UpdateFieldCopy
	Literal  *Literal    // UpdateLiteral
}

// UpdateFormStmt represents UPDATE FORM '<formId>' SET FIELD('<fieldId>')
// = <value> WHERE <cond>.
type UpdateFormStmt struct {
	FormID  string
	FieldID string
	Value   UpdateValue
	Where   Expr
}

func (*UpdateFormStmt) node()     {}
func (*UpdateFormStmt) stmtNode() {}

// InsertFormStmt represents INSERT [INTO] [FORM] '<formId>' (...) with
// either VALUES rows or a source SELECT. Columns hold the raw column
// references (labels, field ids, or unwrapped FIELD("id") ids); they are
// resolved against form metadata at execution time.
type InsertFormStmt struct {
	FormID  string
	Columns []string
	Rows    [][]Expr
	Query   *SelectStmt
}

func (*InsertFormStmt) node()     {}
func (*InsertFormStmt) stmtNode() {}

// DeclareStmt represents DECLARE @name TYPE [= expr].
type DeclareStmt struct {
	Name string
	Type string // uppercase type keyword as written (INT, FLOAT, ...)
	Init Expr   // nil when no initializer
}

func (*DeclareStmt) node()     {}
func (*DeclareStmt) stmtNode() {}

// SetStmt represents SET @name = expr.
type SetStmt struct {
	Name string
	Expr Expr
}

func (*SetStmt) node()     {}
func (*SetStmt) stmtNode() {}

// IfBranch is one condition/body pair of an IF statement.
type IfBranch struct {
	Condition Expr
	Body      string // raw semicolon-separated statements between BEGIN/END
}

// IfStmt represents IF ... BEGIN ... END [ELSE IF ...]* [ELSE BEGIN ... END].
type IfStmt struct {
	Branches []IfBranch
	Else     string // raw ELSE body, "" when absent
	HasElse  bool
}

func (*IfStmt) node()     {}
func (*IfStmt) stmtNode() {}

// WhileStmt represents WHILE <cond> BEGIN ... END.
type WhileStmt struct {
	Condition Expr
	Body      string // raw body between BEGIN/END
}

func (*WhileStmt) node()     {}
func (*WhileStmt) stmtNode() {}

// Param is a declared parameter of a user-defined function.
type Param struct {
	Name string
	Type string
}

// CreateFunctionStmt represents CREATE FUNCTION name(@p TYPE, ...)
// RETURNS TYPE AS BEGIN ... RETURN expr END.
type CreateFunctionStmt struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       string // raw body between BEGIN/END, including the RETURN
}

func (*CreateFunctionStmt) node()     {}
func (*CreateFunctionStmt) stmtNode() {}
