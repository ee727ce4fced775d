package formsql

// === Expression Nodes ===

// FieldRef is the canonical "read field X from the current record" node.
// FIELD("uuid"), VALUE_OF("uuid"), and bare UUID-shaped tokens all parse
// to this node.
type FieldRef struct {
	FieldID string
}

func (*FieldRef) node()     {}
func (*FieldRef) exprNode() {}

// SystemColumn references a fixed record attribute rather than a field:
// submission_id, submitted_by, or submitted_at.
type SystemColumn struct {
	Name string // lowercase
}

func (*SystemColumn) node()     {}
func (*SystemColumn) exprNode() {}

// ColumnRef references a column by plain name. For form queries it
// resolves against field labels; for system-table queries against the
// row's column names.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) node()     {}
func (*ColumnRef) exprNode() {}

// VarRef references a procedural variable (@name, stored without the @).
type VarRef struct {
	Name string
}

func (*VarRef) node()     {}
func (*VarRef) exprNode() {}

// Literal represents a literal value (number, string, bool, null).
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) node()     {}
func (*Literal) exprNode() {}

// LiteralType represents the type of a literal.
type LiteralType int

// LiteralNumber and friends classify literal values.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// BinaryExpr represents a binary expression (left op right).
type BinaryExpr struct {
	Left  Expr
	Op    TokenType
	Right Expr
}

func (*BinaryExpr) node()     {}
func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary expression (NOT x, -x, +x).
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
}

func (*UnaryExpr) node()     {}
func (*UnaryExpr) exprNode() {}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) node()     {}
func (*ParenExpr) exprNode() {}

// FuncCall represents a builtin or user-defined function call.
// COUNT(*) is represented with Star=true and no Args.
type FuncCall struct {
	Name string // stored in original case; resolution is case-insensitive
	Args []Expr
	Star bool
}

func (*FuncCall) node()     {}
func (*FuncCall) exprNode() {}

// CaseExpr represents a searched CASE expression.
type CaseExpr struct {
	Whens []WhenClause
	Else  Expr
}

func (*CaseExpr) node()     {}
func (*CaseExpr) exprNode() {}

// WhenClause represents a WHEN clause in a CASE expression.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// InExpr represents expr [NOT] IN (values) or expr [NOT] IN (subquery).
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr
	Query  *SelectStmt
}

func (*InExpr) node()     {}
func (*InExpr) exprNode() {}

// BetweenExpr represents expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) node()     {}
func (*BetweenExpr) exprNode() {}

// IsNullExpr represents IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*IsNullExpr) node()     {}
func (*IsNullExpr) exprNode() {}

// LikeExpr represents a [NOT] LIKE or [NOT] ILIKE expression.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Pattern Expr
	ILike   bool
}

func (*LikeExpr) node()     {}
func (*LikeExpr) exprNode() {}

// SubqueryExpr represents a parenthesized SELECT used as a value.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) node()     {}
func (*SubqueryExpr) exprNode() {}

// JSONStep is one step of a JSON path: -> index, -> 'key', or the text
// variants ->> index / ->> 'key'.
type JSONStep struct {
	Key   string // object key ("" when Index is used)
	Index int    // array index (valid when Key == "")
	IsKey bool   // true when Key is set
	Text  bool   // ->> (extract as text) vs -> (extract as value)
}

// JSONPathExpr represents FIELD("id")::jsonb -> 0 ->> 'key' extraction
// over an array- or object-shaped field value.
type JSONPathExpr struct {
	Expr  Expr
	Steps []JSONStep
}

func (*JSONPathExpr) node()     {}
func (*JSONPathExpr) exprNode() {}
