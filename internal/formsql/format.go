package formsql

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprString renders an expression back to canonical query text. The
// result is used as the column name for unaliased select items and for
// matching ORDER BY expressions against projected columns, so rendering
// must be deterministic.
func ExprString(expr Expr) string {
	switch e := expr.(type) {
	case nil:
		return ""

	case *FieldRef:
		return fmt.Sprintf("FIELD(%q)", e.FieldID)

	case *SystemColumn:
		return e.Name

	case *ColumnRef:
		return e.Name

	case *VarRef:
		return "@" + e.Name

	case *Literal:
		if e.Type == LiteralString {
			return "'" + strings.ReplaceAll(e.Value, "'", "''") + "'"
		}
		return e.Value

	case *BinaryExpr:
		return ExprString(e.Left) + " " + e.Op.String() + " " + ExprString(e.Right)

	case *UnaryExpr:
		if e.Op == TOKEN_NOT {
			return "NOT " + ExprString(e.Expr)
		}
		return e.Op.String() + ExprString(e.Expr)

	case *ParenExpr:
		return "(" + ExprString(e.Expr) + ")"

	case *FuncCall:
		if e.Star {
			return strings.ToUpper(e.Name) + "(*)"
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = ExprString(a)
		}
		return strings.ToUpper(e.Name) + "(" + strings.Join(args, ", ") + ")"

	case *CaseExpr:
		var b strings.Builder
		b.WriteString("CASE")
		for _, w := range e.Whens {
			b.WriteString(" WHEN ")
			b.WriteString(ExprString(w.Condition))
			b.WriteString(" THEN ")
			b.WriteString(ExprString(w.Result))
		}
		if e.Else != nil {
			b.WriteString(" ELSE ")
			b.WriteString(ExprString(e.Else))
		}
		b.WriteString(" END")
		return b.String()

	case *InExpr:
		op := " IN "
		if e.Not {
			op = " NOT IN "
		}
		if e.Query != nil {
			return ExprString(e.Expr) + op + "(SELECT ...)"
		}
		vals := make([]string, len(e.Values))
		for i, v := range e.Values {
			vals[i] = ExprString(v)
		}
		return ExprString(e.Expr) + op + "(" + strings.Join(vals, ", ") + ")"

	case *BetweenExpr:
		op := " BETWEEN "
		if e.Not {
			op = " NOT BETWEEN "
		}
		return ExprString(e.Expr) + op + ExprString(e.Low) + " AND " + ExprString(e.High)

	case *IsNullExpr:
		if e.Not {
			return ExprString(e.Expr) + " IS NOT NULL"
		}
		return ExprString(e.Expr) + " IS NULL"

	case *LikeExpr:
		op := " LIKE "
		if e.ILike {
			op = " ILIKE "
		}
		if e.Not {
			op = " NOT" + op
		}
		return ExprString(e.Expr) + op + ExprString(e.Pattern)

	case *SubqueryExpr:
		return "(SELECT ...)"

	case *JSONPathExpr:
		var b strings.Builder
		b.WriteString(ExprString(e.Expr))
		b.WriteString("::jsonb")
		for _, s := range e.Steps {
			if s.Text {
				b.WriteString(" ->> ")
			} else {
				b.WriteString(" -> ")
			}
			if s.IsKey {
				b.WriteString("'" + s.Key + "'")
			} else {
				b.WriteString(strconv.Itoa(s.Index))
			}
		}
		return b.String()

	default:
		return fmt.Sprintf("%T", expr)
	}
}

// ColumnName derives the output column name for a select item: the
// alias when present, otherwise the rendered expression.
func ColumnName(item SelectItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	if item.Star {
		return "*"
	}
	return ExprString(item.Expr)
}
