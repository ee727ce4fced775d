package engine

import (
	"context"
	"encoding/json"
	"strconv"

	"formquery/internal/domain"
	"formquery/internal/formsql"
)

// SubqueryFunc resolves a nested SELECT to its flattened cell values.
// Wired by the pipeline; nil outside of query execution.
type SubqueryFunc func(ctx context.Context, sel *formsql.SelectStmt) ([]any, error)

// Evaluator walks expression trees against one record view. Field and
// variable references are resolved to values at each node; user input
// is never re-parsed or substituted as text.
type Evaluator struct {
	Fields   *domain.FieldSet
	Env      *Env
	Registry *Registry
	Subquery SubqueryFunc
}

// Eval evaluates an expression against a record view.
func (ev *Evaluator) Eval(ctx context.Context, expr formsql.Expr, row RecordView) (any, error) {
	switch e := expr.(type) {
	case nil:
		return nil, domain.ErrValidation("empty expression")

	case *formsql.Literal:
		return literalValue(e)

	case *formsql.FieldRef:
		val, ok := row.Field(e.FieldID)
		if !ok {
			return nil, domain.ErrUnresolvedReference("field %q is not available here", e.FieldID)
		}
		return val, nil

	case *formsql.SystemColumn:
		val, ok := row.System(e.Name)
		if !ok {
			return nil, domain.ErrUnresolvedReference("system column %q is not available here", e.Name)
		}
		return val, nil

	case *formsql.ColumnRef:
		val, ok := row.Column(e.Name)
		if !ok {
			return nil, domain.ErrUnresolvedReference("unknown column %q", e.Name)
		}
		return val, nil

	case *formsql.VarRef:
		if ev.Env == nil {
			return nil, domain.ErrUnresolvedReference("variable @%s is not declared", e.Name)
		}
		val, ok := ev.Env.Lookup(e.Name)
		if !ok {
			return nil, domain.ErrUnresolvedReference("variable @%s is not declared", e.Name)
		}
		return val, nil

	case *formsql.ParenExpr:
		return ev.Eval(ctx, e.Expr, row)

	case *formsql.UnaryExpr:
		return ev.evalUnary(ctx, e, row)

	case *formsql.BinaryExpr:
		return ev.evalBinary(ctx, e, row)

	case *formsql.CaseExpr:
		return ev.evalCase(ctx, e, row)

	case *formsql.IsNullExpr:
		val, err := ev.Eval(ctx, e.Expr, row)
		if err != nil {
			return nil, err
		}
		return isNull(val) != e.Not, nil

	case *formsql.InExpr:
		return ev.evalIn(ctx, e, row)

	case *formsql.BetweenExpr:
		return ev.evalBetween(ctx, e, row)

	case *formsql.LikeExpr:
		return ev.evalLike(ctx, e, row)

	case *formsql.FuncCall:
		return ev.evalFuncCall(ctx, e, row)

	case *formsql.JSONPathExpr:
		return ev.evalJSONPath(ctx, e, row)

	case *formsql.SubqueryExpr:
		vals, err := ev.runSubquery(ctx, e.Select)
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			return nil, nil
		}
		return vals[0], nil

	default:
		return nil, domain.ErrValidation("unsupported expression node %T", expr)
	}
}

// EvalBool evaluates a condition and reduces it to a boolean.
func (ev *Evaluator) EvalBool(ctx context.Context, expr formsql.Expr, row RecordView) (bool, error) {
	val, err := ev.Eval(ctx, expr, row)
	if err != nil {
		return false, err
	}
	return truthy(val), nil
}

func literalValue(lit *formsql.Literal) (any, error) {
	switch lit.Type {
	case formsql.LiteralNumber:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, domain.ErrSyntax("invalid number literal %q", lit.Value)
		}
		return f, nil
	case formsql.LiteralString:
		return lit.Value, nil
	case formsql.LiteralBool:
		return lit.Value == "true", nil
	default:
		return nil, nil
	}
}

func (ev *Evaluator) evalUnary(ctx context.Context, e *formsql.UnaryExpr, row RecordView) (any, error) {
	val, err := ev.Eval(ctx, e.Expr, row)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case formsql.TOKEN_NOT:
		return !truthy(val), nil
	case formsql.TOKEN_MINUS:
		if val == nil {
			return nil, nil
		}
		f, ok := toFloat(val)
		if !ok {
			return nil, nil
		}
		return -f, nil
	default: // unary plus
		return val, nil
	}
}

func (ev *Evaluator) evalBinary(ctx context.Context, e *formsql.BinaryExpr, row RecordView) (any, error) {
	// AND/OR short-circuit.
	switch e.Op {
	case formsql.TOKEN_AND:
		left, err := ev.EvalBool(ctx, e.Left, row)
		if err != nil {
			return nil, err
		}
		if !left {
			return false, nil
		}
		return ev.EvalBool(ctx, e.Right, row)
	case formsql.TOKEN_OR:
		left, err := ev.EvalBool(ctx, e.Left, row)
		if err != nil {
			return nil, err
		}
		if left {
			return true, nil
		}
		return ev.EvalBool(ctx, e.Right, row)
	}

	left, err := ev.Eval(ctx, e.Left, row)
	if err != nil {
		return nil, err
	}
	right, err := ev.Eval(ctx, e.Right, row)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case formsql.TOKEN_EQ:
		if left == nil || right == nil {
			return false, nil
		}
		return equalValues(left, right), nil
	case formsql.TOKEN_NE:
		if left == nil || right == nil {
			return false, nil
		}
		return !equalValues(left, right), nil
	case formsql.TOKEN_LT, formsql.TOKEN_GT, formsql.TOKEN_LE, formsql.TOKEN_GE:
		cmp, ok := compareValues(left, right)
		if !ok {
			return false, nil
		}
		switch e.Op {
		case formsql.TOKEN_LT:
			return cmp < 0, nil
		case formsql.TOKEN_GT:
			return cmp > 0, nil
		case formsql.TOKEN_LE:
			return cmp <= 0, nil
		default:
			return cmp >= 0, nil
		}
	case formsql.TOKEN_DPIPE:
		if left == nil || right == nil {
			return nil, nil
		}
		return toString(left) + toString(right), nil
	case formsql.TOKEN_PLUS, formsql.TOKEN_MINUS, formsql.TOKEN_STAR, formsql.TOKEN_SLASH, formsql.TOKEN_MOD:
		return evalArithmetic(e.Op, left, right), nil
	default:
		return nil, domain.ErrValidation("unsupported operator %s", e.Op)
	}
}

// evalArithmetic applies a numeric operator. A nil or non-numeric
// operand yields nil, as does division by zero.
func evalArithmetic(op formsql.TokenType, left, right any) any {
	if left == nil || right == nil {
		return nil
	}
	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil
	}
	switch op {
	case formsql.TOKEN_PLUS:
		return lf + rf
	case formsql.TOKEN_MINUS:
		return lf - rf
	case formsql.TOKEN_STAR:
		return lf * rf
	case formsql.TOKEN_SLASH:
		if rf == 0 {
			return nil
		}
		return lf / rf
	default: // %
		if rf == 0 {
			return nil
		}
		return float64(int64(lf) % int64(rf))
	}
}

func (ev *Evaluator) evalCase(ctx context.Context, e *formsql.CaseExpr, row RecordView) (any, error) {
	for _, when := range e.Whens {
		match, err := ev.EvalBool(ctx, when.Condition, row)
		if err != nil {
			return nil, err
		}
		if match {
			return ev.Eval(ctx, when.Result, row)
		}
	}
	if e.Else != nil {
		return ev.Eval(ctx, e.Else, row)
	}
	return nil, nil
}

func (ev *Evaluator) evalIn(ctx context.Context, e *formsql.InExpr, row RecordView) (any, error) {
	left, err := ev.Eval(ctx, e.Expr, row)
	if err != nil {
		return nil, err
	}
	if left == nil {
		return false, nil
	}

	var candidates []any
	if e.Query != nil {
		candidates, err = ev.runSubquery(ctx, e.Query)
		if err != nil {
			return nil, err
		}
	} else {
		for _, v := range e.Values {
			val, err := ev.Eval(ctx, v, row)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, val)
		}
	}

	for _, c := range candidates {
		if c != nil && equalValues(left, c) {
			return !e.Not, nil
		}
	}
	return e.Not, nil
}

func (ev *Evaluator) evalBetween(ctx context.Context, e *formsql.BetweenExpr, row RecordView) (any, error) {
	val, err := ev.Eval(ctx, e.Expr, row)
	if err != nil {
		return nil, err
	}
	low, err := ev.Eval(ctx, e.Low, row)
	if err != nil {
		return nil, err
	}
	high, err := ev.Eval(ctx, e.High, row)
	if err != nil {
		return nil, err
	}

	cmpLow, ok1 := compareValues(val, low)
	cmpHigh, ok2 := compareValues(val, high)
	if !ok1 || !ok2 {
		return false, nil
	}
	inside := cmpLow >= 0 && cmpHigh <= 0
	return inside != e.Not, nil
}

func (ev *Evaluator) evalLike(ctx context.Context, e *formsql.LikeExpr, row RecordView) (any, error) {
	val, err := ev.Eval(ctx, e.Expr, row)
	if err != nil {
		return nil, err
	}
	pattern, err := ev.Eval(ctx, e.Pattern, row)
	if err != nil {
		return nil, err
	}
	if val == nil || pattern == nil {
		return false, nil
	}

	matched, err := likeMatch(toString(val), toString(pattern), e.ILike)
	if err != nil {
		return nil, err
	}
	return matched != e.Not, nil
}

func (ev *Evaluator) evalJSONPath(ctx context.Context, e *formsql.JSONPathExpr, row RecordView) (any, error) {
	val, err := ev.Eval(ctx, e.Expr, row)
	if err != nil {
		return nil, err
	}

	for _, step := range e.Steps {
		val = jsonStep(val, step)
		if val == nil {
			return nil, nil
		}
		if step.Text {
			val = toString(val)
		}
	}
	return val, nil
}

// jsonStep applies one -> step to an array- or object-shaped value.
// String values holding serialized JSON are decoded first. Unresolvable
// steps yield nil, never an error.
func jsonStep(val any, step formsql.JSONStep) any {
	if s, ok := val.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			val = decoded
		}
	}

	if step.IsKey {
		obj, ok := val.(map[string]any)
		if !ok {
			return nil
		}
		return obj[step.Key]
	}

	arr, ok := val.([]any)
	if !ok || step.Index < 0 || step.Index >= len(arr) {
		return nil
	}
	return arr[step.Index]
}

func (ev *Evaluator) runSubquery(ctx context.Context, sel *formsql.SelectStmt) ([]any, error) {
	if ev.Subquery == nil {
		return nil, domain.ErrValidation("subqueries are not allowed in this context")
	}
	return ev.Subquery(ctx, sel)
}
