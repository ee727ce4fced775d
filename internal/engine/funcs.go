package engine

import (
	"context"
	"math"
	"regexp"
	"strings"

	"formquery/internal/domain"
	"formquery/internal/formsql"
)

// evalFuncCall dispatches a function call: metadata functions that need
// the field reference itself, built-in scalar functions, then the user
// function registry.
func (ev *Evaluator) evalFuncCall(ctx context.Context, e *formsql.FuncCall, row RecordView) (any, error) {
	name := strings.ToUpper(e.Name)

	// An aggregate call outside the pipeline resolves against the
	// projected row (HAVING/ORDER BY see aggregates by column name).
	if formsql.IsAggregateFunc(name) {
		if val, ok := row.Column(formsql.ExprString(e)); ok {
			return val, nil
		}
		return nil, domain.ErrValidation("aggregate function %s is only valid in a select list", name)
	}

	// WEIGHTED_VALUE and FIELD_WEIGHTAGE consume the field reference,
	// not its value: they need the field id to look up metadata.
	switch name {
	case "WEIGHTED_VALUE":
		return ev.evalWeighted(ctx, e, row, true)
	case "FIELD_WEIGHTAGE":
		return ev.evalWeighted(ctx, e, row, false)
	}

	if fn, ok := builtins[name]; ok {
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			val, err := ev.Eval(ctx, a, row)
			if err != nil {
				return nil, err
			}
			args[i] = val
		}
		return fn(name, args)
	}

	if ev.Registry != nil {
		if userFn := ev.Registry.Lookup(e.Name); userFn != nil {
			args := make([]any, len(e.Args))
			for i, a := range e.Args {
				val, err := ev.Eval(ctx, a, row)
				if err != nil {
					return nil, err
				}
				args[i] = val
			}
			return ev.invokeUserFunction(ctx, userFn, args)
		}
	}

	return nil, domain.ErrUnresolvedReference("unknown function %s", e.Name)
}

func (ev *Evaluator) evalWeighted(ctx context.Context, e *formsql.FuncCall, row RecordView, multiply bool) (any, error) {
	name := strings.ToUpper(e.Name)
	if len(e.Args) != 1 {
		return nil, domain.ErrValidation("%s expects exactly one field argument", name)
	}
	ref := unwrapFieldRef(e.Args[0])
	if ref == nil {
		return nil, domain.ErrValidation("%s expects a FIELD(...) argument", name)
	}

	weight := ev.Fields.Weightage(ref.FieldID)
	if !multiply {
		return weight, nil
	}

	val, err := ev.Eval(ctx, ref, row)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(val)
	if !ok {
		return nil, nil
	}
	return f * weight, nil
}

// unwrapFieldRef digs a FieldRef out of parentheses, or returns nil.
func unwrapFieldRef(expr formsql.Expr) *formsql.FieldRef {
	for {
		switch e := expr.(type) {
		case *formsql.FieldRef:
			return e
		case *formsql.ParenExpr:
			expr = e.Expr
		default:
			return nil
		}
	}
}

// builtinFunc implements one built-in scalar function. name is the
// uppercase call name, for error messages.
type builtinFunc func(name string, args []any) (any, error)

var builtins = map[string]builtinFunc{
	"UPPER":     stringFunc1(strings.ToUpper),
	"LOWER":     stringFunc1(strings.ToLower),
	"TRIM":      stringFunc1(strings.TrimSpace),
	"CONCAT":    builtinConcat,
	"LEFT":      builtinLeft,
	"RIGHT":     builtinRight,
	"SUBSTRING": builtinSubstring,
	"REPLACE":   builtinReplace,
	"COALESCE":  builtinCoalesce,
	"ROUND":     builtinRound,
	"CEIL":      numericFunc1(math.Ceil),
	"FLOOR":     numericFunc1(math.Floor),
	"ABS":       numericFunc1(math.Abs),
}

// stringFunc1 adapts a one-argument string transform. Null propagates.
func stringFunc1(f func(string) string) builtinFunc {
	return func(name string, args []any) (any, error) {
		if len(args) != 1 {
			return nil, domain.ErrValidation("%s expects exactly one argument", name)
		}
		if args[0] == nil {
			return nil, nil
		}
		return f(toString(args[0])), nil
	}
}

// numericFunc1 adapts a one-argument numeric transform. Null or
// non-numeric input yields null.
func numericFunc1(f func(float64) float64) builtinFunc {
	return func(name string, args []any) (any, error) {
		if len(args) != 1 {
			return nil, domain.ErrValidation("%s expects exactly one argument", name)
		}
		v, ok := toFloat(args[0])
		if args[0] == nil || !ok {
			return nil, nil
		}
		return f(v), nil
	}
}

// builtinConcat joins all arguments; nulls render as empty strings so a
// single missing part does not blank the whole result.
func builtinConcat(_ string, args []any) (any, error) {
	var b strings.Builder
	for _, a := range args {
		if a == nil {
			continue
		}
		b.WriteString(toString(a))
	}
	return b.String(), nil
}

func builtinLeft(name string, args []any) (any, error) {
	s, n, err := stringCount(name, args)
	if err != nil || s == nil {
		return nil, err
	}
	runes := []rune(*s)
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n]), nil
}

func builtinRight(name string, args []any) (any, error) {
	s, n, err := stringCount(name, args)
	if err != nil || s == nil {
		return nil, err
	}
	runes := []rune(*s)
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[len(runes)-n:]), nil
}

func stringCount(name string, args []any) (*string, int, error) {
	if len(args) != 2 {
		return nil, 0, domain.ErrValidation("%s expects (string, count)", name)
	}
	if args[0] == nil {
		return nil, 0, nil
	}
	n, ok := toFloat(args[1])
	if !ok || n < 0 {
		return nil, 0, domain.ErrValidation("%s expects a non-negative count", name)
	}
	s := toString(args[0])
	return &s, int(n), nil
}

// builtinSubstring implements SUBSTRING(s, start, length) with SQL's
// one-based start position.
func builtinSubstring(name string, args []any) (any, error) {
	if len(args) != 3 {
		return nil, domain.ErrValidation("%s expects (string, start, length)", name)
	}
	if args[0] == nil {
		return nil, nil
	}
	start, ok1 := toFloat(args[1])
	length, ok2 := toFloat(args[2])
	if !ok1 || !ok2 || length < 0 {
		return nil, domain.ErrValidation("%s expects numeric start and length", name)
	}

	runes := []rune(toString(args[0]))
	from := int(start) - 1
	if from < 0 {
		from = 0
	}
	if from >= len(runes) {
		return "", nil
	}
	to := from + int(length)
	if to > len(runes) {
		to = len(runes)
	}
	return string(runes[from:to]), nil
}

func builtinReplace(name string, args []any) (any, error) {
	if len(args) != 3 {
		return nil, domain.ErrValidation("%s expects (string, old, new)", name)
	}
	if args[0] == nil {
		return nil, nil
	}
	return strings.ReplaceAll(toString(args[0]), toString(args[1]), toString(args[2])), nil
}

func builtinCoalesce(_ string, args []any) (any, error) {
	for _, a := range args {
		if !isNull(a) {
			return a, nil
		}
	}
	return nil, nil
}

func builtinRound(name string, args []any) (any, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, domain.ErrValidation("%s expects (number [, digits])", name)
	}
	v, ok := toFloat(args[0])
	if args[0] == nil || !ok {
		return nil, nil
	}
	digits := 0.0
	if len(args) == 2 {
		d, ok := toFloat(args[1])
		if !ok {
			return nil, domain.ErrValidation("%s expects numeric digits", name)
		}
		digits = d
	}
	scale := math.Pow(10, digits)
	return math.Round(v*scale) / scale, nil
}

// likeMatch translates a SQL LIKE pattern (% and _ wildcards) into an
// anchored regular expression and matches s against it.
func likeMatch(s, pattern string, caseInsensitive bool) (bool, error) {
	var b strings.Builder
	if caseInsensitive {
		b.WriteString("(?i)")
	}
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return false, domain.ErrValidation("invalid LIKE pattern %q", pattern)
	}
	return re.MatchString(s), nil
}
