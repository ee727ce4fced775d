package engine

import (
	"math"
	"strings"

	"formquery/internal/domain"
)

// MaxLoopIterations is the hard WHILE ceiling. Exceeding it is a fatal
// error for the loop, never a silent truncation.
const MaxLoopIterations = 1000

// Env is the named-variable environment of one control-flow chain. It
// is created per top-level execution and threaded through nested IF and
// WHILE bodies; it is not shared across executions.
type Env struct {
	vars map[string]any
}

// NewEnv creates an empty variable environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]any)}
}

// Declare creates or resets a variable.
func (e *Env) Declare(name string, val any) {
	e.vars[strings.ToLower(name)] = val
}

// Set assigns a declared variable. Assigning an undeclared variable is
// an unresolved reference.
func (e *Env) Set(name string, val any) error {
	key := strings.ToLower(name)
	if _, ok := e.vars[key]; !ok {
		return domain.ErrUnresolvedReference("variable @%s is not declared", name)
	}
	e.vars[key] = val
	return nil
}

// Lookup reads a variable.
func (e *Env) Lookup(name string) (any, bool) {
	val, ok := e.vars[strings.ToLower(name)]
	return val, ok
}

// Snapshot returns a copy of the current variable bindings, used by
// informational results and tests.
func (e *Env) Snapshot() map[string]any {
	out := make(map[string]any, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// coerceTyped coerces a value to a declared type: INT truncates to a
// whole number, FLOAT and DECIMAL stay numeric, BOOLEAN reduces by
// truthiness, everything else becomes a string. A nil value takes the
// type's zero value.
func coerceTyped(typ string, val any) any {
	switch strings.ToUpper(typ) {
	case "INT", "INTEGER", "BIGINT":
		if val == nil {
			return float64(0)
		}
		f, ok := toFloat(val)
		if !ok {
			return float64(0)
		}
		return math.Trunc(f)
	case "FLOAT", "DECIMAL", "DOUBLE", "NUMERIC":
		if val == nil {
			return float64(0)
		}
		f, ok := toFloat(val)
		if !ok {
			return float64(0)
		}
		return f
	case "BOOLEAN", "BOOL", "BIT":
		if val == nil {
			return false
		}
		return truthy(val)
	default:
		if val == nil {
			return ""
		}
		return toString(val)
	}
}
