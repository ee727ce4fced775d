package engine

import (
	"context"
	"sort"
	"strings"
	"sync"

	"formquery/internal/domain"
	"formquery/internal/formsql"
)

// UserFunction is one compiled CREATE FUNCTION definition. The body is
// compiled to parsed statements at creation time; invocation only binds
// arguments and walks the trees.
type UserFunction struct {
	Name       string
	Params     []formsql.Param
	ReturnType string
	Body       string

	stmts []funcStmt
}

// funcStmt is one body statement: a DECLARE, a SET, or a RETURN.
type funcStmt struct {
	declare *formsql.DeclareStmt
	set     *formsql.SetStmt
	ret     formsql.Expr
}

// CompileFunction parses a CREATE FUNCTION body into an invocable
// definition. Bodies support DECLARE, SET, and RETURN statements; the
// trailing RETURN is required.
func CompileFunction(stmt *formsql.CreateFunctionStmt) (*UserFunction, error) {
	fn := &UserFunction{
		Name:       stmt.Name,
		Params:     stmt.Params,
		ReturnType: stmt.ReturnType,
		Body:       stmt.Body,
	}

	hasReturn := false
	for _, raw := range formsql.SplitStatements(stmt.Body) {
		if words := strings.Fields(raw); len(words) > 0 && strings.EqualFold(words[0], "RETURN") {
			body := strings.TrimSpace(raw[len("RETURN"):])
			if body == "" {
				return nil, domain.ErrSyntax("RETURN in function %s requires an expression", stmt.Name)
			}
			parsed, err := formsql.ParseExpr(body)
			if err != nil {
				return nil, err
			}
			fn.stmts = append(fn.stmts, funcStmt{ret: parsed})
			hasReturn = true
			continue
		}

		parsed, err := formsql.Parse(raw)
		if err != nil {
			return nil, err
		}
		switch s := parsed.(type) {
		case *formsql.DeclareStmt:
			fn.stmts = append(fn.stmts, funcStmt{declare: s})
		case *formsql.SetStmt:
			fn.stmts = append(fn.stmts, funcStmt{set: s})
		default:
			return nil, domain.ErrSyntax("function bodies support DECLARE, SET, and RETURN statements")
		}
	}

	if !hasReturn {
		return nil, domain.ErrSyntax("function %s has no RETURN statement", stmt.Name)
	}
	return fn, nil
}

// invokeUserFunction binds positional arguments to parameter names in a
// fresh environment and executes the compiled body. The function body
// sees only its parameters and locally declared variables.
func (ev *Evaluator) invokeUserFunction(ctx context.Context, fn *UserFunction, args []any) (any, error) {
	if len(args) != len(fn.Params) {
		return nil, domain.ErrArityMismatch("function %s expects %d arguments, got %d",
			fn.Name, len(fn.Params), len(args))
	}

	env := NewEnv()
	for i, p := range fn.Params {
		env.Declare(p.Name, coerceTyped(p.Type, args[i]))
	}

	bodyEv := &Evaluator{
		Fields:   ev.Fields,
		Env:      env,
		Registry: ev.Registry,
		Subquery: ev.Subquery,
	}

	for _, s := range fn.stmts {
		switch {
		case s.declare != nil:
			var init any
			if s.declare.Init != nil {
				val, err := bodyEv.Eval(ctx, s.declare.Init, scalarView{})
				if err != nil {
					return nil, err
				}
				init = val
			}
			env.Declare(s.declare.Name, coerceTyped(s.declare.Type, init))
		case s.set != nil:
			val, err := bodyEv.Eval(ctx, s.set.Expr, scalarView{})
			if err != nil {
				return nil, err
			}
			if err := env.Set(s.set.Name, val); err != nil {
				return nil, err
			}
		default:
			return bodyEv.Eval(ctx, s.ret, scalarView{})
		}
	}

	return nil, domain.ErrSyntax("function %s finished without RETURN", fn.Name)
}

// Registry holds user-defined functions. Names are case-insensitive and
// creation overwrites any prior definition of the same name. The
// registry is an injected component so tests and callers can hold
// independent instances.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]*UserFunction
}

// NewRegistry creates an empty function registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]*UserFunction)}
}

// Create registers a function, replacing any existing definition.
func (r *Registry) Create(fn *UserFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[strings.ToLower(fn.Name)] = fn
}

// Lookup returns the function with the given name, or nil.
func (r *Registry) Lookup(name string) *UserFunction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.funcs[strings.ToLower(name)]
}

// Drop removes a function. Returns false when it did not exist.
func (r *Registry) Drop(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	_, ok := r.funcs[key]
	delete(r.funcs, key)
	return ok
}

// Clear removes all functions.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs = make(map[string]*UserFunction)
}

// List returns all functions sorted by name.
func (r *Registry) List() []*UserFunction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*UserFunction, 0, len(r.funcs))
	for _, fn := range r.funcs {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
