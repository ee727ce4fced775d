package engine

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"formquery/internal/domain"
	"formquery/internal/formsql"
)

// updateConcurrency bounds concurrent persist calls for one UPDATE batch.
const updateConcurrency = 8

// Engine executes parsed statements against the repositories. One
// Engine serves many concurrent executions; per-execution state (the
// variable environment, subquery cache) is created per call.
type Engine struct {
	subs     domain.SubmissionRepository
	fields   domain.FieldRepository
	dir      domain.DirectoryRepository
	registry *Registry
	logger   *slog.Logger
}

// New creates an Engine.
func New(
	subs domain.SubmissionRepository,
	fields domain.FieldRepository,
	dir domain.DirectoryRepository,
	registry *Registry,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		subs:     subs,
		fields:   fields,
		dir:      dir,
		registry: registry,
		logger:   logger,
	}
}

// Registry returns the engine's user-function registry.
func (en *Engine) Registry() *Registry { return en.registry }

// Execute runs a statement input: one or more semicolon-separated
// statements sharing a single variable environment. The result of the
// last row-producing statement is returned; all error paths produce an
// errors-only result, never rows alongside errors.
func (en *Engine) Execute(ctx context.Context, input string) *domain.QueryResult {
	stmts := formsql.SplitStatements(input)
	if len(stmts) == 0 {
		return domain.FailedResult(domain.ErrSyntax("empty statement"))
	}

	env := NewEnv()
	var last *domain.QueryResult
	for _, raw := range stmts {
		res, err := en.execOne(ctx, raw, env)
		if err != nil {
			return domain.FailedResult(err)
		}
		if res != nil {
			last = res
		}
	}
	if last == nil {
		last = domain.MessageResult("ok")
	}
	return last
}

// execOne parses and runs a single statement against a shared
// environment. IF and WHILE bodies re-enter here.
func (en *Engine) execOne(ctx context.Context, raw string, env *Env) (*domain.QueryResult, error) {
	stmt, err := formsql.Parse(raw)
	if err != nil {
		return nil, domain.ErrSyntax("%s", err)
	}

	switch s := stmt.(type) {
	case *formsql.SelectStmt:
		return en.execSelect(ctx, s, env)
	case *formsql.UpdateFormStmt:
		return en.execUpdate(ctx, s, env)
	case *formsql.InsertFormStmt:
		return en.execInsert(ctx, s, env)
	case *formsql.DeclareStmt:
		return nil, en.execDeclare(ctx, s, env)
	case *formsql.SetStmt:
		return nil, en.execSet(ctx, s, env)
	case *formsql.IfStmt:
		return en.execIf(ctx, s, env)
	case *formsql.WhileStmt:
		return en.execWhile(ctx, s, env)
	case *formsql.CreateFunctionStmt:
		return en.execCreateFunction(s)
	default:
		return nil, domain.ErrSyntax("unsupported statement")
	}
}

// === SELECT pipeline ===

// rowCtx is one projected row with the context ORDER BY and HAVING
// still need: the group's first record and aggregate values by their
// rendered names.
type rowCtx struct {
	cells  []any
	source RecordView
	extras map[string]any
}

// execSelect runs the fixed pipeline: fetch, filter, group,
// aggregate/project, having, order, distinct, paginate, resolve.
func (en *Engine) execSelect(ctx context.Context, sel *formsql.SelectStmt, env *Env) (*domain.QueryResult, error) {
	if sel.Having != nil && len(sel.GroupBy) == 0 {
		return nil, domain.ErrValidation("HAVING requires GROUP BY")
	}

	views, fieldSet, sysCols, err := en.fetchViews(ctx, sel.Target)
	if err != nil {
		return nil, err
	}

	ev := &Evaluator{
		Fields:   fieldSet,
		Env:      env,
		Registry: en.registry,
		Subquery: en.subqueryFunc(env),
	}

	// WHERE
	if sel.Where != nil {
		filtered := views[:0:0]
		for _, v := range views {
			match, err := ev.EvalBool(ctx, sel.Where, v)
			if err != nil {
				return nil, err
			}
			if match {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}

	items, err := expandItems(sel, fieldSet, sysCols)
	if err != nil {
		return nil, err
	}

	groups, err := en.groupViews(ctx, ev, sel, items, views)
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(items))
	for i, item := range items {
		columns[i] = formsql.ColumnName(item)
	}

	rows, err := en.projectGroups(ctx, ev, items, columns, groups)
	if err != nil {
		return nil, err
	}

	if sel.Having != nil {
		kept := rows[:0:0]
		for _, r := range rows {
			view := newProjectedView(columns, r.cells, r.extras, r.source)
			match, err := ev.EvalBool(ctx, sel.Having, view)
			if err != nil {
				return nil, err
			}
			if match {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	if len(sel.OrderBy) > 0 {
		if err := en.orderRows(ctx, ev, sel.OrderBy, columns, rows); err != nil {
			return nil, err
		}
	}

	if sel.Distinct {
		rows = distinctRows(rows)
	}

	rows = paginate(rows, sel.Offset, sel.Limit)

	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.cells
	}

	if err := en.resolveIdentifiers(ctx, out); err != nil {
		// Resolution is best-effort; log and return unresolved cells.
		en.logger.Warn("identifier resolution failed", "error", err)
	}

	return &domain.QueryResult{Columns: columns, Rows: out}, nil
}

// fetchViews loads all records of the target into memory as views. For
// a system-table target it also reports the table's column names, so
// star expansion does not depend on the table having rows.
func (en *Engine) fetchViews(ctx context.Context, target formsql.Target) ([]RecordView, *domain.FieldSet, []string, error) {
	if target.IsSystem() {
		cols, err := en.dir.ListColumns(ctx, target.System)
		if err != nil {
			return nil, nil, nil, err
		}
		rows, err := en.dir.ListRows(ctx, target.System)
		if err != nil {
			return nil, nil, nil, domain.ErrPersistence("fetch %s: %v", target.System, err)
		}
		views := make([]RecordView, len(rows))
		for i, r := range rows {
			views[i] = newDirectoryView(r)
		}
		return views, domain.NewFieldSet(nil), cols, nil
	}

	defs, err := en.fields.FetchByForm(ctx, target.FormID)
	if err != nil {
		return nil, nil, nil, domain.ErrPersistence("fetch field metadata for form %s: %v", target.FormID, err)
	}
	fieldSet := domain.NewFieldSet(defs)

	recs, err := en.subs.FetchByForm(ctx, target.FormID)
	if err != nil {
		return nil, nil, nil, domain.ErrPersistence("fetch records for form %s: %v", target.FormID, err)
	}
	views := make([]RecordView, len(recs))
	for i, r := range recs {
		views[i] = newSubmissionView(r, fieldSet)
	}
	return views, fieldSet, nil, nil
}

// expandItems replaces a * select item with concrete items: system
// columns plus every field (labeled) for form queries, the table's
// declared columns for system-table queries.
func expandItems(sel *formsql.SelectStmt, fieldSet *domain.FieldSet, sysCols []string) ([]formsql.SelectItem, error) {
	var out []formsql.SelectItem
	for _, item := range sel.Items {
		if !item.Star {
			out = append(out, item)
			continue
		}

		if sel.Target.IsSystem() {
			for _, col := range sysCols {
				out = append(out, formsql.SelectItem{Expr: &formsql.ColumnRef{Name: col}})
			}
			continue
		}

		for _, name := range []string{"submission_id", "submitted_by", "submitted_at"} {
			out = append(out, formsql.SelectItem{Expr: &formsql.SystemColumn{Name: name}})
		}
		for _, def := range fieldSet.All() {
			out = append(out, formsql.SelectItem{
				Expr:  &formsql.FieldRef{FieldID: def.ID},
				Alias: def.Label,
			})
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrValidation("select list is empty")
	}
	return out, nil
}

// group is one bucket of records: the whole filtered set for implicit
// aggregation, one bucket per GROUP BY key, or a singleton per record.
type group struct {
	rows []RecordView
}

func (en *Engine) groupViews(ctx context.Context, ev *Evaluator, sel *formsql.SelectStmt, items []formsql.SelectItem, views []RecordView) ([]group, error) {
	if len(sel.GroupBy) > 0 {
		var order []string
		buckets := make(map[string]*group)
		for _, v := range views {
			parts := make([]string, len(sel.GroupBy))
			for i, g := range sel.GroupBy {
				val, err := ev.Eval(ctx, g, v)
				if err != nil {
					return nil, err
				}
				parts[i] = toString(val)
			}
			key := strings.Join(parts, "\x1f")
			b, ok := buckets[key]
			if !ok {
				b = &group{}
				buckets[key] = b
				order = append(order, key)
			}
			b.rows = append(b.rows, v)
		}
		out := make([]group, len(order))
		for i, key := range order {
			out[i] = *buckets[key]
		}
		return out, nil
	}

	hasAggregate := false
	for _, item := range items {
		if item.IsAggregate() {
			hasAggregate = true
			break
		}
	}
	if hasAggregate {
		// All surviving records form one implicit group; an empty set
		// still yields one group so COUNT(*) reports 0.
		return []group{{rows: views}}, nil
	}

	out := make([]group, len(views))
	for i, v := range views {
		out[i] = group{rows: []RecordView{v}}
	}
	return out, nil
}

// projectGroups evaluates every select item per group: aggregates
// consume all rows of the group, everything else evaluates against the
// group's first row.
func (en *Engine) projectGroups(ctx context.Context, ev *Evaluator, items []formsql.SelectItem, columns []string, groups []group) ([]*rowCtx, error) {
	rows := make([]*rowCtx, 0, len(groups))
	for _, g := range groups {
		var first RecordView = scalarView{}
		if len(g.rows) > 0 {
			first = g.rows[0]
		}

		row := &rowCtx{
			cells:  make([]any, len(items)),
			source: first,
			extras: make(map[string]any),
		}
		for i, item := range items {
			if item.IsAggregate() {
				val, err := en.evalAggregateItem(ctx, ev, item.Aggregate, g)
				if err != nil {
					return nil, err
				}
				row.cells[i] = val
				// Keyed by rendered form too so HAVING COUNT(*) > n
				// works regardless of aliasing.
				row.extras[aggregateName(item.Aggregate)] = val
				continue
			}
			val, err := ev.Eval(ctx, item.Expr, first)
			if err != nil {
				return nil, err
			}
			row.cells[i] = val
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (en *Engine) evalAggregateItem(ctx context.Context, ev *Evaluator, agg *formsql.AggregateRef, g group) (any, error) {
	var values []any
	if !agg.Star {
		values = make([]any, 0, len(g.rows))
		for _, v := range g.rows {
			val, err := ev.Eval(ctx, agg.Arg, v)
			if err != nil {
				return nil, err
			}
			values = append(values, val)
		}
	}
	return aggregate(agg.Func, agg.Star, values, len(g.rows)), nil
}

// aggregateName renders the canonical column form of an aggregate,
// e.g. COUNT(*) or SUM(FIELD("...")).
func aggregateName(agg *formsql.AggregateRef) string {
	call := &formsql.FuncCall{Name: agg.Func, Star: agg.Star}
	if agg.Arg != nil {
		call.Args = []formsql.Expr{agg.Arg}
	}
	return formsql.ExprString(call)
}

// orderRows sorts projected rows by the ORDER BY keys. A key matching a
// projected column sorts by that cell; anything else evaluates against
// the row's group context. Sorting is stable.
func (en *Engine) orderRows(ctx context.Context, ev *Evaluator, orderBy []formsql.OrderByItem, columns []string, rows []*rowCtx) error {
	keys := make([][]any, len(rows))
	for i, r := range rows {
		view := newProjectedView(columns, r.cells, r.extras, r.source)
		keys[i] = make([]any, len(orderBy))
		for j, ob := range orderBy {
			val, err := ev.Eval(ctx, ob.Expr, view)
			if err != nil {
				return err
			}
			keys[i][j] = val
		}
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for j, ob := range orderBy {
			cmp := compareCells(keys[idx[a]][j], keys[idx[b]][j])
			if cmp == 0 {
				continue
			}
			if ob.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	sorted := make([]*rowCtx, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
	return nil
}

// compareCells orders two sort keys; nil sorts before any value.
func compareCells(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	cmp, ok := compareValues(a, b)
	if !ok {
		return 0
	}
	return cmp
}

// distinctRows drops duplicate projected rows by structural equality,
// keeping the first occurrence in order.
func distinctRows(rows []*rowCtx) []*rowCtx {
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		key := rowKey(r.cells)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// paginate applies OFFSET then LIMIT.
func paginate(rows []*rowCtx, offset, limit *int) []*rowCtx {
	if offset != nil {
		if *offset >= len(rows) {
			return nil
		}
		rows = rows[*offset:]
	}
	if limit != nil && *limit < len(rows) {
		rows = rows[:*limit]
	}
	return rows
}

// subqueryFunc builds the nested-SELECT resolver for one execution,
// memoized per statement node so a subquery in WHERE is resolved once,
// not once per record. The cache is locked because execUpdate shares
// one Evaluator across its concurrent persist goroutines.
func (en *Engine) subqueryFunc(env *Env) SubqueryFunc {
	var mu sync.Mutex
	cache := make(map[*formsql.SelectStmt][]any)
	return func(ctx context.Context, sel *formsql.SelectStmt) ([]any, error) {
		mu.Lock()
		vals, ok := cache[sel]
		mu.Unlock()
		if ok {
			return vals, nil
		}
		res, err := en.execSelect(ctx, sel, env)
		if err != nil {
			return nil, err
		}
		for _, row := range res.Rows {
			vals = append(vals, row...)
		}
		mu.Lock()
		cache[sel] = vals
		mu.Unlock()
		return vals, nil
	}
}

// === UPDATE FORM ===

// execUpdate filters the form's records by the WHERE condition,
// computes the new value per record according to the SET value
// classification, and persists each record concurrently. Individual
// failures are counted, not escalated.
func (en *Engine) execUpdate(ctx context.Context, upd *formsql.UpdateFormStmt, env *Env) (*domain.QueryResult, error) {
	defs, err := en.fields.FetchByForm(ctx, upd.FormID)
	if err != nil {
		return nil, domain.ErrPersistence("fetch field metadata for form %s: %v", upd.FormID, err)
	}
	fieldSet := domain.NewFieldSet(defs)

	recs, err := en.subs.FetchByForm(ctx, upd.FormID)
	if err != nil {
		return nil, domain.ErrPersistence("fetch records for form %s: %v", upd.FormID, err)
	}

	ev := &Evaluator{
		Fields:   fieldSet,
		Env:      env,
		Registry: en.registry,
		Subquery: en.subqueryFunc(env),
	}

	var matched []*domain.SubmissionRecord
	for _, rec := range recs {
		ok, err := ev.EvalBool(ctx, upd.Where, newSubmissionView(rec, fieldSet))
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, rec)
		}
	}

	// A subquery value is resolved once for the whole batch; the other
	// kinds are computed per record below.
	var subqueryValue any
	if upd.Value.Kind == formsql.UpdateSubquery {
		vals, err := ev.runSubquery(ctx, upd.Value.Subquery)
		if err != nil {
			return nil, err
		}
		if len(vals) == 1 {
			subqueryValue = vals[0]
		} else if len(vals) > 1 {
			subqueryValue = vals
		}
	}

	var updated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(updateConcurrency)

	for _, rec := range matched {
		g.Go(func() error {
			newVal, err := en.updateValue(gctx, ev, upd, fieldSet, rec, subqueryValue)
			if err == nil {
				clone := rec.Clone()
				clone.Data[upd.FieldID] = newVal
				err = en.subs.Persist(gctx, clone)
			}
			if err != nil {
				failed.Add(1)
				en.logger.Warn("update record failed",
					"form_id", upd.FormID, "record_id", rec.ID, "error", err)
				return nil
			}
			updated.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return &domain.QueryResult{
		Columns: []string{"updated", "failed"},
		Rows:    [][]any{{updated.Load(), failed.Load()}},
	}, nil
}

func (en *Engine) updateValue(ctx context.Context, ev *Evaluator, upd *formsql.UpdateFormStmt, fieldSet *domain.FieldSet, rec *domain.SubmissionRecord, subqueryValue any) (any, error) {
	switch upd.Value.Kind {
	case formsql.UpdateSubquery:
		return subqueryValue, nil
	case formsql.UpdateLiteral:
		return literalValue(upd.Value.Literal)
	case formsql.UpdateFieldCopy:
		return rec.FieldValue(upd.Value.Field.FieldID), nil
	default:
		return ev.Eval(ctx, upd.Value.Expr, newSubmissionView(rec, fieldSet))
	}
}

// === INSERT ===

// execInsert resolves column references against form metadata and
// persists one record per VALUES row, or per row of the source SELECT.
func (en *Engine) execInsert(ctx context.Context, ins *formsql.InsertFormStmt, env *Env) (*domain.QueryResult, error) {
	defs, err := en.fields.FetchByForm(ctx, ins.FormID)
	if err != nil {
		return nil, domain.ErrPersistence("fetch field metadata for form %s: %v", ins.FormID, err)
	}
	fieldSet := domain.NewFieldSet(defs)

	fieldIDs := make([]string, len(ins.Columns))
	for i, col := range ins.Columns {
		switch {
		case formsql.IsFieldID(col):
			fieldIDs[i] = strings.ToLower(col)
		default:
			def := fieldSet.ByLabel(col)
			if def == nil {
				return nil, domain.ErrUnresolvedReference("form %s has no field %q", ins.FormID, col)
			}
			fieldIDs[i] = def.ID
		}
	}

	var valueRows [][]any
	if ins.Query != nil {
		// INSERT ... SELECT re-enters the pipeline.
		res, err := en.execSelect(ctx, ins.Query, env)
		if err != nil {
			return nil, err
		}
		valueRows = res.Rows
	} else {
		ev := &Evaluator{
			Fields:   fieldSet,
			Env:      env,
			Registry: en.registry,
			Subquery: en.subqueryFunc(env),
		}
		for _, row := range ins.Rows {
			vals := make([]any, len(row))
			for i, expr := range row {
				val, err := ev.Eval(ctx, expr, scalarView{})
				if err != nil {
					return nil, err
				}
				vals[i] = val
			}
			valueRows = append(valueRows, vals)
		}
	}

	var inserted, failed int64
	for _, vals := range valueRows {
		if len(vals) != len(fieldIDs) {
			return nil, domain.ErrValidation("insert expects %d values per row, got %d", len(fieldIDs), len(vals))
		}
		rec := &domain.SubmissionRecord{
			ID:          domain.NewID(),
			StableRef:   domain.NewStableRef(),
			FormID:      ins.FormID,
			SubmittedAt: time.Now().UTC(),
			Data:        make(map[string]any, len(fieldIDs)),
		}
		for i, id := range fieldIDs {
			rec.Data[id] = vals[i]
		}
		if err := en.subs.Insert(ctx, rec); err != nil {
			failed++
			en.logger.Warn("insert record failed", "form_id", ins.FormID, "error", err)
			continue
		}
		inserted++
	}

	return &domain.QueryResult{
		Columns: []string{"inserted", "failed"},
		Rows:    [][]any{{inserted, failed}},
	}, nil
}

// === Procedural statements ===

func (en *Engine) execDeclare(ctx context.Context, dec *formsql.DeclareStmt, env *Env) error {
	ev := &Evaluator{Env: env, Registry: en.registry}
	var init any
	if dec.Init != nil {
		val, err := ev.Eval(ctx, dec.Init, scalarView{})
		if err != nil {
			return err
		}
		init = val
	}
	env.Declare(dec.Name, coerceTyped(dec.Type, init))
	return nil
}

func (en *Engine) execSet(ctx context.Context, set *formsql.SetStmt, env *Env) error {
	ev := &Evaluator{Env: env, Registry: en.registry}
	val, err := ev.Eval(ctx, set.Expr, scalarView{})
	if err != nil {
		return err
	}
	return env.Set(set.Name, val)
}

// execIf evaluates branch conditions in order and executes the first
// matching block; the ELSE block runs when nothing matched.
func (en *Engine) execIf(ctx context.Context, ifStmt *formsql.IfStmt, env *Env) (*domain.QueryResult, error) {
	ev := &Evaluator{Env: env, Registry: en.registry}
	for _, branch := range ifStmt.Branches {
		match, err := ev.EvalBool(ctx, branch.Condition, scalarView{})
		if err != nil {
			return nil, err
		}
		if match {
			return en.execBlock(ctx, branch.Body, env)
		}
	}
	if ifStmt.HasElse {
		return en.execBlock(ctx, ifStmt.Else, env)
	}
	return nil, nil
}

// execWhile re-evaluates the condition and re-executes the body until
// the condition is false or the iteration ceiling is hit. The ceiling
// is fatal: variable state stays as of the last completed iteration.
func (en *Engine) execWhile(ctx context.Context, loop *formsql.WhileStmt, env *Env) (*domain.QueryResult, error) {
	ev := &Evaluator{Env: env, Registry: en.registry}
	var last *domain.QueryResult

	for iterations := 0; ; iterations++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cont, err := ev.EvalBool(ctx, loop.Condition, scalarView{})
		if err != nil {
			return nil, err
		}
		if !cont {
			return last, nil
		}
		if iterations >= MaxLoopIterations {
			return nil, domain.ErrIterationLimit("loop exceeded %d iterations", MaxLoopIterations)
		}
		res, err := en.execBlock(ctx, loop.Body, env)
		if err != nil {
			return nil, err
		}
		if res != nil {
			last = res
		}
	}
}

// execBlock runs the semicolon-separated statements of a BEGIN/END body
// against the shared environment.
func (en *Engine) execBlock(ctx context.Context, body string, env *Env) (*domain.QueryResult, error) {
	var last *domain.QueryResult
	for _, raw := range formsql.SplitStatements(body) {
		res, err := en.execOne(ctx, raw, env)
		if err != nil {
			return nil, err
		}
		if res != nil {
			last = res
		}
	}
	return last, nil
}

func (en *Engine) execCreateFunction(stmt *formsql.CreateFunctionStmt) (*domain.QueryResult, error) {
	fn, err := CompileFunction(stmt)
	if err != nil {
		return nil, err
	}
	en.registry.Create(fn)
	en.logger.Info("user function created", "name", fn.Name, "params", len(fn.Params))
	return domain.MessageResult("function " + fn.Name + " created"), nil
}
