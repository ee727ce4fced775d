// Package service wires the query engine to storage and records an
// audit trail of executed statements.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"formquery/internal/domain"
	"formquery/internal/engine"
	"formquery/internal/formsql"
)

// QueryService executes statements through the engine and records each
// execution in query history.
type QueryService struct {
	engine  *engine.Engine
	history domain.HistoryRepository
	fields  domain.FieldRepository
	subs    domain.SubmissionRepository
	logger  *slog.Logger
}

func NewQueryService(en *engine.Engine, history domain.HistoryRepository, fields domain.FieldRepository, subs domain.SubmissionRepository, logger *slog.Logger) *QueryService {
	return &QueryService{
		engine:  en,
		history: history,
		fields:  fields,
		subs:    subs,
		logger:  logger,
	}
}

// Execute runs a statement batch and records the outcome. History
// recording is best-effort: a failed write never fails the query.
func (s *QueryService) Execute(ctx context.Context, input string) *domain.QueryResult {
	start := time.Now()
	result := s.engine.Execute(ctx, input)
	elapsed := time.Since(start)

	entry := &domain.QueryHistoryEntry{
		Statement:     input,
		StatementType: formsql.Classify(input),
		Status:        "success",
		DurationMs:    elapsed.Milliseconds(),
		RowsReturned:  int64(len(result.Rows)),
	}
	if result.Failed() {
		entry.Status = "error"
		msg := strings.Join(result.Errors, "; ")
		entry.ErrorMessage = &msg
	}

	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Warn("record query history", "error", err)
	}

	return result
}

// History lists recorded statement executions.
func (s *QueryService) History(ctx context.Context, filter domain.QueryHistoryFilter) ([]*domain.QueryHistoryEntry, error) {
	return s.history.List(ctx, filter)
}

// Fields lists the field definitions of a form.
func (s *QueryService) Fields(ctx context.Context, formID string) ([]*domain.FieldDefinition, error) {
	if !formsql.IsFieldID(formID) {
		return nil, domain.ErrValidation("invalid form id %q", formID)
	}
	return s.fields.FetchByForm(ctx, formID)
}

// Submissions lists the raw submission records of a form.
func (s *QueryService) Submissions(ctx context.Context, formID string) ([]*domain.SubmissionRecord, error) {
	if !formsql.IsFieldID(formID) {
		return nil, domain.ErrValidation("invalid form id %q", formID)
	}
	return s.subs.FetchByForm(ctx, formID)
}

// Functions lists the registered user-defined functions.
func (s *QueryService) Functions() []*engine.UserFunction {
	return s.engine.Registry().List()
}

// DropFunction removes a user-defined function by name.
func (s *QueryService) DropFunction(name string) error {
	if !s.engine.Registry().Drop(name) {
		return domain.ErrNotFound("function %s not found", name)
	}
	return nil
}
