// Package api exposes the query engine over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"formquery/internal/domain"
	"formquery/internal/service"
)

// APIHandler serves the REST endpoints.
type APIHandler struct {
	query  *service.QueryService
	logger *slog.Logger
}

func NewHandler(query *service.QueryService, logger *slog.Logger) *APIHandler {
	return &APIHandler{query: query, logger: logger}
}

type queryRequest struct {
	Statement string `json:"statement"`
}

type fieldResponse struct {
	ID        string  `json:"id"`
	FormID    string  `json:"form_id"`
	Label     string  `json:"label"`
	Type      string  `json:"type"`
	Weightage float64 `json:"weightage"`
}

type submissionResponse struct {
	ID           string         `json:"id"`
	SubmissionID string         `json:"submission_id"`
	FormID       string         `json:"form_id"`
	SubmittedBy  string         `json:"submitted_by"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Data         map[string]any `json:"data"`
}

type functionResponse struct {
	Name       string   `json:"name"`
	Params     []string `json:"params"`
	ReturnType string   `json:"return_type"`
}

type historyResponse struct {
	ID            int64     `json:"id"`
	Statement     string    `json:"statement"`
	StatementType string    `json:"statement_type"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	RowsReturned  int64     `json:"rows_returned"`
	CreatedAt     time.Time `json:"created_at"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ExecuteQuery runs a statement batch. The result body is the same
// shape for success and failure; failed executions answer 400 with the
// error list and no rows.
func (h *APIHandler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if req.Statement == "" {
		respondError(w, domain.ErrValidation("statement is required"))
		return
	}

	result := h.query.Execute(r.Context(), req.Statement)
	status := http.StatusOK
	if result.Failed() {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, result)
}

func (h *APIHandler) ListFields(w http.ResponseWriter, r *http.Request) {
	defs, err := h.query.Fields(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]fieldResponse, len(defs))
	for i, d := range defs {
		out[i] = fieldResponse{ID: d.ID, FormID: d.FormID, Label: d.Label, Type: d.Type, Weightage: d.Weightage}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	recs, err := h.query.Submissions(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]submissionResponse, len(recs))
	for i, rec := range recs {
		out[i] = submissionResponse{
			ID:           rec.ID,
			SubmissionID: rec.StableRef,
			FormID:       rec.FormID,
			SubmittedBy:  rec.SubmittedBy,
			SubmittedAt:  rec.SubmittedAt,
			Data:         rec.Data,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandler) ListFunctions(w http.ResponseWriter, r *http.Request) {
	fns := h.query.Functions()
	out := make([]functionResponse, len(fns))
	for i, fn := range fns {
		params := make([]string, len(fn.Params))
		for j, p := range fn.Params {
			params[j] = p.Name + " " + p.Type
		}
		out[i] = functionResponse{Name: fn.Name, Params: params, ReturnType: fn.ReturnType}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandler) DropFunction(w http.ResponseWriter, r *http.Request) {
	if err := h.query.DropFunction(chi.URLParam(r, "name")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	filter := domain.QueryHistoryFilter{}
	q := r.URL.Query()
	if v := q.Get("statement_type"); v != "" {
		filter.StatementType = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	entries, err := h.query.History(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]historyResponse, len(entries))
	for i, e := range entries {
		out[i] = historyResponse{
			ID:            e.ID,
			Statement:     e.Statement,
			StatementType: e.StatementType,
			Status:        e.Status,
			ErrorMessage:  e.ErrorMessage,
			DurationMs:    e.DurationMs,
			RowsReturned:  e.RowsReturned,
			CreatedAt:     e.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	code := httpStatusFromDomainError(err)
	respondJSON(w, code, errorResponse{Code: code, Message: err.Error()})
}
