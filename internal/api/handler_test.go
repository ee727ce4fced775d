package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formquery/internal/db"
	"formquery/internal/domain"
	"formquery/internal/engine"
	"formquery/internal/repository"
	"formquery/internal/service"
)

const (
	apiFormID  = "11111111-2222-3333-4444-555555555555"
	apiFieldID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)

	_, err := writeDB.Exec(`INSERT INTO forms (id, name) VALUES (?, ?)`, apiFormID, "Survey")
	require.NoError(t, err)
	_, err = writeDB.Exec(`INSERT INTO form_fields (id, form_id, label, type) VALUES (?, ?, ?, ?)`,
		apiFieldID, apiFormID, "Score", "number")
	require.NoError(t, err)

	subs := repository.NewSubmissionRepo(writeDB, readDB)
	fields := repository.NewFieldRepo(readDB)
	dir := repository.NewDirectoryRepo(readDB)
	history := repository.NewHistoryRepo(writeDB, readDB)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	en := engine.New(subs, fields, dir, engine.NewRegistry(), logger)
	svc := service.NewQueryService(en, history, fields, subs, logger)

	for _, score := range []float64{10, 20} {
		rec := &domain.SubmissionRecord{
			ID: domain.NewID(), StableRef: domain.NewStableRef(), FormID: apiFormID,
			SubmittedBy: "alice", SubmittedAt: time.Now().UTC(),
			Data: map[string]any{apiFieldID: score},
		}
		require.NoError(t, subs.Insert(t.Context(), rec))
	}

	router := NewRouter(NewHandler(svc, logger), RouterConfig{
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"*"},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postQuery(t *testing.T, srv *httptest.Server, statement string) (*http.Response, domain.QueryResult) {
	t.Helper()
	body, err := json.Marshal(map[string]string{"statement": statement})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/v1/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var result domain.QueryResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp, result
}

func TestExecuteQuery_Success(t *testing.T) {
	srv := newTestServer(t)

	resp, result := postQuery(t, srv, `SELECT SUM(FIELD("`+apiFieldID+`")) AS total FROM '`+apiFormID+`'`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"total"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, float64(30), result.Rows[0][0])
	assert.Empty(t, result.Errors)
}

func TestExecuteQuery_SyntaxError(t *testing.T) {
	srv := newTestServer(t)

	resp, result := postQuery(t, srv, "SELEKT everything")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, result.Rows)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "syntax error")
}

func TestExecuteQuery_EmptyStatement(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/query", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListFields(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/forms/" + apiFormID + "/fields")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fields []fieldResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	require.Len(t, fields, 1)
	assert.Equal(t, "Score", fields[0].Label)
	assert.Equal(t, 1.0, fields[0].Weightage)
}

func TestListFields_InvalidFormID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/forms/not-a-uuid/fields")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.Contains(t, body.Message, "invalid form id")
}

func TestListSubmissions(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/forms/" + apiFormID + "/submissions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recs []submissionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "alice", recs[0].SubmittedBy)
	assert.NotEmpty(t, recs[0].SubmissionID)
}

func TestFunctionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postQuery(t, srv, `CREATE FUNCTION double(@x INT) RETURNS INT AS BEGIN RETURN @x * 2; END`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/v1/functions")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var fns []functionResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&fns))
	require.Len(t, fns, 1)
	assert.Equal(t, "double", fns[0].Name)
	assert.Equal(t, []string{"x INT"}, fns[0].Params)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/functions/double", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	again, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	again.Body.Close()
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
}

func TestListHistory(t *testing.T) {
	srv := newTestServer(t)

	postQuery(t, srv, "SELECT COUNT(*) FROM '"+apiFormID+"'")
	postQuery(t, srv, "SELEKT broken")

	resp, err := http.Get(srv.URL + "/v1/history?status=error")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []historyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Status)
	require.NotNil(t, entries[0].ErrorMessage)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
