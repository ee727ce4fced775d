package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formquery/internal/db"
	"formquery/internal/domain"
	"formquery/internal/engine"
	"formquery/internal/repository"
)

const (
	svcFormID  = "11111111-2222-3333-4444-555555555555"
	svcFieldID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

func newTestService(t *testing.T) (*QueryService, *sql.DB) {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)

	_, err := writeDB.Exec(`INSERT INTO forms (id, name) VALUES (?, ?)`, svcFormID, "Survey")
	require.NoError(t, err)
	_, err = writeDB.Exec(`INSERT INTO form_fields (id, form_id, label, type) VALUES (?, ?, ?, ?)`,
		svcFieldID, svcFormID, "Score", "number")
	require.NoError(t, err)

	subs := repository.NewSubmissionRepo(writeDB, readDB)
	fields := repository.NewFieldRepo(readDB)
	dir := repository.NewDirectoryRepo(readDB)
	history := repository.NewHistoryRepo(writeDB, readDB)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	en := engine.New(subs, fields, dir, engine.NewRegistry(), logger)
	svc := NewQueryService(en, history, fields, subs, logger)

	for i, score := range []float64{10, 20, 30} {
		rec := &domain.SubmissionRecord{
			ID:          domain.NewID(),
			StableRef:   domain.NewStableRef(),
			FormID:      svcFormID,
			SubmittedBy: "alice",
			SubmittedAt: time.Date(2026, 3, 1, 10, i, 0, 0, time.UTC),
			Data:        map[string]any{svcFieldID: score},
		}
		require.NoError(t, subs.Insert(context.Background(), rec))
	}

	return svc, writeDB
}

func TestQueryService_ExecuteRecordsHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res := svc.Execute(ctx, `SELECT SUM(FIELD("`+svcFieldID+`")) FROM '`+svcFormID+`'`)
	require.Empty(t, res.Errors)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, float64(60), res.Rows[0][0])

	entries, err := svc.History(ctx, domain.QueryHistoryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SELECT", entries[0].StatementType)
	assert.Equal(t, "success", entries[0].Status)
	assert.Equal(t, int64(1), entries[0].RowsReturned)
	assert.Nil(t, entries[0].ErrorMessage)
}

func TestQueryService_ExecuteRecordsFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res := svc.Execute(ctx, "SELEKT nonsense")
	require.NotEmpty(t, res.Errors)

	status := "error"
	entries, err := svc.History(ctx, domain.QueryHistoryFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "UNKNOWN", entries[0].StatementType)
	require.NotNil(t, entries[0].ErrorMessage)
	assert.Contains(t, *entries[0].ErrorMessage, "syntax error")
}

func TestQueryService_UpdatePersistsThroughStore(t *testing.T) {
	svc, writeDB := newTestService(t)
	ctx := context.Background()

	res := svc.Execute(ctx, `UPDATE FORM '`+svcFormID+`' SET FIELD("`+svcFieldID+`") = FIELD("`+svcFieldID+`") + 1 WHERE TRUE`)
	require.Empty(t, res.Errors)
	assert.Equal(t, int64(3), res.Rows[0][0])

	var count int
	err := writeDB.QueryRow(`SELECT count(*) FROM submissions WHERE json_extract(data, '$."` + svcFieldID + `"') IN (11, 21, 31)`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestQueryService_FieldsAndSubmissions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	defs, err := svc.Fields(ctx, svcFormID)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Score", defs[0].Label)

	recs, err := svc.Submissions(ctx, svcFormID)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	_, err = svc.Fields(ctx, "not-a-uuid")
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestQueryService_FunctionLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res := svc.Execute(ctx, `CREATE FUNCTION double(@x INT) RETURNS INT AS BEGIN RETURN @x * 2; END`)
	require.Empty(t, res.Errors)

	fns := svc.Functions()
	require.Len(t, fns, 1)
	assert.Equal(t, "double", fns[0].Name)

	require.NoError(t, svc.DropFunction("DOUBLE"))
	assert.Empty(t, svc.Functions())

	err := svc.DropFunction("double")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
