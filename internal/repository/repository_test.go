package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formquery/internal/db"
	"formquery/internal/domain"
)

const (
	testFormID  = "11111111-2222-3333-4444-555555555555"
	testFieldID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
)

func seedForm(t *testing.T, writeDB *sql.DB) {
	t.Helper()
	_, err := writeDB.Exec(`INSERT INTO forms (id, name) VALUES (?, ?)`, testFormID, "Survey")
	require.NoError(t, err)
	_, err = writeDB.Exec(`INSERT INTO form_fields (id, form_id, label, type, weightage) VALUES (?, ?, ?, ?, ?)`,
		testFieldID, testFormID, "Score", "number", 2.5)
	require.NoError(t, err)
}

func TestSubmissionRepo_InsertFetchPersist(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	seedForm(t, writeDB)
	repo := NewSubmissionRepo(writeDB, readDB)
	ctx := context.Background()

	rec := &domain.SubmissionRecord{
		ID:          domain.NewID(),
		StableRef:   domain.NewStableRef(),
		FormID:      testFormID,
		SubmittedBy: "alice",
		SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Data:        map[string]any{testFieldID: 42.0},
	}
	require.NoError(t, repo.Insert(ctx, rec))

	got, err := repo.FetchByForm(ctx, testFormID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, rec.StableRef, got[0].StableRef)
	assert.Equal(t, "alice", got[0].SubmittedBy)
	assert.Equal(t, 42.0, got[0].Data[testFieldID])
	assert.True(t, rec.SubmittedAt.Equal(got[0].SubmittedAt))

	got[0].Data[testFieldID] = 99.0
	require.NoError(t, repo.Persist(ctx, got[0]))

	again, err := repo.FetchByForm(ctx, testFormID)
	require.NoError(t, err)
	assert.Equal(t, 99.0, again[0].Data[testFieldID])
}

func TestSubmissionRepo_PersistMissing(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	repo := NewSubmissionRepo(writeDB, readDB)

	err := repo.Persist(context.Background(), &domain.SubmissionRecord{ID: "nope", Data: map[string]any{}})
	require.Error(t, err)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestSubmissionRepo_DuplicateInsert(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	seedForm(t, writeDB)
	repo := NewSubmissionRepo(writeDB, readDB)
	ctx := context.Background()

	rec := &domain.SubmissionRecord{
		ID: domain.NewID(), StableRef: domain.NewStableRef(), FormID: testFormID,
		SubmittedAt: time.Now().UTC(), Data: map[string]any{},
	}
	require.NoError(t, repo.Insert(ctx, rec))

	err := repo.Insert(ctx, rec)
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestFieldRepo_FetchByFormAndIDs(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	seedForm(t, writeDB)
	repo := NewFieldRepo(readDB)
	ctx := context.Background()

	defs, err := repo.FetchByForm(ctx, testFormID)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Score", defs[0].Label)
	assert.Equal(t, 2.5, defs[0].Weightage)

	byID, err := repo.FetchByIDs(ctx, []string{testFieldID, "missing"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, testFieldID, byID[0].ID)

	empty, err := repo.FetchByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDirectoryRepo_ListRows(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	_, err := writeDB.Exec(`INSERT INTO users (id, name, email) VALUES ('u1', 'Alice', 'alice@example.com')`)
	require.NoError(t, err)
	_, err = writeDB.Exec(`INSERT INTO groups (id, name) VALUES ('g1', 'Engineering')`)
	require.NoError(t, err)

	repo := NewDirectoryRepo(readDB)
	ctx := context.Background()

	users, err := repo.ListRows(ctx, "users")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, []string{"id", "name", "email"}, users[0].Columns)
	assert.Equal(t, "Alice", users[0].Column("name"))

	groups, err := repo.ListRows(ctx, "groups")
	require.NoError(t, err)
	require.Len(t, groups, 1)

	_, err = repo.ListRows(ctx, "submissions; DROP TABLE users")
	require.Error(t, err)
}

func TestDirectoryRepo_ListColumns(t *testing.T) {
	_, readDB := db.OpenTestSQLite(t)
	repo := NewDirectoryRepo(readDB)
	ctx := context.Background()

	cols, err := repo.ListColumns(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "email"}, cols)

	_, err = repo.ListColumns(ctx, "sqlite_master")
	require.Error(t, err)
}

func TestDirectoryRepo_FetchByID(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	_, err := writeDB.Exec(`INSERT INTO users (id, name) VALUES ('u1', 'Alice'), ('u2', 'Bob')`)
	require.NoError(t, err)

	repo := NewDirectoryRepo(readDB)
	names, err := repo.FetchByID(context.Background(), "users", []string{"u1", "u9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"u1": "Alice"}, names)
}

func TestHistoryRepo_RecordAndList(t *testing.T) {
	writeDB, readDB := db.OpenTestSQLite(t)
	repo := NewHistoryRepo(writeDB, readDB)
	ctx := context.Background()

	errMsg := "syntax error: boom"
	entries := []*domain.QueryHistoryEntry{
		{Statement: "SELECT 1", StatementType: "SELECT", Status: "success", DurationMs: 12, RowsReturned: 1},
		{Statement: "SELEKT", StatementType: "UNKNOWN", Status: "error", ErrorMessage: &errMsg},
		{Statement: "UPDATE FORM ...", StatementType: "UPDATE_FORM", Status: "success"},
	}
	for _, e := range entries {
		require.NoError(t, repo.Record(ctx, e))
		assert.NotZero(t, e.ID)
	}

	all, err := repo.List(ctx, domain.QueryHistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	status := "error"
	failed, err := repo.List(ctx, domain.QueryHistoryFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].ErrorMessage)
	assert.Equal(t, errMsg, *failed[0].ErrorMessage)

	stype := "SELECT"
	selects, err := repo.List(ctx, domain.QueryHistoryFilter{StatementType: &stype})
	require.NoError(t, err)
	require.Len(t, selects, 1)
	assert.Equal(t, int64(1), selects[0].RowsReturned)

	limited, err := repo.List(ctx, domain.QueryHistoryFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
