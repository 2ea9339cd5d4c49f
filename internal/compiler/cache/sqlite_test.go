package cache

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewSQLiteStore_CreatesTable(t *testing.T) {
	db := setupTestDB(t)
	_, err := NewSQLiteStore(db, "")
	require.NoError(t, err)

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='compile_cache'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "compile_cache", name)
}

func TestSQLiteStore_SetGet(t *testing.T) {
	store, err := NewSQLiteStore(setupTestDB(t), "compile_cache")
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	created := time.Unix(1700000000, 0)
	require.NoError(t, store.Set(ctx, "k", &Entry{Filename: "a.html", Payload: []byte(`{}`), CreatedAt: created}))

	entry, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.html", entry.Filename)
	assert.Equal(t, []byte(`{}`), entry.Payload)
	assert.True(t, created.Equal(entry.CreatedAt))

	// replacing keeps one row
	require.NoError(t, store.Set(ctx, "k", &Entry{Filename: "b.html", Payload: []byte(`[]`)}))
	entry, _, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b.html", entry.Filename)
}

func TestSQLiteStore_DeleteClearPrune(t *testing.T) {
	store, err := NewSQLiteStore(setupTestDB(t), "")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "old", &Entry{Payload: []byte("1"), CreatedAt: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, store.Set(ctx, "new", &Entry{Payload: []byte("2")}))
	require.NoError(t, store.Set(ctx, "gone", &Entry{Payload: []byte("3")}))

	require.NoError(t, store.Delete(ctx, "gone"))
	_, ok, _ := store.Get(ctx, "gone")
	assert.False(t, ok)

	pruned, err := store.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	require.NoError(t, store.Clear(ctx))
	_, ok, _ = store.Get(ctx, "new")
	assert.False(t, ok)
}

func TestOpenSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	store, err := OpenSQLiteStore(SQLiteConfig{Path: path, TableName: "compile_cache"})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", &Entry{Payload: []byte("x")}))
	require.NoError(t, store.Close())

	// entries survive reopening
	store, err = OpenSQLiteStore(SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer store.Close()
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteStore_QueryContract(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS templates`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR REPLACE INTO templates (key, filename, payload, created_at) VALUES (?, ?, ?, ?)`)).
		WithArgs("k", "a.html", []byte("{}"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT filename, payload, created_at FROM templates WHERE key = ?`)).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"filename", "payload", "created_at"}).
			AddRow("a.html", []byte("{}"), int64(42)))

	store, err := NewSQLiteStore(db, "templates")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", &Entry{Filename: "a.html", Payload: []byte("{}")}))

	entry, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), entry.CreatedAt.UnixNano())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT filename`).WillReturnError(errors.New("disk I/O error"))

	store, err := NewSQLiteStore(db, "")
	require.NoError(t, err)

	_, ok, err := store.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "disk I/O error")
}

func TestNewSQLiteStore_CreateFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("read-only database"))
	_, err = NewSQLiteStore(db, "")
	assert.ErrorContains(t, err, "failed to create compile_cache table")
}
