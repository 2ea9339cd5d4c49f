package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists compiled templates in a SQLite database so a cache
// survives restarts of the CLI.
type SQLiteStore struct {
	db        *sql.DB
	tableName string
	ownsDB    bool
}

// SQLiteConfig holds SQLite store configuration
type SQLiteConfig struct {
	// Path of the database file; ":memory:" keeps it in process
	Path      string
	TableName string
}

// DefaultSQLiteConfig returns default SQLite configuration
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path:      filepath.Join(".stencil", "cache.db"),
		TableName: "compile_cache",
	}
}

// OpenSQLiteStore opens (creating if needed) the database at config.Path
func OpenSQLiteStore(config SQLiteConfig) (*SQLiteStore, error) {
	if config.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if config.Path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store, err := NewSQLiteStore(db, config.TableName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.ownsDB = true
	return store, nil
}

// NewSQLiteStore uses an open database, creating the table if needed.
// Close does not close db.
func NewSQLiteStore(db *sql.DB, tableName string) (*SQLiteStore, error) {
	if tableName == "" {
		tableName = "compile_cache"
	}
	store := &SQLiteStore{db: db, tableName: tableName}

	if err := store.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", tableName, err)
	}
	return store, nil
}

func (s *SQLiteStore) createTable() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		filename TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`, s.tableName)

	_, err := s.db.Exec(query)
	return err
}

// Get retrieves an entry
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	query := fmt.Sprintf(`SELECT filename, payload, created_at FROM %s WHERE key = ?`, s.tableName)

	entry := Entry{Key: key}
	var created int64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&entry.Filename, &entry.Payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("database query error: %w", err)
	}

	entry.CreatedAt = time.Unix(0, created)
	return &entry, true, nil
}

// Set inserts or replaces an entry
func (s *SQLiteStore) Set(ctx context.Context, key string, entry *Entry) error {
	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (key, filename, payload, created_at) VALUES (?, ?, ?, ?)`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, key, entry.Filename, entry.Payload, created.UnixNano()); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes an entry
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.tableName)
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

// Clear removes every entry
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.tableName))
	return err
}

// Prune removes entries created before now-maxAge
func (s *SQLiteStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < ?`, s.tableName)
	res, err := s.db.ExecContext(ctx, query, time.Now().Add(-maxAge).UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database if the store opened it
func (s *SQLiteStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
