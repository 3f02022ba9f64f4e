package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "moneybot/internal/errors"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ DataStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:  db,
		now: time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One conversation session per chat user
	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		context TEXT NOT NULL DEFAULT '{}',
		updated_at DATETIME NOT NULL
	);

	-- Learned keyword to category mappings
	CREATE TABLE IF NOT EXISTS keywords (
		user_id TEXT NOT NULL,
		keyword TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL DEFAULT '',
		usage_count INTEGER NOT NULL DEFAULT 1,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, keyword)
	);

	-- Income and expense entries
	CREATE TABLE IF NOT EXISTS ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	-- Equity holdings
	CREATE TABLE IF NOT EXISTS holdings (
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		quantity TEXT NOT NULL,
		avg_price TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, symbol)
	);

	-- Price alerts
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		alert_type TEXT NOT NULL,
		threshold TEXT,
		target_price TEXT,
		direction TEXT NOT NULL DEFAULT '',
		reference_price TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		last_triggered DATETIME,
		trigger_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	-- Notifications recorded for users
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		alert_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_ledger_user_created ON ledger(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_user_kind ON ledger(user_id, kind);
	CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts(user_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts(is_active);
	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type txKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *SQLiteStore) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// InTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin_tx", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistErr("commit", err)
	}
	return nil
}

func persistErr(op string, err error) error {
	return apperrors.NewPersistenceError("sqlite", op, fmt.Errorf("%w: %v", apperrors.ErrDatabaseError, err))
}

func checkAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr(op, err)
	}
	if n == 0 {
		return apperrors.NewPersistenceError("sqlite", op, apperrors.ErrNotFound)
	}
	return nil
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
