// Package sqlstore provides a database/sql implementation of storage.Store for
// SQLite (default, pure Go) and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

const (
	maxTxAttempts  = 5
	initialBackoff = 10 * time.Millisecond
)

// Store implements storage.Store on top of database/sql.
type Store struct {
	*queries
	db      *sql.DB
	dialect *dialect
}

// Open connects to the database and runs migrations automatically.
// For SQLite the dsn is a file path (parent directories are created).
// For MySQL it is a go-sql-driver DSN, e.g. "user:pass@tcp(host:3306)/ledger".
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := d.open(dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(ctx, db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		queries: &queries{db: db, dialect: d},
		db:      db,
		dialect: d,
	}, nil
}

// OpenSQLite is shorthand for Open with the SQLite driver.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	return Open(ctx, DriverSQLite, path)
}

// Driver returns the name of the backend in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

// SchemaVersion returns the latest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return schemaVersion(ctx, s.db)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn in a transaction, retrying on lock conflicts (SQLITE_BUSY,
// InnoDB deadlocks and lock-wait timeouts) with exponential backoff.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, q storage.Queries) error) error {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil || attempt >= maxTxAttempts || !s.dialect.isRetryable(err) {
			return err
		}

		slog.Warn("Transaction conflict, retrying",
			"attempt", attempt,
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context, q storage.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &queries{db: tx, dialect: s.dialect}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements storage.Queries against either the pool or a transaction.
type queries struct {
	db      dbtx
	dialect *dialect
}

// insertErr classifies an insert failure.
func (q *queries) insertErr(what string, err error) error {
	if q.dialect.isDuplicate(err) {
		return fmt.Errorf("failed to insert %s: %w: %v", what, storage.ErrDuplicate, err)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
