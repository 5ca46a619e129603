// Package storage persists transactions and categories in SQLite.
//
// A single DB handle is opened at process start and closed at shutdown.
// Every store call borrows its own connection from that handle and returns
// it before the call ends, whatever the outcome.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"moneytracker/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const driverName = "sqlite"

// DB is the injected storage handle shared by the stores.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database file at dbPath. The schema
// must already be migrated with RunMigrations.
func Open(ctx context.Context, dbPath string) (*DB, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{db: db, path: dbPath}, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Ping reports whether the medium is reachable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return core.StorageError("ping", err)
	}
	return nil
}

// withConn runs fn on a connection scoped to this call. Errors from the
// driver are mapped to core.ErrStorage unless fn already classified them.
func (d *DB) withConn(ctx context.Context, op string, fn func(q *Queries) error) error {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return core.StorageError(op, err)
	}
	defer conn.Close()

	return classify(op, fn(New(conn)))
}

// withTx is withConn inside a single SQL transaction.
func (d *DB) withTx(ctx context.Context, op string, fn func(q *Queries) error) error {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return core.StorageError(op, err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return core.StorageError(op, err)
	}
	if err := fn(New(tx)); err != nil {
		tx.Rollback()
		return classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return core.StorageError(op, err)
	}
	return nil
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrConflict) || errors.Is(err, core.ErrStorage) {
		return err
	}
	return core.StorageError(op, err)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

func ensureDir(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db directory: %w", err)
	}
	return nil
}
