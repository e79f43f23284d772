package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// DB wraps sql.DB for Postgres (pgx) or SQLite.
type DB struct {
	Client *sql.DB
	Driver string
}

// NewPostgres connects to Postgres with sane pool defaults and applies the schema.
func NewPostgres(ctx context.Context, connString string) (*DB, error) {
	db, err := sql.Open(DriverPostgres, connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return open(ctx, db, DriverPostgres)
}

// NewSQLite opens a file database. One connection keeps writers serialized.
func NewSQLite(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open(DriverSQLite, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	return open(ctx, db, DriverSQLite)
}

func open(ctx context.Context, db *sql.DB, driver string) (*DB, error) {
	d := &DB{Client: db, Driver: driver}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := d.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Migrate creates the attendance collection. The unique index on
// (teacher_id, attendance_date) is what makes one-record-per-day hold.
func (d *DB) Migrate(ctx context.Context) error {
	markedAt := "marked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()"
	if d.Driver == DriverSQLite {
		markedAt = "marked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attendance (
			id              TEXT PRIMARY KEY,
			teacher_id      TEXT NOT NULL,
			teacher_name    TEXT NOT NULL DEFAULT '',
			attendance_date TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'present',
			` + markedAt + `,
			biometric_type  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_teacher_date ON attendance (teacher_id, attendance_date)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance (attendance_date, marked_at)`,
	}
	for _, stmt := range stmts {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Healthy verifies database connectivity.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
