package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Migrate creates the schema. The ledger is the only authoritative state;
// positions and closed trades are derived at runtime and never persisted.
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS operations (
			id                     TEXT PRIMARY KEY,
			type                   TEXT NOT NULL CHECK (type IN ('ADD', 'REMOVE')),
			ticker                 TEXT NOT NULL,
			quantity               REAL NOT NULL CHECK (quantity > 0),
			price                  REAL NOT NULL CHECK (price >= 0),
			currency               TEXT,
			price_in_usd           REAL,
			exchange_rate_at_entry REAL,
			date                   TEXT NOT NULL,
			broker                 TEXT,
			created_at             TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_replay ON operations (date, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_ticker ON operations (ticker)`,
		`CREATE TABLE IF NOT EXISTS brokers (
			name TEXT PRIMARY KEY,
			debt REAL NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
