package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens the SQLite database at path with the pragmas every store expects.
// PRE: path is a file path or ":memory:"
// POST: returns an open pool; the schema is not yet applied
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// InitDB applies the schema.
// PRE: db is a valid database connection
// POST: all tables exist; WAL is enabled for file databases
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS client_preference (
		client_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (client_id, key)
	);

	CREATE TABLE IF NOT EXISTS admission_application (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		date_of_birth TEXT NOT NULL,
		gender TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		pincode TEXT NOT NULL DEFAULT '',
		current_class TEXT NOT NULL,
		school_name TEXT NOT NULL,
		board TEXT NOT NULL DEFAULT '',
		previous_percentage TEXT NOT NULL DEFAULT '',
		target_percentage TEXT NOT NULL DEFAULT '',
		selected_program TEXT NOT NULL,
		preferred_subjects TEXT NOT NULL,
		submitted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_admission_email ON admission_application(email);

	CREATE TABLE IF NOT EXISTS resource_usage (
		client_id TEXT NOT NULL,
		resource TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		last_opened_at TEXT NOT NULL,
		PRIMARY KEY (client_id, resource)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
