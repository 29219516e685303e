package store

import (
	"database/sql"
	"fmt"
)

func createSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			glob TEXT NOT NULL,
			pattern TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			stats_json TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("creating runs table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			full_path TEXT NOT NULL,
			kind TEXT NOT NULL,
			size INTEGER NOT NULL,
			spans_json TEXT,
			UNIQUE(run_id, path)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating results table: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id)"); err != nil {
		return fmt.Errorf("creating results index: %w", err)
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
	}
	return err
}
