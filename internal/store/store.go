// Package store persists search runs and their results in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"neutrino/internal/content"
	"neutrino/internal/search"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run describes one recorded search.
type Run struct {
	ID         string
	Root       string
	Glob       string
	Pattern    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
	Stats      search.StatsSnapshot
}

// Store is a SQLite-backed results database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path. Use ":memory:" for a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun records the start of a search and returns its id.
func (s *Store) BeginRun(ctx context.Context, root, glob, pattern string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, root, glob, pattern, started_at) VALUES (?, ?, ?, ?, ?)",
		id, root, glob, pattern, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// AddResult stores one search result under runID.
func (s *Store) AddResult(ctx context.Context, runID string, r search.SearchResult) error {
	var spans sql.NullString
	if r.Matches != nil {
		data, err := json.Marshal(r.Matches)
		if err != nil {
			return fmt.Errorf("marshaling spans: %w", err)
		}
		spans = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO results (run_id, path, full_path, kind, size, spans_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, r.Path, r.FullPath, r.Kind.String(), r.Size, spans)
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}
	return nil
}

// FinishRun stamps the run as finished and stores its final counters.
func (s *Store) FinishRun(ctx context.Context, runID string, stats search.StatsSnapshot) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, stats_json = ? WHERE id = ?",
		time.Now().UTC().UnixNano(), string(data), runID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root, glob, pattern, started_at, finished_at, stats_json
		FROM runs ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Run returns a single run by id.
func (s *Store) Run(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, root, glob, pattern, started_at, finished_at, stats_json
		FROM runs WHERE id = ?
	`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// Results returns the stored results of a run ordered by path.
func (s *Store) Results(ctx context.Context, runID string) ([]search.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, full_path, kind, size, spans_json
		FROM results WHERE run_id = ? ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []search.SearchResult
	for rows.Next() {
		var (
			r     search.SearchResult
			kind  string
			spans sql.NullString
		)
		if err := rows.Scan(&r.Path, &r.FullPath, &kind, &r.Size, &spans); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if kind == search.Matched.String() {
			r.Kind = search.Matched
		}
		if spans.Valid {
			var m []content.MatchResult
			if err := json.Unmarshal([]byte(spans.String), &m); err != nil {
				return nil, fmt.Errorf("unmarshaling spans: %w", err)
			}
			r.Matches = m
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		started  int64
		finished sql.NullInt64
		stats    sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Root, &run.Glob, &run.Pattern, &started, &finished, &stats); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	run.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		run.FinishedAt = time.Unix(0, finished.Int64).UTC()
	}
	if stats.Valid {
		if err := json.Unmarshal([]byte(stats.String), &run.Stats); err != nil {
			return Run{}, fmt.Errorf("unmarshaling stats: %w", err)
		}
	}
	return run, nil
}
