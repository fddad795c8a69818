package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store[S].
//
// It stores step history and checkpoints in a single-file database.
// Designed for:
//   - Development and single-host deployments with zero setup
//   - Keeping run history across restarts without a database server
//
// The store enables WAL mode for concurrent reads and auto-migrates its
// schema on first use.
type SQLiteStore[S any] struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite-backed store at the given path.
// Use ":memory:" for an in-memory database (data lost on close).
func NewSQLiteStore[S any](path string) (*SQLiteStore[S], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore[S]{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore[S]) createTables(ctx context.Context) error {
	stepsTable := `
		CREATE TABLE IF NOT EXISTS pipeline_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			state TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(run_id, step)
		)
	`
	if _, err := s.db.ExecContext(ctx, stepsTable); err != nil {
		return fmt.Errorf("failed to create pipeline_steps table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_pipeline_steps_run ON pipeline_steps(run_id, step)"); err != nil {
		return fmt.Errorf("failed to create idx_pipeline_steps_run: %w", err)
	}

	checkpointsTable := `
		CREATE TABLE IF NOT EXISTS pipeline_checkpoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			checkpoint_id TEXT NOT NULL UNIQUE,
			state TEXT NOT NULL,
			step INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, checkpointsTable); err != nil {
		return fmt.Errorf("failed to create pipeline_checkpoints table: %w", err)
	}
	return nil
}

// SaveStep persists the state after a pipeline step.
func (s *SQLiteStore[S]) SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO pipeline_steps (run_id, step, node_id, state) VALUES (?, ?, ?, ?)",
		runID, step, nodeID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}
	return nil
}

// LoadLatest retrieves the most recent state for a run.
func (s *SQLiteStore[S]) LoadLatest(ctx context.Context, runID string) (S, int, error) {
	var zero S

	var data string
	var step int
	err := s.db.QueryRowContext(ctx,
		"SELECT state, step FROM pipeline_steps WHERE run_id = ? ORDER BY step DESC LIMIT 1",
		runID).Scan(&data, &step)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, fmt.Errorf("failed to load latest step: %w", err)
	}

	var state S
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, step, nil
}

// SaveCheckpoint creates or replaces a named snapshot.
func (s *SQLiteStore[S]) SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO pipeline_checkpoints (checkpoint_id, state, step) VALUES (?, ?, ?)",
		cpID, string(data), step)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint retrieves a named snapshot.
func (s *SQLiteStore[S]) LoadCheckpoint(ctx context.Context, cpID string) (S, int, error) {
	var zero S

	var data string
	var step int
	err := s.db.QueryRowContext(ctx,
		"SELECT state, step FROM pipeline_checkpoints WHERE checkpoint_id = ?",
		cpID).Scan(&data, &step)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, 0, ErrNotFound
	}
	if err != nil {
		return zero, 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	var state S
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return zero, 0, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, step, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore[S]) Close() error {
	return s.db.Close()
}
