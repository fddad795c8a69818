package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL implementation of Store[S] for shared deployments
// where several pipeline hosts record into one database.
//
// The DSN must include parseTime=true, e.g.
//
//	user:pass@tcp(localhost:3306)/socialflow?parseTime=true
type MySQLStore[S any] struct {
	db *sql.DB
}

// NewMySQLStore creates a new MySQL-backed store and migrates its schema.
func NewMySQLStore[S any](dsn string) (*MySQLStore[S], error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore[S]{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLStore[S]) createTables(ctx context.Context) error {
	stepsTable := `
		CREATE TABLE IF NOT EXISTS pipeline_steps (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(64) NOT NULL,
			step INT NOT NULL,
			node_id VARCHAR(64) NOT NULL,
			state JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_run_step (run_id, step),
			KEY idx_run (run_id)
		)
	`
	if _, err := s.db.ExecContext(ctx, stepsTable); err != nil {
		return fmt.Errorf("failed to create pipeline_steps table: %w", err)
	}

	checkpointsTable := `
		CREATE TABLE IF NOT EXISTS pipeline_checkpoints (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			checkpoint_id VARCHAR(128) NOT NULL UNIQUE,
			state JSON NOT NULL,
			step INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, checkpointsTable); err != nil {
		return fmt.Errorf("failed to create pipeline_checkpoints table: %w", err)
	}
	return nil
}

// SaveStep persists the state after a pipeline step.
func (s *MySQLStore[S]) SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_steps (run_id, step, node_id, state)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE node_id = VALUES(node_id), state = VALUES(state)`,
		runID, step, nodeID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}
	return nil
}

// LoadLatest retrieves the most recent state for a run.
func (s *MySQLStore[S]) LoadLatest(ctx context.Context, runID string) (S, int, error) {
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
func (s *MySQLStore[S]) SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_checkpoints (checkpoint_id, state, step)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE state = VALUES(state), step = VALUES(step)`,
		cpID, string(data), step)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint retrieves a named snapshot.
func (s *MySQLStore[S]) LoadCheckpoint(ctx context.Context, cpID string) (S, int, error) {
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
func (s *MySQLStore[S]) Close() error {
	return s.db.Close()
}
