// Package store provides persistence for pipeline state snapshots.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run ID or checkpoint ID does not exist.
var ErrNotFound = errors.New("not found")

// Store persists workflow state after each pipeline step and supports named
// checkpoints. Workflow records are ephemeral per the pipeline's lifecycle;
// the step history exists for observability and post-hoc inspection, not for
// cross-request caching.
//
// Implementations: MemStore (per-process), SQLiteStore (single file),
// MySQLStore (shared deployments).
//
// Type parameter S is the state type to persist (must be JSON-serializable
// for the database-backed stores).
type Store[S any] interface {
	// SaveStep persists the state after a pipeline step. Each step is
	// identified by runID + step number.
	SaveStep(ctx context.Context, runID string, step int, nodeID string, state S) error

	// LoadLatest retrieves the most recent state for a run.
	// Returns ErrNotFound if the run has no persisted steps.
	LoadLatest(ctx context.Context, runID string) (state S, step int, err error)

	// SaveCheckpoint creates a named snapshot of workflow state.
	SaveCheckpoint(ctx context.Context, cpID string, state S, step int) error

	// LoadCheckpoint retrieves a previously saved checkpoint.
	// Returns ErrNotFound if the checkpoint does not exist.
	LoadCheckpoint(ctx context.Context, cpID string) (state S, step int, err error)
}

// StepRecord represents a single execution step in a run's history.
type StepRecord[S any] struct {
	// Step is the sequential step number (1-indexed).
	Step int

	// NodeID identifies which node produced this state.
	NodeID string

	// State is the workflow state after this step completed.
	State S
}

// Checkpoint represents a named snapshot of workflow state.
type Checkpoint[S any] struct {
	// ID is the unique checkpoint identifier.
	ID string

	// State is the snapshotted workflow state.
	State S

	// Step is the step number when this checkpoint was created.
	Step int
}
