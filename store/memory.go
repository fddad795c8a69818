package store

import (
	"context"
	"sync"
)

// MemStore is an in-memory implementation of Store[S].
//
// Designed for:
//   - Testing and development
//   - Single-process deployments where step history does not need to
//     survive a restart
//
// MemStore is thread-safe and supports concurrent pipeline runs.
type MemStore[S any] struct {
	mu          sync.RWMutex
	steps       map[string][]StepRecord[S] // runID -> ordered steps
	checkpoints map[string]Checkpoint[S]   // checkpointID -> checkpoint
}

// NewMemStore creates a new in-memory store.
func NewMemStore[S any]() *MemStore[S] {
	return &MemStore[S]{
		steps:       make(map[string][]StepRecord[S]),
		checkpoints: make(map[string]Checkpoint[S]),
	}
}

// SaveStep appends the step to the run's history.
func (m *MemStore[S]) SaveStep(_ context.Context, runID string, step int, nodeID string, state S) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.steps[runID] = append(m.steps[runID], StepRecord[S]{
		Step:   step,
		NodeID: nodeID,
		State:  state,
	})
	return nil
}

// LoadLatest returns the record with the highest step number for the run.
func (m *MemStore[S]) LoadLatest(_ context.Context, runID string) (S, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.steps[runID]
	if len(records) == 0 {
		var zero S
		return zero, 0, ErrNotFound
	}

	latest := records[0]
	for _, record := range records[1:] {
		if record.Step > latest.Step {
			latest = record
		}
	}
	return latest.State, latest.Step, nil
}

// SaveCheckpoint stores a named snapshot, overwriting any existing
// checkpoint with the same ID.
func (m *MemStore[S]) SaveCheckpoint(_ context.Context, cpID string, state S, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[cpID] = Checkpoint[S]{ID: cpID, State: state, Step: step}
	return nil
}

// LoadCheckpoint retrieves a named snapshot.
func (m *MemStore[S]) LoadCheckpoint(_ context.Context, cpID string) (S, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, exists := m.checkpoints[cpID]
	if !exists {
		var zero S
		return zero, 0, ErrNotFound
	}
	return cp.State, cp.Step, nil
}

// StepHistory returns a copy of the run's recorded steps in save order.
// Useful for tests and debugging endpoints.
func (m *MemStore[S]) StepHistory(runID string) []StepRecord[S] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.steps[runID]
	out := make([]StepRecord[S], len(records))
	copy(out, records)
	return out
}
