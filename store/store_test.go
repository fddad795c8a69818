package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type testState struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// storeContract exercises the Store interface behaviors shared by all
// implementations.
func storeContract(t *testing.T, s Store[testState]) {
	t.Helper()
	ctx := context.Background()

	if _, _, err := s.LoadLatest(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadLatest(missing) = %v, want ErrNotFound", err)
	}
	if _, _, err := s.LoadCheckpoint(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadCheckpoint(missing) = %v, want ErrNotFound", err)
	}

	if err := s.SaveStep(ctx, "run-1", 1, "research", testState{Topic: "AI", Count: 1}); err != nil {
		t.Fatalf("SaveStep: %v", err)
	}
	if err := s.SaveStep(ctx, "run-1", 2, "content", testState{Topic: "AI", Count: 2}); err != nil {
		t.Fatalf("SaveStep: %v", err)
	}
	if err := s.SaveStep(ctx, "run-2", 1, "research", testState{Topic: "other", Count: 10}); err != nil {
		t.Fatalf("SaveStep: %v", err)
	}

	state, step, err := s.LoadLatest(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if step != 2 || state.Count != 2 || state.Topic != "AI" {
		t.Errorf("latest = %+v at step %d", state, step)
	}

	// Runs are isolated.
	state, _, err = s.LoadLatest(ctx, "run-2")
	if err != nil || state.Topic != "other" {
		t.Errorf("run-2 latest = %+v, %v", state, err)
	}

	if err := s.SaveCheckpoint(ctx, "cp-1", testState{Topic: "AI", Count: 2}, 2); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	cpState, cpStep, err := s.LoadCheckpoint(ctx, "cp-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if cpStep != 2 || cpState.Count != 2 {
		t.Errorf("checkpoint = %+v at step %d", cpState, cpStep)
	}

	// Same checkpoint ID overwrites.
	if err := s.SaveCheckpoint(ctx, "cp-1", testState{Topic: "AI", Count: 5}, 3); err != nil {
		t.Fatalf("SaveCheckpoint overwrite: %v", err)
	}
	cpState, cpStep, _ = s.LoadCheckpoint(ctx, "cp-1")
	if cpStep != 3 || cpState.Count != 5 {
		t.Errorf("overwritten checkpoint = %+v at step %d", cpState, cpStep)
	}
}

func TestMemStore(t *testing.T) {
	storeContract(t, NewMemStore[testState]())
}

func TestMemStoreStepHistory(t *testing.T) {
	m := NewMemStore[testState]()
	ctx := context.Background()

	_ = m.SaveStep(ctx, "run-1", 1, "research", testState{Count: 1})
	_ = m.SaveStep(ctx, "run-1", 2, "content", testState{Count: 2})

	history := m.StepHistory("run-1")
	if len(history) != 2 {
		t.Fatalf("history = %d records", len(history))
	}
	if history[0].NodeID != "research" || history[1].NodeID != "content" {
		t.Errorf("history order: %q, %q", history[0].NodeID, history[1].NodeID)
	}

	// The copy must not alias internal state.
	history[0].NodeID = "mutated"
	if m.StepHistory("run-1")[0].NodeID != "research" {
		t.Error("StepHistory exposed internal slice")
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore[testState](filepath.Join(t.TempDir(), "steps.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	storeContract(t, s)
}

func TestSQLiteStoreStepOverwrite(t *testing.T) {
	s, err := NewSQLiteStore[testState](filepath.Join(t.TempDir(), "steps.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	// Saving the same run+step twice keeps the last write.
	if err := s.SaveStep(ctx, "run-1", 1, "research", testState{Count: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveStep(ctx, "run-1", 1, "research", testState{Count: 9}); err != nil {
		t.Fatal(err)
	}

	state, step, err := s.LoadLatest(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if step != 1 || state.Count != 9 {
		t.Errorf("latest = %+v at step %d", state, step)
	}
}
