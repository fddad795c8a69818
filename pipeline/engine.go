package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/socialflow-ai/socialflow/emit"
	"github.com/socialflow-ai/socialflow/store"
)

// Reducer merges a partial state update into the current state.
// It must be deterministic: the same inputs always produce the same output.
type Reducer[S any] func(current, delta S) S

// Options configures Engine execution behavior. Zero values are valid;
// MaxSteps of 0 means no step limit.
type Options struct {
	// MaxSteps limits execution to prevent infinite loops through cyclic
	// edges. The content pipeline is a DAG, so a small limit suffices.
	MaxSteps int
}

// Engine executes a graph of nodes over a shared state of type S.
//
// The engine:
//   - runs nodes sequentially starting from the configured start node
//   - merges each node's delta into the state via the reducer
//   - persists the merged state after every step
//   - emits a step event per node
//   - routes via NodeResult.Route first, then ordered edge predicates
//   - respects context cancellation between steps
type Engine[S any] struct {
	mu sync.RWMutex

	reducer   Reducer[S]
	nodes     map[string]Node[S]
	edges     []Edge[S]
	startNode string
	store     store.Store[S]
	emitter   emit.Emitter
	opts      Options
}

// New creates an Engine. The emitter may be nil; reducer and store are
// validated at Run time so construction order stays flexible.
func New[S any](reducer Reducer[S], st store.Store[S], emitter emit.Emitter, opts Options) *Engine[S] {
	return &Engine[S]{
		reducer: reducer,
		nodes:   make(map[string]Node[S]),
		store:   st,
		emitter: emitter,
		opts:    opts,
	}
}

// Add registers a node under a unique ID.
func (e *Engine[S]) Add(nodeID string, node Node[S]) error {
	if nodeID == "" {
		return fmt.Errorf("node ID cannot be empty")
	}
	if node == nil {
		return fmt.Errorf("node %q cannot be nil", nodeID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; exists {
		return fmt.Errorf("duplicate node ID: %s", nodeID)
	}
	e.nodes[nodeID] = node
	return nil
}

// StartAt sets the entry node. The node must already be registered.
func (e *Engine[S]) StartAt(nodeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.nodes[nodeID]; !exists {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	e.startNode = nodeID
	return nil
}

// Connect adds an edge from one node to another. A nil predicate makes the
// edge unconditional. Edges are evaluated in insertion order and the first
// match wins, so register conditional edges before their fallback.
func (e *Engine[S]) Connect(from, to string, predicate Predicate[S]) error {
	if from == "" || to == "" {
		return fmt.Errorf("edge endpoints cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.edges = append(e.edges, Edge[S]{From: from, To: to, Predicate: predicate})
	return nil
}

// Run executes the graph from the start node until a node stops the run,
// returning the final merged state.
func (e *Engine[S]) Run(ctx context.Context, runID string, initial S) (S, error) {
	var zero S
	if err := e.validate(); err != nil {
		return zero, err
	}
	return e.run(ctx, runID, e.startNode, initial)
}

// SaveCheckpoint snapshots the latest persisted state of a run under cpID,
// so a later run can branch from it.
func (e *Engine[S]) SaveCheckpoint(ctx context.Context, runID, cpID string) error {
	state, step, err := e.store.LoadLatest(ctx, runID)
	if err != nil {
		return fmt.Errorf("cannot checkpoint run %s: %w", runID, err)
	}
	if err := e.store.SaveCheckpoint(ctx, cpID, state, step); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cpID, err)
	}
	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID: runID,
			Step:  step,
			Kind:  "checkpoint_saved",
			Msg:   "checkpoint saved: " + cpID,
			Meta:  map[string]interface{}{"checkpoint_id": cpID},
		})
	}
	return nil
}

// ResumeFromCheckpoint starts a new run from a checkpointed state at the
// given node.
func (e *Engine[S]) ResumeFromCheckpoint(ctx context.Context, cpID, newRunID, startNode string) (S, error) {
	var zero S
	if err := e.validate(); err != nil {
		return zero, err
	}

	state, cpStep, err := e.store.LoadCheckpoint(ctx, cpID)
	if err != nil {
		return zero, fmt.Errorf("cannot resume from checkpoint %s: %w", cpID, err)
	}

	if e.emitter != nil {
		e.emitter.Emit(emit.Event{
			RunID: newRunID,
			Kind:  "checkpoint_resumed",
			Msg:   "resuming from checkpoint: " + cpID,
			Meta: map[string]interface{}{
				"checkpoint_id":   cpID,
				"checkpoint_step": cpStep,
			},
		})
	}

	return e.run(ctx, newRunID, startNode, state)
}

func (e *Engine[S]) validate() error {
	if e.reducer == nil {
		return fmt.Errorf("reducer is required")
	}
	if e.store == nil {
		return fmt.Errorf("store is required")
	}
	if e.startNode == "" {
		return ErrNoStartNode
	}
	return nil
}

// run is the shared execution loop behind Run and ResumeFromCheckpoint.
func (e *Engine[S]) run(ctx context.Context, runID, startNode string, initial S) (S, error) {
	var zero S

	current := initial
	nodeID := startNode

	for step := 1; ; step++ {
		if e.opts.MaxSteps > 0 && step > e.opts.MaxSteps {
			return zero, fmt.Errorf("%w (%d)", ErrMaxSteps, e.opts.MaxSteps)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		e.mu.RLock()
		node, exists := e.nodes[nodeID]
		e.mu.RUnlock()
		if !exists {
			return zero, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
		}

		result := node.Run(ctx, current)
		if result.Err != nil {
			return zero, result.Err
		}

		current = e.reducer(current, result.Delta)

		if err := e.store.SaveStep(ctx, runID, step, nodeID, current); err != nil {
			return zero, fmt.Errorf("save step %d: %w", step, err)
		}

		if e.emitter != nil {
			e.emitter.Emit(emit.Event{
				RunID: runID,
				Step:  step,
				Stage: nodeID,
				Kind:  "step_complete",
				Msg:   "node completed",
			})
		}

		switch {
		case result.Route.Terminal:
			return current, nil
		case result.Route.To != "":
			nodeID = result.Route.To
		default:
			next := e.nextEdge(nodeID, current)
			if next == "" {
				return zero, fmt.Errorf("%w: %s", ErrNoRoute, nodeID)
			}
			nodeID = next
		}
	}
}

// nextEdge returns the destination of the first matching edge out of
// fromNode, or "" when none match.
func (e *Engine[S]) nextEdge(fromNode string, state S) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, edge := range e.edges {
		if edge.From != fromNode {
			continue
		}
		if edge.Matches(state) {
			return edge.To
		}
	}
	return ""
}
