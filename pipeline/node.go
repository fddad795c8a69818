package pipeline

import "context"

// Node represents a processing unit in the pipeline graph.
// It receives state of type S, performs computation, and returns a NodeResult.
//
// Each node can:
//   - Access the current state
//   - Perform computation (call generation collaborators, file IO)
//   - Return state modifications via Delta
//   - Control routing via Route (or defer to edge predicates)
//
// Nodes never decide workflow termination on error; they record stage
// failures into their Delta and the engine's edges make the continue/abort
// decision centrally.
//
// Type parameter S is the state type shared across the pipeline.
type Node[S any] interface {
	// Run executes the node's logic with the given context and state.
	Run(ctx context.Context, state S) NodeResult[S]
}

// NodeResult represents the output of a node execution.
type NodeResult[S any] struct {
	// Delta is the partial state update produced by this node.
	// It is merged with the current state using the configured reducer.
	Delta S

	// Route specifies the next step in execution. Use Stop() for terminal
	// nodes or Goto(id) for explicit routing; the zero value defers to
	// edge-based routing.
	Route Next

	// Err contains an engine-level error. Stage failures belong in Delta,
	// not here; a non-nil Err halts the run immediately.
	Err error
}

// Next specifies the next step in pipeline execution after a node completes.
type Next struct {
	// To specifies the next node to execute. Mutually exclusive with Terminal.
	To string

	// Terminal indicates pipeline execution should stop.
	Terminal bool
}

// Stop returns a Next that terminates pipeline execution.
func Stop() Next {
	return Next{Terminal: true}
}

// Goto returns a Next that routes to the specified node.
func Goto(nodeID string) Next {
	return Next{To: nodeID}
}

// NodeFunc is a function adapter that implements the Node interface.
// It allows using plain functions as nodes without creating custom types.
type NodeFunc[S any] func(ctx context.Context, state S) NodeResult[S]

// Run implements the Node interface for NodeFunc.
func (f NodeFunc[S]) Run(ctx context.Context, state S) NodeResult[S] {
	return f(ctx, state)
}
