package pipeline

// Predicate determines if an edge should be followed based on current state.
// Returns true if the edge's destination should be the next node.
type Predicate[S any] func(state S) bool

// Edge represents a directed connection between two nodes.
// Edges are evaluated in the order they were added; an edge with a nil
// predicate always matches, so unconditional fallbacks go last.
type Edge[S any] struct {
	// From is the source node ID.
	From string

	// To is the destination node ID.
	To string

	// Predicate determines if this edge should be followed.
	// A nil predicate means the edge is unconditional.
	Predicate Predicate[S]
}

// Matches reports whether this edge should be followed for the given state.
func (e Edge[S]) Matches(state S) bool {
	return e.Predicate == nil || e.Predicate(state)
}
