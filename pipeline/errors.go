package pipeline

import (
	"errors"
	"fmt"
)

// Engine configuration and execution errors.
var (
	// ErrNoStartNode indicates the engine has no start node configured.
	ErrNoStartNode = errors.New("no start node configured")

	// ErrNodeNotFound indicates a referenced node does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoRoute indicates no edge matched the current state.
	ErrNoRoute = errors.New("no valid route from node")

	// ErrMaxSteps indicates execution exceeded the step limit.
	ErrMaxSteps = errors.New("exceeded max steps")
)

// StageKind identifies which pipeline stage produced an error. Routing and
// result aggregation branch on the kind, never on message text.
type StageKind string

// Stage kinds, one per pipeline stage.
const (
	StageResearch StageKind = "research"
	StageContent  StageKind = "content"
	StageImage    StageKind = "image"
)

// stageLabels render the human-facing prefix for each stage kind.
var stageLabels = map[StageKind]string{
	StageResearch: "Research node failed",
	StageContent:  "Content node failed",
	StageImage:    "Image generation failed",
}

// StageError records a stage failure inside the workflow state. It is a
// plain value so it survives JSON round-trips through the step store.
type StageError struct {
	// Kind identifies the failing stage.
	Kind StageKind `json:"kind"`

	// Message is the underlying error text, without the stage prefix.
	Message string `json:"message"`
}

// NewStageError wraps err as a failure of the given stage.
func NewStageError(kind StageKind, err error) *StageError {
	return &StageError{Kind: kind, Message: err.Error()}
}

// Error renders the failure with its stage prefix, e.g.
// "Research node failed: model returned 2 bullet points".
func (e *StageError) Error() string {
	label, ok := stageLabels[e.Kind]
	if !ok {
		label = fmt.Sprintf("%s stage failed", e.Kind)
	}
	return fmt.Sprintf("%s: %s", label, e.Message)
}
