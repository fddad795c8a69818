package emit

// Event represents an observability event emitted during pipeline execution.
//
// Events cover the full lifecycle of a generation run:
//   - Workflow start/success/error
//   - Stage start/success/error (research, content, image)
//   - Publishing attempts
//
// Events are delivered to an Emitter which can log them, turn them into
// OpenTelemetry spans, buffer them for live progress streams, or drop them.
type Event struct {
	// RunID identifies the pipeline execution that emitted this event.
	RunID string

	// Step is the sequential step number in the pipeline (1-indexed).
	// Zero for workflow-level events (workflow_start, workflow_error, ...).
	Step int

	// Stage names the pipeline stage that emitted this event
	// ("research", "content", "image"). Empty for workflow-level events.
	Stage string

	// Kind classifies the event. Use the Event* constants.
	Kind string

	// Msg is a human-readable description of the event.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_seconds": execution duration
	//   - "error": error details
	//   - "platform", "tone", "topic": request parameters
	//   - "word_count": content stage output size
	Meta map[string]interface{}
}

// Event kind constants. Stage events carry the stage name in Event.Stage.
const (
	EventWorkflowStart   = "workflow_start"
	EventWorkflowSuccess = "workflow_success"
	EventWorkflowError   = "workflow_error"
	EventStageStart      = "stage_start"
	EventStageSuccess    = "stage_success"
	EventStageError      = "stage_error"
	EventPublishStart    = "publish_start"
	EventPublishSuccess  = "publish_success"
	EventPublishError    = "publish_error"
)
