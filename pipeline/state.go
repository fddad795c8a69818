package pipeline

import "github.com/socialflow-ai/socialflow/stage"

// WorkflowState is the shared record flowing through the pipeline. Each
// stage node contributes a delta touching only its own request/response
// pair (plus Err on failure); mergeState folds deltas into the canonical
// state between steps.
//
// The full struct is JSON-serializable so the step store can persist a
// snapshot after every node.
type WorkflowState struct {
	// RunID identifies this workflow execution.
	RunID string `json:"run_id"`

	// Immutable inputs, set once before the first node runs.
	Topic    string         `json:"topic"`
	Platform stage.Platform `json:"platform"`
	Tone     stage.Tone     `json:"tone"`

	// Per-stage requests and responses. Nil until the owning stage runs;
	// a stage that fails leaves its response nil.
	ResearchRequest  *stage.ResearchRequest  `json:"research_request,omitempty"`
	ResearchResponse *stage.ResearchResponse `json:"research_response,omitempty"`
	ContentRequest   *stage.ContentRequest   `json:"content_request,omitempty"`
	ContentResponse  *stage.ContentResponse  `json:"content_response,omitempty"`
	ImageRequest     *stage.ImageRequest     `json:"image_request,omitempty"`
	ImageResponse    *stage.ImageResponse    `json:"image_response,omitempty"`

	// Err records the first stage failure, if any. At most one stage can
	// fail per run because research and content failures stop the pipeline
	// and an image failure is terminal anyway.
	Err *StageError `json:"error,omitempty"`
}

// NewWorkflowState returns the initial state for a run.
func NewWorkflowState(runID, topic string, platform stage.Platform, tone stage.Tone) WorkflowState {
	return WorkflowState{
		RunID:    runID,
		Topic:    topic,
		Platform: platform,
		Tone:     tone,
	}
}

// mergeState folds a node delta into the current state. Pointer fields win
// when non-nil; scalar inputs win when non-empty. Nodes only ever populate
// the fields they own, so last-writer-wins is safe here.
func mergeState(current, delta WorkflowState) WorkflowState {
	if delta.RunID != "" {
		current.RunID = delta.RunID
	}
	if delta.Topic != "" {
		current.Topic = delta.Topic
	}
	if delta.Platform != "" {
		current.Platform = delta.Platform
	}
	if delta.Tone != "" {
		current.Tone = delta.Tone
	}
	if delta.ResearchRequest != nil {
		current.ResearchRequest = delta.ResearchRequest
	}
	if delta.ResearchResponse != nil {
		current.ResearchResponse = delta.ResearchResponse
	}
	if delta.ContentRequest != nil {
		current.ContentRequest = delta.ContentRequest
	}
	if delta.ContentResponse != nil {
		current.ContentResponse = delta.ContentResponse
	}
	if delta.ImageRequest != nil {
		current.ImageRequest = delta.ImageRequest
	}
	if delta.ImageResponse != nil {
		current.ImageResponse = delta.ImageResponse
	}
	if delta.Err != nil {
		current.Err = delta.Err
	}
	return current
}
