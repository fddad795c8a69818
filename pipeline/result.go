package pipeline

import "github.com/socialflow-ai/socialflow/stage"

// Result is the aggregated outcome of a workflow run, shaped for API and
// CLI consumers.
//
// Success is true whenever content was generated, even if the image stage
// failed afterwards; in that case GeneratedImagePath stays nil and the
// image error appears only in Metadata.ImageError.
type Result struct {
	Success              bool            `json:"success"`
	RunID                string          `json:"run_id"`
	Topic                string          `json:"topic"`
	Platform             stage.Platform  `json:"platform"`
	Tone                 stage.Tone      `json:"tone"`
	ResearchBulletPoints []string        `json:"research_bullet_points,omitempty"`
	GeneratedContent     string          `json:"generated_content,omitempty"`
	WordCount            int             `json:"word_count,omitempty"`
	GeneratedImagePath   *string         `json:"generated_image_path"`
	ExecutionTimeSeconds float64         `json:"execution_time_seconds"`
	Error                string          `json:"error,omitempty"`
	Metadata             *ResultMetadata `json:"metadata,omitempty"`
}

// ResultMetadata carries per-stage provenance for successful runs.
type ResultMetadata struct {
	ResearchMetadata map[string]interface{} `json:"research_metadata,omitempty"`
	ContentMetadata  map[string]interface{} `json:"content_metadata,omitempty"`
	ImageMetadata    map[string]interface{} `json:"image_metadata,omitempty"`
	ImageError       string                 `json:"image_error,omitempty"`
}

// buildResult folds a final workflow state into the consumer-facing shape.
func buildResult(state WorkflowState, elapsedSeconds float64) Result {
	res := Result{
		RunID:                state.RunID,
		Topic:                state.Topic,
		Platform:             state.Platform,
		Tone:                 state.Tone,
		ExecutionTimeSeconds: elapsedSeconds,
	}

	// A research or content failure fails the whole run.
	if state.Err != nil && state.Err.Kind != StageImage {
		res.Error = state.Err.Error()
		return res
	}

	if state.ContentResponse == nil {
		res.Error = "Workflow completed without generating content"
		return res
	}

	res.Success = true
	res.GeneratedContent = state.ContentResponse.Content
	res.WordCount = state.ContentResponse.WordCount
	if state.ResearchResponse != nil {
		res.ResearchBulletPoints = state.ResearchResponse.BulletPoints
	}

	meta := &ResultMetadata{
		ContentMetadata: state.ContentResponse.Metadata,
	}
	if state.ResearchResponse != nil {
		meta.ResearchMetadata = state.ResearchResponse.Metadata
	}

	switch {
	case state.ImageResponse != nil:
		path := state.ImageResponse.ImagePath
		res.GeneratedImagePath = &path
		meta.ImageMetadata = state.ImageResponse.Metadata
	case state.Err != nil && state.Err.Kind == StageImage:
		meta.ImageError = state.Err.Error()
	}

	res.Metadata = meta
	return res
}
