package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/socialflow-ai/socialflow/emit"
	"github.com/socialflow-ai/socialflow/stage"
	"github.com/socialflow-ai/socialflow/store"
)

// Node IDs of the content pipeline graph.
const (
	nodeResearch = "research"
	nodeContent  = "content"
	nodeImage    = "image"
	nodeFinish   = "finish"
)

// Defaults for image generation when the caller does not override them.
const (
	DefaultImageStyle = "photorealistic"
	DefaultImageSize  = "1024x1024"
)

// maxWorkflowSteps bounds a run; the graph is a four-node DAG, so anything
// past this indicates a wiring bug.
const maxWorkflowSteps = 10

// Request carries the user inputs for one workflow run.
type Request struct {
	Topic    string
	Platform stage.Platform
	Tone     stage.Tone

	// ImageStyle and ImageSize override the workflow defaults when set.
	ImageStyle string
	ImageSize  string

	// RunID, when set, pins the run identifier so callers can subscribe to
	// the run's events before starting it. Empty means a fresh UUID.
	RunID string
}

// WorkflowConfig wires the collaborators a Workflow needs. Researcher,
// Writer, Illustrator and Store are required; the rest are optional.
type WorkflowConfig struct {
	Researcher  *stage.Researcher
	Writer      *stage.Writer
	Illustrator *stage.Illustrator
	Store       store.Store[WorkflowState]
	Emitter     emit.Emitter
	Metrics     *Metrics

	// ImageStyle and ImageSize set run defaults; empty means the package
	// defaults above.
	ImageStyle string
	ImageSize  string
}

// Workflow orchestrates the research, content and image stages over a
// conditional graph:
//
//	research -> content   only when research succeeded
//	content  -> image     only when content was produced
//	image    -> finish    always; an image failure does not fail the run
//
// A single Workflow is safe for concurrent Execute calls: each run gets its
// own engine and state, and the collaborators are stateless.
type Workflow struct {
	researcher  *stage.Researcher
	writer      *stage.Writer
	illustrator *stage.Illustrator
	store       store.Store[WorkflowState]
	emitter     emit.Emitter
	metrics     *Metrics
	imageStyle  string
	imageSize   string

	newRunID func() string
	now      func() time.Time
}

// NewWorkflow validates cfg and returns a ready Workflow.
func NewWorkflow(cfg WorkflowConfig) (*Workflow, error) {
	if cfg.Researcher == nil {
		return nil, fmt.Errorf("researcher is required")
	}
	if cfg.Writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if cfg.Illustrator == nil {
		return nil, fmt.Errorf("illustrator is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	w := &Workflow{
		researcher:  cfg.Researcher,
		writer:      cfg.Writer,
		illustrator: cfg.Illustrator,
		store:       cfg.Store,
		emitter:     cfg.Emitter,
		metrics:     cfg.Metrics,
		imageStyle:  cfg.ImageStyle,
		imageSize:   cfg.ImageSize,
		newRunID:    uuid.NewString,
		now:         time.Now,
	}
	if w.imageStyle == "" {
		w.imageStyle = DefaultImageStyle
	}
	if w.imageSize == "" {
		w.imageSize = DefaultImageSize
	}
	if w.emitter == nil {
		w.emitter = emit.NewNullEmitter()
	}
	return w, nil
}

// Execute runs the full pipeline for one request.
//
// Stage failures do not surface as the returned error; they are folded into
// the Result (Success=false with the stage message, or Success=true with a
// nil image path when only the image stage failed). The error return is
// reserved for invalid input and engine or store faults.
func (w *Workflow) Execute(ctx context.Context, req Request) (Result, error) {
	if req.Topic == "" {
		return Result{}, fmt.Errorf("topic cannot be empty")
	}
	if _, err := stage.ParsePlatform(string(req.Platform)); err != nil {
		return Result{}, err
	}
	if _, err := stage.ParseTone(string(req.Tone)); err != nil {
		return Result{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = w.newRunID()
	}
	start := w.now()

	w.emitter.Emit(emit.Event{
		RunID: runID,
		Kind:  emit.EventWorkflowStart,
		Msg:   "starting content generation workflow",
		Meta: map[string]interface{}{
			"topic":    req.Topic,
			"platform": string(req.Platform),
			"tone":     string(req.Tone),
		},
	})
	w.metrics.RunStarted()

	engine, err := w.buildEngine(req)
	if err != nil {
		w.metrics.RunFinished("error")
		return Result{}, err
	}

	initial := NewWorkflowState(runID, req.Topic, req.Platform, req.Tone)
	final, err := engine.Run(ctx, runID, initial)
	elapsed := w.now().Sub(start).Seconds()

	if err != nil {
		w.metrics.RunFinished("error")
		w.emitter.Emit(emit.Event{
			RunID: runID,
			Kind:  emit.EventWorkflowError,
			Msg:   "workflow aborted",
			Meta:  map[string]interface{}{"error": err.Error()},
		})
		return Result{}, err
	}

	res := buildResult(final, elapsed)
	if res.Success {
		w.metrics.RunFinished("success")
		if final.Err != nil && final.Err.Kind == StageImage {
			w.metrics.ImageFailure()
		}
		w.emitter.Emit(emit.Event{
			RunID: runID,
			Kind:  emit.EventWorkflowSuccess,
			Msg:   "workflow completed",
			Meta: map[string]interface{}{
				"word_count":             res.WordCount,
				"execution_time_seconds": res.ExecutionTimeSeconds,
			},
		})
	} else {
		w.metrics.RunFinished("error")
		w.emitter.Emit(emit.Event{
			RunID: runID,
			Kind:  emit.EventWorkflowError,
			Msg:   "workflow failed",
			Meta:  map[string]interface{}{"error": res.Error},
		})
	}
	return res, nil
}

// buildEngine assembles a fresh engine for one run. The conditional edges
// carry all continue/abort decisions; the stage nodes only record outcomes.
func (w *Workflow) buildEngine(req Request) (*Engine[WorkflowState], error) {
	engine := New(mergeState, w.store, w.emitter, Options{MaxSteps: maxWorkflowSteps})

	if err := engine.Add(nodeResearch, w.researchNode()); err != nil {
		return nil, err
	}
	if err := engine.Add(nodeContent, w.contentNode()); err != nil {
		return nil, err
	}
	if err := engine.Add(nodeImage, w.imageNode(req)); err != nil {
		return nil, err
	}
	if err := engine.Add(nodeFinish, finishNode()); err != nil {
		return nil, err
	}
	if err := engine.StartAt(nodeResearch); err != nil {
		return nil, err
	}

	// Conditional edges first; the unconditional fallback routes a failed
	// stage straight to finish.
	if err := engine.Connect(nodeResearch, nodeContent, func(s WorkflowState) bool {
		return s.Err == nil && s.ResearchResponse != nil
	}); err != nil {
		return nil, err
	}
	if err := engine.Connect(nodeResearch, nodeFinish, nil); err != nil {
		return nil, err
	}

	if err := engine.Connect(nodeContent, nodeImage, func(s WorkflowState) bool {
		return s.ContentResponse != nil && (s.Err == nil || s.Err.Kind != StageContent)
	}); err != nil {
		return nil, err
	}
	if err := engine.Connect(nodeContent, nodeFinish, nil); err != nil {
		return nil, err
	}

	if err := engine.Connect(nodeImage, nodeFinish, nil); err != nil {
		return nil, err
	}

	return engine, nil
}

func (w *Workflow) researchNode() NodeFunc[WorkflowState] {
	return func(ctx context.Context, s WorkflowState) NodeResult[WorkflowState] {
		w.emitStage(s.RunID, nodeResearch, emit.EventStageStart, "researching topic: "+s.Topic, nil)
		start := w.now()

		req := stage.ResearchRequest{
			Topic:   s.Topic,
			Context: fmt.Sprintf("Target platform: %s, Tone: %s", s.Platform, s.Tone),
		}
		resp, err := w.researcher.Execute(ctx, req)
		d := w.now().Sub(start)

		delta := WorkflowState{ResearchRequest: &req}
		if err != nil {
			delta.Err = NewStageError(StageResearch, err)
			w.metrics.ObserveStage(nodeResearch, d, "error")
			w.emitStage(s.RunID, nodeResearch, emit.EventStageError, delta.Err.Error(),
				map[string]interface{}{"error": err.Error()})
			return NodeResult[WorkflowState]{Delta: delta}
		}

		delta.ResearchResponse = &resp
		w.metrics.ObserveStage(nodeResearch, d, "ok")
		w.emitStage(s.RunID, nodeResearch, emit.EventStageSuccess, "research complete",
			map[string]interface{}{"bullet_points": len(resp.BulletPoints)})
		return NodeResult[WorkflowState]{Delta: delta}
	}
}

func (w *Workflow) contentNode() NodeFunc[WorkflowState] {
	return func(ctx context.Context, s WorkflowState) NodeResult[WorkflowState] {
		w.emitStage(s.RunID, nodeContent, emit.EventStageStart,
			fmt.Sprintf("generating %s content", s.Platform), nil)
		start := w.now()

		req := stage.ContentRequest{
			ResearchData: *s.ResearchResponse,
			Platform:     s.Platform,
			Tone:         s.Tone,
		}
		resp, err := w.writer.Execute(ctx, req)
		d := w.now().Sub(start)

		delta := WorkflowState{ContentRequest: &req}
		if err != nil {
			delta.Err = NewStageError(StageContent, err)
			w.metrics.ObserveStage(nodeContent, d, "error")
			w.emitStage(s.RunID, nodeContent, emit.EventStageError, delta.Err.Error(),
				map[string]interface{}{"error": err.Error()})
			return NodeResult[WorkflowState]{Delta: delta}
		}

		delta.ContentResponse = &resp
		w.metrics.ObserveStage(nodeContent, d, "ok")
		w.emitStage(s.RunID, nodeContent, emit.EventStageSuccess, "content complete",
			map[string]interface{}{"word_count": resp.WordCount})
		return NodeResult[WorkflowState]{Delta: delta}
	}
}

func (w *Workflow) imageNode(runReq Request) NodeFunc[WorkflowState] {
	style := runReq.ImageStyle
	if style == "" {
		style = w.imageStyle
	}
	size := runReq.ImageSize
	if size == "" {
		size = w.imageSize
	}

	return func(ctx context.Context, s WorkflowState) NodeResult[WorkflowState] {
		w.emitStage(s.RunID, nodeImage, emit.EventStageStart, "generating image", nil)
		start := w.now()

		req := stage.ImageRequest{
			ContentData: *s.ContentResponse,
			Topic:       s.Topic,
			ImageStyle:  style,
			ImageSize:   size,
		}
		resp, err := w.illustrator.Execute(ctx, req)
		d := w.now().Sub(start)

		delta := WorkflowState{ImageRequest: &req}
		if err != nil {
			// Non-fatal: the run still succeeds on the generated content.
			delta.Err = NewStageError(StageImage, err)
			w.metrics.ObserveStage(nodeImage, d, "error")
			w.emitStage(s.RunID, nodeImage, emit.EventStageError, delta.Err.Error(),
				map[string]interface{}{"error": err.Error()})
			return NodeResult[WorkflowState]{Delta: delta}
		}

		delta.ImageResponse = &resp
		w.metrics.ObserveStage(nodeImage, d, "ok")
		w.emitStage(s.RunID, nodeImage, emit.EventStageSuccess, "image complete",
			map[string]interface{}{"image_path": resp.ImagePath})
		return NodeResult[WorkflowState]{Delta: delta}
	}
}

// finishNode terminates the run without touching state.
func finishNode() NodeFunc[WorkflowState] {
	return func(ctx context.Context, s WorkflowState) NodeResult[WorkflowState] {
		return NodeResult[WorkflowState]{Route: Stop()}
	}
}

func (w *Workflow) emitStage(runID, stageID, kind, msg string, meta map[string]interface{}) {
	w.emitter.Emit(emit.Event{
		RunID: runID,
		Stage: stageID,
		Kind:  kind,
		Msg:   msg,
		Meta:  meta,
	})
}
