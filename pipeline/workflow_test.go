package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/socialflow-ai/socialflow/assets"
	"github.com/socialflow-ai/socialflow/emit"
	"github.com/socialflow-ai/socialflow/model"
	"github.com/socialflow-ai/socialflow/stage"
	"github.com/socialflow-ai/socialflow/store"
)

const researchJSON = `{
	"bullet_points": [
		"Global temperatures rose 1.2C since pre-industrial times",
		"Renewable energy capacity doubled in the last decade",
		"Carbon pricing now covers 23% of global emissions",
		"Electric vehicle sales hit record highs in 2024",
		"Reforestation projects offset 2 gigatons of CO2 annually",
		"Corporate net-zero pledges tripled since 2020"
	],
	"topic": "placeholder"
}`

const contentJSON = `{
	"content": "Renewables doubled, EV sales broke records, and carbon pricing now covers nearly a quarter of emissions. The climate transition is accelerating.",
	"platform": "twitter"
}`

// fixture bundles a workflow with its mocks so tests can assert on call
// counts and emitted events.
type fixture struct {
	workflow    *Workflow
	researchLLM *model.MockChatModel
	contentLLM  *model.MockChatModel
	imageLLM    *model.MockChatModel
	imageGen    *model.MockImageModel
	events      *emit.BufferedEmitter
	steps       *store.MemStore[WorkflowState]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		researchLLM: &model.MockChatModel{Responses: []model.ChatOut{{Text: researchJSON, Model: "mock"}}},
		contentLLM:  &model.MockChatModel{Responses: []model.ChatOut{{Text: contentJSON, Model: "mock"}}},
		imageLLM:    &model.MockChatModel{Responses: []model.ChatOut{{Text: "A vibrant illustration of a warming planet", Model: "mock"}}},
		imageGen:    &model.MockImageModel{Data: bytes.Repeat([]byte{0x89}, 2048)},
		events:      emit.NewBufferedEmitter(),
		steps:       store.NewMemStore[WorkflowState](),
	}

	dir := assets.NewDir(filepath.Join(t.TempDir(), "images"))
	wf, err := NewWorkflow(WorkflowConfig{
		Researcher:  stage.NewResearcher(f.researchLLM, "mock"),
		Writer:      stage.NewWriter(f.contentLLM, "mock"),
		Illustrator: stage.NewIllustrator(f.imageLLM, f.imageGen, dir, "mock"),
		Store:       f.steps,
		Emitter:     f.events,
	})
	if err != nil {
		t.Fatalf("NewWorkflow: %v", err)
	}
	f.workflow = wf
	return f
}

func (f *fixture) run(t *testing.T) Result {
	t.Helper()
	res, err := f.workflow.Execute(context.Background(), Request{
		Topic:    "Climate Change Solutions",
		Platform: stage.PlatformTwitter,
		Tone:     stage.ToneInformative,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return res
}

func TestWorkflowHappyPath(t *testing.T) {
	f := newFixture(t)
	res := f.run(t)

	if !res.Success {
		t.Fatalf("expected success, got error: %q", res.Error)
	}
	if len(res.ResearchBulletPoints) != 6 {
		t.Errorf("bullet points = %d, want 6", len(res.ResearchBulletPoints))
	}
	if res.GeneratedContent == "" {
		t.Error("generated content is empty")
	}
	if res.WordCount != len(strings.Fields(res.GeneratedContent)) {
		t.Errorf("word count = %d, want %d", res.WordCount, len(strings.Fields(res.GeneratedContent)))
	}
	if res.GeneratedImagePath == nil {
		t.Fatal("image path is nil")
	}
	if !strings.HasPrefix(*res.GeneratedImagePath, "static/") {
		t.Errorf("image path %q lacks static/ prefix", *res.GeneratedImagePath)
	}
	if res.Metadata == nil || res.Metadata.ImageMetadata == nil {
		t.Error("image metadata missing on full success")
	} else if style := res.Metadata.ImageMetadata["image_style"]; style != DefaultImageStyle {
		t.Errorf("image_style = %v, want %q", style, DefaultImageStyle)
	}
	if res.Topic != "Climate Change Solutions" || res.Platform != stage.PlatformTwitter {
		t.Errorf("inputs not echoed: %q / %q", res.Topic, res.Platform)
	}
	if res.RunID == "" {
		t.Error("run ID is empty")
	}
}

func TestWorkflowBlogPathLongContent(t *testing.T) {
	f := newFixture(t)

	// 800 words; blog carries no character ceiling.
	draft := strings.TrimSpace(strings.Repeat("solar and wind capacity keeps compounding across grids ", 100))
	f.contentLLM.Responses = []model.ChatOut{{
		Text:  fmt.Sprintf(`{"content": %q, "platform": "blog", "word_count": 800}`, draft),
		Model: "mock",
	}}

	res, err := f.workflow.Execute(context.Background(), Request{
		Topic:    "Renewable Energy",
		Platform: stage.PlatformBlog,
		Tone:     stage.ToneInformative,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !res.Success {
		t.Fatalf("expected success, got error: %q", res.Error)
	}
	if len(res.ResearchBulletPoints) != 6 {
		t.Errorf("bullet points = %d, want 6", len(res.ResearchBulletPoints))
	}
	if want := len(strings.Fields(draft)); res.WordCount != want {
		t.Errorf("word count = %d, want recomputed %d", res.WordCount, want)
	}
	if res.WordCount < 500 {
		t.Errorf("word count = %d, want a long-form draft", res.WordCount)
	}
	if res.GeneratedImagePath == nil {
		t.Fatal("image path is nil")
	}
	if res.Platform != stage.PlatformBlog {
		t.Errorf("platform = %q, want blog", res.Platform)
	}
}

func TestWorkflowPersistsEveryStep(t *testing.T) {
	f := newFixture(t)
	res := f.run(t)

	steps := f.steps.StepHistory(res.RunID)
	// research, content, image, finish
	if len(steps) != 4 {
		t.Fatalf("persisted steps = %d, want 4", len(steps))
	}
	order := []string{nodeResearch, nodeContent, nodeImage, nodeFinish}
	for i, rec := range steps {
		if rec.NodeID != order[i] {
			t.Errorf("step %d node = %q, want %q", i+1, rec.NodeID, order[i])
		}
	}
	last := steps[len(steps)-1].State
	if last.ResearchResponse == nil || last.ContentResponse == nil || last.ImageResponse == nil {
		t.Error("final persisted state missing stage responses")
	}
}

func TestWorkflowResearchFailureStopsPipeline(t *testing.T) {
	f := newFixture(t)
	f.researchLLM.Responses = nil
	f.researchLLM.Err = errors.New("upstream timeout")

	res := f.run(t)

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.Error, "Research node failed: ") {
		t.Errorf("error = %q, want Research node failed prefix", res.Error)
	}
	if f.contentLLM.CallCount() != 0 {
		t.Errorf("content model called %d times after research failure", f.contentLLM.CallCount())
	}
	if f.imageGen.CallCount() != 0 {
		t.Errorf("image model called %d times after research failure", f.imageGen.CallCount())
	}
	if res.GeneratedImagePath != nil {
		t.Error("image path should be nil on failure")
	}
}

func TestWorkflowContentFailureSkipsImage(t *testing.T) {
	f := newFixture(t)
	f.contentLLM.Responses = nil
	f.contentLLM.Err = errors.New("rate limited")

	res := f.run(t)

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(res.Error, "Content node failed: ") {
		t.Errorf("error = %q, want Content node failed prefix", res.Error)
	}
	if f.imageLLM.CallCount() != 0 || f.imageGen.CallCount() != 0 {
		t.Error("image stage ran after content failure")
	}
}

func TestWorkflowImageFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.imageGen.Err = errors.New("image service unavailable")

	res := f.run(t)

	if !res.Success {
		t.Fatalf("image failure should not fail the run, got error: %q", res.Error)
	}
	if res.GeneratedImagePath != nil {
		t.Errorf("image path = %q, want nil", *res.GeneratedImagePath)
	}
	if res.GeneratedContent == "" {
		t.Error("content missing despite successful content stage")
	}
	if res.Metadata == nil || !strings.HasPrefix(res.Metadata.ImageError, "Image generation failed: ") {
		t.Errorf("image error not surfaced in metadata: %+v", res.Metadata)
	}
	if res.Error != "" {
		t.Errorf("top-level error = %q, want empty", res.Error)
	}
}

func TestWorkflowUndersizedImageIsNonFatal(t *testing.T) {
	f := newFixture(t)
	// Below the minimum plausible PNG size, so validation rejects it.
	f.imageGen.Data = []byte{0x89, 0x50}

	res := f.run(t)

	if !res.Success {
		t.Fatalf("expected success, got error: %q", res.Error)
	}
	if res.GeneratedImagePath != nil {
		t.Error("image path should be nil when the file fails validation")
	}
}

func TestWorkflowRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  Request
	}{
		{"empty topic", Request{Platform: stage.PlatformTwitter, Tone: stage.ToneCasual}},
		{"bad platform", Request{Topic: "AI", Platform: "myspace", Tone: stage.ToneCasual}},
		{"bad tone", Request{Topic: "AI", Platform: stage.PlatformBlog, Tone: "sarcastic"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.workflow.Execute(context.Background(), tc.req); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if f.researchLLM.CallCount() != 0 {
		t.Errorf("research model called %d times for invalid input", f.researchLLM.CallCount())
	}
}

func TestWorkflowEmitsLifecycleEvents(t *testing.T) {
	f := newFixture(t)
	res := f.run(t)

	events := f.events.History(res.RunID)
	if len(events) == 0 {
		t.Fatal("no events recorded")
	}
	if events[0].Kind != emit.EventWorkflowStart {
		t.Errorf("first event = %q, want %q", events[0].Kind, emit.EventWorkflowStart)
	}
	if last := events[len(events)-1]; last.Kind != emit.EventWorkflowSuccess {
		t.Errorf("last event = %q, want %q", last.Kind, emit.EventWorkflowSuccess)
	}

	var stageStarts []string
	for _, ev := range events {
		if ev.Kind == emit.EventStageStart {
			stageStarts = append(stageStarts, ev.Stage)
		}
	}
	want := []string{nodeResearch, nodeContent, nodeImage}
	if len(stageStarts) != len(want) {
		t.Fatalf("stage starts = %v, want %v", stageStarts, want)
	}
	for i := range want {
		if stageStarts[i] != want[i] {
			t.Errorf("stage start %d = %q, want %q", i, stageStarts[i], want[i])
		}
	}
}

func TestWorkflowContextCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.workflow.Execute(ctx, Request{
		Topic:    "AI",
		Platform: stage.PlatformBlog,
		Tone:     stage.ToneCasual,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBuildResultWithoutContent(t *testing.T) {
	state := NewWorkflowState("r1", "AI", stage.PlatformBlog, stage.ToneCasual)
	res := buildResult(state, 1.5)

	if res.Success {
		t.Fatal("expected failure without content")
	}
	if res.Error != "Workflow completed without generating content" {
		t.Errorf("error = %q", res.Error)
	}
	if res.ExecutionTimeSeconds != 1.5 {
		t.Errorf("execution time = %v", res.ExecutionTimeSeconds)
	}
}

func TestStageErrorRendering(t *testing.T) {
	cases := []struct {
		kind StageKind
		want string
	}{
		{StageResearch, "Research node failed: boom"},
		{StageContent, "Content node failed: boom"},
		{StageImage, "Image generation failed: boom"},
	}
	for _, tc := range cases {
		if got := NewStageError(tc.kind, errors.New("boom")).Error(); got != tc.want {
			t.Errorf("kind %s: got %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestMergeStatePointerFieldsWin(t *testing.T) {
	base := NewWorkflowState("r1", "AI", stage.PlatformBlog, stage.ToneCasual)
	resp := &stage.ResearchResponse{Topic: "AI", BulletPoints: []string{"a", "b", "c", "d", "e"}}

	merged := mergeState(base, WorkflowState{ResearchResponse: resp})
	if merged.ResearchResponse != resp {
		t.Error("delta response not merged")
	}
	if merged.Topic != "AI" || merged.RunID != "r1" {
		t.Error("existing fields overwritten by zero delta")
	}

	// A later empty delta must not clear earlier results.
	merged = mergeState(merged, WorkflowState{})
	if merged.ResearchResponse == nil {
		t.Error("empty delta cleared research response")
	}
}
