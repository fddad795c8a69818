package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/socialflow-ai/socialflow/model"
)

// stageVersion tags provenance metadata on every stage response.
const stageVersion = "1.0"

const researchSystemPrompt = `You are an expert researcher tasked with generating factual,
well-researched bullet points on any given topic.

Your responsibilities:
1. Generate exactly 5-7 factual bullet points about the topic
2. Ensure each bullet point is informative and accurate
3. Focus on the most important and relevant aspects of the topic
4. Use clear, concise language suitable for content creation
5. Include diverse perspectives and key facts about the topic

Format your response as a JSON object with:
- "bullet_points": list of 5-7 factual statements
- "topic": the original topic researched
- "metadata": any relevant research context or sources considered`

// Researcher executes the research stage: it turns a topic into a bounded
// list of factual bullet points.
type Researcher struct {
	chat      model.ChatModel
	modelName string
	now       func() time.Time
}

// NewResearcher creates a research stage executor. modelName is recorded as
// provenance; it does not select the model (the ChatModel is already bound).
func NewResearcher(chat model.ChatModel, modelName string) *Researcher {
	return &Researcher{chat: chat, modelName: modelName, now: time.Now}
}

// Execute invokes the generation collaborator and returns a validated
// ResearchResponse. The response topic is forced to the request topic to
// defend against model drift, and provenance metadata is appended.
//
// Any failure (transport, model, validation) is returned as an error; no
// response is fabricated.
func (r *Researcher) Execute(ctx context.Context, req ResearchRequest) (ResearchResponse, error) {
	start := r.now()

	userPrompt := "Research topic: " + req.Topic
	if req.Context != "" {
		userPrompt += "\nAdditional context: " + req.Context
	}

	resp, err := model.GenerateObject[ResearchResponse](ctx, r.chat, researchSystemPrompt, userPrompt)
	if err != nil {
		return ResearchResponse{}, fmt.Errorf("research generation: %w", err)
	}

	// Never trust the model's echo of the topic.
	resp.Topic = req.Topic

	if resp.Metadata == nil {
		resp.Metadata = make(map[string]interface{})
	}
	resp.Metadata["execution_time_seconds"] = r.now().Sub(start).Seconds()
	resp.Metadata["stage_version"] = stageVersion
	resp.Metadata["model_used"] = r.modelName

	if err := ValidateResearchOutput(resp); err != nil {
		return ResearchResponse{}, err
	}
	return resp, nil
}

// ValidateResearchOutput checks that a research response meets requirements.
// It is a pure function of the response: re-validating an already-valid
// response yields the same result.
func ValidateResearchOutput(resp ResearchResponse) error {
	if n := len(resp.BulletPoints); n < 5 || n > 7 {
		return fmt.Errorf("research output must contain 5-7 bullet points, got %d", n)
	}
	for i, bp := range resp.BulletPoints {
		if strings.TrimSpace(bp) == "" {
			return fmt.Errorf("research bullet point %d is empty", i+1)
		}
	}
	if strings.TrimSpace(resp.Topic) == "" {
		return errors.New("research output is missing a topic")
	}
	return nil
}
