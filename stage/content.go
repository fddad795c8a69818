package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/socialflow-ai/socialflow/model"
)

// Platform length constraints. Twitter and LinkedIn carry hard character
// ceilings enforced by validation; blog and general targets are prompt
// guidance only.
const (
	TwitterMaxChars  = 280
	LinkedInMaxChars = 3000
)

const contentSystemPrompt = `You are an expert content creator specializing in
platform-optimized content generation.

Your responsibilities:
1. Transform research bullet points into engaging, platform-specific content
2. Adapt tone and style based on the specified tone requirement
3. Optimize content format and length for the target platform
4. Maintain factual accuracy from the research while making it engaging
5. Include appropriate calls-to-action or engagement elements

Platform-specific guidelines:
- Twitter: CRITICAL - Must be under 280 characters total. Concise, engaging, hashtag-friendly
- LinkedIn: Professional, thought-leadership focused (1300 chars ideal, 3000 max)
- Blog: Comprehensive, structured, SEO-friendly (500-1000 words)
- General: Balanced approach, moderate length (200-400 words)

Tone guidelines:
- Professional: Formal, authoritative, business-focused
- Casual: Conversational, relatable, friendly
- Informative: Educational, fact-focused, clear explanations
- Engaging: Enthusiastic, interactive, call-to-action oriented

Format your response as a JSON object with:
- "content": the generated platform-optimized content
- "platform": the target platform
- "word_count": accurate word count of the content
- "metadata": content strategy insights and optimization notes`

// Writer executes the content stage: it turns validated research into
// platform- and tone-optimized text.
type Writer struct {
	chat      model.ChatModel
	modelName string
	now       func() time.Time
}

// NewWriter creates a content stage executor.
func NewWriter(chat model.ChatModel, modelName string) *Writer {
	return &Writer{chat: chat, modelName: modelName, now: time.Now}
}

// Execute invokes the generation collaborator and returns a validated
// ContentResponse. The platform is overwritten from the request and the
// word count is recomputed from the returned text; neither is trusted from
// the model echo.
func (w *Writer) Execute(ctx context.Context, req ContentRequest) (ContentResponse, error) {
	if len(req.ResearchData.BulletPoints) == 0 {
		return ContentResponse{}, errors.New("cannot generate content without research results")
	}

	start := w.now()

	var bullets strings.Builder
	for _, bp := range req.ResearchData.BulletPoints {
		bullets.WriteString("• ")
		bullets.WriteString(bp)
		bullets.WriteString("\n")
	}

	userPrompt := fmt.Sprintf(`Create content for %s platform with %s tone.

Research Topic: %s

Research Findings:
%s
Requirements:
- Platform: %s
- Tone: %s
- Use the research findings as the factual foundation
- Optimize for the specified platform's format and audience
- Maintain the requested tone throughout
`, req.Platform, req.Tone, req.ResearchData.Topic, bullets.String(), req.Platform, req.Tone)

	resp, err := model.GenerateObject[ContentResponse](ctx, w.chat, contentSystemPrompt, userPrompt)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("content generation: %w", err)
	}

	resp.Platform = req.Platform
	resp.WordCount = CountWords(resp.Content)

	if resp.Metadata == nil {
		resp.Metadata = make(map[string]interface{})
	}
	resp.Metadata["execution_time_seconds"] = w.now().Sub(start).Seconds()
	resp.Metadata["stage_version"] = stageVersion
	resp.Metadata["model_used"] = w.modelName
	resp.Metadata["source_topic"] = req.ResearchData.Topic
	resp.Metadata["requested_tone"] = string(req.Tone)
	resp.Metadata["bullet_points_used"] = len(req.ResearchData.BulletPoints)

	if err := ValidateContentOutput(resp); err != nil {
		return ContentResponse{}, err
	}
	return resp, nil
}

// CountWords returns the whitespace-token count of text. This is the
// authoritative word count for generated content.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ValidateContentOutput checks that a content response meets platform
// requirements. Pure function of the response.
func ValidateContentOutput(resp ContentResponse) error {
	if strings.TrimSpace(resp.Content) == "" {
		return errors.New("content is empty")
	}
	if strings.TrimSpace(string(resp.Platform)) == "" {
		return errors.New("content platform is missing")
	}

	length := utf8.RuneCountInString(resp.Content)
	switch resp.Platform {
	case PlatformTwitter:
		if length > TwitterMaxChars {
			return fmt.Errorf("twitter content exceeds %d characters (%d)", TwitterMaxChars, length)
		}
	case PlatformLinkedIn:
		if length > LinkedInMaxChars {
			return fmt.Errorf("linkedin content exceeds %d characters (%d)", LinkedInMaxChars, length)
		}
	}

	// The recompute is authoritative, so this only trips on corruption.
	actual := CountWords(resp.Content)
	if diff := resp.WordCount - actual; diff > 2 || diff < -2 {
		return fmt.Errorf("word count %d deviates from actual %d by more than 2", resp.WordCount, actual)
	}
	return nil
}
