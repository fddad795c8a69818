package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// JSONChatModel is implemented by providers with a native JSON response
// mode. GenerateObject uses it when available instead of relying solely on
// prompt instruction.
type JSONChatModel interface {
	ChatModel
	ChatJSON(ctx context.Context, messages []Message) (ChatOut, error)
}

// GenerateObject runs a chat completion that must return a single JSON
// object, and decodes it into T.
//
// The system prompt is extended with a strict-JSON instruction so providers
// without a native JSON mode still comply. Markdown code fences around the
// payload are tolerated and stripped before decoding.
//
// Example:
//
//	type draft struct {
//	    BulletPoints []string `json:"bullet_points"`
//	}
//	out, err := model.GenerateObject[draft](ctx, m, systemPrompt, userPrompt)
func GenerateObject[T any](ctx context.Context, m ChatModel, system, user string) (T, error) {
	var zero T

	messages := []Message{
		{Role: RoleSystem, Content: system + "\n\nRespond ONLY with valid JSON. No markdown, no explanation, just the JSON object."},
		{Role: RoleUser, Content: user},
	}

	var out ChatOut
	var err error
	if jm, ok := m.(JSONChatModel); ok {
		out, err = jm.ChatJSON(ctx, messages)
	} else {
		out, err = m.Chat(ctx, messages)
	}
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(stripFences(out.Text)), &result); err != nil {
		return zero, fmt.Errorf("failed to decode model response: %w", err)
	}
	return result, nil
}

// stripFences removes markdown code fences that some models wrap around
// JSON payloads despite instructions.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
