// Package google provides a ChatModel adapter for the Google Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/socialflow-ai/socialflow/model"
)

// DefaultChatModel is used when no model name is configured.
const DefaultChatModel = "gemini-2.5-flash"

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// The genai client is created per call; it holds an open gRPC connection
// that must be closed, and pipeline stage calls are infrequent enough that
// connection reuse is not worth the lifecycle management.
type ChatModel struct {
	apiKey    string
	modelName string
}

// NewChatModel creates a new Google ChatModel.
// An empty modelName selects DefaultChatModel.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultChatModel
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName}
}

// Chat implements the model.ChatModel interface.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("google API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("failed to create Google client: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()

	genModel := client.GenerativeModel(m.modelName)

	// Gemini takes system instructions on the model, not in the turn list.
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == model.RoleSystem {
			genModel.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}

	resp, err := genModel.GenerateContent(ctx, parts...)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google API error: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return model.ChatOut{}, errors.New("google: empty response content")
	}
	return model.ChatOut{Text: text, Model: m.modelName}, nil
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text
}
