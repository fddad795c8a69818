// Package anthropic provides a ChatModel adapter for the Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/socialflow-ai/socialflow/model"
)

// DefaultChatModel is used when no model name is configured.
const DefaultChatModel = "claude-sonnet-4-20250514"

// defaultMaxTokens bounds completion length; Anthropic requires the field.
const defaultMaxTokens = 4096

// ChatModel implements model.ChatModel for Anthropic's messages API.
//
// Anthropic takes the system prompt as a top-level parameter rather than a
// message role; convertMessages splits the conversation accordingly.
type ChatModel struct {
	client    *anthropic.Client
	modelName string
}

// NewChatModel creates a new Anthropic ChatModel.
// An empty modelName selects DefaultChatModel.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultChatModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{client: &client, modelName: modelName}
}

// Chat implements the model.ChatModel interface.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.modelName),
		MaxTokens: defaultMaxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic message: %w", err)
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return model.ChatOut{}, errors.New("anthropic: empty response content")
	}

	return model.ChatOut{Text: text, Model: string(resp.Model)}, nil
}

// convertMessages splits system messages out into Anthropic's top-level
// system blocks and converts the remainder to message params.
func convertMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	msgs := make([]anthropic.MessageParam, 0, len(messages))
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return msgs, system
}
