// Package openai provides ChatModel and ImageModel adapters for the OpenAI API.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/socialflow-ai/socialflow/model"
)

// DefaultChatModel is used when no model name is configured.
const DefaultChatModel = "gpt-4o"

// DefaultImageModel is used when no image model name is configured.
const DefaultImageModel = "gpt-image-1"

// ChatModel implements model.ChatModel for OpenAI's chat completions API.
//
// The underlying SDK client handles thread-safety internally, so a single
// ChatModel can serve concurrent pipeline runs.
//
// Example usage:
//
//	m := openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), "gpt-4o")
//	out, err := m.Chat(ctx, messages)
type ChatModel struct {
	client    *openai.Client
	modelName string
}

// NewChatModel creates a new OpenAI ChatModel.
// An empty modelName selects DefaultChatModel.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultChatModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{client: &client, modelName: modelName}
}

// Chat implements the model.ChatModel interface.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	return m.complete(ctx, messages, false)
}

// ChatJSON runs a completion with the API's JSON-object response format
// enabled. model.GenerateObject prefers this over prompt-only instruction.
func (m *ChatModel) ChatJSON(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	return m.complete(ctx, messages, true)
}

func (m *ChatModel) complete(ctx context.Context, messages []model.Message, jsonMode bool) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.modelName),
		Messages: convertMessages(messages),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: openai.Ptr(shared.NewResponseFormatJSONObjectParam()),
		}
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return model.ChatOut{}, errors.New("openai: no choices in response")
	}

	return model.ChatOut{
		Text:  completion.Choices[0].Message.Content,
		Model: completion.Model,
	}, nil
}

// convertMessages converts the standard Message format to the SDK's
// message union types.
func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.ChatCompletionMessageParamOfAssistant(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// ImageModel implements model.ImageModel using OpenAI's image generation API.
//
// Images are requested as base64 payloads and returned as decoded bytes.
type ImageModel struct {
	client    *openai.Client
	modelName string
}

// NewImageModel creates a new OpenAI ImageModel.
// An empty modelName selects DefaultImageModel.
func NewImageModel(apiKey, modelName string) *ImageModel {
	if modelName == "" {
		modelName = DefaultImageModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &ImageModel{client: &client, modelName: modelName}
}

// GenerateImage implements the model.ImageModel interface.
func (m *ImageModel) GenerateImage(ctx context.Context, prompt string, opts model.ImageOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if prompt == "" {
		return nil, errors.New("openai: image prompt cannot be empty")
	}

	params := openai.ImageGenerateParams{
		Model:  openai.ImageModel(m.modelName),
		Prompt: prompt,
		N:      openai.Int(1),
	}

	size := opts.Size
	if size == "" {
		size = "1024x1024"
	}
	params.Size = openai.ImageGenerateParamsSize(size)

	if opts.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(opts.Quality)
	}
	if opts.Format != "" {
		params.OutputFormat = openai.ImageGenerateParamsOutputFormat(opts.Format)
	}

	resp, err := m.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai image generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai: no image data in response")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to decode image payload: %w", err)
	}
	return raw, nil
}
