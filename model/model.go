// Package model provides LLM and image-generation adapters.
package model

import "context"

// ChatModel defines the interface for LLM chat providers.
//
// This interface abstracts the differences between providers (OpenAI,
// Anthropic, Google) behind a unified chat API.
//
// Implementations should:
// - Handle provider-specific authentication.
// - Convert the standard Message format to the provider's format.
// - Respect context cancellation.
//
// Example usage:
//
//	m := openai.NewChatModel(apiKey, "gpt-4o")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "What is the capital of France?"},
//	})
type ChatModel interface {
	// Chat sends messages to the LLM and returns the response.
	//
	// Returns provider errors, network errors, or context cancellation
	// unchanged; callers decide whether a failure aborts their workflow.
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// ImageModel defines the interface for image-generation providers.
//
// Failure is communicated as an error; there are no partial or streaming
// results. The returned bytes are the decoded raster data ready to persist.
type ImageModel interface {
	// GenerateImage renders the prompt into an image.
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error)
}

// ImageOptions carries the rendering parameters for GenerateImage.
type ImageOptions struct {
	// Size is the image dimensions, e.g. "1024x1024", "1792x1024", "1024x1792".
	Size string

	// Quality is a provider-specific quality tier (e.g. "low", "medium", "high").
	Quality string

	// Format is the output encoding (e.g. "png", "jpeg").
	Format string
}

// Message represents a single message in an LLM conversation.
//
// Typical conversation structure:
// - System message (optional): sets context and behavior.
// - User messages: input or questions.
// - Assistant messages: LLM responses.
type Message struct {
	// Role identifies the message sender. Use the Role* constants.
	Role string

	// Content contains the message text.
	Content string
}

// Standard role constants for LLM conversations.
const (
	// RoleSystem indicates a system message that sets context or instructions.
	RoleSystem = "system"

	// RoleUser indicates a message from the human user.
	RoleUser = "user"

	// RoleAssistant indicates a response from the LLM.
	RoleAssistant = "assistant"
)

// ChatOut represents the output from an LLM chat completion.
type ChatOut struct {
	// Text contains the LLM's generated response.
	Text string

	// Model identifies the concrete model that produced the response,
	// when the provider reports it. Used for provenance metadata.
	Model string
}
