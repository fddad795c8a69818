package model

import (
	"context"
	"sync"
)

// MockChatModel is a test implementation of ChatModel.
//
// Use MockChatModel in tests to verify pipeline behavior without making
// actual LLM API calls. It provides:
//   - Configurable responses (returned in order; the last repeats)
//   - Call history tracking
//   - Error injection
//   - Thread-safe operation
//
// Example:
//
//	mock := &MockChatModel{
//	    Responses: []ChatOut{{Text: `{"bullet_points":["a","b"]}`}},
//	}
type MockChatModel struct {
	// Responses contains the sequence of responses to return.
	// If all responses are consumed, the last response repeats.
	Responses []ChatOut

	// Err, if set, is returned by Chat() instead of a response.
	Err error

	// Calls tracks the history of all Chat() invocations.
	Calls []MockChatCall

	mu        sync.Mutex
	callIndex int
}

// MockChatCall records a single invocation of Chat().
type MockChatCall struct {
	Messages []Message
}

// Chat implements the ChatModel interface. The call is recorded regardless
// of success or failure.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if ctx.Err() != nil {
		return ChatOut{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockChatCall{Messages: messages})

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.callIndex++
	return m.Responses[idx], nil
}

// CallCount returns the number of Chat() invocations recorded so far.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockImageModel is a test implementation of ImageModel.
type MockImageModel struct {
	// Data is returned by GenerateImage on success.
	Data []byte

	// Err, if set, is returned instead of Data.
	Err error

	// Calls tracks the history of all GenerateImage() invocations.
	Calls []MockImageCall

	mu sync.Mutex
}

// MockImageCall records a single invocation of GenerateImage().
type MockImageCall struct {
	Prompt string
	Opts   ImageOptions
}

// GenerateImage implements the ImageModel interface.
func (m *MockImageModel) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockImageCall{Prompt: prompt, Opts: opts})

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Data, nil
}

// CallCount returns the number of GenerateImage() invocations recorded so far.
func (m *MockImageModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
