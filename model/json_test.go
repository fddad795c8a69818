package model

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type draft struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestGenerateObject(t *testing.T) {
	mock := &MockChatModel{Responses: []ChatOut{{
		Text: `{"title": "Hello", "tags": ["a", "b"]}`,
	}}}

	out, err := GenerateObject[draft](context.Background(), mock, "You write drafts.", "Write one.")
	if err != nil {
		t.Fatalf("GenerateObject: %v", err)
	}
	if out.Title != "Hello" || len(out.Tags) != 2 {
		t.Errorf("out = %+v", out)
	}

	// The strict-JSON instruction is appended to the system prompt.
	system := mock.Calls[0].Messages[0]
	if system.Role != RoleSystem {
		t.Errorf("first message role = %q", system.Role)
	}
	if !strings.Contains(system.Content, "You write drafts.") ||
		!strings.Contains(system.Content, "Respond ONLY with valid JSON") {
		t.Errorf("system prompt = %q", system.Content)
	}
}

func TestGenerateObjectStripsFences(t *testing.T) {
	cases := []string{
		"```json\n{\"title\": \"Fenced\"}\n```",
		"```\n{\"title\": \"Fenced\"}\n```",
		"  {\"title\": \"Fenced\"}  ",
	}
	for _, text := range cases {
		mock := &MockChatModel{Responses: []ChatOut{{Text: text}}}
		out, err := GenerateObject[draft](context.Background(), mock, "s", "u")
		if err != nil {
			t.Errorf("%q: %v", text, err)
			continue
		}
		if out.Title != "Fenced" {
			t.Errorf("%q: title = %q", text, out.Title)
		}
	}
}

func TestGenerateObjectBadJSON(t *testing.T) {
	mock := &MockChatModel{Responses: []ChatOut{{Text: "Sure! Here is the JSON you asked for."}}}
	_, err := GenerateObject[draft](context.Background(), mock, "s", "u")
	if err == nil || !strings.Contains(err.Error(), "decode model response") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateObjectPropagatesModelError(t *testing.T) {
	boom := errors.New("no capacity")
	mock := &MockChatModel{Err: boom}
	_, err := GenerateObject[draft](context.Background(), mock, "s", "u")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

// jsonMock implements JSONChatModel to verify GenerateObject prefers the
// native JSON mode.
type jsonMock struct {
	MockChatModel
	jsonCalls int
}

func (j *jsonMock) ChatJSON(ctx context.Context, messages []Message) (ChatOut, error) {
	j.jsonCalls++
	return j.Chat(ctx, messages)
}

func TestGenerateObjectPrefersNativeJSONMode(t *testing.T) {
	mock := &jsonMock{MockChatModel: MockChatModel{Responses: []ChatOut{{Text: `{"title": "x"}`}}}}
	if _, err := GenerateObject[draft](context.Background(), mock, "s", "u"); err != nil {
		t.Fatalf("GenerateObject: %v", err)
	}
	if mock.jsonCalls != 1 {
		t.Errorf("jsonCalls = %d, want 1", mock.jsonCalls)
	}
}

func TestMockChatModelSequencing(t *testing.T) {
	mock := &MockChatModel{Responses: []ChatOut{{Text: "first"}, {Text: "second"}}}

	for i, want := range []string{"first", "second", "second"} {
		out, err := mock.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if out.Text != want {
			t.Errorf("call %d = %q, want %q", i, out.Text, want)
		}
	}
	if mock.CallCount() != 3 {
		t.Errorf("call count = %d", mock.CallCount())
	}
}

func TestMocksRespectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chat := &MockChatModel{Responses: []ChatOut{{Text: "x"}}}
	if _, err := chat.Chat(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("chat err = %v", err)
	}

	img := &MockImageModel{Data: []byte{1}}
	if _, err := img.GenerateImage(ctx, "p", ImageOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("image err = %v", err)
	}
}
