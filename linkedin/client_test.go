package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New("token-123", "person-456", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "person"); err != ErrNotConfigured {
		t.Errorf("missing token: err = %v, want ErrNotConfigured", err)
	}
	if _, err := New("token", ""); err != ErrNotConfigured {
		t.Errorf("missing person ID: err = %v, want ErrNotConfigured", err)
	}
}

func TestPostContentTextOnly(t *testing.T) {
	var gotPayload map[string]interface{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ugcPosts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Restli-Protocol-Version"); got != "2.0.0" {
			t.Errorf("X-Restli-Protocol-Version = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "urn:li:share:9876"}`)
	}))

	resp := c.PostContent(context.Background(), PostRequest{Content: "Hello network"})

	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if resp.PostID != "urn:li:share:9876" {
		t.Errorf("post ID = %q", resp.PostID)
	}
	if resp.URL != "https://www.linkedin.com/feed/update/urn:li:share:9876" {
		t.Errorf("URL = %q", resp.URL)
	}
	if gotPayload["author"] != "urn:li:person:person-456" {
		t.Errorf("author = %v", gotPayload["author"])
	}
	vis := gotPayload["visibility"].(map[string]interface{})
	if vis["com.linkedin.ugc.MemberNetworkVisibility"] != VisibilityPublic {
		t.Errorf("visibility = %v", vis)
	}
	share := gotPayload["specificContent"].(map[string]interface{})["com.linkedin.ugc.ShareContent"].(map[string]interface{})
	if share["shareMediaCategory"] != "NONE" {
		t.Errorf("share media category = %v", share["shareMediaCategory"])
	}
}

func TestPostContentWithImage(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "post.png")
	imgData := bytes.Repeat([]byte{0xAB}, 1500)
	if err := os.WriteFile(imgPath, imgData, 0o644); err != nil {
		t.Fatal(err)
	}

	var uploadedBytes int
	mux := http.NewServeMux()
	var baseURL string
	mux.HandleFunc("/assets", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "registerUpload" {
			t.Errorf("action = %q", r.URL.Query().Get("action"))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"value": {"asset": "urn:li:digitalmediaAsset:abc",
			"uploadMechanism": {"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest":
			{"uploadUrl": "`+baseURL+`/upload"}}}}`)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "image/png" {
			t.Errorf("upload Content-Type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		uploadedBytes = len(body)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		json.Unmarshal(body, &payload)
		share := payload["specificContent"].(map[string]interface{})["com.linkedin.ugc.ShareContent"].(map[string]interface{})
		if share["shareMediaCategory"] != "IMAGE" {
			t.Errorf("share media category = %v", share["shareMediaCategory"])
		}
		media := share["media"].([]interface{})[0].(map[string]interface{})
		if media["media"] != "urn:li:digitalmediaAsset:abc" {
			t.Errorf("media URN = %v", media["media"])
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "urn:li:share:1"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	baseURL = srv.URL

	c, err := New("token-123", "person-456", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp := c.PostContent(context.Background(), PostRequest{Content: "With image", ImagePath: imgPath})
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if uploadedBytes != len(imgData) {
		t.Errorf("uploaded %d bytes, want %d", uploadedBytes, len(imgData))
	}
}

func TestPostContentMissingImageFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when image file is missing")
	}))

	resp := c.PostContent(context.Background(), PostRequest{
		Content:   "Hello",
		ImagePath: "/nonexistent/image.png",
	})
	if resp.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(resp.Error, "image file not found") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestPostContentAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "token expired"}`, http.StatusUnauthorized)
	}))

	resp := c.PostContent(context.Background(), PostRequest{Content: "Hello"})
	if resp.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(resp.Error, "status 401") {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.ExecutionTimeSeconds < 0 {
		t.Errorf("execution time = %v", resp.ExecutionTimeSeconds)
	}
}

func TestPostContentEmptyBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty content")
	}))
	resp := c.PostContent(context.Background(), PostRequest{})
	if resp.Success {
		t.Fatal("expected failure")
	}
}

func TestValidateConfig(t *testing.T) {
	status := ValidateConfig("tok", "pid")
	if !status.Configured || status.Error != "" {
		t.Errorf("configured pair: %+v", status)
	}

	status = ValidateConfig("", "pid")
	if status.Configured || !status.HasPersonID || status.HasAccessToken {
		t.Errorf("missing token: %+v", status)
	}
	if !strings.Contains(status.Error, "LINKEDIN_ACCESS_TOKEN") {
		t.Errorf("error = %q", status.Error)
	}
}
