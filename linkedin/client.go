// Package linkedin posts generated content to the LinkedIn UGC API, with
// optional image attachment via the two-step asset upload flow.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.linkedin.com/v2"

const uploadMechanismKey = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"

// ErrNotConfigured indicates missing LinkedIn credentials.
var ErrNotConfigured = errors.New("linkedin client not configured")

// Visibility values accepted by the UGC API.
const (
	VisibilityPublic        = "PUBLIC"
	VisibilityConnections   = "CONNECTIONS"
	VisibilityLoggedMembers = "LOGGED_IN_MEMBERS"
)

// PostRequest describes one publish attempt.
type PostRequest struct {
	// Content is the post body text.
	Content string `json:"content"`

	// ImagePath optionally points at a local image file to attach.
	ImagePath string `json:"image_path,omitempty"`

	// Visibility defaults to PUBLIC when empty.
	Visibility string `json:"visibility,omitempty"`
}

// PostResponse reports the outcome of a publish attempt. Failures are folded
// into the response rather than returned as errors so API consumers always
// get the execution time and a stable shape.
type PostResponse struct {
	Success              bool    `json:"success"`
	PostID               string  `json:"linkedin_post_id,omitempty"`
	URL                  string  `json:"linkedin_url,omitempty"`
	Error                string  `json:"error,omitempty"`
	ExecutionTimeSeconds float64 `json:"execution_time_seconds"`
}

// ConfigStatus reports which LinkedIn credentials are present.
type ConfigStatus struct {
	Configured     bool   `json:"linkedin_configured"`
	HasAccessToken bool   `json:"has_access_token"`
	HasPersonID    bool   `json:"has_person_id"`
	Error          string `json:"error,omitempty"`
}

// ValidateConfig checks the credential pair without touching the network.
func ValidateConfig(accessToken, personID string) ConfigStatus {
	status := ConfigStatus{
		HasAccessToken: accessToken != "",
		HasPersonID:    personID != "",
	}
	status.Configured = status.HasAccessToken && status.HasPersonID
	if !status.Configured {
		var missing []string
		if !status.HasAccessToken {
			missing = append(missing, "LINKEDIN_ACCESS_TOKEN")
		}
		if !status.HasPersonID {
			missing = append(missing, "LINKEDIN_PERSON_ID")
		}
		status.Error = "Missing environment variables: " + strings.Join(missing, ", ")
	}
	return status
}

// Client talks to the LinkedIn REST API on behalf of one member.
type Client struct {
	accessToken string
	personID    string
	baseURL     string
	httpClient  *http.Client
	now         func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given credentials.
func New(accessToken, personID string, opts ...Option) (*Client, error) {
	if accessToken == "" || personID == "" {
		return nil, ErrNotConfigured
	}
	c := &Client{
		accessToken: accessToken,
		personID:    personID,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PostContent publishes a post, uploading the image first when one is
// attached. Errors are reported inside the response.
func (c *Client) PostContent(ctx context.Context, req PostRequest) PostResponse {
	start := c.now()

	postID, err := c.post(ctx, req)
	resp := PostResponse{ExecutionTimeSeconds: c.now().Sub(start).Seconds()}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	resp.Success = true
	resp.PostID = postID
	if postID != "" {
		resp.URL = "https://www.linkedin.com/feed/update/" + postID
	}
	return resp
}

func (c *Client) post(ctx context.Context, req PostRequest) (string, error) {
	if req.Content == "" {
		return "", fmt.Errorf("post content cannot be empty")
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = VisibilityPublic
	}

	share := map[string]interface{}{
		"shareCommentary":    map[string]string{"text": req.Content},
		"shareMediaCategory": "NONE",
	}

	if req.ImagePath != "" {
		if _, err := os.Stat(req.ImagePath); err != nil {
			return "", fmt.Errorf("image file not found: %s", req.ImagePath)
		}
		assetURN, err := c.uploadImage(ctx, req.ImagePath)
		if err != nil {
			return "", err
		}
		share["shareMediaCategory"] = "IMAGE"
		share["media"] = []map[string]interface{}{{
			"status":      "READY",
			"description": map[string]string{"text": "Generated content image"},
			"media":       assetURN,
			"title":       map[string]string{"text": "Generated Image"},
		}}
	}

	payload := map[string]interface{}{
		"author":         "urn:li:person:" + c.personID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": share,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": visibility,
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/ugcPosts", payload, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// uploadImage performs the two-step feedshare upload and returns the asset
// URN to reference from the post.
func (c *Client) uploadImage(ctx context.Context, imagePath string) (string, error) {
	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("invalid image file type: %q", mimeType)
	}

	registerPayload := map[string]interface{}{
		"registerUploadRequest": map[string]interface{}{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   "urn:li:person:" + c.personID,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}

	var registered struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	registerURL := c.baseURL + "/assets?action=registerUpload"
	if err := c.doJSON(ctx, http.MethodPost, registerURL, registerPayload, &registered); err != nil {
		return "", err
	}

	uploadURL := registered.Value.UploadMechanism[uploadMechanismKey].UploadURL
	if uploadURL == "" || registered.Value.Asset == "" {
		return "", fmt.Errorf("register upload response missing upload URL or asset")
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	upload, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	upload.Header.Set("Authorization", "Bearer "+c.accessToken)
	upload.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(upload)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload image: unexpected status %d", resp.StatusCode)
	}

	return registered.Value.Asset, nil
}

// doJSON sends a JSON request with the standard LinkedIn headers and decodes
// the JSON response into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("linkedin API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("linkedin API request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
