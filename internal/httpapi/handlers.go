package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/socialflow-ai/socialflow/emit"
	"github.com/socialflow-ai/socialflow/linkedin"
	"github.com/socialflow-ai/socialflow/pipeline"
	"github.com/socialflow-ai/socialflow/stage"
)

// generateRequest is the body of POST /generate and POST /generate/stream.
type generateRequest struct {
	Topic      string `json:"topic"`
	Platform   string `json:"platform"`
	Tone       string `json:"tone"`
	ImageStyle string `json:"image_style,omitempty"`
	ImageSize  string `json:"image_size,omitempty"`
}

// toPipelineRequest validates the body and normalizes platform and tone.
func (g generateRequest) toPipelineRequest() (pipeline.Request, error) {
	if strings.TrimSpace(g.Topic) == "" {
		return pipeline.Request{}, errors.New("Topic cannot be empty")
	}
	platform, err := stage.ParsePlatform(strings.ToLower(g.Platform))
	if err != nil {
		return pipeline.Request{}, err
	}
	tone, err := stage.ParseTone(strings.ToLower(g.Tone))
	if err != nil {
		return pipeline.Request{}, err
	}
	if g.ImageSize != "" && !slices.Contains(stage.SupportedImageSizes(), g.ImageSize) {
		return pipeline.Request{}, fmt.Errorf("unsupported image size %q (must be one of %s)",
			g.ImageSize, strings.Join(stage.SupportedImageSizes(), ", "))
	}
	return pipeline.Request{
		Topic:      strings.TrimSpace(g.Topic),
		Platform:   platform,
		Tone:       tone,
		ImageStyle: g.ImageStyle,
		ImageSize:  g.ImageSize,
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/healthz" {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
		"version":   apiVersion,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "SocialFlow Content Generation API",
		"health":  "healthy",
		"version": apiVersion,
		"workflow": map[string]interface{}{
			"stages":       []string{"research", "content", "image"},
			"platforms":    stage.Platforms(),
			"tones":        stage.Tones(),
			"image_styles": stage.SupportedImageStyles(),
			"image_sizes":  stage.SupportedImageSizes(),
		},
		"provider": s.provider,
		"store":    s.store,
	})
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	type platformInfo struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		MaxLength   *int   `json:"max_length"`
		Description string `json:"description"`
	}
	twitterMax := stage.TwitterMaxChars
	linkedinMax := stage.LinkedInMaxChars
	s.writeJSON(w, http.StatusOK, map[string][]platformInfo{
		"platforms": {
			{Name: "twitter", DisplayName: "Twitter/X", MaxLength: &twitterMax, Description: "Short-form social media content"},
			{Name: "linkedin", DisplayName: "LinkedIn", MaxLength: &linkedinMax, Description: "Professional networking content"},
			{Name: "blog", DisplayName: "Blog Post", Description: "Long-form article content"},
			{Name: "general", DisplayName: "General", Description: "Platform-agnostic content"},
		},
	})
}

func (s *Server) handleTones(w http.ResponseWriter, r *http.Request) {
	type toneInfo struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
	}
	s.writeJSON(w, http.StatusOK, map[string][]toneInfo{
		"tones": {
			{Name: "professional", DisplayName: "Professional", Description: "Formal, authoritative, business-focused"},
			{Name: "casual", DisplayName: "Casual", Description: "Conversational, relatable, friendly"},
			{Name: "informative", DisplayName: "Informative", Description: "Educational, fact-focused, clear explanations"},
			{Name: "engaging", DisplayName: "Engaging", Description: "Compelling, interactive, attention-grabbing"},
		},
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	req, err := body.toPipelineRequest()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Info("generation requested",
		"topic", req.Topic, "platform", req.Platform, "tone", req.Tone)

	result, err := s.workflow.Execute(r.Context(), req)
	if err != nil {
		s.log.Error("workflow execution failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Content generation failed: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLinkedInPost(w http.ResponseWriter, r *http.Request) {
	if s.linkedin == nil {
		s.writeError(w, http.StatusInternalServerError,
			"LinkedIn not configured: "+s.liStatus.Error)
		return
	}

	var req linkedin.PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.writeError(w, http.StatusBadRequest, "Content cannot be empty")
		return
	}

	// Posts reference images by their web path; translate back to disk.
	if req.ImagePath != "" && s.assets != nil {
		if name, ok := s.assets.FileFromWebPath(req.ImagePath); ok {
			req.ImagePath = filepath.Join(s.assets.Root(), name)
		}
	}

	pubID := uuid.NewString()
	s.emitter.Emit(emit.Event{
		RunID: pubID,
		Kind:  emit.EventPublishStart,
		Msg:   "publishing to linkedin",
		Meta:  map[string]interface{}{"has_image": req.ImagePath != ""},
	})

	resp := s.linkedin.PostContent(r.Context(), req)
	if resp.Success {
		s.log.Info("posted to linkedin", "post_id", resp.PostID)
		s.emitter.Emit(emit.Event{
			RunID: pubID,
			Kind:  emit.EventPublishSuccess,
			Msg:   "posted to linkedin",
			Meta:  map[string]interface{}{"post_id": resp.PostID},
		})
	} else {
		s.log.Warn("linkedin post failed", "error", resp.Error)
		s.emitter.Emit(emit.Event{
			RunID: pubID,
			Kind:  emit.EventPublishError,
			Msg:   "linkedin post failed",
			Meta:  map[string]interface{}{"error": resp.Error},
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLinkedInStatus(w http.ResponseWriter, r *http.Request) {
	status := "not_configured"
	if s.liStatus.Configured {
		status = "ready"
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":                 "LinkedIn Integration",
		"configured":              s.liStatus.Configured,
		"status":                  status,
		"details":                 s.liStatus,
		"supported_image_formats": []string{"png", "jpg", "jpeg", "gif"},
		"max_image_size_mb":       20,
	})
}

// handleStatic serves generated images from the assets directory. Only paths
// produced by the image stage resolve; everything else is a 404.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	webPath := strings.TrimPrefix(r.URL.Path, "/")
	name, ok := s.assets.FileFromWebPath(webPath)
	if !ok || name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.assets.Root(), name))
}
