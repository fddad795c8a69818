// Package httpapi exposes the content generation pipeline over HTTP: JSON
// endpoints for one-shot generation, a server-sent-events stream for live
// progress, LinkedIn publishing, and Prometheus metrics.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/socialflow-ai/socialflow/assets"
	"github.com/socialflow-ai/socialflow/emit"
	"github.com/socialflow-ai/socialflow/linkedin"
	"github.com/socialflow-ai/socialflow/pipeline"
)

const apiVersion = "1.0.0"

// Options wires the collaborators a Server needs. Workflow and Logger are
// required; LinkedIn, Events, Assets and Metrics are optional and disable
// their endpoints when nil.
type Options struct {
	Logger   *slog.Logger
	Workflow *pipeline.Workflow

	// Events must be the same emitter the workflow publishes to; the
	// streaming endpoint subscribes to it. Nil disables /generate/stream.
	Events *emit.BufferedEmitter

	// Emitter receives publish lifecycle events; nil drops them.
	Emitter emit.Emitter

	// LinkedIn enables the publishing endpoints when non-nil.
	LinkedIn       *linkedin.Client
	LinkedInStatus linkedin.ConfigStatus

	// Assets enables static image serving when non-nil.
	Assets *assets.Dir

	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler

	// Provider and Store name the configured backends for /status.
	Provider string
	Store    string
}

// Server is the HTTP front end of the pipeline.
type Server struct {
	log      *slog.Logger
	workflow *pipeline.Workflow
	events   *emit.BufferedEmitter
	emitter  emit.Emitter
	linkedin *linkedin.Client
	liStatus linkedin.ConfigStatus
	assets   *assets.Dir
	provider string
	store    string
	mux      *http.ServeMux
	now      func() time.Time
}

// New builds a Server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Workflow == nil {
		return nil, fmt.Errorf("workflow is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Emitter == nil {
		opts.Emitter = emit.NewNullEmitter()
	}

	s := &Server{
		log:      opts.Logger,
		workflow: opts.Workflow,
		events:   opts.Events,
		emitter:  opts.Emitter,
		linkedin: opts.LinkedIn,
		liStatus: opts.LinkedInStatus,
		assets:   opts.Assets,
		provider: opts.Provider,
		store:    opts.Store,
		mux:      http.NewServeMux(),
		now:      time.Now,
	}

	s.mux.HandleFunc("GET /", s.handleHealth)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /platforms", s.handlePlatforms)
	s.mux.HandleFunc("GET /tones", s.handleTones)
	s.mux.HandleFunc("POST /generate", s.handleGenerate)
	s.mux.HandleFunc("POST /linkedin/post", s.handleLinkedInPost)
	s.mux.HandleFunc("GET /linkedin/status", s.handleLinkedInStatus)

	if s.events != nil {
		s.mux.HandleFunc("POST /generate/stream", s.handleGenerateStream)
	}
	if opts.Metrics != nil {
		s.mux.Handle("GET /metrics", opts.Metrics)
	}
	if s.assets != nil {
		s.mux.HandleFunc("GET /static/", s.handleStatic)
	}

	return s, nil
}

// ServeHTTP dispatches to the registered routes with request logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := s.now()
	s.mux.ServeHTTP(w, r)
	s.log.Debug("request handled",
		"method", r.Method,
		"path", r.URL.Path,
		"duration", s.now().Sub(start),
	)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"detail": msg})
}
