// Command serve runs the SocialFlow HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/socialflow-ai/socialflow/assets"
	"github.com/socialflow-ai/socialflow/emit"
	"github.com/socialflow-ai/socialflow/internal/config"
	"github.com/socialflow-ai/socialflow/internal/httpapi"
	"github.com/socialflow-ai/socialflow/linkedin"
	"github.com/socialflow-ai/socialflow/model"
	"github.com/socialflow-ai/socialflow/model/anthropic"
	"github.com/socialflow-ai/socialflow/model/google"
	"github.com/socialflow-ai/socialflow/model/openai"
	"github.com/socialflow-ai/socialflow/pipeline"
	"github.com/socialflow-ai/socialflow/stage"
	"github.com/socialflow-ai/socialflow/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := setupLogger(cfg)
	slog.SetDefault(log)

	imagesDir := assets.NewDir(filepath.Join(cfg.DataDir, "images"))
	if err := imagesDir.Ensure(); err != nil {
		return err
	}

	stepStore, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	chat, err := buildChatModel(cfg)
	if err != nil {
		return err
	}
	imageGen := openai.NewImageModel(cfg.OpenAIKey, cfg.ImageModel)

	events := emit.NewBufferedEmitter()
	emitters := []emit.Emitter{
		emit.NewLogEmitter(os.Stderr, cfg.LogJSON),
		events,
	}

	var shutdownTracer func(context.Context) error
	if cfg.Trace {
		tracer, shutdown, err := setupTracing()
		if err != nil {
			return err
		}
		shutdownTracer = shutdown
		emitters = append(emitters, emit.NewOTelEmitter(tracer))
	}

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	chatModelName := cfg.ChatModel
	if chatModelName == "" {
		chatModelName = defaultChatModelName(cfg.Provider)
	}
	imageModelName := cfg.ImageModel
	if imageModelName == "" {
		imageModelName = openai.DefaultImageModel
	}

	workflow, err := pipeline.NewWorkflow(pipeline.WorkflowConfig{
		Researcher:  stage.NewResearcher(chat, chatModelName),
		Writer:      stage.NewWriter(chat, chatModelName),
		Illustrator: stage.NewIllustrator(chat, imageGen, imagesDir, imageModelName),
		Store:       stepStore,
		Emitter:     emit.NewMultiEmitter(emitters...),
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}

	liStatus := linkedin.ValidateConfig(cfg.LinkedInToken, cfg.LinkedInPersonID)
	var liClient *linkedin.Client
	if liStatus.Configured {
		liClient, err = linkedin.New(cfg.LinkedInToken, cfg.LinkedInPersonID)
		if err != nil {
			return err
		}
		log.Info("linkedin publishing enabled")
	} else {
		log.Info("linkedin publishing disabled", "reason", liStatus.Error)
	}

	api, err := httpapi.New(httpapi.Options{
		Logger:         log,
		Workflow:       workflow,
		Events:         events,
		Emitter:        emit.NewMultiEmitter(emitters...),
		LinkedIn:       liClient,
		LinkedInStatus: liStatus,
		Assets:         imagesDir,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Provider:       cfg.Provider,
		Store:          cfg.Store,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "provider", cfg.Provider, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	if shutdownTracer != nil {
		if err := shutdownTracer(ctx); err != nil {
			log.Warn("tracer shutdown", "error", err)
		}
	}
	return nil
}

func setupLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}

func buildChatModel(cfg config.Config) (model.ChatModel, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewChatModel(cfg.OpenAIKey, cfg.ChatModel), nil
	case config.ProviderAnthropic:
		return anthropic.NewChatModel(cfg.AnthropicKey, cfg.ChatModel), nil
	case config.ProviderGoogle:
		return google.NewChatModel(cfg.GoogleKey, cfg.ChatModel), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func defaultChatModelName(provider string) string {
	switch provider {
	case config.ProviderAnthropic:
		return anthropic.DefaultChatModel
	case config.ProviderGoogle:
		return google.DefaultChatModel
	default:
		return openai.DefaultChatModel
	}
}

func buildStore(cfg config.Config) (store.Store[pipeline.WorkflowState], func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemStore[pipeline.WorkflowState](), func() {}, nil
	case config.StoreSQLite:
		path := filepath.Join(cfg.DataDir, "socialflow.db")
		st, err := store.NewSQLiteStore[pipeline.WorkflowState](path)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case config.StoreMySQL:
		st, err := store.NewMySQLStore[pipeline.WorkflowState](cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// setupTracing installs a stdout span exporter and returns the tracer the
// emitter should record on.
func setupTracing() (trace.Tracer, func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Tracer("socialflow"), tp.Shutdown, nil
}
