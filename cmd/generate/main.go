// Command generate runs one content generation pipeline from the command
// line and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/socialflow-ai/socialflow/assets"
	"github.com/socialflow-ai/socialflow/emit"
	"github.com/socialflow-ai/socialflow/internal/config"
	"github.com/socialflow-ai/socialflow/model"
	"github.com/socialflow-ai/socialflow/model/anthropic"
	"github.com/socialflow-ai/socialflow/model/google"
	"github.com/socialflow-ai/socialflow/model/openai"
	"github.com/socialflow-ai/socialflow/pipeline"
	"github.com/socialflow-ai/socialflow/stage"
	"github.com/socialflow-ai/socialflow/store"
)

func main() {
	topic := flag.String("topic", "", "topic to generate content for (required)")
	platform := flag.String("platform", "twitter", "target platform: twitter, linkedin, blog, general")
	tone := flag.String("tone", "professional", "content tone: professional, casual, informative, engaging")
	imageStyle := flag.String("image-style", "", "image rendering style (default: photorealistic)")
	imageSize := flag.String("image-size", "", "image size (default: 1024x1024)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall generation timeout")
	quiet := flag.Bool("quiet", false, "suppress progress logging")
	flag.Parse()

	if err := run(*topic, *platform, *tone, *imageStyle, *imageSize, *timeout, *quiet); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(topic, platform, tone, imageStyle, imageSize string, timeout time.Duration, quiet bool) error {
	if topic == "" {
		return fmt.Errorf("-topic is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	p, err := stage.ParsePlatform(platform)
	if err != nil {
		return err
	}
	t, err := stage.ParseTone(tone)
	if err != nil {
		return err
	}

	imagesDir := assets.NewDir(filepath.Join(cfg.DataDir, "images"))
	if err := imagesDir.Ensure(); err != nil {
		return err
	}

	chat, err := buildChatModel(cfg)
	if err != nil {
		return err
	}

	var emitter emit.Emitter = emit.NewNullEmitter()
	if !quiet {
		emitter = emit.NewLogEmitter(os.Stderr, false)
	}

	workflow, err := pipeline.NewWorkflow(pipeline.WorkflowConfig{
		Researcher:  stage.NewResearcher(chat, chatModelName(cfg)),
		Writer:      stage.NewWriter(chat, chatModelName(cfg)),
		Illustrator: stage.NewIllustrator(chat, openai.NewImageModel(cfg.OpenAIKey, cfg.ImageModel), imagesDir, imageModelName(cfg)),
		Store:       store.NewMemStore[pipeline.WorkflowState](),
		Emitter:     emitter,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := workflow.Execute(ctx, pipeline.Request{
		Topic:      topic,
		Platform:   p,
		Tone:       t,
		ImageStyle: imageStyle,
		ImageSize:  imageSize,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if !result.Success {
		os.Exit(2)
	}
	return nil
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

func chatModelName(cfg config.Config) string {
	if cfg.ChatModel != "" {
		return cfg.ChatModel
	}
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.DefaultChatModel
	case config.ProviderGoogle:
		return google.DefaultChatModel
	default:
		return openai.DefaultChatModel
	}
}

func imageModelName(cfg config.Config) string {
	if cfg.ImageModel != "" {
		return cfg.ImageModel
	}
	return openai.DefaultImageModel
}
