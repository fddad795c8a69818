// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Provider names for chat model selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
)

// Store backend names.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMySQL  = "mysql"
)

// Config holds everything the server and CLI need to run.
type Config struct {
	// Provider selects the chat model backend: openai, anthropic or google.
	Provider string

	// API keys per provider. Only the selected provider's key is required;
	// the image stage always needs the OpenAI key.
	OpenAIKey    string
	AnthropicKey string
	GoogleKey    string

	// Model overrides. Empty means the provider default.
	ChatModel  string
	ImageModel string

	// Port is the HTTP listen port.
	Port int

	// DataDir is the root for generated images and the SQLite database.
	DataDir string

	// Store selects the step persistence backend: memory, sqlite or mysql.
	Store string

	// MySQLDSN is required when Store is mysql.
	MySQLDSN string

	// LinkedIn credentials; both empty means publishing is disabled.
	LinkedInToken    string
	LinkedInPersonID string

	// LogLevel is debug, info, warn or error.
	LogLevel string

	// LogJSON switches the log handler from colored text to JSON.
	LogJSON bool

	// Trace enables the stdout OpenTelemetry trace exporter.
	Trace bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (Config, error) {
	// Ignore a missing .env; it is a local development convenience.
	_ = godotenv.Load()

	cfg := Config{
		Provider:         envOrDefault("SOCIALFLOW_PROVIDER", ProviderOpenAI),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		GoogleKey:        os.Getenv("GOOGLE_API_KEY"),
		ChatModel:        os.Getenv("SOCIALFLOW_MODEL"),
		ImageModel:       os.Getenv("SOCIALFLOW_IMAGE_MODEL"),
		DataDir:          envOrDefault("SOCIALFLOW_DATA_DIR", "data"),
		Store:            envOrDefault("SOCIALFLOW_STORE", StoreMemory),
		MySQLDSN:         os.Getenv("SOCIALFLOW_MYSQL_DSN"),
		LinkedInToken:    os.Getenv("LINKEDIN_ACCESS_TOKEN"),
		LinkedInPersonID: os.Getenv("LINKEDIN_PERSON_ID"),
		LogLevel:         envOrDefault("SOCIALFLOW_LOG_LEVEL", "info"),
		LogJSON:          envBool("SOCIALFLOW_LOG_JSON"),
		Trace:            envBool("SOCIALFLOW_TRACE"),
	}

	port := envOrDefault("SOCIALFLOW_PORT", "8000")
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return Config{}, fmt.Errorf("invalid SOCIALFLOW_PORT %q", port)
	}
	cfg.Port = p

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency. It returns
// configuration errors only; missing optional integrations (LinkedIn) are
// not errors.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", c.Provider)
		}
	case ProviderAnthropic:
		if c.AnthropicKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", c.Provider)
		}
	case ProviderGoogle:
		if c.GoogleKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q (want openai, anthropic or google)", c.Provider)
	}

	// Image generation always runs through OpenAI.
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for image generation")
	}

	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StoreMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("SOCIALFLOW_MYSQL_DSN is required when SOCIALFLOW_STORE=mysql")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, sqlite or mysql)", c.Store)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	return nil
}

// LinkedInConfigured reports whether both LinkedIn credentials are set.
func (c Config) LinkedInConfigured() bool {
	return c.LinkedInToken != "" && c.LinkedInPersonID != ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
