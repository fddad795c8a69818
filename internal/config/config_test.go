package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Provider:  ProviderOpenAI,
		OpenAIKey: "sk-test",
		Store:     StoreMemory,
		LogLevel:  "info",
		Port:      8000,
		DataDir:   "data",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRequiresProviderKey(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"openai without key", func(c *Config) { c.OpenAIKey = "" }, "OPENAI_API_KEY"},
		{"anthropic without key", func(c *Config) { c.Provider = ProviderAnthropic }, "ANTHROPIC_API_KEY"},
		{"google without key", func(c *Config) { c.Provider = ProviderGoogle }, "GOOGLE_API_KEY"},
		{"unknown provider", func(c *Config) { c.Provider = "cohere" }, "unknown provider"},
		{"unknown store", func(c *Config) { c.Store = "redis" }, "unknown store"},
		{"mysql without dsn", func(c *Config) { c.Store = StoreMySQL }, "SOCIALFLOW_MYSQL_DSN"},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, "log level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mut(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestValidateImageStageNeedsOpenAIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = ProviderAnthropic
	cfg.AnthropicKey = "key"
	cfg.OpenAIKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "image generation") {
		t.Fatalf("err = %v, want image generation requirement", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("SOCIALFLOW_PROVIDER", "")
	t.Setenv("SOCIALFLOW_PORT", "9001")
	t.Setenv("SOCIALFLOW_STORE", "sqlite")
	t.Setenv("SOCIALFLOW_LOG_LEVEL", "")
	t.Setenv("SOCIALFLOW_LOG_JSON", "true")
	t.Setenv("SOCIALFLOW_MYSQL_DSN", "")
	t.Setenv("LINKEDIN_ACCESS_TOKEN", "")
	t.Setenv("LINKEDIN_PERSON_ID", "")
	t.Setenv("SOCIALFLOW_DATA_DIR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("provider = %q, want default openai", cfg.Provider)
	}
	if cfg.Port != 9001 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("store = %q", cfg.Store)
	}
	if !cfg.LogJSON {
		t.Error("LogJSON not parsed")
	}
	if cfg.DataDir != "data" {
		t.Errorf("data dir = %q, want default", cfg.DataDir)
	}
	if cfg.LinkedInConfigured() {
		t.Error("LinkedIn should not be configured")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("SOCIALFLOW_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("expected port error")
	}
}
