// Package config loads the runtime configuration file (YAML or JSON) and
// builds the provider gateway from it. Secrets can be left out of the
// file and supplied through the environment instead.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"argus/internal/llm"
	"argus/internal/pipeline"
	"argus/internal/store"
)

// Environment overrides. Each one, when set, wins over the file value.
const (
	EnvMistralKey = "ARGUS_MISTRAL_API_KEY"
	EnvACLEDKey   = "ARGUS_ACLED_KEY"
	EnvACLEDEmail = "ARGUS_ACLED_EMAIL"
)

// Config is the full runtime configuration.
type Config struct {
	Provider string        `yaml:"provider" json:"provider"`
	Mistral  MistralConfig `yaml:"mistral" json:"mistral"`
	Ollama   OllamaConfig  `yaml:"ollama" json:"ollama"`
	ACLED    ACLEDConfig   `yaml:"acled" json:"acled"`
	DBPath   string        `yaml:"db_path" json:"db_path"`
	Logging  LoggingConfig `yaml:"logging" json:"logging"`
	Serve    ServeConfig   `yaml:"serve" json:"serve"`
}

// MistralConfig configures the remote provider.
type MistralConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key"`
	Model   string `yaml:"model" json:"model"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// OllamaConfig configures the local provider.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	Model   string `yaml:"model" json:"model"`
}

// ACLEDConfig holds upstream feed credentials.
type ACLEDConfig struct {
	Key   string `yaml:"key" json:"key"`
	Email string `yaml:"email" json:"email"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ServeConfig configures the admin HTTP server.
type ServeConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Provider: "ollama",
		Ollama:   OllamaConfig{},
		DBPath:   store.DefaultDBPath,
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Serve:    ServeConfig{Addr: ":8080"},
	}
}

// LoadFromPath reads a config file and returns the parsed Config with
// environment overrides applied. Format is detected by extension
// (.yaml/.yml or .json) or by content.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w: read: %v", pipeline.ErrConfiguration, err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses config from bytes. ext is the file extension for format
// hint; empty means detect from content.
func Load(data []byte, ext string) (*Config, error) {
	cfg := Default()
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}

	asJSON := ext == ".json"
	if ext == "" {
		asJSON = strings.HasPrefix(strings.TrimSpace(string(data)), "{")
	}

	if asJSON {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %w: parse json: %v", pipeline.ErrConfiguration, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %w: parse yaml: %v", pipeline.ErrConfiguration, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv copies set environment overrides into the config. Load calls
// it; callers that skip the file entirely should call it themselves.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvMistralKey); v != "" {
		c.Mistral.APIKey = v
	}
	if v := os.Getenv(EnvACLEDKey); v != "" {
		c.ACLED.Key = v
	}
	if v := os.Getenv(EnvACLEDEmail); v != "" {
		c.ACLED.Email = v
	}
}

// Gateway builds the llm.Gateway the Provider field selects.
func (c *Config) Gateway() (llm.Gateway, error) {
	switch strings.ToLower(c.Provider) {
	case "mistral":
		var opts []llm.MistralOption
		if c.Mistral.BaseURL != "" {
			opts = append(opts, llm.WithMistralBaseURL(c.Mistral.BaseURL))
		}
		return llm.NewMistralClient(c.Mistral.APIKey, c.Mistral.Model, opts...)
	case "ollama", "":
		var opts []llm.OllamaOption
		if c.Ollama.BaseURL != "" {
			opts = append(opts, llm.WithOllamaBaseURL(c.Ollama.BaseURL))
		}
		return llm.NewOllamaClient(c.Ollama.Model, opts...), nil
	default:
		return nil, fmt.Errorf("config: %w: unknown provider %q", pipeline.ErrConfiguration, c.Provider)
	}
}
