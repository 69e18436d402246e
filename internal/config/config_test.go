package config

import (
	"errors"
	"testing"

	"argus/internal/llm"
	"argus/internal/pipeline"
)

func TestLoadYAML(t *testing.T) {
	data := []byte(`
provider: mistral
mistral:
  api_key: file-key
  model: mistral-small-latest
acled:
  key: acled-key
  email: someone@example.com
db_path: /tmp/argus.db
logging:
  level: debug
  format: json
serve:
  addr: ":9090"
`)
	cfg, err := Load(data, ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "mistral" || cfg.Mistral.APIKey != "file-key" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DBPath != "/tmp/argus.db" || cfg.Serve.Addr != ":9090" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadJSONByContentDetection(t *testing.T) {
	data := []byte(`{"provider": "ollama", "ollama": {"model": "tinydolphin"}}`)
	cfg, err := Load(data, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "ollama" || cfg.Ollama.Model != "tinydolphin" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadKeepsDefaultsForUnsetFields(t *testing.T) {
	cfg, err := Load([]byte(`provider: ollama`), ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath == "" || cfg.Serve.Addr == "" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load([]byte("{not valid at all"), "")
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvMistralKey, "env-key")
	t.Setenv(EnvACLEDKey, "env-acled")
	t.Setenv(EnvACLEDEmail, "env@example.com")

	cfg, err := Load([]byte(`
provider: mistral
mistral:
  api_key: file-key
acled:
  key: file-acled
  email: file@example.com
`), ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mistral.APIKey != "env-key" {
		t.Errorf("APIKey = %q, env must win", cfg.Mistral.APIKey)
	}
	if cfg.ACLED.Key != "env-acled" || cfg.ACLED.Email != "env@example.com" {
		t.Errorf("ACLED = %+v", cfg.ACLED)
	}
}

func TestGatewaySelection(t *testing.T) {
	cfg := Default()
	cfg.Provider = "ollama"
	gw, err := cfg.Gateway()
	if err != nil {
		t.Fatalf("Gateway: %v", err)
	}
	if _, ok := gw.(*llm.OllamaClient); !ok {
		t.Errorf("gateway = %T, want *llm.OllamaClient", gw)
	}

	cfg.Provider = "mistral"
	cfg.Mistral.APIKey = "k"
	gw, err = cfg.Gateway()
	if err != nil {
		t.Fatalf("Gateway: %v", err)
	}
	if _, ok := gw.(*llm.MistralClient); !ok {
		t.Errorf("gateway = %T, want *llm.MistralClient", gw)
	}
}

func TestGatewayUnknownProvider(t *testing.T) {
	cfg := Default()
	cfg.Provider = "gpt-42"
	if _, err := cfg.Gateway(); !errors.Is(err, pipeline.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestGatewayMistralNeedsKey(t *testing.T) {
	cfg := Default()
	cfg.Provider = "mistral"
	if _, err := cfg.Gateway(); err == nil {
		t.Error("want error for mistral without api key")
	}
}
