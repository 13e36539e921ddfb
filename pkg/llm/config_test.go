package llm

import (
	"os"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "LLM_API_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := LoadConfig()

	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", cfg.Provider, "openai")
	}
	if cfg.Model != "" {
		t.Errorf("Model = %q, want empty", cfg.Model)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
	if cfg.APIURL != "" {
		t.Errorf("APIURL = %q, want empty", cfg.APIURL)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_MODEL", "llama3")
	t.Setenv("LLM_API_KEY", "sk-llm")
	t.Setenv("LLM_API_URL", "http://localhost:11434")

	cfg := LoadConfig()

	if cfg.Provider != "ollama" {
		t.Errorf("Provider = %q, want %q", cfg.Provider, "ollama")
	}
	if cfg.Model != "llama3" {
		t.Errorf("Model = %q, want %q", cfg.Model, "llama3")
	}
	if cfg.APIKey != "sk-llm" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "sk-llm")
	}
	if cfg.APIURL != "http://localhost:11434" {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, "http://localhost:11434")
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "openai", Model: "m"}); err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "Anthropic", Model: "m"}); err != nil {
		t.Fatalf("anthropic: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "ollama", Model: "m"}); err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "mystery"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
