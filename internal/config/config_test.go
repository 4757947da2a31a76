package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("base url = %q", cfg.Ollama.BaseURL)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"provider": "openai",
		"generator_model": "llama3.1:8b",
		"openai": {"base_url": "http://localhost:1234/v1", "timeout": "90s"},
		"pipeline": {"refine_attempts": 5, "sample_seed": 7}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.GeneratorModel != "llama3.1:8b" {
		t.Errorf("generator model = %q", cfg.GeneratorModel)
	}
	if cfg.OpenAI.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("openai base url = %q", cfg.OpenAI.BaseURL)
	}
	if cfg.OpenAI.Timeout != 90*time.Second {
		t.Errorf("openai timeout = %v", cfg.OpenAI.Timeout)
	}
	if cfg.Pipeline.RefineAttempts != 5 {
		t.Errorf("refine attempts = %d", cfg.Pipeline.RefineAttempts)
	}
	if cfg.Pipeline.SampleSeed != 7 {
		t.Errorf("sample seed = %d", cfg.Pipeline.SampleSeed)
	}
	// Untouched fields keep their defaults.
	if cfg.CriticModel != "deepseek-r1:14b" {
		t.Errorf("critic model = %q", cfg.CriticModel)
	}
	if cfg.Pipeline.GenerateAttempts != 3 {
		t.Errorf("generate attempts = %d", cfg.Pipeline.GenerateAttempts)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("QUIZFORGE_PROVIDER", "mock")
	t.Setenv("QUIZFORGE_OLLAMA_BASE_URL", "http://gpu-box:11434")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "mock" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.Ollama.BaseURL != "http://gpu-box:11434" {
		t.Errorf("base url = %q", cfg.Ollama.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default ok", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider = "bard" }, true},
		{"ollama without base url", func(c *Config) { c.Ollama.BaseURL = "" }, true},
		{"openai without key or url", func(c *Config) { c.Provider = "openai" }, true},
		{"openai with base url only", func(c *Config) {
			c.Provider = "openai"
			c.OpenAI.BaseURL = "http://localhost:1234/v1"
		}, false},
		{"missing generator model", func(c *Config) { c.GeneratorModel = "" }, true},
		{"missing critic model", func(c *Config) { c.CriticModel = "" }, true},
		{"mock needs nothing", func(c *Config) { c.Provider = "mock" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
