package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the pipeline needs, built once at process start
// and passed into each component constructor.
type Config struct {
	// Provider selects the inference backend.
	// Values: "ollama", "openai", "mock"
	Provider string

	// GeneratorModel writes questions, CriticModel reviews them.
	// FallbackModel gets one attempt when the primary model keeps failing.
	GeneratorModel string
	CriticModel    string
	FallbackModel  string

	Ollama   OllamaConfig
	OpenAI   OpenAIConfig
	Retry    RetryConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig

	// TopicsPath is the curriculum catalog (grade -> topic -> subtopics).
	TopicsPath string

	// ActivitiesDir is where completed quizzes are written as JSON documents.
	ActivitiesDir string
}

// OllamaConfig configures the native local inference endpoint.
type OllamaConfig struct {
	BaseURL string
	Timeout time.Duration
}

// OpenAIConfig configures the OpenAI-compatible provider. BaseURL lets it
// point at LM Studio, llama.cpp server, or Ollama's /v1 surface.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// RetryConfig bounds transport-level retries inside the inference client.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// PipelineConfig bounds the control loop.
type PipelineConfig struct {
	// GenerateAttempts bounds whole-quiz generation. Exhaustion is fatal.
	GenerateAttempts int

	// CritiqueAttempts bounds re-asks when the critic returns unusable JSON.
	CritiqueAttempts int

	// RefineAttempts bounds repair rounds per rejected question.
	RefineAttempts int

	// Spot-check sampling over unflagged questions: SampleFraction of the
	// batch, clamped to [SampleMin, SampleMax].
	SampleMin      int
	SampleMax      int
	SampleFraction float64

	// SampleSeed makes the spot-check deterministic when non-zero.
	SampleSeed int64
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string // "debug" or "info"
	Env   string // "production" emits JSON, anything else console
}

// Default returns the hardcoded fallbacks used when config.json is absent.
func Default() Config {
	return Config{
		Provider:       "ollama",
		GeneratorModel: "gpt-oss:20b",
		CriticModel:    "deepseek-r1:14b",
		FallbackModel:  "gpt-oss:20b",
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Timeout: 180 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Timeout: 180 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Pipeline: PipelineConfig{
			GenerateAttempts: 3,
			CritiqueAttempts: 2,
			RefineAttempts:   3,
			SampleMin:        5,
			SampleMax:        10,
			SampleFraction:   0.2,
		},
		Logging: LoggingConfig{
			Level: "info",
			Env:   "development",
		},
		TopicsPath:    "topics.json",
		ActivitiesDir: "Activities",
	}
}

// Load reads config.json from the given path (or the working directory when
// path is empty), applies QUIZFORGE_* environment overrides, and falls back
// to Default() for anything unset. A missing config file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("QUIZFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.Provider = v.GetString("provider")
	cfg.GeneratorModel = v.GetString("generator_model")
	cfg.CriticModel = v.GetString("critic_model")
	cfg.FallbackModel = v.GetString("fallback_model")

	cfg.Ollama.BaseURL = v.GetString("ollama.base_url")
	cfg.Ollama.Timeout = v.GetDuration("ollama.timeout")

	cfg.OpenAI.APIKey = v.GetString("openai.api_key")
	cfg.OpenAI.BaseURL = v.GetString("openai.base_url")
	cfg.OpenAI.Timeout = v.GetDuration("openai.timeout")

	cfg.Retry.MaxAttempts = v.GetInt("retry.max_attempts")
	cfg.Retry.InitialWait = v.GetDuration("retry.initial_wait")
	cfg.Retry.MaxWait = v.GetDuration("retry.max_wait")
	cfg.Retry.Multiplier = v.GetFloat64("retry.multiplier")

	cfg.Pipeline.GenerateAttempts = v.GetInt("pipeline.generate_attempts")
	cfg.Pipeline.CritiqueAttempts = v.GetInt("pipeline.critique_attempts")
	cfg.Pipeline.RefineAttempts = v.GetInt("pipeline.refine_attempts")
	cfg.Pipeline.SampleMin = v.GetInt("pipeline.sample_min")
	cfg.Pipeline.SampleMax = v.GetInt("pipeline.sample_max")
	cfg.Pipeline.SampleFraction = v.GetFloat64("pipeline.sample_fraction")
	cfg.Pipeline.SampleSeed = v.GetInt64("pipeline.sample_seed")

	cfg.Logging.Level = v.GetString("logging.level")
	cfg.Logging.Env = v.GetString("logging.env")

	cfg.TopicsPath = v.GetString("topics_path")
	cfg.ActivitiesDir = v.GetString("activities_dir")

	return cfg, nil
}

// Validate checks that the selected provider is usable.
func (c Config) Validate() error {
	switch c.Provider {
	case "ollama":
		if c.Ollama.BaseURL == "" {
			return fmt.Errorf("ollama.base_url is required for the ollama provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "" {
			return fmt.Errorf("openai.api_key or openai.base_url is required for the openai provider")
		}
	case "mock":
		// Nothing to check.
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}
	if c.GeneratorModel == "" {
		return fmt.Errorf("generator_model is required")
	}
	if c.CriticModel == "" {
		return fmt.Errorf("critic_model is required")
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("generator_model", cfg.GeneratorModel)
	v.SetDefault("critic_model", cfg.CriticModel)
	v.SetDefault("fallback_model", cfg.FallbackModel)
	v.SetDefault("ollama.base_url", cfg.Ollama.BaseURL)
	v.SetDefault("ollama.timeout", cfg.Ollama.Timeout)
	v.SetDefault("openai.api_key", cfg.OpenAI.APIKey)
	v.SetDefault("openai.base_url", cfg.OpenAI.BaseURL)
	v.SetDefault("openai.timeout", cfg.OpenAI.Timeout)
	v.SetDefault("retry.max_attempts", cfg.Retry.MaxAttempts)
	v.SetDefault("retry.initial_wait", cfg.Retry.InitialWait)
	v.SetDefault("retry.max_wait", cfg.Retry.MaxWait)
	v.SetDefault("retry.multiplier", cfg.Retry.Multiplier)
	v.SetDefault("pipeline.generate_attempts", cfg.Pipeline.GenerateAttempts)
	v.SetDefault("pipeline.critique_attempts", cfg.Pipeline.CritiqueAttempts)
	v.SetDefault("pipeline.refine_attempts", cfg.Pipeline.RefineAttempts)
	v.SetDefault("pipeline.sample_min", cfg.Pipeline.SampleMin)
	v.SetDefault("pipeline.sample_max", cfg.Pipeline.SampleMax)
	v.SetDefault("pipeline.sample_fraction", cfg.Pipeline.SampleFraction)
	v.SetDefault("pipeline.sample_seed", cfg.Pipeline.SampleSeed)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.env", cfg.Logging.Env)
	v.SetDefault("topics_path", cfg.TopicsPath)
	v.SetDefault("activities_dir", cfg.ActivitiesDir)
}
