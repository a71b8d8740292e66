package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderGroq       = "groq"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	Provider string `mapstructure:"provider"`

	Groq       GroqConfig       `mapstructure:"groq"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Retry      RetryConfig      `mapstructure:"retry"`

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 60s.
	Timeout time.Duration `mapstructure:"timeout"`
}

// GroqConfig holds Groq-specific configuration.
type GroqConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`    // Default: "llama-3.3-70b-versatile"
	BaseURL string `mapstructure:"base_url"` // Default: "https://api.groq.com/openai/v1"
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"` // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `mapstructure:"base_url"` // Optional. Override for compatible APIs.

	// HTTPTimeout bounds a single HTTP round trip. Zero uses the SDK client.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"` // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`    // Default: "meta-llama/llama-3.3-70b-instruct"
	BaseURL string `mapstructure:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderGroq,
		Groq: GroqConfig{
			Model:   defaultGroqModel,
			BaseURL: defaultGroqBaseURL,
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model:   defaultOpenRouterModel,
			BaseURL: defaultOpenRouterBaseURL,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from MEDQUIZ_* environment variables,
// falling back to defaults for unset values. GROQ_API_KEY is honored when
// MEDQUIZ_GROQ_API_KEY is unset.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "MEDQUIZ_LLM_PROVIDER")
	if d, err := time.ParseDuration(os.Getenv("MEDQUIZ_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("MEDQUIZ_LLM_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}

	setString(&cfg.Groq.APIKey, "GROQ_API_KEY")
	setString(&cfg.Groq.APIKey, "MEDQUIZ_GROQ_API_KEY")
	setString(&cfg.Groq.Model, "MEDQUIZ_GROQ_MODEL")
	setString(&cfg.Groq.BaseURL, "MEDQUIZ_GROQ_BASE_URL")

	setString(&cfg.Anthropic.APIKey, "MEDQUIZ_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "MEDQUIZ_ANTHROPIC_MODEL")

	setString(&cfg.OpenAI.APIKey, "MEDQUIZ_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "MEDQUIZ_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "MEDQUIZ_OPENAI_BASE_URL")

	setString(&cfg.Gemini.APIKey, "MEDQUIZ_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "MEDQUIZ_GEMINI_MODEL")

	setString(&cfg.OpenRouter.APIKey, "MEDQUIZ_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "MEDQUIZ_OPENROUTER_MODEL")

	return cfg
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// DiscoverConfig probes standard API key env vars in priority order
// (Groq → Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config
// for the first provider whose key is found. Returns (Config{}, false) if
// none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GROQ_API_KEY"); k != "" {
		cfg.Provider = ProviderGroq
		cfg.Groq.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderGroq:
		key, env = c.Groq.APIKey, "MEDQUIZ_GROQ_API_KEY"
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "MEDQUIZ_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "MEDQUIZ_OPENAI_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "MEDQUIZ_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "MEDQUIZ_OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}
