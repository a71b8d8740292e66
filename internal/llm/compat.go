package llm

import "fmt"

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.3-70b-versatile"

	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "meta-llama/llama-3.3-70b-instruct"
)

// compatEndpoint describes an OpenAI-compatible chat completions API.
type compatEndpoint struct {
	name         string
	baseURL      string
	model        string
	strictSchema bool
}

// dial builds an OpenAIProvider for the endpoint. Empty key fields fall
// back to the endpoint defaults and model ids are passed through verbatim.
func (e compatEndpoint) dial(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", e.name)
	}
	if baseURL == "" {
		baseURL = e.baseURL
	}
	if model == "" {
		model = e.model
	}
	p, err := newOpenAIProviderRaw(OpenAIConfig{APIKey: apiKey, Model: model, BaseURL: baseURL})
	if err != nil {
		return nil, err
	}
	p.strictSchema = e.strictSchema
	return p, nil
}

var (
	// Groq takes json_object formats and the legacy max_tokens field.
	groqEndpoint = compatEndpoint{
		name:    "groq",
		baseURL: defaultGroqBaseURL,
		model:   defaultGroqModel,
	}
	openRouterEndpoint = compatEndpoint{
		name:         "openrouter",
		baseURL:      defaultOpenRouterBaseURL,
		model:        defaultOpenRouterModel,
		strictSchema: true,
	}
)

// GroqProvider talks to Groq, the default chat backend.
type GroqProvider struct {
	*OpenAIProvider
}

func NewGroqProvider(cfg GroqConfig) (*GroqProvider, error) {
	p, err := groqEndpoint.dial(cfg.APIKey, cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &GroqProvider{p}, nil
}

// OpenRouterProvider routes requests through OpenRouter to whichever
// vendor the model id names.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	p, err := openRouterEndpoint.dial(cfg.APIKey, cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{p}, nil
}
