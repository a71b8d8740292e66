package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// mockReply is what the offline provider answers with.
const mockReply = "ready"

// dialers builds the bare provider for each configured backend.
var dialers = map[string]func(ctx context.Context, cfg Config) (Provider, error){
	ProviderGroq: func(_ context.Context, cfg Config) (Provider, error) {
		return NewGroqProvider(cfg.Groq)
	},
	ProviderOpenAI: func(_ context.Context, cfg Config) (Provider, error) {
		return NewOpenAIProvider(cfg.OpenAI)
	},
	ProviderOpenRouter: func(_ context.Context, cfg Config) (Provider, error) {
		return NewOpenRouterProvider(cfg.OpenRouter)
	},
	ProviderAnthropic: func(_ context.Context, cfg Config) (Provider, error) {
		return NewAnthropicProvider(cfg.Anthropic)
	},
	ProviderGemini: func(ctx context.Context, cfg Config) (Provider, error) {
		return NewGeminiProvider(ctx, cfg.Gemini)
	},
}

// NewProvider builds the configured provider and wraps it, outermost
// first, as timeout → retry → logging → base. The mock provider is
// returned bare. recorder may be nil.
func NewProvider(ctx context.Context, cfg Config, recorder RequestRecorder, log zerolog.Logger) (Provider, error) {
	if cfg.Provider == ProviderMock {
		mock := NewMockProvider()
		mock.Fallback = &MockResponse{Text: mockReply}
		return mock, nil
	}
	dial, ok := dialers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	base, err := dial(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base, cfg.Provider, recorder, log)
	p = WithRetry(p, cfg.Retry)
	return WithTimeout(p, cfg.Timeout), nil
}

// TimeoutProvider puts one deadline over a whole Generate call, retries
// included.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout returns p unchanged when d is not positive.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) ModelID() string { return t.inner.ModelID() }

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}
