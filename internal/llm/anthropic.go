package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// The Messages API rejects requests without max_tokens.
const defaultAnthropicMaxTokens = 1024

var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// AnthropicProvider implements Provider on the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	// RetryProvider owns retries.
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0))
	return &AnthropicProvider{client: &client, model: resolveModel(cfg.Model, anthropicModels)}, nil
}

func (p *AnthropicProvider) ModelID() string { return p.model }

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	msg, err := p.client.Messages.New(ctx, p.params(req))
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	stop := mapAnthropicStopReason(msg.StopReason)
	switch {
	case text.Len() == 0 && stop == StopRefused:
		return nil, &ErrInvalidResponse{Err: errors.New("anthropic refused the request")}
	case text.Len() == 0:
		return nil, &ErrInvalidResponse{Err: errors.New("no text content in anthropic response")}
	case stop == StopMaxTokens && req.Schema != nil:
		return nil, &ErrMaxTokensExceeded{Content: json.RawMessage(text.String())}
	}

	out, err := newResponse(text.String(), req.Schema)
	if err != nil {
		return nil, err
	}
	out.Model = string(msg.Model)
	out.StopReason = stop
	out.Usage = Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	return out, nil
}

func (p *AnthropicProvider) params(req Request) anthropic.MessageNewParams {
	system, msgs := splitSystem(req)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(positiveOr(req.MaxTokens, defaultAnthropicMaxTokens)),
		Messages:  anthropicMessages(msgs),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	}
	return params
}

// anthropicMessages folds consecutive same-role turns into one message,
// since the API requires user and assistant turns to alternate.
func anthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		block := anthropic.NewTextBlock(m.Content)
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, block)
			continue
		}
		out = append(out, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{block},
		})
	}
	return out
}

func mapAnthropicStopReason(reason anthropic.StopReason) string {
	switch string(reason) {
	case "max_tokens":
		return StopMaxTokens
	case "refusal":
		return StopRefused
	default:
		return StopEnd
	}
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fromStatus(apiErr.StatusCode, err)
	}
	return &ErrProviderUnavailable{Err: err}
}

// resolveModel maps a friendly alias to a provider model id. Unknown
// names are used as-is.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
