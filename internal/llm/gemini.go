package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"google.golang.org/genai"
)

// geminiModels maps short aliases to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash":      "gemini-2.5-flash",
	"gemini-flash-lite": "gemini-2.5-flash-lite",
	"gemini-pro":        "gemini-2.5-pro",
}

// errSafetyBlock is returned when Gemini withholds a reply. Questions about
// toxins, overdoses or pathogens occasionally trip the filter.
var errSafetyBlock = errors.New("reply blocked by the provider's safety filter")

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider on the Gemini API backend.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  resolveModel(cfg.Model, geminiModels),
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	system, msgs := splitSystem(req)
	result, err := p.client.Models.GenerateContent(ctx, p.model, geminiContents(msgs), geminiConfig(system, req))
	if err != nil {
		return nil, mapGeminiError(err)
	}

	text := result.Text()
	stop := geminiStopReason(result)
	switch {
	case stop == StopRefused && text == "":
		return nil, &ErrInvalidResponse{Err: errSafetyBlock}
	case stop == StopMaxTokens && req.Schema != nil:
		return nil, &ErrMaxTokensExceeded{Content: json.RawMessage(text)}
	}

	resp, err := newResponse(text, req.Schema)
	if err != nil {
		return nil, err
	}
	resp.Model = p.model
	resp.StopReason = stop
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func geminiConfig(system string, req Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchema(req.Schema.Definition)
	}
	return config
}

func geminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

// geminiSchema converts a JSON Schema definition to a genai.Schema. Only
// the keywords Gemini understands are carried over. Properties keep the
// order of "required" followed by the rest alphabetically, so structured
// replies come back in a stable field order.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{}

	if t, ok := def["type"].(string); ok {
		s.Type = geminiType(t)
	}
	if desc, ok := def["description"].(string); ok {
		s.Description = desc
	}
	s.Required = stringList(def["required"])
	s.Enum = stringList(def["enum"])

	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		var rest []string
		for name, v := range props {
			if propDef, ok := v.(map[string]any); ok {
				s.Properties[name] = geminiSchema(propDef)
				if !slices.Contains(s.Required, name) {
					rest = append(rest, name)
				}
			}
		}
		slices.Sort(rest)
		s.PropertyOrdering = append(slices.Clone(s.Required), rest...)
	}

	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	if n, ok := number(def["minItems"]); ok {
		s.MinItems = genai.Ptr(int64(n))
	}
	if n, ok := number(def["maxItems"]); ok {
		s.MaxItems = genai.Ptr(int64(n))
	}
	if n, ok := number(def["minimum"]); ok {
		s.Minimum = genai.Ptr(n)
	}
	if n, ok := number(def["maximum"]); ok {
		s.Maximum = genai.Ptr(n)
	}
	return s
}

func stringList(v any) []string {
	var out []string
	switch vs := v.(type) {
	case []string:
		out = append(out, vs...)
	case []any:
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func geminiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func geminiStopReason(result *genai.GenerateContentResponse) string {
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return StopRefused
	}
	if len(result.Candidates) == 0 {
		return StopEnd
	}
	switch result.Candidates[0].FinishReason {
	case genai.FinishReasonMaxTokens:
		return StopMaxTokens
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return StopRefused
	default:
		return StopEnd
	}
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) {
			return &ErrProviderUnavailable{Err: err}
		}
		apiErr = *apiErrPtr
	}
	return fromStatus(apiErr.Code, err)
}
