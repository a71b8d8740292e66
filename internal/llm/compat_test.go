package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestCompatEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		build      func() (*OpenAIProvider, error)
		wantModel  string
		wantStrict bool
		wantErr    bool
	}{
		{
			name: "groq defaults",
			build: func() (*OpenAIProvider, error) {
				p, err := NewGroqProvider(GroqConfig{APIKey: "gsk-test"})
				if err != nil {
					return nil, err
				}
				return p.OpenAIProvider, nil
			},
			wantModel: defaultGroqModel,
		},
		{
			name: "groq without key",
			build: func() (*OpenAIProvider, error) {
				p, err := NewGroqProvider(GroqConfig{Model: "llama-3.1-8b-instant"})
				if err != nil {
					return nil, err
				}
				return p.OpenAIProvider, nil
			},
			wantErr: true,
		},
		{
			name: "openrouter defaults",
			build: func() (*OpenAIProvider, error) {
				p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test"})
				if err != nil {
					return nil, err
				}
				return p.OpenAIProvider, nil
			},
			wantModel:  defaultOpenRouterModel,
			wantStrict: true,
		},
		{
			name: "openrouter vendor id passes through",
			build: func() (*OpenAIProvider, error) {
				p, err := NewOpenRouterProvider(OpenRouterConfig{
					APIKey:  "sk-or-test",
					Model:   "anthropic/claude-3-haiku",
					BaseURL: "https://proxy.example/v1",
				})
				if err != nil {
					return nil, err
				}
				return p.OpenAIProvider, nil
			},
			wantModel:  "anthropic/claude-3-haiku",
			wantStrict: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ModelID() != tt.wantModel {
				t.Errorf("model = %q, want %q", p.ModelID(), tt.wantModel)
			}
			if p.strictSchema != tt.wantStrict {
				t.Errorf("strictSchema = %v, want %v", p.strictSchema, tt.wantStrict)
			}
		})
	}
}

func TestGroqProvider_JSONObjectFormat(t *testing.T) {
	const card = `{"term":"Surfactant","definition":"Lowers alveolar surface tension"}`
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeCompletion(w, card, "stop")
	}))
	t.Cleanup(server.Close)

	p, err := NewGroqProvider(GroqConfig{APIKey: "gsk-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "describe"}},
		Schema:    testSchema(),
		MaxTokens: 512,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != card {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if got.Model != defaultGroqModel {
		t.Errorf("model = %q, want %q", got.Model, defaultGroqModel)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Fatalf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if got.MaxTokens != 512 || got.MaxCompletionTokens != 0 {
		t.Errorf("max_tokens = %d, max_completion_tokens = %d", got.MaxTokens, got.MaxCompletionTokens)
	}
}
