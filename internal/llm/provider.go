package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider sends one conversation to a model and returns its reply.
type Provider interface {
	// Generate returns Content validated against req.Schema when one is
	// set, and the reply as a JSON string otherwise.
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

type Request struct {
	System string
	// Messages are oldest first; the new user turn goes last.
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem carries in-conversation instructions such as the question
	// under discussion. Providers without in-line system turns fold these
	// into the system prompt.
	RoleSystem Role = "system"
)

// ParseRole maps a wire role name to a Role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleUser, RoleAssistant, RoleSystem:
		return r, true
	}
	return "", false
}

// Schema names a JSON Schema the reply must satisfy. Name doubles as the
// response-format name for providers that want one.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopRefused   = "refused"
)

type Response struct {
	Text       string
	Content    json.RawMessage
	Usage      Usage
	Model      string // the model that actually served the request
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// newResponse wraps raw reply text. With a schema the text must be the
// JSON document itself.
func newResponse(text string, schema *Schema) (*Response, error) {
	if schema != nil {
		content := json.RawMessage(text)
		if err := validateResponse(schema, content); err != nil {
			return nil, err
		}
		return &Response{Text: text, Content: content}, nil
	}
	encoded, err := json.Marshal(text)
	if err != nil {
		return nil, &ErrInvalidResponse{Err: err}
	}
	return &Response{Text: text, Content: encoded}, nil
}

// splitSystem moves in-line system turns into the system prompt.
func splitSystem(req Request) (string, []Message) {
	var system []string
	if req.System != "" {
		system = append(system, req.System)
	}
	msgs := make([]Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
		} else {
			msgs = append(msgs, m)
		}
	}
	return strings.Join(system, "\n\n"), msgs
}
