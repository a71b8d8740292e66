package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/llm"
	"github.com/rs/zerolog"
)

var (
	// ErrEmptyMessage is returned when a chat request carries no text.
	ErrEmptyMessage = errors.New("message is required")

	// ErrEmptyReply is returned when the model answers with no text.
	ErrEmptyReply = errors.New("empty reply from model")
)

// Service answers student questions through an LLM provider.
type Service struct {
	provider llm.Provider
	cfg      Config
	log      zerolog.Logger
}

// NewService creates a tutor backed by provider.
func NewService(provider llm.Provider, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		cfg:      cfg,
		log:      log.With().Str("component", "tutor").Logger(),
	}
}

// ModelID returns the model the tutor talks to.
func (s *Service) ModelID() string {
	return s.provider.ModelID()
}

// Chat sends the student's message, with the question context and recent
// history, and returns the professor's reply.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	msgs := s.buildMessages(req.Context, message)
	ctx = llm.WithPurpose(ctx, llm.PurposeChat)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      chatSystem(s.cfg.Language),
		Messages:    msgs,
		MaxTokens:   s.cfg.ChatMaxTokens,
		Temperature: s.cfg.ChatTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, ErrEmptyReply
	}

	s.log.Debug().
		Int("messages", len(msgs)).
		Bool("question_context", req.Context.CurrentQuestion != nil).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("chat reply")

	return &Reply{
		Text:  resp.Text,
		Usage: usageFrom(resp.Usage),
		Model: resp.Model,
	}, nil
}

func (s *Service) buildMessages(c ChatContext, message string) []llm.Message {
	history := trimHistory(c.History, s.cfg.HistoryLimit)
	msgs := make([]llm.Message, 0, len(history)+2)

	if c.CurrentQuestion != nil && c.CurrentQuestion.Question != "" {
		msgs = append(msgs, llm.Message{
			Role:    llm.RoleSystem,
			Content: questionContextBlock(c.CurrentQuestion),
		})
	}
	msgs = append(msgs, history...)
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: message})
}

// trimHistory drops turns with an unknown role or no content, then keeps
// the last limit turns. Clients cannot inject system turns.
func trimHistory(history []HistoryMessage, limit int) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, h := range history {
		role, ok := llm.ParseRole(h.Role)
		if !ok || role == llm.RoleSystem || strings.TrimSpace(h.Content) == "" {
			continue
		}
		out = append(out, llm.Message{Role: role, Content: h.Content})
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

type explanationOutput struct {
	Summary       string   `json:"summary"`
	CorrectAnswer string   `json:"correct_answer"`
	WhyCorrect    string   `json:"why_correct"`
	WhyWrong      string   `json:"why_wrong"`
	KeyPoints     []string `json:"key_points"`
}

// Explain asks the model for a structured explanation of q given the
// student's choice (nil for "don't know").
func (s *Service) Explain(ctx context.Context, q bank.Question, choice *int) (*Explanation, error) {
	if choice != nil && (*choice < 0 || *choice >= len(q.Answers)) {
		return nil, fmt.Errorf("choice %d out of range for question %d", *choice, q.ID)
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeExplain)

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: explainSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildExplainUserMessage(q, choice)},
		},
		Schema:      ExplanationSchema,
		MaxTokens:   s.cfg.ExplainMaxTokens,
		Temperature: s.cfg.ExplainTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("explanation generation: %w", err)
	}

	var out explanationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse explanation response: %w", err)
	}

	exp := &Explanation{
		QuestionID:    q.QuestionID(),
		Summary:       out.Summary,
		CorrectAnswer: out.CorrectAnswer,
		WhyCorrect:    out.WhyCorrect,
		KeyPoints:     out.KeyPoints,
		Usage:         usageFrom(resp.Usage),
	}
	if choice != nil && !q.Answers[*choice].Correct {
		exp.WhyWrong = out.WhyWrong
	}
	return exp, nil
}
