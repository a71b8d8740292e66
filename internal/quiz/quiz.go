// Package quiz grades answers against the question bank and feeds the
// result into the archive engine.
package quiz

import (
	"context"
	"strings"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/store"
	"github.com/rs/zerolog"
)

const categoryPrefix = "category_"

// AnswerSink records graded answers.
type AnswerSink interface {
	AppendAnswerEvent(ctx context.Context, data store.AnswerEventData) error
}

// Submission is one answer to grade.
type Submission struct {
	// TestType is "main", "fast", "study" or "category_<name>".
	TestType   string
	QuestionID int
	// Choice is the chosen answer index, nil for "don't know".
	Choice    *int
	SessionID string
}

// Result is the graded outcome of a Submission.
type Result struct {
	QuestionID     int                     `json:"questionId"`
	Mode           archive.Mode            `json:"mode"`
	Category       string                  `json:"category,omitempty"`
	Choice         *int                    `json:"choice"`
	Correct        bool                    `json:"correct"`
	CorrectIndex   int                     `json:"correctIndex"`
	Outcome        string                  `json:"outcome"`
	Classification *archive.Classification `json:"classification,omitempty"`
	Resolution     *archive.Resolution     `json:"resolution,omitempty"`
	Tally          *archive.Tally          `json:"tally,omitempty"`
	Answered       int                     `json:"answered,omitempty"`
}

// Service grades submissions.
type Service struct {
	bank   *bank.Bank
	engine *archive.Engine
	events AnswerSink
	log    zerolog.Logger
}

// NewService creates a Service. events may be nil.
func NewService(b *bank.Bank, engine *archive.Engine, events AnswerSink, log zerolog.Logger) *Service {
	return &Service{
		bank:   b,
		engine: engine,
		events: events,
		log:    log.With().Str("component", "quiz").Logger(),
	}
}

// Bank returns the question bank the service grades against.
func (s *Service) Bank() *bank.Bank { return s.bank }

// Engine returns the archive engine.
func (s *Service) Engine() *archive.Engine { return s.engine }

// ParseTestType splits a test type into its namespace and, for category
// tests, the category name.
func ParseTestType(testType string) (archive.Mode, string, error) {
	mode, err := archive.ParseMode(testType)
	if err != nil {
		return "", "", err
	}
	category, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(testType)), categoryPrefix)
	if !ok {
		category = ""
	}
	return mode, category, nil
}

// Submit grades sub and applies it. Study answers go through the study
// resolver. Everything else is classified; main-test answers also update
// the tally and category-test answers the answered count, in the same
// transaction as the classification. Category names must exist in the
// bank.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Result, error) {
	mode, category, err := ParseTestType(sub.TestType)
	if err != nil {
		return nil, err
	}
	if category != "" {
		if category, err = s.category(category); err != nil {
			return nil, err
		}
	}
	q, ok := s.bank.Get(sub.QuestionID)
	if !ok {
		return nil, &archive.ValidationError{Field: "questionId", Value: sub.QuestionID, Err: archive.ErrUnknownQuestion}
	}

	correct := s.bank.IsCorrect(sub.QuestionID, sub.Choice)
	res := &Result{
		QuestionID:   sub.QuestionID,
		Mode:         mode,
		Category:     category,
		Choice:       sub.Choice,
		Correct:      correct,
		CorrectIndex: q.CorrectIndex(),
		Outcome:      archive.OutcomeOf(sub.Choice, correct).String(),
	}

	if mode == archive.ModeStudy {
		if res.Resolution, err = s.engine.Resolve(ctx, sub.QuestionID, correct, sub.Choice); err != nil {
			return nil, err
		}
	} else {
		var opts []archive.ClassifyOption
		switch {
		case category != "":
			opts = append(opts, archive.WithAnsweredCount(category))
		case mode == archive.ModeMain:
			opts = append(opts, archive.WithTally())
		}
		if res.Classification, err = s.engine.Classify(ctx, sub.QuestionID, correct, sub.Choice, mode, opts...); err != nil {
			return nil, err
		}
		res.Tally = res.Classification.Tally
		res.Answered = res.Classification.Answered
	}

	s.record(ctx, sub, res)
	return res, nil
}

// category maps a category name onto the bank's spelling.
func (s *Service) category(name string) (string, error) {
	c, ok := s.bank.Category(name)
	if !ok {
		return "", &archive.ValidationError{Field: "category", Value: name, Err: ErrNoSuchCategory}
	}
	return c, nil
}

func (s *Service) record(ctx context.Context, sub Submission, res *Result) {
	if s.events == nil {
		return
	}
	err := s.events.AppendAnswerEvent(ctx, store.AnswerEventData{
		SessionID:  sub.SessionID,
		QuestionID: res.QuestionID,
		Mode:       string(res.Mode),
		Category:   res.Category,
		Choice:     res.Choice,
		Correct:    res.Correct,
	})
	if err != nil {
		s.log.Warn().Err(err).Int("question_id", res.QuestionID).Msg("failed to record answer event")
	}
}
