// Package archive keeps per-question answer records, the correct/incorrect
// archives and the study counter ledger, and drives the study repetition
// loop on top of them.
//
// All state lives in an injected store.KeyValueStore. Every operation runs
// in a single store transaction while holding the engine lock, so sequences
// such as promotion are never observed half-applied.
package archive

import (
	"context"
	"errors"
	"sync"

	"github.com/abhisek/medquiz/internal/store"
	"github.com/rs/zerolog"
)

// DefaultCategories are the category tests whose progress ResetMainTests
// clears when no other list is configured.
var DefaultCategories = []string{
	"test", "bacteriology", "virology", "mycology", "parasitology", "other",
}

// QuestionValidator exposes the question bank bounds.
type QuestionValidator interface {
	// NumChoices returns the number of answers of question id, or -1 when
	// the bank has no such question.
	NumChoices(id int) int
}

// EventSink receives study transitions after they are committed.
type EventSink interface {
	AppendStudyEvent(ctx context.Context, data store.StudyEventData) error
}

// Engine is the answer archive and study repetition engine.
type Engine struct {
	kv         store.KeyValueStore
	log        zerolog.Logger
	validator  QuestionValidator
	events     EventSink
	categories []string

	mu sync.Mutex

	subMu   sync.RWMutex
	subs    map[int]func(Change)
	nextSub int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for recovered persistence problems.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log.With().Str("component", "archive").Logger()
	}
}

// WithValidator enables bounds checking of ids and choices.
func WithValidator(v QuestionValidator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithEventSink records study transitions.
func WithEventSink(s EventSink) Option {
	return func(e *Engine) { e.events = s }
}

// WithCategories sets the category tests known to the engine.
func WithCategories(categories []string) Option {
	return func(e *Engine) {
		if len(categories) > 0 {
			e.categories = append([]string(nil), categories...)
		}
	}
}

// New creates an Engine on kv.
func New(kv store.KeyValueStore, opts ...Option) *Engine {
	e := &Engine{
		kv:         kv,
		log:        zerolog.Nop(),
		categories: DefaultCategories,
		subs:       make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Categories returns the category tests known to the engine.
func (e *Engine) Categories() []string {
	return append([]string(nil), e.categories...)
}

// update runs fn in one store transaction and, after commit, delivers the
// study events and change notifications fn collected.
func (e *Engine) update(ctx context.Context, fn func(t *txn) error) error {
	e.mu.Lock()
	var committed *txn
	err := e.kv.Update(ctx, func(kv store.KV) error {
		t := &txn{ctx: ctx, kv: kv, log: e.log}
		if err := fn(t); err != nil {
			return err
		}
		committed = t
		return nil
	})
	e.mu.Unlock()

	if err != nil {
		return asArchiveError(err)
	}
	e.deliver(ctx, committed)
	return nil
}

// view runs fn against a consistent snapshot without delivering anything.
func (e *Engine) view(ctx context.Context, fn func(t *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.kv.Update(ctx, func(kv store.KV) error {
		return fn(&txn{ctx: ctx, kv: kv, log: e.log})
	})
	if err != nil {
		return asArchiveError(err)
	}
	return nil
}

func (e *Engine) deliver(ctx context.Context, t *txn) {
	if e.events != nil {
		for _, ev := range t.studyEvents {
			if err := e.events.AppendStudyEvent(ctx, ev); err != nil {
				e.log.Warn().Err(err).
					Int("question_id", ev.QuestionID).
					Str("action", ev.Action).
					Msg("failed to record study event")
			}
		}
	}
	for _, c := range t.changes {
		e.publish(c)
	}
}

// asArchiveError keeps typed errors and wraps anything else from the
// store as a commit failure.
func asArchiveError(err error) error {
	var (
		ve *ValidationError
		pe *PersistenceError
	)
	if errors.As(err, &ve) || errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &PersistenceError{Op: "commit", Err: err}
}

// validate rejects negative ids and choices always, and out-of-range ones
// when a validator is configured.
func (e *Engine) validate(id int, choice *int) error {
	if id < 0 {
		return &ValidationError{Field: "questionId", Value: id, Err: ErrNegativeID}
	}
	if choice != nil && *choice < 0 {
		return &ValidationError{Field: "choice", Value: *choice, Err: ErrNegativeChoice}
	}
	if e.validator != nil {
		n := e.validator.NumChoices(id)
		if n < 0 {
			return &ValidationError{Field: "questionId", Value: id, Err: ErrUnknownQuestion}
		}
		if choice != nil && *choice >= n {
			return &ValidationError{Field: "choice", Value: *choice, Err: ErrChoiceOutOfRange}
		}
	}
	return nil
}

func validateID(id int) error {
	if id < 0 {
		return &ValidationError{Field: "questionId", Value: id, Err: ErrNegativeID}
	}
	return nil
}
