package archive

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/medquiz/internal/store"
)

// ProgressKey is the key holding the resume index of a category test.
func ProgressKey(category string) store.Key {
	return store.Key(category + "Progress")
}

// AnsweredKey is the key holding the answered count of a category test.
func AnsweredKey(category string) store.Key {
	r, size := utf8.DecodeRuneInString(category)
	return store.Key("answeredCount" + string(unicode.ToUpper(r)) + category[size:])
}

func validateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return &ValidationError{Field: "category", Value: category, Err: ErrUnknownCategory}
	}
	return nil
}

// Tally returns the main-test outcome counts.
func (e *Engine) Tally(ctx context.Context) (Tally, error) {
	var tl Tally
	err := e.view(ctx, func(t *txn) error {
		var err error
		tl, err = t.tally()
		return err
	})
	return tl, err
}

// RecordOutcome adds one answer to the main-test tally.
func (e *Engine) RecordOutcome(ctx context.Context, o Outcome) (Tally, error) {
	var tl Tally
	err := e.update(ctx, func(t *txn) error {
		var err error
		tl, err = t.recordOutcome(o)
		return err
	})
	return tl, err
}

func (t *txn) recordOutcome(o Outcome) (Tally, error) {
	tl, err := t.tally()
	if err != nil {
		return Tally{}, err
	}
	switch o {
	case OutcomeCorrect:
		tl.Correct++
	case OutcomeIncorrect:
		tl.Incorrect++
	default:
		tl.Unknown++
	}
	return tl, t.writeJSON(store.KeyStats, tl)
}

// Progress returns the resume position of a category test.
func (e *Engine) Progress(ctx context.Context, category string) (Progress, error) {
	if err := validateCategory(category); err != nil {
		return Progress{}, err
	}
	var p Progress
	err := e.view(ctx, func(t *txn) error {
		var err error
		p, err = t.progress(category)
		return err
	})
	return p, err
}

func (t *txn) progress(category string) (Progress, error) {
	idx, err := t.intValue(ProgressKey(category))
	if err != nil {
		return Progress{}, err
	}
	n, err := t.intValue(AnsweredKey(category))
	if err != nil {
		return Progress{}, err
	}
	return Progress{Index: idx, Answered: n}, nil
}

// SetProgress stores the resume index of a category test.
func (e *Engine) SetProgress(ctx context.Context, category string, index int) error {
	if err := validateCategory(category); err != nil {
		return err
	}
	if index < 0 {
		return &ValidationError{Field: "index", Value: index, Err: ErrNegativeCount}
	}
	return e.update(ctx, func(t *txn) error {
		return t.setIntValue(ProgressKey(category), index)
	})
}

// IncAnswered adds one to the answered count of a category test and
// returns the new count.
func (e *Engine) IncAnswered(ctx context.Context, category string) (int, error) {
	if err := validateCategory(category); err != nil {
		return 0, err
	}
	var n int
	err := e.update(ctx, func(t *txn) error {
		var err error
		n, err = t.incAnswered(category)
		return err
	})
	return n, err
}

func (t *txn) incAnswered(category string) (int, error) {
	n, err := t.intValue(AnsweredKey(category))
	if err != nil {
		return 0, err
	}
	n++
	return n, t.setIntValue(AnsweredKey(category), n)
}

// SetTally overwrites the main-test tally.
func (e *Engine) SetTally(ctx context.Context, tl Tally) error {
	if tl.Correct < 0 || tl.Incorrect < 0 || tl.Unknown < 0 {
		return &ValidationError{Field: "tally", Value: tl, Err: ErrNegativeCount}
	}
	return e.update(ctx, func(t *txn) error {
		return t.writeJSON(store.KeyStats, tl)
	})
}

// AnsweredCount returns how many questions of a category test were answered.
func (e *Engine) AnsweredCount(ctx context.Context, category string) (int, error) {
	p, err := e.Progress(ctx, category)
	return p.Answered, err
}
