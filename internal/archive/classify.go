package archive

import (
	"context"

	"github.com/abhisek/medquiz/internal/store"
)

// Seed strengths for a fresh incorrect answer.
const (
	SeedUnknown   = 2
	SeedIncorrect = 1
)

// ClassifyOption adds bookkeeping committed together with a classification.
type ClassifyOption func(*classifyOptions)

type classifyOptions struct {
	tally    bool
	category string
}

// WithTally counts the answer in the main-test tally.
func WithTally() ClassifyOption {
	return func(o *classifyOptions) { o.tally = true }
}

// WithAnsweredCount adds one to the answered count of a category test.
func WithAnsweredCount(category string) ClassifyOption {
	return func(o *classifyOptions) { o.category = category }
}

// Classify files id into the correct or incorrect archive and records the
// answer under mode. Outside study mode an incorrect answer (re)seeds the
// ledger: SeedUnknown when choice is nil, SeedIncorrect otherwise. A seed
// replaces any existing strength. A correct answer drops the ledger entry,
// since the question is no longer in the incorrect archive.
func (e *Engine) Classify(ctx context.Context, id int, isCorrect bool, choice *int, mode Mode, opts ...ClassifyOption) (*Classification, error) {
	if err := e.validate(id, choice); err != nil {
		return nil, err
	}
	var o classifyOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.category != "" {
		if err := validateCategory(o.category); err != nil {
			return nil, err
		}
	}

	var res *Classification
	err := e.update(ctx, func(t *txn) error {
		res = &Classification{QuestionID: id, Correct: isCorrect, Mode: mode}

		correct, err := t.idList(store.KeyCorrectAnswers)
		if err != nil {
			return err
		}
		incorrect, err := t.idList(store.KeyIncorrectAnswers)
		if err != nil {
			return err
		}
		correct = without(correct, id)
		incorrect = without(incorrect, id)
		if isCorrect {
			correct = append(correct, id)
		} else {
			incorrect = append(incorrect, id)
		}
		if err := t.setIDList(store.KeyCorrectAnswers, correct); err != nil {
			return err
		}
		if err := t.setIDList(store.KeyIncorrectAnswers, incorrect); err != nil {
			return err
		}

		counters, err := t.counters()
		if err != nil {
			return err
		}
		res.Strength = counters[id]

		switch {
		case isCorrect && res.Strength > 0:
			delete(counters, id)
			if err := t.setCounters(counters); err != nil {
				return err
			}
			t.study(store.StudyEventData{
				QuestionID:     id,
				Action:         store.StudyActionCleared,
				StrengthBefore: res.Strength,
			})
			res.Strength = 0
		case !isCorrect && mode != ModeStudy:
			seed := SeedIncorrect
			if choice == nil {
				seed = SeedUnknown
			}
			before := counters[id]
			counters[id] = seed
			if err := t.setCounters(counters); err != nil {
				return err
			}
			res.Seeded = true
			res.Strength = seed
			t.study(store.StudyEventData{
				QuestionID:     id,
				Action:         store.StudyActionSeeded,
				StrengthBefore: before,
				StrengthAfter:  seed,
			})
		}

		if err := t.putRecord(mode, id, choice); err != nil {
			return err
		}
		if o.tally {
			tl, err := t.recordOutcome(OutcomeOf(choice, isCorrect))
			if err != nil {
				return err
			}
			res.Tally = &tl
		}
		if o.category != "" {
			if res.Answered, err = t.incAnswered(o.category); err != nil {
				return err
			}
		}
		t.notify(Change{Kind: ChangeClassify, QuestionID: id, Mode: mode, Strength: res.Strength})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
