package archive

import (
	"context"
	"slices"

	"github.com/abhisek/medquiz/internal/store"
)

// Resolve applies a study-mode answer. A correct answer lowers the strength
// by one; reaching 0 promotes the question: it leaves the incorrect archive,
// joins the correct archive, the choice is written to the main namespace
// and the ledger entry is dropped. An incorrect or unknown answer raises
// the strength by one. A question with no strength is only recorded, unless
// it sits in the incorrect archive and the answer is wrong. The answer is
// always recorded in the study namespace.
func (e *Engine) Resolve(ctx context.Context, id int, isCorrect bool, choice *int) (*Resolution, error) {
	if err := e.validate(id, choice); err != nil {
		return nil, err
	}

	var res *Resolution
	err := e.update(ctx, func(t *txn) error {
		counters, err := t.counters()
		if err != nil {
			return err
		}
		before := counters[id]
		res = &Resolution{QuestionID: id, Correct: isCorrect, StrengthBefore: before}

		tracked := before > 0
		if !tracked && !isCorrect {
			incorrect, err := t.idList(store.KeyIncorrectAnswers)
			if err != nil {
				return err
			}
			tracked = slices.Contains(incorrect, id)
		}

		switch {
		case !tracked:
			// Not in study; leave the archives alone.
		case isCorrect && before == 1:
			if err := t.promote(id, choice); err != nil {
				return err
			}
			delete(counters, id)
			res.Promoted = true
			t.study(store.StudyEventData{
				QuestionID: id, Action: store.StudyActionPromoted, StrengthBefore: before,
			})
		case isCorrect:
			res.StrengthAfter = before - 1
			counters[id] = res.StrengthAfter
			t.study(store.StudyEventData{
				QuestionID: id, Action: store.StudyActionDecremented,
				StrengthBefore: before, StrengthAfter: res.StrengthAfter,
			})
		default:
			res.StrengthAfter = before + 1
			counters[id] = res.StrengthAfter
			t.study(store.StudyEventData{
				QuestionID: id, Action: store.StudyActionIncremented,
				StrengthBefore: before, StrengthAfter: res.StrengthAfter,
			})
		}

		if tracked {
			if err := t.setCounters(counters); err != nil {
				return err
			}
		}
		if err := t.putRecord(ModeStudy, id, choice); err != nil {
			return err
		}

		kind := ChangeResolve
		if res.Promoted {
			kind = ChangePromote
		}
		t.notify(Change{Kind: kind, QuestionID: id, Mode: ModeStudy, Strength: res.StrengthAfter})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// promote moves id from the incorrect to the correct archive and records
// choice as its main answer.
func (t *txn) promote(id int, choice *int) error {
	incorrect, err := t.idList(store.KeyIncorrectAnswers)
	if err != nil {
		return err
	}
	correct, err := t.idList(store.KeyCorrectAnswers)
	if err != nil {
		return err
	}
	if err := t.setIDList(store.KeyIncorrectAnswers, without(incorrect, id)); err != nil {
		return err
	}
	if err := t.setIDList(store.KeyCorrectAnswers, withID(correct, id)); err != nil {
		return err
	}
	return t.putRecord(ModeMain, id, choice)
}
