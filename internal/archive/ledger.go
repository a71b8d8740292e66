package archive

import (
	"context"
	"maps"

	"github.com/abhisek/medquiz/internal/store"
)

// Strength returns the study strength of id, 0 when it has no entry.
func (e *Engine) Strength(ctx context.Context, id int) (int, error) {
	var s int
	err := e.view(ctx, func(t *txn) error {
		c, err := t.counters()
		s = c[id]
		return err
	})
	return s, err
}

// Counters returns a copy of the ledger. Every value is positive.
func (e *Engine) Counters(ctx context.Context) (map[int]int, error) {
	var out map[int]int
	err := e.view(ctx, func(t *txn) error {
		c, err := t.counters()
		out = maps.Clone(c)
		return err
	})
	return out, err
}

// Bump adds delta to the strength of id. The result is clamped at 0 and a
// result of 0 removes the entry.
func (e *Engine) Bump(ctx context.Context, id, delta int) (int, error) {
	if err := validateID(id); err != nil {
		return 0, err
	}

	var after int
	err := e.update(ctx, func(t *txn) error {
		counters, err := t.counters()
		if err != nil {
			return err
		}
		before := counters[id]
		after = max(0, before+delta)
		if after == 0 {
			delete(counters, id)
		} else {
			counters[id] = after
		}
		if after == before {
			return nil
		}
		if err := t.setCounters(counters); err != nil {
			return err
		}

		action := store.StudyActionIncremented
		if after < before {
			action = store.StudyActionDecremented
		}
		t.study(store.StudyEventData{
			QuestionID: id, Action: action, StrengthBefore: before, StrengthAfter: after,
		})
		t.notify(Change{Kind: ChangeLedger, QuestionID: id, Strength: after})
		return nil
	})
	return after, err
}
