package archive

import (
	"context"
	"slices"

	"github.com/abhisek/medquiz/internal/store"
)

// Archives returns both archive lists.
func (e *Engine) Archives(ctx context.Context) (*Archives, error) {
	var out *Archives
	err := e.view(ctx, func(t *txn) error {
		correct, err := t.idList(store.KeyCorrectAnswers)
		if err != nil {
			return err
		}
		incorrect, err := t.idList(store.KeyIncorrectAnswers)
		if err != nil {
			return err
		}
		out = &Archives{Correct: correct, Incorrect: incorrect}
		return nil
	})
	return out, err
}

// IsArchived reports whether id is in either archive.
func (e *Engine) IsArchived(ctx context.Context, id int) (bool, error) {
	a, err := e.Archives(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(a.Correct, id) || slices.Contains(a.Incorrect, id), nil
}

// RemoveFromStudy drops the ledger entry and the study record of id. The
// id stays in the incorrect archive.
func (e *Engine) RemoveFromStudy(ctx context.Context, id int) error {
	if err := validateID(id); err != nil {
		return err
	}
	return e.update(ctx, func(t *txn) error {
		counters, err := t.counters()
		if err != nil {
			return err
		}
		before := counters[id]
		delete(counters, id)
		if err := t.setCounters(counters); err != nil {
			return err
		}

		recs, err := t.records(ModeStudy)
		if err != nil {
			return err
		}
		delete(recs, id)
		if err := t.setRecords(ModeStudy, recs); err != nil {
			return err
		}

		t.study(store.StudyEventData{QuestionID: id, Action: store.StudyActionRemoved, StrengthBefore: before})
		t.notify(Change{Kind: ChangeLedger, QuestionID: id})
		return nil
	})
}

// ClearStudyArchive removes every study-eligible id from the incorrect
// archive and empties the ledger. It returns the number of ids removed.
func (e *Engine) ClearStudyArchive(ctx context.Context) (int, error) {
	var cleared int
	err := e.update(ctx, func(t *txn) error {
		queue, counters, _, err := t.studyQueue()
		if err != nil {
			return err
		}
		incorrect, err := t.idList(store.KeyIncorrectAnswers)
		if err != nil {
			return err
		}
		incorrect = slices.DeleteFunc(incorrect, func(id int) bool {
			return slices.Contains(queue, id)
		})
		if err := t.setIDList(store.KeyIncorrectAnswers, incorrect); err != nil {
			return err
		}
		if err := t.setCounters(map[int]int{}); err != nil {
			return err
		}

		cleared = len(queue)
		for _, id := range queue {
			t.study(store.StudyEventData{
				QuestionID: id, Action: store.StudyActionCleared, StrengthBefore: counters[id],
			})
		}
		t.notify(Change{Kind: ChangeClear})
		return nil
	})
	return cleared, err
}

// ResetMainTests zeroes the main tally, wipes the main namespace and resets
// the progress of every known category. Archives and the ledger are kept.
func (e *Engine) ResetMainTests(ctx context.Context) error {
	return e.update(ctx, func(t *txn) error {
		if err := t.writeJSON(store.KeyStats, Tally{}); err != nil {
			return err
		}
		if err := t.setRecords(ModeMain, Records{}); err != nil {
			return err
		}
		for _, c := range e.categories {
			if err := t.setIntValue(ProgressKey(c), 0); err != nil {
				return err
			}
			if err := t.setIntValue(AnsweredKey(c), 0); err != nil {
				return err
			}
		}
		t.notify(Change{Kind: ChangeReset, Mode: ModeMain})
		return nil
	})
}

// Verify checks the archive invariants without changing anything.
func (e *Engine) Verify(ctx context.Context) (*Report, error) {
	r := &Report{}
	err := e.view(ctx, func(t *txn) error {
		correct, err := t.idList(store.KeyCorrectAnswers)
		if err != nil {
			return err
		}
		incorrect, err := t.idList(store.KeyIncorrectAnswers)
		if err != nil {
			return err
		}
		counters, err := t.counters()
		if err != nil {
			return err
		}

		inCorrect := make(map[int]bool, len(correct))
		for _, id := range correct {
			inCorrect[id] = true
		}
		inIncorrect := make(map[int]bool, len(incorrect))
		for _, id := range incorrect {
			if inIncorrect[id] {
				continue
			}
			inIncorrect[id] = true
			if inCorrect[id] {
				r.InBoth = append(r.InBoth, id)
			}
			if counters[id] <= 0 {
				r.Orphaned = append(r.Orphaned, id)
			}
		}
		for id := range counters {
			if !inIncorrect[id] {
				r.Dangling = append(r.Dangling, id)
			}
		}
		slices.Sort(r.Dangling)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
