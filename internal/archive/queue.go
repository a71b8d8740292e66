package archive

import (
	"context"
	"maps"
	"sort"

	"github.com/abhisek/medquiz/internal/store"
)

// StudyQuestions returns every id eligible for study: in the incorrect
// archive with a positive strength. Ids answered "don't know" come first,
// then higher strength; ties keep incorrect-archive order.
func (e *Engine) StudyQuestions(ctx context.Context) ([]int, error) {
	var out []int
	err := e.view(ctx, func(t *txn) error {
		var err error
		out, _, _, err = t.studyQueue()
		return err
	})
	return out, err
}

// BuildQueue returns the first min(count, eligible) study ids. A count of
// zero or less yields an empty queue.
func (e *Engine) BuildQueue(ctx context.Context, count int) ([]int, error) {
	if count <= 0 {
		return []int{}, nil
	}
	ids, err := e.StudyQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > count {
		ids = ids[:count]
	}
	return ids, nil
}

// StudyStats summarizes the queue: ids answered "don't know" versus ids
// answered wrongly, plus the ledger.
func (e *Engine) StudyStats(ctx context.Context) (*StudyStats, error) {
	var stats *StudyStats
	err := e.view(ctx, func(t *txn) error {
		ids, counters, combined, err := t.studyQueue()
		if err != nil {
			return err
		}
		stats = &StudyStats{Total: len(ids), Counters: maps.Clone(counters)}
		for _, id := range ids {
			if combined.Unknown(id) {
				stats.Unknown++
			} else {
				stats.Incorrect++
			}
		}
		return nil
	})
	return stats, err
}

// studyQueue computes the ordered queue together with the ledger and the
// combined view it was derived from.
func (t *txn) studyQueue() ([]int, map[int]int, Records, error) {
	incorrect, err := t.idList(store.KeyIncorrectAnswers)
	if err != nil {
		return nil, nil, nil, err
	}
	counters, err := t.counters()
	if err != nil {
		return nil, nil, nil, err
	}
	combined, err := t.combined()
	if err != nil {
		return nil, nil, nil, err
	}

	seen := make(map[int]bool, len(incorrect))
	ids := make([]int, 0, len(incorrect))
	orphaned := 0
	for _, id := range incorrect {
		if seen[id] {
			continue
		}
		seen[id] = true
		if counters[id] > 0 {
			ids = append(ids, id)
		} else {
			orphaned++
		}
	}
	if orphaned > 0 {
		t.log.Debug().
			Int("orphaned", orphaned).
			Int("eligible", len(ids)).
			Msg("incorrect ids without study strength skipped")
	}

	sort.SliceStable(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		ua, ub := combined.Unknown(a), combined.Unknown(b)
		if ua != ub {
			return ua
		}
		return counters[a] > counters[b]
	})
	return ids, counters, combined, nil
}
