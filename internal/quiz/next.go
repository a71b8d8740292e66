package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/bank"
)

// Direction selects how Next moves through a test.
type Direction int

const (
	// Resume returns where the test was left off.
	Resume Direction = iota
	// Forward skips to the next unanswered question after From.
	Forward
	// Backward skips to the previous unanswered question before From.
	Backward
)

// ErrNoSuchCategory is returned for a category the bank does not have.
var ErrNoSuchCategory = errors.New("no such category")

// Cursor locates a question inside the main test or a category test.
type Cursor struct {
	Category  string // empty for the main test
	From      int
	Direction Direction
}

// Position is the question Next picked.
type Position struct {
	Question *bank.Question
	Index    int // index within the test
	Total    int
	Answered bool
	// Done is set when there was nothing unanswered in the requested
	// direction; Question is then the one at the clamped From.
	Done bool
}

// Next walks the main test or a category test using the main-namespace
// records, which category tests share. Category positions are saved as
// the category's resume index.
func (s *Service) Next(ctx context.Context, cur Cursor) (*Position, error) {
	qs := s.bank.Questions()
	if cur.Category != "" {
		name, err := s.category(cur.Category)
		if err != nil {
			return nil, err
		}
		cur.Category = name
		qs = s.bank.ByCategory(name)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	records, err := s.engine.Records(ctx, archive.ModeMain)
	if err != nil {
		return nil, err
	}
	answered := bank.Answered(records.Has)

	pos := &Position{Total: len(qs)}
	switch cur.Direction {
	case Forward:
		idx, ok := bank.NextUnanswered(qs, answered, cur.From)
		pos.Index, pos.Done = pick(idx, ok, cur.From, len(qs))
	case Backward:
		idx, ok := bank.PrevUnanswered(qs, answered, cur.From)
		pos.Index, pos.Done = pick(idx, ok, cur.From, len(qs))
	default:
		pos.Index = bank.InitialIndex(qs, answered, cur.Category == "")
		if answered(qs[pos.Index].QuestionID()) {
			if idx, ok := bank.NextUnanswered(qs, answered, pos.Index); ok {
				pos.Index = idx
			} else if _, ok := bank.PrevUnanswered(qs, answered, pos.Index); !ok {
				pos.Done = true
			}
		}
	}

	q := qs[pos.Index]
	pos.Question = &q
	pos.Answered = answered(q.QuestionID())

	if cur.Category != "" {
		if err := s.engine.SetProgress(ctx, cur.Category, pos.Index); err != nil {
			return nil, fmt.Errorf("save progress: %w", err)
		}
	}
	return pos, nil
}

func pick(idx int, ok bool, from, n int) (int, bool) {
	if ok {
		return idx, false
	}
	return min(max(from, 0), n-1), true
}
