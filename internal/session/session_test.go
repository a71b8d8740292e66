package session

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/store"
	"github.com/rs/zerolog"
)

type sessionLog struct {
	events []store.SessionEventData
}

func (l *sessionLog) AppendSessionEvent(_ context.Context, d store.SessionEventData) error {
	l.events = append(l.events, d)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *quiz.Service, *sessionLog) {
	t.Helper()
	b, err := bank.Default()
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	engine := archive.New(store.NewMemoryKV(), archive.WithValidator(b))
	q := quiz.NewService(b, engine, nil, zerolog.Nop())
	log := &sessionLog{}
	m := NewManager(q, log, zerolog.Nop())

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	m.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * time.Minute)
	}
	return m, q, log
}

// miss answers ids wrongly in the main test so they enter the study queue.
func miss(t *testing.T, q *quiz.Service, ids ...int) {
	t.Helper()
	for _, id := range ids {
		wrong := 0
		if q.Bank().CorrectIndex(id) == 0 {
			wrong = 1
		}
		if _, err := q.Submit(context.Background(), quiz.Submission{TestType: "main", QuestionID: id, Choice: &wrong}); err != nil {
			t.Fatalf("submit %d: %v", id, err)
		}
	}
}

func TestStartEmptyQueue(t *testing.T) {
	m, _, log := newTestManager(t)
	_, err := m.Start(context.Background(), 5)
	if !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("err = %v, want ErrEmptyQueue", err)
	}
	if len(log.events) != 0 {
		t.Errorf("events = %d, want 0", len(log.events))
	}
}

func TestSessionLifecycle(t *testing.T) {
	m, q, log := newTestManager(t)
	ctx := context.Background()
	miss(t, q, 0, 4, 7)

	state, err := m.Start(ctx, 2)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if len(state.Queue) != 2 || state.Phase != PhaseActive {
		t.Fatalf("state = %+v", state)
	}
	if !slices.Equal(state.Queue, []int{0, 4}) {
		t.Errorf("queue = %v, want [0 4]", state.Queue)
	}

	first := q.Bank().CorrectIndex(0)
	res, err := m.Answer(ctx, state.ID, &first)
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if !res.Correct || res.Resolution == nil || !res.Resolution.Promoted {
		t.Errorf("first answer = %+v", res.Result)
	}
	if res.Next == nil || *res.Next != 4 || res.Remaining != 1 {
		t.Errorf("next = %v remaining = %d", res.Next, res.Remaining)
	}

	res, err = m.Answer(ctx, state.ID, nil)
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if res.Correct || res.Next != nil || res.Remaining != 0 {
		t.Errorf("second answer = %+v next = %v", res.Result, res.Next)
	}
	if got, _ := q.Engine().Strength(ctx, 4); got != 2 {
		t.Errorf("strength(4) = %d, want 2", got)
	}

	if _, err := m.Answer(ctx, state.ID, nil); !errors.Is(err, ErrFinished) {
		t.Errorf("answer after last question err = %v, want ErrFinished", err)
	}
	cur, _ := m.Get(state.ID)
	if cur.Phase != PhaseDone {
		t.Errorf("phase = %v, want done", cur.Phase)
	}

	sum, err := m.End(ctx, state.ID)
	if err != nil {
		t.Fatalf("End() error: %v", err)
	}
	if sum.Planned != 2 || sum.Served != 2 || sum.Correct != 1 || sum.Accuracy != 0.5 {
		t.Errorf("summary = %+v", sum)
	}
	if !slices.Equal(sum.Promoted, []int{0}) {
		t.Errorf("promoted = %v, want [0]", sum.Promoted)
	}
	if sum.Duration != time.Minute {
		t.Errorf("duration = %v, want 1m", sum.Duration)
	}

	if m.Active() != 0 {
		t.Errorf("active = %d, want 0", m.Active())
	}
	if len(log.events) != 2 || log.events[0].Action != "start" || log.events[1].Action != "end" {
		t.Fatalf("events = %+v", log.events)
	}
	if log.events[1].Promoted != 1 || log.events[1].DurationSecs != 60 {
		t.Errorf("end event = %+v", log.events[1])
	}
}

func TestUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Answer(ctx, "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Answer err = %v", err)
	}
	if _, err := m.End(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("End err = %v", err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get err = %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m, q, _ := newTestManager(t)
	ctx := context.Background()
	miss(t, q, 1)

	state, err := m.Start(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	state.Queue[0] = 99

	cur, _ := m.Get(state.ID)
	if cur.Queue[0] != 1 {
		t.Errorf("manager state was mutated through the returned copy")
	}
}

func TestAnswerAfterRemovalDoesNotPromote(t *testing.T) {
	m, q, _ := newTestManager(t)
	ctx := context.Background()
	miss(t, q, 5)

	state, err := m.Start(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Engine().RemoveFromStudy(ctx, 5); err != nil {
		t.Fatal(err)
	}

	right := q.Bank().CorrectIndex(5)
	res, err := m.Answer(ctx, state.ID, &right)
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if res.Resolution == nil || res.Resolution.Promoted {
		t.Errorf("resolution = %+v, want no promotion", res.Resolution)
	}
	a, _ := q.Engine().Archives(ctx)
	if slices.Contains(a.Correct, 5) {
		t.Errorf("correct = %v, removed question must not be promoted", a.Correct)
	}
}
