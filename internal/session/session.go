// Package session runs study sessions: a snapshot of the study queue that
// is answered question by question through the quiz service.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultQuestionCount is the session size used when none is requested.
const DefaultQuestionCount = 20

var (
	ErrNotFound   = errors.New("session not found")
	ErrFinished   = errors.New("session has no questions left")
	ErrEmptyQueue = errors.New("nothing to study")
)

// EventSink records session start and end.
type EventSink interface {
	AppendSessionEvent(ctx context.Context, data store.SessionEventData) error
}

// AnswerResult is returned for every answer given in a session.
type AnswerResult struct {
	*quiz.Result
	// Next is the QuestionID to answer next, nil when the session is done.
	Next      *int `json:"next"`
	Remaining int  `json:"remaining"`
}

// Manager keeps the active sessions in memory.
type Manager struct {
	quiz   *quiz.Service
	events EventSink
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*State
}

// NewManager creates a Manager. events may be nil.
func NewManager(q *quiz.Service, events EventSink, log zerolog.Logger) *Manager {
	return &Manager{
		quiz:     q,
		events:   events,
		log:      log.With().Str("component", "session").Logger(),
		now:      time.Now,
		sessions: make(map[string]*State),
	}
}

// Start snapshots up to count ids of the study queue into a new session.
// A count of zero or less uses DefaultQuestionCount.
func (m *Manager) Start(ctx context.Context, count int) (*State, error) {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	queue, err := m.quiz.Engine().BuildQueue(ctx, count)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		return nil, ErrEmptyQueue
	}

	state := &State{
		ID:        uuid.NewString(),
		Queue:     queue,
		Phase:     PhaseActive,
		StartedAt: m.now(),
	}

	m.mu.Lock()
	m.sessions[state.ID] = state
	snapshot := state.clone()
	m.mu.Unlock()

	m.record(ctx, store.SessionEventData{
		SessionID:        state.ID,
		Action:           "start",
		QuestionsPlanned: len(queue),
	})
	m.log.Debug().Str("session_id", state.ID).Int("questions", len(queue)).Msg("study session started")
	return snapshot, nil
}

// Get returns a copy of the session state.
func (m *Manager) Get(id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return state.clone(), nil
}

// Answer grades choice against the current question of the session.
func (m *Manager) Answer(ctx context.Context, id string, choice *int) (*AnswerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	qid, ok := state.Current()
	if !ok {
		return nil, ErrFinished
	}

	res, err := m.quiz.Submit(ctx, quiz.Submission{
		TestType:   string(archive.ModeStudy),
		QuestionID: qid,
		Choice:     choice,
		SessionID:  id,
	})
	if err != nil {
		return nil, err
	}

	state.Results = append(state.Results, res)
	state.Position++
	out := &AnswerResult{Result: res, Remaining: state.Remaining()}
	if next, ok := state.Current(); ok {
		out.Next = &next
	} else {
		state.Phase = PhaseDone
	}
	return out, nil
}

// End removes the session and returns its summary. Unanswered questions
// stay in the study queue untouched.
func (m *Manager) End(ctx context.Context, id string) (*Summary, error) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	sum := BuildSummary(state, m.now())
	m.record(ctx, store.SessionEventData{
		SessionID:        id,
		Action:           "end",
		QuestionsPlanned: sum.Planned,
		QuestionsServed:  sum.Served,
		CorrectAnswers:   sum.Correct,
		Promoted:         len(sum.Promoted),
		DurationSecs:     int(sum.Duration.Seconds()),
	})
	return sum, nil
}

// Active returns the number of sessions in memory.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) record(ctx context.Context, data store.SessionEventData) {
	if m.events == nil {
		return
	}
	if err := m.events.AppendSessionEvent(ctx, data); err != nil {
		m.log.Warn().Err(err).Str("session_id", data.SessionID).Msg("failed to record session event")
	}
}
