package session

import (
	"slices"
	"time"

	"github.com/abhisek/medquiz/internal/quiz"
)

// Phase is the lifecycle phase of a study session.
type Phase int

const (
	PhaseActive Phase = iota // Serving questions
	PhaseDone                // Every planned question answered
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// State tracks one study session.
type State struct {
	// ID is the session UUID.
	ID string

	// Queue is the study queue snapshotted when the session started.
	Queue []int

	// Position is the index into Queue of the next question.
	Position int

	// Results holds the graded answers in the order they were given.
	Results []*quiz.Result

	Phase     Phase
	StartedAt time.Time
}

// Current returns the QuestionID to answer next.
func (s *State) Current() (int, bool) {
	if s.Phase != PhaseActive || s.Position >= len(s.Queue) {
		return 0, false
	}
	return s.Queue[s.Position], true
}

// Remaining returns how many planned questions are unanswered.
func (s *State) Remaining() int {
	return len(s.Queue) - s.Position
}

func (s *State) clone() *State {
	c := *s
	c.Queue = slices.Clone(s.Queue)
	c.Results = slices.Clone(s.Results)
	return &c
}
