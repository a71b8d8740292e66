package bank

import "testing"

func answeredSet(ids ...int) Answered {
	m := make(map[int]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return func(id int) bool { return m[id] }
}

func navQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{ID: i + 1}
	}
	return qs
}

func TestLastAnswered(t *testing.T) {
	qs := navQuestions(5)
	if got := LastAnswered(qs, answeredSet()); got != 0 {
		t.Errorf("no answers: got %d, want 0", got)
	}
	if got := LastAnswered(qs, answeredSet(0, 3)); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestNextPrevUnanswered(t *testing.T) {
	qs := navQuestions(5)
	answered := answeredSet(0, 1, 3)

	if i, ok := NextUnanswered(qs, answered, 0); !ok || i != 2 {
		t.Errorf("NextUnanswered(0) = %d, %v; want 2", i, ok)
	}
	if i, ok := NextUnanswered(qs, answered, 2); !ok || i != 4 {
		t.Errorf("NextUnanswered(2) = %d, %v; want 4", i, ok)
	}
	if _, ok := NextUnanswered(qs, answered, 4); ok {
		t.Error("NextUnanswered(4) should find nothing")
	}
	if i, ok := PrevUnanswered(qs, answered, 4); !ok || i != 2 {
		t.Errorf("PrevUnanswered(4) = %d, %v; want 2", i, ok)
	}
	if _, ok := PrevUnanswered(qs, answered, 2); ok {
		t.Error("PrevUnanswered(2) should find nothing")
	}
}

func TestProgressBoundary(t *testing.T) {
	qs := navQuestions(5)
	tests := []struct {
		name     string
		answered Answered
		want     int
	}{
		{"none", answeredSet(), 0},
		{"prefix", answeredSet(0, 1, 2), 2},
		{"gap", answeredSet(0, 1, 3, 4), 1},
		{"all", answeredSet(0, 1, 2, 3, 4), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressBoundary(qs, tt.answered); got != tt.want {
				t.Errorf("ProgressBoundary() = %d, want %d", got, tt.want)
			}
		})
	}
	if got := ProgressBoundary(nil, answeredSet()); got != 0 {
		t.Errorf("empty bank boundary = %d, want 0", got)
	}
}

func TestInitialIndex(t *testing.T) {
	qs := navQuestions(5)
	answered := answeredSet(0, 1, 3)
	if got := InitialIndex(qs, answered, true); got != 1 {
		t.Errorf("main test = %d, want 1", got)
	}
	if got := InitialIndex(qs, answered, false); got != 3 {
		t.Errorf("category test = %d, want 3", got)
	}
}
