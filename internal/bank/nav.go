package bank

// Answered reports whether a QuestionID has a record, e.g. archive.Records.Has.
type Answered func(id int) bool

// LastAnswered returns the index in qs of the last answered question, or 0
// when none is answered.
func LastAnswered(qs []Question, answered Answered) int {
	for i := len(qs) - 1; i >= 0; i-- {
		if answered(qs[i].QuestionID()) {
			return i
		}
	}
	return 0
}

// NextUnanswered returns the first unanswered index after from.
func NextUnanswered(qs []Question, answered Answered, from int) (int, bool) {
	for i := from + 1; i < len(qs); i++ {
		if !answered(qs[i].QuestionID()) {
			return i, true
		}
	}
	return 0, false
}

// PrevUnanswered returns the last unanswered index before from.
func PrevUnanswered(qs []Question, answered Answered, from int) (int, bool) {
	for i := min(from, len(qs)) - 1; i >= 0; i-- {
		if !answered(qs[i].QuestionID()) {
			return i, true
		}
	}
	return 0, false
}

// ProgressBoundary returns the index of the last answered question before
// the first gap. With no answers it returns 0; with everything answered the
// last index.
func ProgressBoundary(qs []Question, answered Answered) int {
	last := -1
	for i, q := range qs {
		if !answered(q.QuestionID()) {
			return max(last, 0)
		}
		last = i
	}
	return max(len(qs)-1, 0)
}

// InitialIndex returns where a test resumes. The main test resumes at the
// progress boundary, category tests at the last answered question.
func InitialIndex(qs []Question, answered Answered, mainTest bool) int {
	if mainTest {
		return ProgressBoundary(qs, answered)
	}
	return LastAnswered(qs, answered)
}
