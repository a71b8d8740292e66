package archive

import (
	"fmt"
	"strings"

	"github.com/abhisek/medquiz/internal/store"
)

// Mode is the answer namespace a record is written to.
type Mode string

const (
	ModeMain  Mode = "main"
	ModeFast  Mode = "fast"
	ModeStudy Mode = "study"
)

// categoryPrefix marks category tests, which share the main namespace.
const categoryPrefix = "category_"

// ParseMode maps a test type to its namespace. Empty strings and category
// tests ("category_virology") resolve to ModeMain.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); {
	case m == "", m == ModeMain:
		return ModeMain, nil
	case m == ModeFast, m == ModeStudy:
		return m, nil
	case strings.HasPrefix(string(m), categoryPrefix):
		return ModeMain, nil
	default:
		return "", &ValidationError{Field: "mode", Value: s, Err: ErrUnknownMode}
	}
}

func (m Mode) key() store.Key {
	switch m {
	case ModeFast:
		return store.KeyAnswersFast
	case ModeStudy:
		return store.KeyAnswersStudy
	default:
		return store.KeyAnswersMain
	}
}

// Modes lists the namespaces from lowest to highest precedence in the
// combined view.
var Modes = []Mode{ModeStudy, ModeFast, ModeMain}

// Choice returns a pointer to i for use as a chosen answer index. A nil
// choice means "don't know".
func Choice(i int) *int {
	return &i
}

// Records maps question ids to the chosen answer index (nil = unknown).
type Records map[int]*int

// Has reports whether id has a record in r.
func (r Records) Has(id int) bool {
	_, ok := r[id]
	return ok
}

// Unknown reports whether id was answered "don't know". Unanswered ids are
// not unknown.
func (r Records) Unknown(id int) bool {
	c, ok := r[id]
	return ok && c == nil
}

// Outcome classifies a graded answer for the main-test tally.
type Outcome int

const (
	OutcomeCorrect Outcome = iota
	OutcomeIncorrect
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeUnknown:
		return "unknown"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// OutcomeOf derives the tally bucket from a choice and its grade.
func OutcomeOf(choice *int, correct bool) Outcome {
	switch {
	case choice == nil:
		return OutcomeUnknown
	case correct:
		return OutcomeCorrect
	default:
		return OutcomeIncorrect
	}
}

// Tally counts main-test outcomes.
type Tally struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Unknown   int `json:"unknown"`
}

// Total returns the number of tallied answers.
func (t Tally) Total() int {
	return t.Correct + t.Incorrect + t.Unknown
}

// Classification is the result of Classify.
type Classification struct {
	QuestionID int  `json:"questionId"`
	Correct    bool `json:"correct"`
	Mode       Mode `json:"mode"`
	// Seeded is set when the ledger entry was (re)written.
	Seeded   bool `json:"seeded"`
	Strength int  `json:"strength"`
	// Tally and Answered are filled by WithTally and WithAnsweredCount.
	Tally    *Tally `json:"tally,omitempty"`
	Answered int    `json:"answered,omitempty"`
}

// Resolution is the result of Resolve.
type Resolution struct {
	QuestionID     int  `json:"questionId"`
	Correct        bool `json:"correct"`
	StrengthBefore int  `json:"strengthBefore"`
	StrengthAfter  int  `json:"strengthAfter"`
	Promoted       bool `json:"promoted"`
}

// StudyStats summarizes the study queue.
type StudyStats struct {
	Total     int         `json:"total"`
	Unknown   int         `json:"unknown"`
	Incorrect int         `json:"incorrect"`
	Counters  map[int]int `json:"counters"`
}

// Archives holds both archive lists in insertion order.
type Archives struct {
	Correct   []int `json:"correct"`
	Incorrect []int `json:"incorrect"`
}

// Progress is the resume position of a category test.
type Progress struct {
	Index    int `json:"index"`
	Answered int `json:"answered"`
}

// Report lists inconsistencies found by Verify.
type Report struct {
	// InBoth holds ids present in both archives.
	InBoth []int `json:"inBoth"`
	// Orphaned holds incorrect ids without a positive ledger entry. They are
	// never queued.
	Orphaned []int `json:"orphaned"`
	// Dangling holds ledger entries for ids outside the incorrect archive.
	Dangling []int `json:"dangling"`
}

// OK reports whether the report found no problems that break invariants.
// Orphaned ids are tolerated.
func (r *Report) OK() bool {
	return len(r.InBoth) == 0 && len(r.Dangling) == 0
}

// State is a typed copy of everything the engine persists.
type State struct {
	Correct   []int               `json:"correct"`
	Incorrect []int               `json:"incorrect"`
	Counters  map[int]int         `json:"counters"`
	Answers   map[Mode]Records    `json:"answers"`
	Tally     Tally               `json:"tally"`
	Favorites []int               `json:"favorites"`
	Progress  map[string]Progress `json:"progress"`
}
