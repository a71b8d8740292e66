// Package bank loads the static question bank the quiz runs on.
//
// Questions carry a 1-based id in the bank file. Everywhere else a question
// is addressed by its QuestionID, which is that id minus one.
package bank

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

//go:embed questions.json
var defaultQuestions []byte

// CategoryOther collects questions without a category.
const CategoryOther = "other"

// Answer is one option of a question.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a single multiple-choice question.
type Question struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Answers  []Answer `json:"answers"`
	Category string   `json:"category,omitempty"`
}

// QuestionID returns the id used by the archive for q.
func (q *Question) QuestionID() int {
	return q.ID - 1
}

// CorrectIndex returns the index of the first correct answer, or -1.
func (q *Question) CorrectIndex() int {
	for i, a := range q.Answers {
		if a.Correct {
			return i
		}
	}
	return -1
}

// Bank is an immutable, indexed question set.
type Bank struct {
	questions  []Question
	byID       map[int]*Question
	byCategory map[string][]Question
	categories []string
}

// Default returns the bank embedded in the binary.
func Default() (*Bank, error) {
	return Parse(defaultQuestions)
}

// Load reads and parses a bank file.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse validates data against the bank schema and builds the indices.
func Parse(data []byte) (*Bank, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	var qs []Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	if err := validateQuestions(qs); err != nil {
		return nil, err
	}
	return build(qs), nil
}

func build(qs []Question) *Bank {
	b := &Bank{
		questions:  qs,
		byID:       make(map[int]*Question, len(qs)),
		byCategory: make(map[string][]Question),
	}
	for i := range b.questions {
		q := &b.questions[i]
		if q.Category == "" {
			q.Category = CategoryOther
		}
		b.byID[q.QuestionID()] = q
		if _, ok := b.byCategory[q.Category]; !ok {
			b.categories = append(b.categories, q.Category)
		}
		b.byCategory[q.Category] = append(b.byCategory[q.Category], *q)
	}
	return b
}

func validateQuestions(qs []Question) error {
	var errs []string
	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		if seen[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question id %d", q.ID))
		}
		seen[q.ID] = true
		if q.CorrectIndex() < 0 {
			errs = append(errs, fmt.Sprintf("question %d has no correct answer", q.ID))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("question bank validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// Len returns the number of questions.
func (b *Bank) Len() int { return len(b.questions) }

// Questions returns every question in bank order.
func (b *Bank) Questions() []Question {
	return slices.Clone(b.questions)
}

// Get returns the question with the given QuestionID.
func (b *Bank) Get(id int) (*Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Categories returns the category names in order of first appearance.
func (b *Bank) Categories() []string {
	return slices.Clone(b.categories)
}

// Category returns the bank's spelling of name, matched case-insensitively.
func (b *Bank) Category(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range b.categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// ByCategory returns the questions of one category in bank order.
func (b *Bank) ByCategory(category string) []Question {
	return slices.Clone(b.byCategory[category])
}

// Search matches term against the bank id and the question text. A numeric
// term matches ids containing it; matching is case-insensitive.
func (b *Bank) Search(term string) []Question {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var out []Question
	for _, q := range b.questions {
		if strings.Contains(strconv.Itoa(q.ID), term) ||
			strings.Contains(strings.ToLower(q.Question), term) {
			out = append(out, q)
		}
	}
	return out
}

// CorrectIndex returns the correct answer index of id, or -1 when the
// question does not exist.
func (b *Bank) CorrectIndex(id int) int {
	q, ok := b.byID[id]
	if !ok {
		return -1
	}
	return q.CorrectIndex()
}

// IsCorrect grades choice for id. A nil choice is never correct.
func (b *Bank) IsCorrect(id int, choice *int) bool {
	q, ok := b.byID[id]
	if !ok || choice == nil || *choice < 0 || *choice >= len(q.Answers) {
		return false
	}
	return q.Answers[*choice].Correct
}

// NumChoices returns the number of answers of id, or -1 when the question
// does not exist.
func (b *Bank) NumChoices(id int) int {
	q, ok := b.byID[id]
	if !ok {
		return -1
	}
	return len(q.Answers)
}
