package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/ui/theme"
)

// parseID parses a question id argument.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid question id %q", s)
	}
	return id, nil
}

// parseChoice parses a 1-based option number as typed by the user. An
// empty string, "-" or "?" means "don't know" and yields nil.
func parseChoice(s string) (*int, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "?":
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("invalid option %q: use 1, 2, ... or - for don't know", s)
	}
	idx := n - 1
	return &idx, nil
}

// optionalArg returns args[i] or "".
func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func printQuestion(w io.Writer, q *bank.Question) {
	header := theme.Label.Render(fmt.Sprintf("#%d", q.QuestionID())) + " " +
		theme.Subtitle.Render(q.Category)
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, theme.Card.Render(theme.Body.Render(q.Question)))
	for i, a := range q.Answers {
		fmt.Fprintln(w, "  "+theme.Option(i, a.Text, ""))
	}
}

// printResult shows the grade of one answer and what changed in the
// archive.
func printResult(w io.Writer, q *bank.Question, res *quiz.Result) {
	fmt.Fprintln(w, theme.Outcome(res.Outcome))
	if !res.Correct && res.CorrectIndex >= 0 {
		fmt.Fprintf(w, "Answer: %s\n", theme.Option(res.CorrectIndex, q.Answers[res.CorrectIndex].Text, "correct"))
	}
	if c := res.Classification; c != nil && c.Seeded {
		fmt.Fprintf(w, "%s strength %s\n", theme.Hint.Render("added to study queue,"), theme.Strength(c.Strength))
	}
	if r := res.Resolution; r != nil {
		switch {
		case r.Promoted:
			fmt.Fprintln(w, theme.Correct.Render("learned: moved to the correct archive"))
		default:
			fmt.Fprintf(w, "%s %s → %s\n", theme.Hint.Render("strength"),
				theme.Strength(r.StrengthBefore), theme.Strength(r.StrengthAfter))
		}
	}
	if res.Tally != nil {
		fmt.Fprintf(w, "%s %d correct, %d incorrect, %d don't know\n",
			theme.Hint.Render("main test:"), res.Tally.Correct, res.Tally.Incorrect, res.Tally.Unknown)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
