// Package theme holds the terminal styles used by the medquiz CLI.
package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#0EA5E9") // Sky
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Label = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	Rule = lipgloss.NewStyle().
		Foreground(Border)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Unknown = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Favorite = lipgloss.NewStyle().
			Foreground(Accent)
)

// Separator returns a horizontal rule of width cells.
func Separator(width int) string {
	return Rule.Render(strings.Repeat("─", width))
}

// Outcome renders an answer outcome name ("correct", "incorrect" or
// "unknown").
func Outcome(outcome string) string {
	switch outcome {
	case "correct":
		return Correct.Render("✓ correct")
	case "incorrect":
		return Incorrect.Render("✗ incorrect")
	default:
		return Unknown.Render("? don't know")
	}
}

// Pad right-pads a rendered string to width terminal cells. Escape codes
// and wide runes are measured the way the terminal shows them.
func Pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// Strength renders a study strength as filled pips.
func Strength(n int) string {
	if n <= 0 {
		return Hint.Render("-")
	}
	pips := Incorrect.Render(strings.Repeat("●", min(n, 10)))
	if n > 10 {
		pips += Hint.Render(fmt.Sprintf("+%d", n-10))
	}
	return pips
}

// Option renders answer option i, 1-based for display. mark is one of
// "", "correct" or "chosen".
func Option(i int, text, mark string) string {
	line := fmt.Sprintf("%d) %s", i+1, text)
	switch mark {
	case "correct":
		return Correct.Render(line)
	case "chosen":
		return Incorrect.Render(line)
	default:
		return Body.Render(line)
	}
}
