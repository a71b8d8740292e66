package tutor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in model output is dropped by the renderer.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderHTML converts a markdown reply to HTML.
func RenderHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Markdown renders an explanation as a markdown document.
func (e *Explanation) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", e.Summary)
	fmt.Fprintf(&b, "**Correct answer:** %s\n\n", e.CorrectAnswer)
	fmt.Fprintf(&b, "%s\n", e.WhyCorrect)
	if e.WhyWrong != "" {
		fmt.Fprintf(&b, "\n**Your answer:** %s\n", e.WhyWrong)
	}
	if len(e.KeyPoints) > 0 {
		b.WriteString("\n**Key points**\n\n")
		for _, p := range e.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	return b.String()
}
