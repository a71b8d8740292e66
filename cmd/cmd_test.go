package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoice(t *testing.T) {
	for _, in := range []string{"", "-", "?", "  "} {
		c, err := parseChoice(in)
		require.NoError(t, err, in)
		assert.Nil(t, c, in)
	}

	c, err := parseChoice("3")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 2, *c)

	for _, in := range []string{"0", "-2", "b"} {
		_, err := parseChoice(in)
		assert.Error(t, err, in)
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = parseID("-1")
	assert.Error(t, err)
	_, err = parseID("x")
	assert.Error(t, err)
}

// run executes the CLI against the database at db.
func run(t *testing.T, db string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--db", db, "--store", "sqlite", "--log-level", "error"}, args...))
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestAnswerStudyRoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "medquiz.db")

	// Question 0 is answered with the first option, which is wrong.
	out := run(t, db, "answer", "main", "0", "1")
	assert.Contains(t, out, "incorrect")
	assert.Contains(t, out, "added to study queue")

	out = run(t, db, "study", "queue")
	assert.Contains(t, out, "Which stain is used")
	assert.NotContains(t, out, "Nothing to study")

	out = run(t, db, "archive", "verify")
	assert.Contains(t, out, "archive OK")

	// The second option is correct; strength 1 drops to 0 and promotes.
	out = run(t, db, "study", "answer", "0", "2")
	assert.Contains(t, out, "learned")

	out = run(t, db, "study", "queue")
	assert.Contains(t, out, "Nothing to study")

	out = run(t, db, "favorite", "toggle", "5")
	assert.Contains(t, out, "added to favorites")

	out = run(t, db, "backup", "save", "test")
	assert.Contains(t, out, "Saved snapshot")

	out = run(t, db, "backup", "list")
	assert.Contains(t, out, "test")
}

func TestBankShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "medquiz.db")
	out := run(t, db, "bank", "show", "0")
	assert.Contains(t, out, "Mycobacterium tuberculosis")
	assert.Contains(t, out, "Answer:")
}

func TestLLMCheckOffline(t *testing.T) {
	t.Setenv("MEDQUIZ_LLM_PROVIDER", "mock")
	db := filepath.Join(t.TempDir(), "medquiz.db")

	out := run(t, db, "llm", "check")
	assert.Contains(t, out, `mock/mock replied "ready"`)

	out = run(t, db, "llm", "list")
	assert.Contains(t, out, "No tutor requests recorded.")
}

func TestVersion(t *testing.T) {
	out := run(t, filepath.Join(t.TempDir(), "medquiz.db"), "version")
	assert.True(t, strings.HasPrefix(out, "medquiz "), out)
}

func TestNextResumesMainTest(t *testing.T) {
	db := filepath.Join(t.TempDir(), "medquiz.db")

	out := run(t, db, "next")
	assert.Contains(t, out, "main test")
	assert.Contains(t, out, " 1/10")

	run(t, db, "answer", "main", "0", "-")
	out = run(t, db, "next")
	assert.Contains(t, out, " 2/10")
	assert.NotContains(t, out, "already answered")
}
