package bank

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func defaultBank(t *testing.T) *Bank {
	t.Helper()
	b, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	return b
}

func TestDefaultBank(t *testing.T) {
	b := defaultBank(t)
	if b.Len() != 10 {
		t.Errorf("Len() = %d, want 10", b.Len())
	}
	want := []string{"bacteriology", "virology", "mycology", "parasitology", "other"}
	if got := b.Categories(); !slices.Equal(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
	for _, q := range b.Questions() {
		if q.CorrectIndex() < 0 {
			t.Errorf("question %d has no correct answer", q.ID)
		}
	}
}

func TestGetUsesZeroBasedIDs(t *testing.T) {
	b := defaultBank(t)

	q, ok := b.Get(0)
	if !ok {
		t.Fatal("Get(0) not found")
	}
	if q.ID != 1 || q.QuestionID() != 0 {
		t.Errorf("Get(0) = bank id %d", q.ID)
	}
	if _, ok := b.Get(10); ok {
		t.Error("Get(10) should not exist")
	}
	if _, ok := b.Get(-1); ok {
		t.Error("Get(-1) should not exist")
	}
}

func TestGrading(t *testing.T) {
	b := defaultBank(t)
	one := func(i int) *int { return &i }

	tests := []struct {
		name   string
		id     int
		choice *int
		want   bool
	}{
		{"correct", 0, one(1), true},
		{"wrong", 0, one(0), false},
		{"unknown", 0, nil, false},
		{"out of range", 0, one(9), false},
		{"missing question", 99, one(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.IsCorrect(tt.id, tt.choice); got != tt.want {
				t.Errorf("IsCorrect(%d) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}

	if got := b.CorrectIndex(2); got != 0 {
		t.Errorf("CorrectIndex(2) = %d, want 0", got)
	}
	if got := b.NumChoices(3); got != 3 {
		t.Errorf("NumChoices(3) = %d, want 3", got)
	}
	if got := b.NumChoices(42); got != -1 {
		t.Errorf("NumChoices(42) = %d, want -1", got)
	}
}

func TestSearch(t *testing.T) {
	b := defaultBank(t)

	got := b.Search("INDIA")
	if len(got) != 0 {
		t.Errorf("answer text must not match, got %d results", len(got))
	}
	got = b.Search("cryptococcus")
	if len(got) != 1 || got[0].ID != 6 {
		t.Errorf("Search(cryptococcus) = %v", got)
	}
	got = b.Search("10")
	if len(got) != 1 || got[0].ID != 10 {
		t.Errorf("Search(10) = %v", got)
	}
	if got := b.Search("  "); got != nil {
		t.Errorf("blank search = %v, want nil", got)
	}
}

func TestByCategory(t *testing.T) {
	b := defaultBank(t)
	got := b.ByCategory("virology")
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 4 {
		t.Errorf("ByCategory(virology) = %v", got)
	}
	if len(b.ByCategory("cardiology")) != 0 {
		t.Error("unknown category should be empty")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not json", `{`, "invalid JSON"},
		{"not array", `{"id": 1}`, "schema validation"},
		{"missing answers", `[{"id": 1, "question": "q"}]`, "schema validation"},
		{"zero id", `[{"id": 0, "question": "q", "answers": [{"text":"a","correct":true},{"text":"b","correct":false}]}]`, "schema validation"},
		{"one answer", `[{"id": 1, "question": "q", "answers": [{"text":"a","correct":true}]}]`, "schema validation"},
		{"no correct", `[{"id": 1, "question": "q", "answers": [{"text":"a","correct":false},{"text":"b","correct":false}]}]`, "no correct answer"},
		{"duplicate", `[
			{"id": 1, "question": "q", "answers": [{"text":"a","correct":true},{"text":"b","correct":false}]},
			{"id": 1, "question": "r", "answers": [{"text":"a","correct":true},{"text":"b","correct":false}]}
		]`, "duplicate question id 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseDefaultsCategory(t *testing.T) {
	b, err := Parse([]byte(`[{"id": 5, "question": "q", "answers": [{"text":"a","correct":false},{"text":"b","correct":true}]}]`))
	if err != nil {
		t.Fatal(err)
	}
	q, ok := b.Get(4)
	if !ok {
		t.Fatal("Get(4) not found")
	}
	if q.Category != CategoryOther {
		t.Errorf("category = %q, want %q", q.Category, CategoryOther)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.json")
	data := `[{"id": 1, "question": "q", "answers": [{"text":"a","correct":true},{"text":"b","correct":false}]}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
