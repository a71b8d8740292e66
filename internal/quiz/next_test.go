package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/medquiz/internal/archive"
)

func intp(n int) *int { return &n }

func TestNextMainTest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pos, err := svc.Next(ctx, Cursor{})
	if err != nil {
		t.Fatal(err)
	}
	if pos.Index != 0 || pos.Answered || pos.Done || pos.Total != 10 {
		t.Fatalf("fresh main test = %+v", pos)
	}

	// Answer 0, 1 and 3: resume lands on the first gap.
	for _, id := range []int{0, 1, 3} {
		if _, err := svc.Submit(ctx, Submission{TestType: "main", QuestionID: id, Choice: intp(0)}); err != nil {
			t.Fatal(err)
		}
	}
	pos, err = svc.Next(ctx, Cursor{})
	if err != nil {
		t.Fatal(err)
	}
	if pos.Index != 2 || pos.Question.QuestionID() != 2 {
		t.Fatalf("resume = %d, want 2", pos.Index)
	}

	pos, _ = svc.Next(ctx, Cursor{From: 2, Direction: Forward})
	if pos.Index != 4 {
		t.Fatalf("forward from 2 = %d, want 4 (3 is answered)", pos.Index)
	}
	pos, _ = svc.Next(ctx, Cursor{From: 4, Direction: Backward})
	if pos.Index != 2 {
		t.Fatalf("backward from 4 = %d, want 2", pos.Index)
	}
	pos, _ = svc.Next(ctx, Cursor{From: 2, Direction: Backward})
	if !pos.Done || pos.Index != 2 {
		t.Fatalf("backward from 2 = %+v, want done at 2", pos)
	}
}

func TestNextCategorySavesProgress(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Virology holds questions 2 and 3.
	if _, err := svc.Submit(ctx, Submission{TestType: "category_virology", QuestionID: 2, Choice: intp(1)}); err != nil {
		t.Fatal(err)
	}
	pos, err := svc.Next(ctx, Cursor{Category: "Virology"})
	if err != nil {
		t.Fatal(err)
	}
	if pos.Total != 2 || pos.Question.QuestionID() != 3 || pos.Index != 1 {
		t.Fatalf("virology resume = %+v", pos)
	}
	p, err := svc.Engine().Progress(ctx, "virology")
	if err != nil {
		t.Fatal(err)
	}
	if p.Index != 1 {
		t.Fatalf("saved progress = %d, want 1", p.Index)
	}

	if _, err := svc.Submit(ctx, Submission{TestType: "category_virology", QuestionID: 3}); err != nil {
		t.Fatal(err)
	}
	pos, _ = svc.Next(ctx, Cursor{Category: "virology"})
	if !pos.Done || !pos.Answered {
		t.Fatalf("finished category = %+v", pos)
	}
}

func TestNextUnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Next(context.Background(), Cursor{Category: "cardiology"})
	var ve *archive.ValidationError
	if !errors.As(err, &ve) || !errors.Is(err, ErrNoSuchCategory) {
		t.Fatalf("expected ValidationError wrapping ErrNoSuchCategory, got %v", err)
	}
}
