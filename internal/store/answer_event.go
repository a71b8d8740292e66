package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	var choice sql.NullInt64
	if data.Choice != nil {
		choice = sql.NullInt64{Int64: int64(*data.Choice), Valid: true}
	}

	err := r.insertEvent(ctx, tableAnswers,
		[]string{"session_id", "question_id", "mode", "category", "choice", "correct"},
		[]any{data.SessionID, data.QuestionID, data.Mode, data.Category, choice, data.Correct},
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryAnswerEvents(ctx context.Context, opts QueryOpts) ([]AnswerEventRecord, error) {
	sel := selectEvents(tableAnswers, opts,
		"session_id", "question_id", "mode", "category", "choice", "correct")

	var out []AnswerEventRecord
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			rec    AnswerEventRecord
			choice sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &rec.Timestamp,
			&rec.SessionID, &rec.QuestionID, &rec.Mode, &rec.Category, &choice, &rec.Correct); err != nil {
			return err
		}
		if choice.Valid {
			c := int(choice.Int64)
			rec.Choice = &c
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	return out, nil
}

func (r *eventRepo) AnswerCountsByMode(ctx context.Context) ([]ModeCount, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(
			"mode",
			entsql.Count("*"),
			"SUM(CASE WHEN correct THEN 1 ELSE 0 END)",
			entsql.Count(entsql.Distinct("question_id")),
		).
		From(entsql.Table(tableAnswers)).
		GroupBy("mode").
		OrderBy("mode")

	var out []ModeCount
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var mc ModeCount
		var correct sql.NullInt64
		if err := rows.Scan(&mc.Mode, &mc.Answers, &correct, &mc.Questions); err != nil {
			return err
		}
		mc.Correct = int(correct.Int64)
		out = append(out, mc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count answers by mode: %w", err)
	}
	return out, nil
}
