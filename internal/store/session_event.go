package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	err := r.insertEvent(ctx, tableSessions,
		[]string{"session_id", "action", "questions_planned", "questions_served",
			"correct_answers", "promoted", "duration_secs"},
		[]any{data.SessionID, data.Action, data.QuestionsPlanned, data.QuestionsServed,
			data.CorrectAnswers, data.Promoted, data.DurationSecs},
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// QuerySessionSummaries returns "end" events, newest first.
func (r *eventRepo) QuerySessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionSummaryRecord, error) {
	sel := selectEvents(tableSessions, opts,
		"session_id", "action", "questions_planned", "questions_served",
		"correct_answers", "promoted", "duration_secs")
	sel.Where(entsql.EQ("action", "end"))

	var out []SessionSummaryRecord
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			id  int
			rec SessionSummaryRecord
		)
		if err := rows.Scan(&id, &rec.Sequence, &rec.Timestamp,
			&rec.SessionID, &rec.Action, &rec.QuestionsPlanned, &rec.QuestionsServed,
			&rec.CorrectAnswers, &rec.Promoted, &rec.DurationSecs); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query session summaries: %w", err)
	}
	return out, nil
}
