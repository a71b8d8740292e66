package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendStudyEvent(ctx context.Context, data StudyEventData) error {
	err := r.insertEvent(ctx, tableStudy,
		[]string{"question_id", "action", "strength_before", "strength_after"},
		[]any{data.QuestionID, data.Action, data.StrengthBefore, data.StrengthAfter},
	)
	if err != nil {
		return fmt.Errorf("save study event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryStudyEvents(ctx context.Context, opts QueryOpts) ([]StudyEventRecord, error) {
	sel := selectEvents(tableStudy, opts,
		"question_id", "action", "strength_before", "strength_after")

	var out []StudyEventRecord
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var rec StudyEventRecord
		if err := rows.Scan(&rec.ID, &rec.Sequence, &rec.Timestamp,
			&rec.QuestionID, &rec.Action, &rec.StrengthBefore, &rec.StrengthAfter); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query study events: %w", err)
	}
	return out, nil
}
