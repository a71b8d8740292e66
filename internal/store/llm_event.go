package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

var llmEventColumns = []string{
	"provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	err := r.insertEvent(ctx, tableLLMRequests, llmEventColumns, []any{
		data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
		data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody,
	})
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func scanLLMEvent(rows *entsql.Rows) (LLMEventRecord, error) {
	var e LLMEventRecord
	err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp,
		&e.Provider, &e.Model, &e.Purpose, &e.InputTokens, &e.OutputTokens,
		&e.LatencyMs, &e.Success, &e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	return e, err
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	sel := selectEvents(tableLLMRequests, opts, llmEventColumns...)

	var out []LLMEventRecord
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return out, nil
}

// GetLLMEvent returns the event with the given id, or nil if absent.
func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	sel := selectEvents(tableLLMRequests, QueryOpts{Limit: 1}, llmEventColumns...)
	sel.Where(entsql.EQ("id", id))

	var found *LLMEventRecord
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return err
		}
		found = &e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return found, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(
			"purpose",
			entsql.Count("*"),
			entsql.Sum("input_tokens"),
			entsql.Sum("output_tokens"),
			entsql.Avg("latency_ms"),
		).
		From(entsql.Table(tableLLMRequests)).
		GroupBy("purpose").
		OrderBy("purpose")

	var out []PurposeUsage
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			u        PurposeUsage
			in, outN sql.NullInt64
			avg      sql.NullFloat64
		)
		if err := rows.Scan(&u.Purpose, &u.Calls, &in, &outN, &avg); err != nil {
			return err
		}
		u.InputTokens = int(in.Int64)
		u.OutputTokens = int(outN.Int64)
		u.AvgLatencyMs = int64(avg.Float64)
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LLM usage by purpose: %w", err)
	}
	return out, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(
			"model",
			entsql.Count("*"),
			entsql.Sum("input_tokens"),
			entsql.Sum("output_tokens"),
		).
		From(entsql.Table(tableLLMRequests)).
		Where(entsql.EQ("success", true)).
		GroupBy("model").
		OrderBy("model")

	var out []ModelUsage
	err := r.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			u        ModelUsage
			in, outN sql.NullInt64
		)
		if err := rows.Scan(&u.Model, &u.Calls, &in, &outN); err != nil {
			return err
		}
		u.InputTokens = int(in.Int64)
		u.OutputTokens = int(outN.Int64)
		out = append(out, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("LLM usage by model: %w", err)
	}
	return out, nil
}
