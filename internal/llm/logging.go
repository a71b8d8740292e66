package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/medquiz/internal/store"
	"github.com/rs/zerolog"
)

// RequestRecorder persists one event per request. store.EventRepo
// satisfies it.
type RequestRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// LoggingProvider logs each request and hands it to a RequestRecorder.
type LoggingProvider struct {
	inner    Provider
	name     string
	recorder RequestRecorder
	log      zerolog.Logger
}

// WithLogging wraps p. name is the provider label stored with each event;
// recorder may be nil.
func WithLogging(p Provider, name string, recorder RequestRecorder, log zerolog.Logger) Provider {
	return &LoggingProvider{
		inner:    p,
		name:     name,
		recorder: recorder,
		log:      log.With().Str("component", "llm").Str("provider", name).Logger(),
	}
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := l.event(ctx, req, resp, err, time.Since(start))
	l.logEvent(ev, err)

	if l.recorder != nil {
		// The request context may already be past its deadline.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		if recErr := l.recorder.AppendLLMRequest(rctx, ev); recErr != nil {
			l.log.Warn().Err(recErr).Msg("record llm request")
		}
		cancel()
	}
	return resp, err
}

func (l *LoggingProvider) event(ctx context.Context, req Request, resp *Response, err error, took time.Duration) store.LLMRequestEventData {
	ev := store.LLMRequestEventData{
		Provider:    l.name,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   took.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = resp.Text
		if resp.Model != "" {
			ev.Model = resp.Model
		}
	}
	return ev
}

func (l *LoggingProvider) logEvent(ev store.LLMRequestEventData, err error) {
	e := l.log.Debug()
	if err != nil {
		e = l.log.Warn().Err(err)
		if code := StatusCode(err); code != 0 {
			e = e.Int("status", code)
		}
	}
	e.Str("model", ev.Model).
		Str("purpose", ev.Purpose).
		Int64("latency_ms", ev.LatencyMs).
		Int("input_tokens", ev.InputTokens).
		Int("output_tokens", ev.OutputTokens).
		Msg("llm request")
}

// transcript renders a request as readable text for `medquiz llm view`.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.MarshalIndent(req.Schema.Definition, "", "  "); err == nil {
			fmt.Fprintf(&b, "[schema %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
