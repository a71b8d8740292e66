package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

type retryDecision int

const (
	retryStop retryDecision = iota
	retryAgain
	retryOnce // schema failures: one more try, then give up
)

// classify maps a provider error to a retry decision.
func classify(err error) retryDecision {
	var (
		maxTok  *ErrMaxTokensExceeded
		reqErr  *ErrRequest
		invResp *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retryStop
	case errors.As(err, &maxTok), errors.As(err, &reqErr):
		return retryStop
	case errors.As(err, &invResp):
		return retryOnce
	default:
		// rate limits, outages and network errors
		return retryAgain
	}
}

// RetryProvider retries transient failures with capped exponential
// backoff. Rate-limit errors carrying a Retry-After hint wait exactly
// that long instead.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps p with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	schemaRetryUsed := false

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		switch classify(err) {
		case retryStop:
			return nil, err
		case retryOnce:
			if schemaRetryUsed {
				return nil, err
			}
			schemaRetryUsed = true
		}
		if attempt >= attempts {
			return nil, err
		}

		wait := r.delay(attempt, err)
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// delay returns how long to wait after the given (1-based) failed attempt.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	if rl := (*ErrRateLimit)(nil); errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	base := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt-1))
	base = math.Min(base, float64(r.config.MaxWait))
	// ±20% jitter
	d := time.Duration(base * (0.8 + 0.4*rand.Float64()))
	return max(d, 0)
}
