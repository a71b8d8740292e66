package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit is a 429 from the provider. RetryAfter is zero when the
// provider gave no hint.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the reply was empty, refused, or did not match
// the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string { return "invalid LLM response: " + errString(e.Err) }

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers 5xx replies and transport failures.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return "LLM provider unavailable: " + e.Err.Error()
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means a structured reply was cut off by MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string { return "LLM response truncated: max tokens exceeded" }

// ErrRequest is a 4xx other than 429: bad key, unknown model, malformed
// request. Retrying cannot help.
type ErrRequest struct {
	StatusCode int
	Err        error
}

func (e *ErrRequest) Error() string {
	return fmt.Sprintf("LLM request rejected (%d %s): %v", e.StatusCode, http.StatusText(e.StatusCode), e.Err)
}

func (e *ErrRequest) Unwrap() error { return e.Err }

// fromStatus classifies an SDK error by the HTTP status it carries.
func fromStatus(code int, err error) error {
	switch {
	case code == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case code >= 400 && code < 500:
		return &ErrRequest{StatusCode: code, Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// StatusCode reports the upstream HTTP status behind err, or 0 when err
// did not come from an HTTP reply.
func StatusCode(err error) int {
	var reqErr *ErrRequest
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests
	}
	return 0
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
