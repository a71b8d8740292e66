package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromStatus(t *testing.T) {
	base := errors.New("upstream")
	tests := []struct {
		code int
		want string
	}{
		{http.StatusTooManyRequests, "*llm.ErrRateLimit"},
		{http.StatusUnauthorized, "*llm.ErrRequest"},
		{http.StatusNotFound, "*llm.ErrRequest"},
		{http.StatusBadGateway, "*llm.ErrProviderUnavailable"},
		{0, "*llm.ErrProviderUnavailable"},
	}
	for _, tt := range tests {
		err := fromStatus(tt.code, base)
		if got := fmt.Sprintf("%T", err); got != tt.want {
			t.Errorf("fromStatus(%d) = %s, want %s", tt.code, got, tt.want)
		}
		if !errors.Is(err, base) {
			t.Errorf("fromStatus(%d) lost the cause", tt.code)
		}
	}
}

func TestStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("chat completion: %w", &ErrRequest{StatusCode: 403, Err: errors.New("forbidden")})
	if got := StatusCode(wrapped); got != 403 {
		t.Errorf("StatusCode = %d, want 403", got)
	}
	if got := StatusCode(&ErrRateLimit{}); got != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", got)
	}
	if got := StatusCode(errors.New("dial tcp: refused")); got != 0 {
		t.Errorf("StatusCode = %d, want 0", got)
	}
}

func TestInvalidResponseMessage(t *testing.T) {
	if msg := (&ErrInvalidResponse{}).Error(); msg != "invalid LLM response: unknown error" {
		t.Errorf("message = %q", msg)
	}
}
