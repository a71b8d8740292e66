package llm

import "context"

// Purposes recorded with each request event.
const (
	PurposeChat    = "chat"
	PurposeExplain = "explain"

	purposeUnknown = "unknown"
)

type purposeKey struct{}

// WithPurpose tags ctx so logged requests can be grouped by feature.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return purposeUnknown
}
