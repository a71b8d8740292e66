package tutor

// Config holds tutor generation settings.
type Config struct {
	// HistoryLimit is the number of prior chat turns sent with a message.
	HistoryLimit int

	ChatMaxTokens   int
	ChatTemperature float64

	ExplainMaxTokens   int
	ExplainTemperature float64

	// Language the professor answers in.
	Language string
}

// DefaultConfig returns sensible defaults for the tutor.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:       10,
		ChatMaxTokens:      2048,
		ChatTemperature:    0.7,
		ExplainMaxTokens:   1024,
		ExplainTemperature: 0.3,
		Language:           "English",
	}
}
