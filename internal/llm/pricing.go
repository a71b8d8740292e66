package llm

import "strings"

// ModelCost holds per-million-token pricing for a model.
type ModelCost struct {
	InputPerMTok  float64 // USD per 1M input tokens
	OutputPerMTok float64 // USD per 1M output tokens
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// LookupCost returns the pricing for a model ID, or nil if unknown.
// OpenRouter ids ("meta-llama/llama-3.3-70b-instruct") fall back to the
// part after the vendor prefix.
func LookupCost(modelID string) *ModelCost {
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}
	if _, rest, ok := strings.Cut(modelID, "/"); ok {
		if c, ok := modelCosts[rest]; ok {
			return &c
		}
	}
	return nil
}

// modelCosts is the pricing table, in USD per million tokens.
// Last updated: 2026-09-01.
var modelCosts = map[string]ModelCost{
	// Groq
	"llama-3.3-70b-versatile":                       {0.59, 0.79},
	"llama-3.1-8b-instant":                          {0.05, 0.08},
	"meta-llama/llama-4-scout-17b-16e-instruct":     {0.11, 0.34},
	"meta-llama/llama-4-maverick-17b-128e-instruct": {0.2, 0.6},
	"openai/gpt-oss-120b":                           {0.15, 0.75},
	"openai/gpt-oss-20b":                            {0.1, 0.5},
	"qwen/qwen3-32b":                                {0.29, 0.59},
	"gemma2-9b-it":                                  {0.2, 0.2},

	// OpenRouter
	"llama-3.3-70b-instruct": {0.13, 0.4},

	// Anthropic
	"claude-3-5-haiku-20241022":  {0.8, 4},
	"claude-3-5-haiku-latest":    {0.8, 4},
	"claude-3-7-sonnet-20250219": {3, 15},
	"claude-haiku-4-5":           {1, 5},
	"claude-haiku-4-5-20251001":  {1, 5},
	"claude-opus-4-1-20250805":   {15, 75},
	"claude-sonnet-4-20250514":   {3, 15},
	"claude-sonnet-4-5":          {3, 15},
	"claude-sonnet-4-5-20250929": {3, 15},

	// OpenAI
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-5":        {1.25, 10},
	"gpt-5-mini":   {0.25, 2},
	"gpt-5-nano":   {0.05, 0.4},
	"o3-mini":      {1.1, 4.4},
	"o4-mini":      {1.1, 4.4},

	// Google (Gemini)
	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.0-flash-lite": {0.075, 0.3},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},
}
