package tutor

import "github.com/abhisek/medquiz/internal/llm"

// ExplanationSchema defines the JSON schema for question explanations.
var ExplanationSchema = &llm.Schema{
	Name:        "answer-explanation",
	Description: "Explanation of a multiple-choice medical question and the student's answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "One or two sentences restating what the question tests",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "The text of the correct option",
			},
			"why_correct": map[string]any{
				"type":        "string",
				"description": "Why the correct option is right (2-4 sentences)",
			},
			"why_wrong": map[string]any{
				"type":        "string",
				"description": "Why the student's option is wrong, or an empty string",
			},
			"key_points": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "2-4 facts worth memorizing (5-15 words each)",
			},
		},
		"required":             []any{"summary", "correct_answer", "why_correct", "why_wrong", "key_points"},
		"additionalProperties": false,
	},
}
