package tutor

import "github.com/abhisek/medquiz/internal/llm"

// QuestionContext describes the question the student is looking at.
// UserAnswer is the zero-based choice, nil for "don't know". IsCorrect is
// nil when the answer has not been checked.
type QuestionContext struct {
	Question   string `json:"question"`
	UserAnswer *int   `json:"userAnswer"`
	IsCorrect  *bool  `json:"isCorrect"`
}

// HistoryMessage is one prior chat turn as sent by the client.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatContext is the optional context attached to a chat message.
type ChatContext struct {
	CurrentQuestion *QuestionContext `json:"currentQuestion,omitempty"`
	History         []HistoryMessage `json:"history,omitempty"`
}

// ChatRequest is a student message plus its context.
type ChatRequest struct {
	Message string      `json:"message"`
	Context ChatContext `json:"context"`
}

// Usage mirrors the OpenAI-style usage block returned to chat clients.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func usageFrom(u llm.Usage) Usage {
	total := u.TotalTokens
	if total == 0 {
		total = u.InputTokens + u.OutputTokens
	}
	return Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		TotalTokens:      total,
	}
}

// Reply is the professor's answer to a chat message.
type Reply struct {
	Text  string
	Usage Usage
	Model string
}

// Explanation is a structured walkthrough of a bank question.
type Explanation struct {
	QuestionID    int    `json:"questionId"`
	Summary       string `json:"summary"`
	CorrectAnswer string `json:"correctAnswer"`
	WhyCorrect    string `json:"whyCorrect"`
	// WhyWrong is empty when the student chose correctly or skipped.
	WhyWrong  string   `json:"whyWrong,omitempty"`
	KeyPoints []string `json:"keyPoints"`
	Usage     Usage    `json:"usage"`
}
