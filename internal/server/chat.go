package server

import (
	"errors"
	"net/http"

	"github.com/abhisek/medquiz/internal/llm"
	"github.com/abhisek/medquiz/internal/tutor"
	"github.com/gin-gonic/gin"
)

type chatResponse struct {
	Response string      `json:"response"`
	Usage    tutor.Usage `json:"usage"`
}

type chatError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// chat proxies a student message to the configured LLM.
func (s *Server) chat(c *gin.Context) {
	var req tutor.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, chatError{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if s.deps.Tutor == nil {
		c.JSON(http.StatusServiceUnavailable, chatError{
			Error:   "Chat is not configured",
			Details: "set GROQ_API_KEY or another provider key",
		})
		return
	}

	reply, err := s.deps.Tutor.Chat(c.Request.Context(), req)
	switch {
	case errors.Is(err, tutor.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, chatError{Error: "Message is required"})
		return
	case err != nil:
		status := http.StatusInternalServerError
		if llm.StatusCode(err) == http.StatusTooManyRequests {
			status = http.StatusTooManyRequests
		}
		s.log.Warn().Err(err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("chat failed")
		c.JSON(status, chatError{Error: "Internal server error", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Response: reply.Text, Usage: reply.Usage})
}

type explainRequest struct {
	QuestionID *int `json:"questionId" binding:"required,min=0"`
	Choice     *int `json:"choice" binding:"omitempty,min=0"`
}

type explainResponse struct {
	Explanation *tutor.Explanation `json:"explanation"`
	Markdown    string             `json:"markdown"`
	HTML        string             `json:"html"`
}

func (s *Server) explain(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, translateErrors(err))
		return
	}
	if s.deps.Tutor == nil {
		fail(c, http.StatusServiceUnavailable, ErrUnavailable, "no LLM provider configured")
		return
	}
	q, ok := s.deps.Bank.Get(*req.QuestionID)
	if !ok {
		fail(c, http.StatusNotFound, ErrNotFound, "question not found")
		return
	}
	if req.Choice != nil && *req.Choice >= len(q.Answers) {
		fail(c, http.StatusBadRequest, ErrValidation, "choice out of range")
		return
	}

	exp, err := s.deps.Tutor.Explain(c.Request.Context(), *q, req.Choice)
	if err != nil {
		s.failErr(c, err)
		return
	}
	md := exp.Markdown()
	html, err := tutor.RenderHTML(md)
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, explainResponse{Explanation: exp, Markdown: md, HTML: html})
}
