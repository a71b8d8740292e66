package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/llm"
	"github.com/abhisek/medquiz/internal/session"
	"github.com/abhisek/medquiz/internal/tutor"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrCode identifies an API error independently of its message.
type ErrCode string

const (
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	ErrNotFound   ErrCode = "NOT_FOUND"
	ErrConflict   ErrCode = "CONFLICT"
	ErrEmptyQueue ErrCode = "EMPTY_QUEUE"

	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	ErrPersistence ErrCode = "PERSISTENCE_ERROR"
	ErrUnavailable ErrCode = "SERVICE_UNAVAILABLE"
	ErrUpstream    ErrCode = "UPSTREAM_ERROR"
	ErrInternal    ErrCode = "INTERNAL_ERROR"
)

// Message returns the human-readable text for code.
func Message(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Check your input."
	case ErrInvalidID:
		return "Invalid question id."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "The request conflicts with the current state."
	case ErrEmptyQueue:
		return "There is nothing to study."
	case ErrRateLimitExceeded:
		return "Too many requests. Try again later."
	case ErrPersistence:
		return "Saved progress could not be read or written."
	case ErrUnavailable:
		return "This feature is not configured."
	case ErrUpstream:
		return "The AI provider failed to answer."
	case ErrInternal:
		return "Internal server error."
	default:
		return "Unexpected error."
	}
}

// Response is the envelope of every non-chat route.
type Response struct {
	Data     any        `json:"data"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Detail  string            `json:"detail,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Data: data, Metadata: buildMetadata(c)})
}

func fail(c *gin.Context, status int, code ErrCode, detail string) {
	c.JSON(status, Response{
		Error:    &ErrorBody{Code: code, Message: Message(code), Detail: detail},
		Metadata: buildMetadata(c),
	})
}

func failWithFields(c *gin.Context, status int, code ErrCode, fields map[string]string) {
	c.JSON(status, Response{
		Error:    &ErrorBody{Code: code, Message: Message(code), Fields: fields},
		Metadata: buildMetadata(c),
	})
}

func abortFail(c *gin.Context, status int, code ErrCode) {
	c.AbortWithStatusJSON(status, Response{
		Error:    &ErrorBody{Code: code, Message: Message(code)},
		Metadata: buildMetadata(c),
	})
}

func buildMetadata(c *gin.Context) Metadata {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// failErr maps a domain error to a status code and envelope.
func (s *Server) failErr(c *gin.Context, err error) {
	switch {
	case archive.IsValidation(err):
		fail(c, http.StatusBadRequest, ErrValidation, err.Error())
	case errors.Is(err, session.ErrNotFound):
		fail(c, http.StatusNotFound, ErrNotFound, err.Error())
	case errors.Is(err, session.ErrFinished):
		fail(c, http.StatusConflict, ErrConflict, err.Error())
	case errors.Is(err, session.ErrEmptyQueue):
		fail(c, http.StatusConflict, ErrEmptyQueue, err.Error())
	case errors.Is(err, tutor.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrValidation, err.Error())
	case llm.StatusCode(err) == http.StatusTooManyRequests:
		fail(c, http.StatusTooManyRequests, ErrRateLimitExceeded, err.Error())
	case isLLMError(err):
		s.log.Warn().Err(err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("llm request failed")
		fail(c, http.StatusBadGateway, ErrUpstream, err.Error())
	case archive.IsPersistence(err):
		s.log.Error().Err(err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("archive persistence failure")
		fail(c, http.StatusInternalServerError, ErrPersistence, "")
	default:
		s.log.Error().Err(err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("unhandled error")
		fail(c, http.StatusInternalServerError, ErrInternal, "")
	}
}

func isLLMError(err error) bool {
	var (
		rl      *llm.ErrRateLimit
		unavail *llm.ErrProviderUnavailable
		inv     *llm.ErrInvalidResponse
		maxTok  *llm.ErrMaxTokensExceeded
		req     *llm.ErrRequest
	)
	return errors.As(err, &rl) || errors.As(err, &unavail) || errors.As(err, &inv) ||
		errors.As(err, &maxTok) || errors.As(err, &req) || errors.Is(err, tutor.ErrEmptyReply)
}
