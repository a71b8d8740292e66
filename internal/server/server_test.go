package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/config"
	"github.com/abhisek/medquiz/internal/llm"
	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/session"
	"github.com/abhisek/medquiz/internal/store"
	"github.com/abhisek/medquiz/internal/tutor"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server *Server
	bank   *bank.Bank
	engine *archive.Engine
	mock   *llm.MockProvider
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		GinMode:           "test",
		ChatRatePerMinute: 600,
		ChatBurst:         50,
		ShutdownTimeout:   time.Second,
	}
}

func newTestEnv(t *testing.T, withTutor bool, cfg config.ServerConfig) *testEnv {
	t.Helper()
	b, err := bank.Default()
	require.NoError(t, err)

	engine := archive.New(store.NewMemoryKV(), archive.WithValidator(b), archive.WithCategories(b.Categories()))
	q := quiz.NewService(b, engine, nil, zerolog.Nop())
	env := &testEnv{bank: b, engine: engine}

	deps := Deps{
		Bank:     b,
		Engine:   engine,
		Quiz:     q,
		Sessions: session.NewManager(q, nil, zerolog.Nop()),
	}
	if withTutor {
		env.mock = llm.NewMockProvider()
		deps.Tutor = tutor.NewService(env.mock, tutor.DefaultConfig(), zerolog.Nop())
	}
	env.server = New(deps, cfg, zerolog.Nop())
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

// envelope decodes a Response whose data is unmarshalled into data.
func envelope(t *testing.T, rec *httptest.ResponseRecorder, data any) *ErrorBody {
	t.Helper()
	var raw struct {
		Data     json.RawMessage `json:"data"`
		Error    *ErrorBody      `json:"error"`
		Metadata Metadata        `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())
	assert.NotEmpty(t, raw.Metadata.RequestID)
	if data != nil && raw.Error == nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Error
}

func wrongChoice(b *bank.Bank, id int) *int {
	return archive.Choice((b.CorrectIndex(id) + 1) % b.NumChoices(id))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]any
	require.Nil(t, envelope(t, rec, &data))
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, float64(env.bank.Len()), data["questions"])
	assert.Equal(t, false, data["chat"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"request_id":"req-123"`)
}

func TestGroqProxy(t *testing.T) {
	env := newTestEnv(t, true, testServerConfig())
	env.mock.AddResponse(llm.MockResponse{
		Text:  "Ziehl-Neelsen stains acid-fast bacilli.",
		Usage: llm.Usage{InputTokens: 30, OutputTokens: 8},
	})

	rec := env.do(t, http.MethodPost, "/api/groq-proxy", map[string]any{
		"message": "Why Ziehl-Neelsen?",
		"context": map[string]any{
			"currentQuestion": map[string]any{"question": "Which stain detects TB?", "userAnswer": 0, "isCorrect": false},
			"history":         []map[string]string{{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ziehl-Neelsen stains acid-fast bacilli.", resp.Response)
	assert.Equal(t, 30, resp.Usage.PromptTokens)
	assert.Equal(t, 8, resp.Usage.CompletionTokens)
	assert.Equal(t, 38, resp.Usage.TotalTokens)

	require.Len(t, env.mock.Requests(), 1)
	msgs := env.mock.Requests()[0].Messages
	require.NotEmpty(t, msgs)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Which stain detects TB?")
	assert.Equal(t, "Why Ziehl-Neelsen?", msgs[len(msgs)-1].Content)
}

func TestGroqProxyErrors(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t, true, testServerConfig())
		rec := env.do(t, http.MethodPost, "/api/groq-proxy", "{not json")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp chatError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid request body", resp.Error)
	})

	t.Run("empty message", func(t *testing.T) {
		env := newTestEnv(t, true, testServerConfig())
		rec := env.do(t, http.MethodPost, "/api/groq-proxy", map[string]any{"message": "   "})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Message is required")
		assert.Zero(t, env.mock.CallCount())
	})

	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, false, testServerConfig())
		rec := env.do(t, http.MethodPost, "/api/groq-proxy", map[string]any{"message": "hello"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		env := newTestEnv(t, true, testServerConfig())
		env.mock.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
		rec := env.do(t, http.MethodPost, "/api/groq-proxy", map[string]any{"message": "hello"})
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp chatError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Internal server error", resp.Error)
		assert.NotEmpty(t, resp.Details)
	})

	t.Run("wrong method", func(t *testing.T) {
		env := newTestEnv(t, true, testServerConfig())
		rec := env.do(t, http.MethodGet, "/api/groq-proxy", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestChatRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.ChatRatePerMinute = 1
	cfg.ChatBurst = 1
	env := newTestEnv(t, true, cfg)
	env.mock.AddResponse(llm.MockResponse{Text: "first"})

	rec := env.do(t, http.MethodPost, "/api/groq-proxy", map[string]any{"message": "one"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/groq-proxy", map[string]any{"message": "two"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, env.mock.CallCount())

	// Non-chat routes are not limited.
	rec = env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExplain(t *testing.T) {
	env := newTestEnv(t, true, testServerConfig())
	env.mock.AddResponse(llm.MockResponse{Content: json.RawMessage(`{
		"summary": "Acid-fast staining.",
		"correct_answer": "Ziehl-Neelsen stain",
		"why_correct": "Mycolic acids retain carbol fuchsin.",
		"why_wrong": "Gram stain does not penetrate the waxy wall.",
		"key_points": ["acid-fast", "mycolic acid"]
	}`)})

	rec := env.do(t, http.MethodPost, "/api/explain", map[string]any{"questionId": 0, "choice": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data explainResponse
	require.Nil(t, envelope(t, rec, &data))
	require.NotNil(t, data.Explanation)
	assert.Equal(t, "Ziehl-Neelsen stain", data.Explanation.CorrectAnswer)
	assert.Contains(t, data.Markdown, "Ziehl-Neelsen")
	assert.Contains(t, data.HTML, "<li>")

	rec = env.do(t, http.MethodPost, "/api/explain", map[string]any{"questionId": 0, "choice": 99})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/explain", map[string]any{"questionId": 100000})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuestions(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())

	var all []questionView
	rec := env.do(t, http.MethodGet, "/api/questions", nil)
	require.Nil(t, envelope(t, rec, &all))
	require.Len(t, all, env.bank.Len())
	assert.Equal(t, all[0].BankID-1, all[0].QuestionID)

	var one questionView
	rec = env.do(t, http.MethodGet, "/api/questions/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, envelope(t, rec, &one))
	assert.Equal(t, 0, one.QuestionID)
	assert.Equal(t, 1, one.BankID)

	var cat []questionView
	rec = env.do(t, http.MethodGet, "/api/questions?category=virology", nil)
	require.Nil(t, envelope(t, rec, &cat))
	require.NotEmpty(t, cat)
	for _, q := range cat {
		assert.Equal(t, "virology", q.Category)
	}

	var found []questionView
	rec = env.do(t, http.MethodGet, "/api/questions/search?q=tuberculosis", nil)
	require.Nil(t, envelope(t, rec, &found))
	assert.NotEmpty(t, found)

	rec = env.do(t, http.MethodGet, "/api/questions/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := envelope(t, rec, nil)
	require.NotNil(t, errBody)
	assert.Equal(t, ErrInvalidID, errBody.Code)

	rec = env.do(t, http.MethodGet, "/api/questions/99999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNextQuestion(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())

	rec := env.do(t, http.MethodPost, "/api/answers", map[string]any{
		"testType": "main", "questionId": 0, "choice": nil,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pos positionView
	rec = env.do(t, http.MethodGet, "/api/questions/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, envelope(t, rec, &pos))
	assert.Equal(t, 1, pos.Index)
	assert.Equal(t, 1, pos.Question.QuestionID)
	assert.Equal(t, env.bank.Len(), pos.Total)

	rec = env.do(t, http.MethodGet, "/api/questions/next?from=1&dir=back", nil)
	require.Nil(t, envelope(t, rec, &pos))
	assert.True(t, pos.Done, "question 0 is answered")

	rec = env.do(t, http.MethodGet, "/api/questions/next?category=mycology", nil)
	require.Nil(t, envelope(t, rec, &pos))
	assert.Equal(t, "mycology", pos.Question.Category)
	assert.Equal(t, 2, pos.Total)

	rec = env.do(t, http.MethodGet, "/api/questions/next?dir=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/questions/next?category=cardiology", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnswerFlow(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())

	// Wrong main answer seeds the study queue.
	rec := env.do(t, http.MethodPost, "/api/answers", map[string]any{
		"testType": "main", "questionId": 0, "choice": *wrongChoice(env.bank, 0),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res quiz.Result
	require.Nil(t, envelope(t, rec, &res))
	assert.False(t, res.Correct)
	require.NotNil(t, res.Classification)
	assert.Equal(t, 1, res.Classification.Strength)

	// "Don't know" seeds strength 2.
	rec = env.do(t, http.MethodPost, "/api/answers", map[string]any{
		"testType": "fast", "questionId": 1, "choice": nil,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var arch archive.Archives
	rec = env.do(t, http.MethodGet, "/api/archive", nil)
	require.Nil(t, envelope(t, rec, &arch))
	assert.ElementsMatch(t, []int{0, 1}, arch.Incorrect)
	assert.Empty(t, arch.Correct)

	// Unknown first, then by strength.
	var queue queueResponse
	rec = env.do(t, http.MethodGet, "/api/study/queue", nil)
	require.Nil(t, envelope(t, rec, &queue))
	assert.Equal(t, []int{1, 0}, queue.IDs)
	require.Len(t, queue.Questions, 2)

	// A correct study answer on strength 1 promotes.
	rec = env.do(t, http.MethodPost, "/api/study/answers", map[string]any{
		"questionId": 0, "choice": env.bank.CorrectIndex(0),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, envelope(t, rec, &res))
	require.NotNil(t, res.Resolution)
	assert.True(t, res.Resolution.Promoted)

	rec = env.do(t, http.MethodGet, "/api/archive", nil)
	require.Nil(t, envelope(t, rec, &arch))
	assert.Equal(t, []int{0}, arch.Correct)
	assert.Equal(t, []int{1}, arch.Incorrect)

	var verify verifyResponse
	rec = env.do(t, http.MethodGet, "/api/archive/verify", nil)
	require.Nil(t, envelope(t, rec, &verify))
	assert.True(t, verify.OK)

	var combined map[string]*int
	rec = env.do(t, http.MethodGet, "/api/answers", nil)
	require.Nil(t, envelope(t, rec, &combined))
	assert.Len(t, combined, 2)

	var stats statsResponse
	rec = env.do(t, http.MethodGet, "/api/stats", nil)
	require.Nil(t, envelope(t, rec, &stats))
	assert.Equal(t, 1, stats.Tally.Incorrect)
	require.NotNil(t, stats.Study)
	assert.Equal(t, 1, stats.Study.Total)
}

func TestAnswerValidation(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())

	rec := env.do(t, http.MethodPost, "/api/answers", map[string]any{"testType": "main"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := envelope(t, rec, nil)
	require.NotNil(t, errBody)
	assert.Equal(t, ErrValidation, errBody.Code)
	assert.Contains(t, errBody.Fields, "questionId")

	rec = env.do(t, http.MethodPost, "/api/answers", map[string]any{
		"testType": "weekly", "questionId": 0, "choice": 0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/answers", map[string]any{
		"testType": "main", "questionId": 0, "choice": -1,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/answers/bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStudyMaintenance(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())
	for _, id := range []int{0, 1, 2} {
		rec := env.do(t, http.MethodPost, "/api/answers", map[string]any{
			"testType": "main", "questionId": id, "choice": nil,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodDelete, "/api/study/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var st archive.StudyStats
	rec = env.do(t, http.MethodGet, "/api/study/stats", nil)
	require.Nil(t, envelope(t, rec, &st))
	assert.Equal(t, 2, st.Total)

	var cleared map[string]int
	rec = env.do(t, http.MethodDelete, "/api/study", nil)
	require.Nil(t, envelope(t, rec, &cleared))
	assert.Equal(t, 2, cleared["cleared"])

	rec = env.do(t, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var combined map[string]*int
	rec = env.do(t, http.MethodGet, "/api/answers/main", nil)
	require.Nil(t, envelope(t, rec, &combined))
	assert.Empty(t, combined)
}

func TestStudySession(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())

	rec := env.do(t, http.MethodPost, "/api/study/sessions", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	errBody := envelope(t, rec, nil)
	require.NotNil(t, errBody)
	assert.Equal(t, ErrEmptyQueue, errBody.Code)

	rec = env.do(t, http.MethodPost, "/api/answers", map[string]any{
		"testType": "main", "questionId": 3, "choice": *wrongChoice(env.bank, 3),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sv sessionView
	rec = env.do(t, http.MethodPost, "/api/study/sessions", map[string]any{"count": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Nil(t, envelope(t, rec, &sv))
	require.NotNil(t, sv.Current)
	assert.Equal(t, 3, *sv.Current)
	assert.Equal(t, "active", sv.Phase)

	var ar session.AnswerResult
	rec = env.do(t, http.MethodPost, "/api/study/sessions/"+sv.ID+"/answers", map[string]any{
		"choice": env.bank.CorrectIndex(3),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, envelope(t, rec, &ar))
	assert.Nil(t, ar.Next)
	assert.Zero(t, ar.Remaining)

	rec = env.do(t, http.MethodGet, "/api/study/sessions/"+sv.ID, nil)
	require.Nil(t, envelope(t, rec, &sv))
	assert.Equal(t, "done", sv.Phase)
	assert.Equal(t, 1, sv.Answered)

	rec = env.do(t, http.MethodPost, "/api/study/sessions/"+sv.ID+"/answers", map[string]any{"choice": 0})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var sum session.Summary
	rec = env.do(t, http.MethodDelete, "/api/study/sessions/"+sv.ID, nil)
	require.Nil(t, envelope(t, rec, &sum))
	assert.Equal(t, 1, sum.Correct)
	assert.Equal(t, []int{3}, sum.Promoted)

	rec = env.do(t, http.MethodGet, "/api/study/sessions/"+sv.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/favorites/4", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/favorites/2", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/favorites/4", nil).Code)

	var ids []int
	rec := env.do(t, http.MethodGet, "/api/favorites", nil)
	require.Nil(t, envelope(t, rec, &ids))
	assert.Equal(t, []int{2}, ids)

	rec = env.do(t, http.MethodPut, "/api/favorites/-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())
	rec := env.do(t, http.MethodGet, "/api/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	errBody := envelope(t, rec, nil)
	require.NotNil(t, errBody)
	assert.Equal(t, ErrNotFound, errBody.Code)
}

func TestWebSocketStreamsChanges(t *testing.T) {
	env := newTestEnv(t, false, testServerConfig())
	srv := httptest.NewServer(env.server.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/favorites/7", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ch archive.Change
	require.NoError(t, conn.ReadJSON(&ch))
	assert.Equal(t, archive.ChangeFavorite, ch.Kind)
	assert.Equal(t, 7, ch.QuestionID)
	assert.True(t, ch.Favorite)
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))
}
