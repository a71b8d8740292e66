package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/session"
	"github.com/gin-gonic/gin"
)

// questionView exposes a bank question under its archive id.
type questionView struct {
	QuestionID int           `json:"questionId"`
	BankID     int           `json:"id"`
	Question   string        `json:"question"`
	Answers    []bank.Answer `json:"answers"`
	Category   string        `json:"category,omitempty"`
}

func viewOf(q *bank.Question) questionView {
	return questionView{
		QuestionID: q.QuestionID(),
		BankID:     q.ID,
		Question:   q.Question,
		Answers:    q.Answers,
		Category:   q.Category,
	}
}

func viewsOf(qs []bank.Question) []questionView {
	out := make([]questionView, 0, len(qs))
	for i := range qs {
		out = append(out, viewOf(&qs[i]))
	}
	return out
}

// paramID parses a non-negative question id path parameter. It writes the
// error response and returns false on failure.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 0 {
		fail(c, http.StatusBadRequest, ErrInvalidID, c.Param(name))
		return 0, false
	}
	return id, true
}

// bindOptionalJSON binds a JSON body that may be absent.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		failWithFields(c, http.StatusBadRequest, ErrValidation, translateErrors(err))
		return false
	}
	return true
}

// ─── Questions ─────────────────────────────────────────────────────────

func (s *Server) listQuestions(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		success(c, http.StatusOK, viewsOf(s.deps.Bank.ByCategory(category)))
		return
	}
	success(c, http.StatusOK, viewsOf(s.deps.Bank.Questions()))
}

func (s *Server) searchQuestions(c *gin.Context) {
	success(c, http.StatusOK, viewsOf(s.deps.Bank.Search(c.Query("q"))))
}

func (s *Server) getQuestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q, found := s.deps.Bank.Get(id)
	if !found {
		fail(c, http.StatusNotFound, ErrNotFound, "question not found")
		return
	}
	success(c, http.StatusOK, viewOf(q))
}

type nextQuery struct {
	Category string `form:"category"`
	From     *int   `form:"from" binding:"required_with=Dir,omitempty,min=0"`
	Dir      string `form:"dir" binding:"omitempty,oneof=forward back"`
}

type positionView struct {
	Question questionView `json:"question"`
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Answered bool         `json:"answered"`
	Done     bool         `json:"done"`
}

// nextQuestion resolves where the main test or a category test continues.
func (s *Server) nextQuestion(c *gin.Context) {
	var q nextQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, translateErrors(err))
		return
	}
	cur := quiz.Cursor{Category: q.Category}
	if q.From != nil {
		cur.From, cur.Direction = *q.From, quiz.Forward
		if q.Dir == "back" {
			cur.Direction = quiz.Backward
		}
	}
	pos, err := s.deps.Quiz.Next(c.Request.Context(), cur)
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, positionView{
		Question: viewOf(pos.Question),
		Index:    pos.Index,
		Total:    pos.Total,
		Answered: pos.Answered,
		Done:     pos.Done,
	})
}

// ─── Answers ───────────────────────────────────────────────────────────

type answerRequest struct {
	TestType   string `json:"testType" binding:"required"`
	QuestionID *int   `json:"questionId" binding:"required,min=0"`
	// Choice is the answer index; null means "don't know".
	Choice *int `json:"choice" binding:"omitempty,min=0"`
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, translateErrors(err))
		return
	}
	res, err := s.deps.Quiz.Submit(c.Request.Context(), quiz.Submission{
		TestType:   req.TestType,
		QuestionID: *req.QuestionID,
		Choice:     req.Choice,
	})
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

func (s *Server) combinedAnswers(c *gin.Context) {
	recs, err := s.deps.Engine.CombinedView(c.Request.Context())
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, recs)
}

func (s *Server) answersByMode(c *gin.Context) {
	mode, err := archive.ParseMode(c.Param("mode"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	recs, err := s.deps.Engine.Records(c.Request.Context(), mode)
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, recs)
}

// ─── Archive ───────────────────────────────────────────────────────────

func (s *Server) archives(c *gin.Context) {
	a, err := s.deps.Engine.Archives(c.Request.Context())
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, a)
}

type verifyResponse struct {
	*archive.Report
	OK bool `json:"ok"`
}

func (s *Server) verify(c *gin.Context) {
	rep, err := s.deps.Engine.Verify(c.Request.Context())
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, verifyResponse{Report: rep, OK: rep.OK()})
}

type statsResponse struct {
	Tally    archive.Tally               `json:"tally"`
	Study    *archive.StudyStats         `json:"study"`
	Progress map[string]archive.Progress `json:"progress"`
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()
	tl, err := s.deps.Engine.Tally(ctx)
	if err != nil {
		s.failErr(c, err)
		return
	}
	st, err := s.deps.Engine.StudyStats(ctx)
	if err != nil {
		s.failErr(c, err)
		return
	}
	progress := make(map[string]archive.Progress)
	for _, cat := range s.deps.Engine.Categories() {
		p, err := s.deps.Engine.Progress(ctx, cat)
		if err != nil {
			s.failErr(c, err)
			return
		}
		progress[cat] = p
	}
	success(c, http.StatusOK, statsResponse{Tally: tl, Study: st, Progress: progress})
}

func (s *Server) reset(c *gin.Context) {
	if err := s.deps.Engine.ResetMainTests(c.Request.Context()); err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"reset": true})
}

// ─── Study ─────────────────────────────────────────────────────────────

type queueResponse struct {
	IDs       []int          `json:"ids"`
	Questions []questionView `json:"questions"`
}

func (s *Server) studyQueue(c *gin.Context) {
	count := session.DefaultQuestionCount
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrInvalidPayload, "count must be an integer")
			return
		}
		count = n
	}
	ids, err := s.deps.Engine.BuildQueue(c.Request.Context(), count)
	if err != nil {
		s.failErr(c, err)
		return
	}
	resp := queueResponse{IDs: ids, Questions: make([]questionView, 0, len(ids))}
	for _, id := range ids {
		if q, ok := s.deps.Bank.Get(id); ok {
			resp.Questions = append(resp.Questions, viewOf(q))
		}
	}
	success(c, http.StatusOK, resp)
}

func (s *Server) studyStats(c *gin.Context) {
	st, err := s.deps.Engine.StudyStats(c.Request.Context())
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, st)
}

type studyAnswerRequest struct {
	QuestionID *int `json:"questionId" binding:"required,min=0"`
	Choice     *int `json:"choice" binding:"omitempty,min=0"`
}

func (s *Server) studyAnswer(c *gin.Context) {
	var req studyAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWithFields(c, http.StatusBadRequest, ErrValidation, translateErrors(err))
		return
	}
	res, err := s.deps.Quiz.Submit(c.Request.Context(), quiz.Submission{
		TestType:   string(archive.ModeStudy),
		QuestionID: *req.QuestionID,
		Choice:     req.Choice,
	})
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

func (s *Server) clearStudy(c *gin.Context) {
	n, err := s.deps.Engine.ClearStudyArchive(c.Request.Context())
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"cleared": n})
}

func (s *Server) removeFromStudy(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := s.deps.Engine.RemoveFromStudy(c.Request.Context(), id); err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"removed": id})
}

// ─── Study sessions ────────────────────────────────────────────────────

type sessionView struct {
	ID        string    `json:"id"`
	Queue     []int     `json:"queue"`
	Position  int       `json:"position"`
	Current   *int      `json:"current"`
	Remaining int       `json:"remaining"`
	Answered  int       `json:"answered"`
	Phase     string    `json:"phase"`
	StartedAt time.Time `json:"startedAt"`
}

func sessionViewOf(st *session.State) sessionView {
	v := sessionView{
		ID:        st.ID,
		Queue:     st.Queue,
		Position:  st.Position,
		Remaining: st.Remaining(),
		Answered:  len(st.Results),
		Phase:     st.Phase.String(),
		StartedAt: st.StartedAt,
	}
	if id, ok := st.Current(); ok {
		v.Current = &id
	}
	return v
}

type startSessionRequest struct {
	Count int `json:"count" binding:"min=0,max=500"`
}

func (s *Server) startSession(c *gin.Context) {
	var req startSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	st, err := s.deps.Sessions.Start(c.Request.Context(), req.Count)
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusCreated, sessionViewOf(st))
}

func (s *Server) getSession(c *gin.Context) {
	st, err := s.deps.Sessions.Get(c.Param("sid"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, sessionViewOf(st))
}

type sessionAnswerRequest struct {
	Choice *int `json:"choice" binding:"omitempty,min=0"`
}

func (s *Server) answerSession(c *gin.Context) {
	var req sessionAnswerRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := s.deps.Sessions.Answer(c.Request.Context(), c.Param("sid"), req.Choice)
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

func (s *Server) endSession(c *gin.Context) {
	sum, err := s.deps.Sessions.End(c.Request.Context(), c.Param("sid"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, sum)
}

// ─── Favorites ─────────────────────────────────────────────────────────

func (s *Server) favorites(c *gin.Context) {
	ids, err := s.deps.Engine.Favorites(c.Request.Context())
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, ids)
}

func (s *Server) addFavorite(c *gin.Context) {
	s.setFavorite(c, true)
}

func (s *Server) removeFavorite(c *gin.Context) {
	s.setFavorite(c, false)
}

func (s *Server) setFavorite(c *gin.Context, on bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var err error
	if on {
		err = s.deps.Engine.AddFavorite(c.Request.Context(), id)
	} else {
		err = s.deps.Engine.RemoveFavorite(c.Request.Context(), id)
	}
	if err != nil {
		s.failErr(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"questionId": id, "favorite": on})
}
