// Package server exposes the archive engine, the study sessions and the
// tutor over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/config"
	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/session"
	"github.com/abhisek/medquiz/internal/tutor"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Deps are the services the HTTP API is built on. Tutor may be nil when
// no LLM provider is configured; chat routes then answer 503.
type Deps struct {
	Bank     *bank.Bank
	Engine   *archive.Engine
	Quiz     *quiz.Service
	Sessions *session.Manager
	Tutor    *tutor.Service
}

// Server is the medquiz HTTP API.
type Server struct {
	deps    Deps
	cfg     config.ServerConfig
	log     zerolog.Logger
	limiter *RateLimiter
	hub     *hub
	router  *gin.Engine
}

// New builds the server and its routes.
func New(deps Deps, cfg config.ServerConfig, log zerolog.Logger) *Server {
	s := &Server{
		deps:    deps,
		cfg:     cfg,
		log:     log.With().Str("component", "server").Logger(),
		limiter: NewRateLimiter(cfg.ChatRatePerMinute, cfg.ChatBurst),
	}
	s.hub = newHub(deps.Engine, cfg.AllowedOrigins, s.log)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	if s.cfg.GinMode != "" {
		gin.SetMode(s.cfg.GinMode)
	}
	setupValidator()

	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true

	corsConfig := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 24 * time.Hour
	r.Use(cors.New(corsConfig))

	r.Use(requestID(), requestLogger(s.log))

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, ErrNotFound, c.Request.URL.Path)
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, chatError{Error: "Method not allowed"})
	})

	api := r.Group("/api")
	api.GET("/health", s.health)

	// Chat keeps the raw {response, usage} / {error, details} contract.
	chat := api.Group("", s.limiter.Middleware(func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, chatError{
			Error:   "Too many requests",
			Details: "rate limit exceeded, try again later",
		})
	}))
	chat.POST("/groq-proxy", s.chat)
	chat.POST("/chat", s.chat)
	chat.POST("/explain", s.explain)

	api.GET("/questions", s.listQuestions)
	api.GET("/questions/search", s.searchQuestions)
	api.GET("/questions/next", s.nextQuestion)
	api.GET("/questions/:id", s.getQuestion)

	api.POST("/answers", s.submitAnswer)
	api.GET("/answers", s.combinedAnswers)
	api.GET("/answers/:mode", s.answersByMode)

	api.GET("/archive", s.archives)
	api.GET("/archive/verify", s.verify)
	api.GET("/stats", s.stats)
	api.POST("/reset", s.reset)

	study := api.Group("/study")
	study.GET("/queue", s.studyQueue)
	study.GET("/stats", s.studyStats)
	study.POST("/answers", s.studyAnswer)
	study.DELETE("", s.clearStudy)
	study.DELETE("/:id", s.removeFromStudy)

	study.POST("/sessions", s.startSession)
	study.GET("/sessions/:sid", s.getSession)
	study.POST("/sessions/:sid/answers", s.answerSession)
	study.DELETE("/sessions/:sid", s.endSession)

	api.GET("/favorites", s.favorites)
	api.PUT("/favorites/:id", s.addFavorite)
	api.DELETE("/favorites/:id", s.removeFavorite)

	api.GET("/ws", s.hub.serve)

	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	s.hub.close()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	data := gin.H{
		"status":    "ok",
		"questions": s.deps.Bank.Len(),
		"sessions":  s.deps.Sessions.Active(),
		"chat":      s.deps.Tutor != nil,
		"listeners": s.hub.active(),
	}
	if s.deps.Tutor != nil {
		data["model"] = s.deps.Tutor.ModelID()
	}
	success(c, http.StatusOK, data)
}
