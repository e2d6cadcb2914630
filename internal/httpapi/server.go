// Package httpapi exposes the quiz store, uploads, progress reports and
// bonus question generation over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/p-n-ai/pai-quiz/internal/bonus"
	"github.com/p-n-ai/pai-quiz/internal/document"
	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// BonusGenerator writes extra questions for a quiz.
type BonusGenerator interface {
	Generate(ctx context.Context, req bonus.Request) ([]quiz.Question, error)
}

// Checker is a dependency reported by /readyz.
type Checker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	store          quiz.Store
	parser         document.Parser
	generator      BonusGenerator
	feed           *progress.Feed
	checkers       []Checker
	allowedOrigins []string
	maxUpload      int64
}

// Option configures a Server.
type Option func(*Server)

// WithParser sets the document parser used by quiz uploads.
func WithParser(p document.Parser) Option {
	return func(s *Server) { s.parser = p }
}

// WithGenerator sets the bonus question generator.
func WithGenerator(g BonusGenerator) Option {
	return func(s *Server) { s.generator = g }
}

// WithFeed sets the live progress feed.
func WithFeed(f *progress.Feed) Option {
	return func(s *Server) { s.feed = f }
}

// WithCheckers adds dependencies reported by /readyz.
func WithCheckers(c ...Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, c...) }
}

// WithAllowedOrigins sets the CORS and WebSocket origin allow-list.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithMaxUploadBytes caps the size of uploaded quiz documents.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// NewServer creates a Server backed by store. Without WithGenerator, bonus
// requests fail with a "not configured" message.
func NewServer(store quiz.Store, opts ...Option) *Server {
	s := &Server{
		store:          store,
		parser:         document.SampleParser{},
		generator:      bonus.New(nil),
		allowedOrigins: []string{"*"},
		maxUpload:      document.DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.feed == nil {
		s.feed = progress.NewFeed(0)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	r.Route("/api", func(r chi.Router) {
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", s.listResources)
			r.Post("/", s.createResource)
			r.Get("/{resourceId}", s.getResource)
			r.Patch("/{resourceId}", s.updateResource)
			r.Get("/{resourceId}/quizzes", s.listQuizzes)
			r.Post("/{resourceId}/quizzes", s.createQuiz)
		})

		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/{quizId}", s.getQuiz)
			r.Delete("/{quizId}", s.deleteQuiz)
			r.Post("/{quizId}/bonus-questions", s.bonusQuestions)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Post("/", s.saveProgress)
			r.Get("/{userId}", s.listProgress)
			r.Get("/{userId}/resources/{resourceId}", s.listResourceProgress)
			r.Get("/{userId}/summary", s.progressSummary)
			r.Get("/{userId}/export", s.exportProgress)
			r.Get("/{userId}/live", s.liveProgress)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.checkers {
		if err := c.HealthCheck(ctx); err != nil {
			failed[c.Name()] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
