// Package rest exposes the transcript store over HTTP.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// Options configures the router built by Handler.
type Options struct {
	// RateLimit is the number of requests allowed per IP per minute. Zero
	// disables rate limiting.
	RateLimit int
	// RequestTimeout bounds the time a request may take. Zero disables it.
	RequestTimeout time.Duration
}

// Handler serves the transcript routes from a TranscriptDatabase.
type Handler struct {
	db   TranscriptDatabase
	log  *zap.Logger
	opts Options
}

// NewHandler creates and returns a new instance of *Handler.
func NewHandler(db TranscriptDatabase, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}

	return &Handler{
		db:   db,
		log:  log,
		opts: opts,
	}
}

// Router returns the http.Handler serving every route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(h.log))
	r.Use(recoverer(h.log))
	if h.opts.RateLimit > 0 {
		r.Use(httprate.LimitByIP(h.opts.RateLimit, time.Minute))
	}
	if h.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(h.opts.RequestTimeout))
	}

	r.Get("/health", h.health)

	r.Route("/transcripts", func(r chi.Router) {
		r.Get("/", h.getAll)
		r.Post("/", h.addStudent)

		r.Route("/{studentID}", func(r chi.Router) {
			r.Get("/", h.getTranscript)
			r.Delete("/", h.deleteStudent)
			r.Get("/{courseNumber}", h.getGrade)
			r.Post("/{courseNumber}", h.addGrade)
		})
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", h.classReport)
		r.Get("/{studentID}", h.studentReport)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"students": len(h.db.Students()),
	})
}
