package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/secmon-lab/docqa/pkg/usecase"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
)

// DefaultMaxLinks is the number of citation links returned by /api/read
const DefaultMaxLinks = 3

// AnswerUseCase answers a question from the indexed documents
type AnswerUseCase interface {
	Answer(ctx context.Context, question string) (*model.AnswerResult, error)
}

// SetupUseCase provisions the index and ingests the configured sources
type SetupUseCase interface {
	Setup(ctx context.Context, runID string) (*usecase.SetupResult, error)
}

// Notice is the body returned instead of an answer when a caller is rate limited
type Notice struct {
	Message string
	Links   []model.Link
}

// DefaultRateLimitNotice is sent to callers that exceeded the daily quota
var DefaultRateLimitNotice = Notice{
	Message: "Too many uploads in 1 day. Please try again in a 24 hours. Check the doc below in the meantime",
	Links: []model.Link{
		{Link: "https://docs.morpho.org", Title: "Morpho Official Docs"},
	},
}

type Server struct {
	router      *chi.Mux
	answerUC    AnswerUseCase
	setupUC     SetupUseCase
	rateLimiter interfaces.RateLimiter
	notice      Notice
	maxLinks    int
	dispatch    func(ctx context.Context, handler func(ctx context.Context) error)
}

type Options func(*Server)

func WithAnswer(uc AnswerUseCase) Options {
	return func(s *Server) {
		s.answerUC = uc
	}
}

func WithSetup(uc SetupUseCase) Options {
	return func(s *Server) {
		s.setupUC = uc
	}
}

// WithRateLimiter limits /api/read per client address
func WithRateLimiter(limiter interfaces.RateLimiter) Options {
	return func(s *Server) {
		s.rateLimiter = limiter
	}
}

func WithRateLimitNotice(notice Notice) Options {
	return func(s *Server) {
		s.notice = notice
	}
}

func WithMaxLinks(n int) Options {
	return func(s *Server) {
		if n > 0 {
			s.maxLinks = n
		}
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		notice:   DefaultRateLimitNotice,
		maxLinks: DefaultMaxLinks,
		dispatch: asyncDispatch,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.answerUC != nil {
			r.Post("/read", s.readHandler)
		}
		if s.setupUC != nil {
			r.Post("/setup", s.setupHandler)
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests and puts a request
// scoped logger into the context
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
