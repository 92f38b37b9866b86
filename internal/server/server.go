// Package server exposes the submission and retrieval boundaries over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/intake"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
)

// Submissions accepts claims and reports on running ones
type Submissions interface {
	Submit(sub model.ClaimSubmission) (*intake.Task, error)
	Task(id string) (*intake.Task, bool)
	InFlight() int
	Shutdown(ctx context.Context) error
}

// Records reads stored claim records
type Records interface {
	All() (map[string][]model.ClaimRecord, error)
	Submitter(submitterID string) ([]model.ClaimRecord, error)
	Claim(submitterID, claimID string) (model.ClaimRecord, error)
	FindClaim(claimID string) (model.ClaimRecord, error)
}

// Knowledge reports the size of the reference index
type Knowledge interface {
	Chunks() int
}

// Deps are the collaborators behind the HTTP handlers
type Deps struct {
	Submissions Submissions
	Records     Records
	Tools       *tools.Registry
	Knowledge   Knowledge // optional
	Mode        model.Mode
	LLM         model.LLMConfig
	Logger      *zap.Logger
}

// Server is the claimflow HTTP API
type Server struct {
	deps   Deps
	logger *zap.Logger
	router chi.Router
}

// New builds the router
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	s := &Server{deps: d, logger: d.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/process-claim", s.handleProcessClaim)

		r.Get("/claim-results", s.handleClaimResults)
		r.Get("/claim-results/{claimId}", s.handleClaimResult)

		r.Get("/submitters/{submitterId}/claims", s.handleSubmitterClaims)
		r.Get("/submitters/{submitterId}/claims/{claimId}", s.handleSubmitterClaim)

		r.Get("/runs/{submissionId}", s.handleRun)
		r.Get("/health", s.handleHealth)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then drains HTTP
// connections and running submissions within shutdownTimeout
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("API listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	httpErr := srv.Shutdown(shutdownCtx)
	runErr := s.deps.Submissions.Shutdown(shutdownCtx)
	<-errc

	return errors.Join(httpErr, runErr)
}

// requestLogger logs each request with chi's request id
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("Request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// recoverer turns a handler panic into a 500
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				s.logger.Error("Handler panicked",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Any("panic", p),
					zap.Stack("stack"),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
