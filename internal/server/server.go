// Package server is the HTTP adapter in front of the plan-generation
// pipeline: it authenticates callers, parses requests, invokes the
// orchestrator, and maps results and classified failures onto status
// codes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/goalstore"
	"github.com/pathwise/pathwise/internal/pipeline"
	"github.com/pathwise/pathwise/internal/plan"
)

// requestTimeout bounds one plan-generation request end to end,
// comfortably above the pipeline's own retry and filter budgets.
const requestTimeout = 120 * time.Second

// Planner runs one plan-generation request. Satisfied by
// *pipeline.Orchestrator.
type Planner interface {
	Run(ctx context.Context, goal plan.GoalRequest) (*pipeline.Result, error)
}

// Server wires the HTTP surface.
type Server struct {
	planner  Planner
	store    goalstore.Store
	verifier Verifier
	logger   *zap.Logger
	router   chi.Router
}

func New(planner Planner, store goalstore.Store, verifier Verifier, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		planner:  planner,
		store:    store,
		verifier: verifier,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(cors)
	r.Use(requestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/plans", s.handleGeneratePlan)
		r.Get("/goals", s.handleListGoals)
		r.Get("/goals/{goalID}", s.handleGetGoal)
		r.Patch("/goals/{goalID}/lessons/{lessonID}", s.handleSetLessonCompletion)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
