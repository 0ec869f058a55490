package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/goalstore"
	"github.com/pathwise/pathwise/internal/pipeline"
	"github.com/pathwise/pathwise/internal/plan"
	"github.com/pathwise/pathwise/internal/provider"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type errorResponse struct {
	Error string `json:"error"`
}

type generateResponse struct {
	GoalID string     `json:"goalId,omitempty"`
	Source string     `json:"source"`
	Plan   *plan.Plan `json:"plan"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleGeneratePlan is the plan-generation entry point. Auth already
// happened in middleware; a fallback result is a success to the caller.
func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req plan.GoalRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a goalTitle field")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "goalTitle must be a non-empty string")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	logger := s.logger.With(
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("goal", req.Title))

	result, err := s.planner.Run(ctx, req)
	if err != nil {
		s.writePipelineError(w, logger, err)
		return
	}

	resp := generateResponse{Source: string(result.Source), Plan: result.Plan}
	goal, err := s.store.CreateGoal(ctx, userFrom(r.Context()), req.Title, req.Description, result.Plan)
	if err != nil {
		// The plan is already built; storage trouble shouldn't cost the
		// caller their answer.
		logger.Warn("storing goal failed", zap.Error(err))
	} else {
		resp.GoalID = goal.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// writePipelineError maps classified pipeline failures onto status codes.
func (s *Server) writePipelineError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var pe *pipeline.Error
	if !errors.As(err, &pe) {
		logger.Error("plan generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "plan generation failed")
		return
	}

	logger.Warn("plan generation failed", zap.String("kind", string(pe.Kind)), zap.Error(err))
	switch pe.Kind {
	case pipeline.FailureDiscovery:
		writeError(w, http.StatusBadGateway, "no usable generation model is currently available")
	case pipeline.FailureExtract:
		writeError(w, http.StatusInternalServerError, "the generation backend returned an unreadable response")
	case pipeline.FailureSchema:
		writeError(w, http.StatusInternalServerError, "the generation backend returned a malformed plan")
	case pipeline.FailureUpstream:
		switch {
		case provider.IsRateLimit(err):
			writeError(w, http.StatusTooManyRequests, "the generation backend is rate limiting requests")
		case provider.IsQuotaExhausted(err):
			writeError(w, http.StatusPaymentRequired, "the generation backend quota is exhausted")
		default:
			writeError(w, http.StatusBadGateway, "the generation backend is unavailable")
		}
	default:
		writeError(w, http.StatusInternalServerError, "plan generation failed")
	}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.store.ListGoals(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.logger.Error("listing goals failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing goals failed")
		return
	}
	if goals == nil {
		goals = []*goalstore.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.store.GetGoal(r.Context(), chi.URLParam(r, "goalID"), userFrom(r.Context()))
	if err != nil {
		if errors.Is(err, goalstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		s.logger.Error("loading goal failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "loading goal failed")
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleSetLessonCompletion(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "goalID")
	lessonID := chi.URLParam(r, "lessonID")

	// Ownership check before any write.
	if _, err := s.store.GetGoal(r.Context(), goalID, userFrom(r.Context())); err != nil {
		if errors.Is(err, goalstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "goal not found")
			return
		}
		s.logger.Error("loading goal failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "loading goal failed")
		return
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be JSON with a completed field")
		return
	}

	if err := s.store.SetLessonCompletion(r.Context(), lessonID, req.Completed); err != nil {
		if errors.Is(err, goalstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lesson not found")
			return
		}
		s.logger.Error("updating lesson failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "updating lesson failed")
		return
	}
	progress, err := s.store.RecalculateProgress(r.Context(), goalID)
	if err != nil {
		s.logger.Error("recalculating progress failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "recalculating progress failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessonId": lessonID, "completed": req.Completed, "progress": progress})
}
