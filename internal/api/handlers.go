package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agentpulse/agentpulse/internal/metrics"
	"github.com/agentpulse/agentpulse/internal/task"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, s.agg.Stats())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.parseLimit(w, r, metrics.DefaultHistoryLimit)
	if !ok {
		return
	}
	records, err := s.agg.History(limit)
	if err != nil {
		s.limitError(w, err)
		return
	}
	writeSuccessCount(w, http.StatusOK, records, len(records))
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.parseLimit(w, r, metrics.DefaultErrorLogLimit)
	if !ok {
		return
	}
	records, err := s.agg.ErrorLog(limit)
	if err != nil {
		s.limitError(w, err)
		return
	}
	writeSuccessCount(w, http.StatusOK, records, len(records))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeSuccessStamped(w, http.StatusOK, s.agg.Dashboard(), "")
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.agg.Reset()
	writeSuccessStamped(w, http.StatusOK, nil, "Performance metrics reset successfully")
}

// simulateRequest is the POST /api/simulate body. Duration is in seconds.
type simulateRequest struct {
	TaskName   string  `json:"task_name"`
	Duration   float64 `json:"duration"`
	ShouldFail bool    `json:"should_fail"`
}

type simulateResponse struct {
	TaskName string  `json:"task_name"`
	Duration float64 `json:"duration"`
	Status   string  `json:"status"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if s.sim == nil {
		writeError(w, http.StatusServiceUnavailable, "task simulation is not enabled")
		return
	}

	var payload simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	duration := time.Duration(payload.Duration * float64(time.Second))
	outcome := s.sim.Run(r.Context(), payload.TaskName, duration, payload.ShouldFail)
	if outcome.Err != nil {
		// Validation errors and simulated failures alike are already recorded
		// as failed requests; only the status code distinguishes them.
		status := http.StatusOK
		if errors.Is(outcome.Err, task.ErrEmptyTaskName) || errors.Is(outcome.Err, task.ErrNegativeDuration) {
			status = http.StatusBadRequest
		}
		writeError(w, status, outcome.Err.Error())
		return
	}

	writeSuccessStamped(w, http.StatusOK, simulateResponse{
		TaskName: outcome.TaskName,
		Duration: outcome.Elapsed.Seconds(),
		Status:   "completed",
	}, fmt.Sprintf("Task '%s' completed successfully", outcome.TaskName))
}

// parseLimit reads the limit query parameter, falling back to def when
// absent. Non-integer values are rejected here; range checks live in the
// aggregator.
func (s *Server) parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be an integer, got %q", raw))
		return 0, false
	}
	return limit, true
}

func (s *Server) limitError(w http.ResponseWriter, err error) {
	if errors.Is(err, metrics.ErrInvalidLimit) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
