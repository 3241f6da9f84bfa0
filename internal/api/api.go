// Package api exposes Sentinel's read-only query surface over plain
// net/http, mux-free, grounded on the teacher's hand-rolled handler
// style (cmd/pulse/metrics_server.go's ServeMux + explicit timeouts)
// and its WriteJSONResponse convention.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/result"
	"github.com/veris-memory/sentinel/internal/utils"
)

const defaultHistoryLimit = 50

// RunnerView is the subset of *internal/runner.Runner the API reads.
type RunnerView interface {
	IsRunning() bool
	Checks() []check.Check
	LastCycle() (time.Time, time.Duration)
	RecentFailures(limit int) []result.Result
}

// HistoryStore is the persistence surface CheckHistory delegates to.
type HistoryStore interface {
	QueryHistory(ctx context.Context, checkID string, limit int) ([]result.Result, error)
}

// checkStats is the per-check snapshot embedded in StatusSummary.
type checkStats struct {
	CheckID      string  `json:"check_id"`
	Enabled      bool    `json:"enabled"`
	TotalRuns    int     `json:"total_runs"`
	Pass         int     `json:"pass"`
	Warn         int     `json:"warn"`
	Fail         int     `json:"fail"`
	MeanLatency  float64 `json:"mean_latency_ms"`
}

// statusResponse is the StatusSummary payload, per spec.md §4.8.
type statusResponse struct {
	Running       bool                  `json:"running"`
	TotalChecks   int                   `json:"total_checks"`
	EnabledChecks int                   `json:"enabled_checks"`
	RecentFailures []result.Result      `json:"recent_failures"`
	PerCheckStats map[string]checkStats `json:"per_check_stats"`
	LastCycleTime *time.Time            `json:"last_cycle_time"`
}

// Server wires RunnerView and HistoryStore into http.Handlers.
type Server struct {
	runner  RunnerView
	history HistoryStore
}

// NewServer constructs a Server.
func NewServer(runner RunnerView, history HistoryStore) *Server {
	return &Server{runner: runner, history: history}
}

// Mux builds the read-only routes on a fresh ServeMux. Callers add
// /internal/metrics separately (gated behind --no-api per spec.md's
// expansion) so this package stays free of a prometheus dependency.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/history", s.handleHistory)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := s.runner.Checks()
	perCheck := make(map[string]checkStats, len(checks))
	enabledCount := 0
	for _, c := range checks {
		if c.Enabled() {
			enabledCount++
		}
		stats := statsOf(c)
		perCheck[c.ID()] = checkStats{
			CheckID:     c.ID(),
			Enabled:     c.Enabled(),
			TotalRuns:   stats.TotalRuns,
			Pass:        stats.Pass,
			Warn:        stats.Warn,
			Fail:        stats.Fail,
			MeanLatency: stats.MeanLatencyMS(),
		}
	}

	lastCycle, _ := s.runner.LastCycle()
	var lastCyclePtr *time.Time
	if !lastCycle.IsZero() {
		lastCyclePtr = &lastCycle
	}

	resp := statusResponse{
		Running:        s.runner.IsRunning(),
		TotalChecks:    len(checks),
		EnabledChecks:  enabledCount,
		RecentFailures: s.runner.RecentFailures(20),
		PerCheckStats:  perCheck,
		LastCycleTime:  lastCyclePtr,
	}

	if err := utils.WriteJSONResponse(w, resp); err != nil {
		log.Warn().Err(err).Msg("api: failed to write status response")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checkID := r.URL.Query().Get("check_id")
	if checkID == "" {
		http.Error(w, "check_id is required", http.StatusBadRequest)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := s.history.QueryHistory(r.Context(), checkID, limit)
	if err != nil {
		log.Warn().Err(err).Str("check_id", checkID).Msg("api: failed to query history")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := utils.WriteJSONResponse(w, results); err != nil {
		log.Warn().Err(err).Msg("api: failed to write history response")
	}
}

// statsOf extracts a check's Stats if it exposes them (every concrete
// check embeds *check.Base, which does); checks that don't are
// reported with zero stats rather than causing a panic.
func statsOf(c check.Check) check.Stats {
	type statsProvider interface {
		Stats() check.Stats
	}
	if sp, ok := c.(statsProvider); ok {
		return sp.Stats()
	}
	return check.Stats{}
}
