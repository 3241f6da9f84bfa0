// Package alerts converts the append-only result stream into a
// bounded, deduplicated, severity-aware alert stream and dispatches it
// to one or more channels. Grounded on the teacher's internal/alerts
// package (dedup map, dispatchAlert, cooldown bookkeeping), generalized
// from Proxmox guest alerts to check-result alerts per spec.md §4.4.
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog/log"

	"github.com/veris-memory/sentinel/internal/result"
	"github.com/veris-memory/sentinel/internal/store"
)

// checkState is the implicit per-check state machine spec.md §4.2
// describes, maintained by the manager rather than the check itself.
type checkState string

const (
	stateOK       checkState = "OK"
	stateDegraded checkState = "DEGRADED"
	stateFailing  checkState = "FAILING"
)

// AlertStore is the persistence surface the manager needs. Satisfied by
// *internal/store.Store; declared as an interface so tests can supply a
// fake without touching SQLite.
type AlertStore interface {
	CountRecentFailures(ctx context.Context, checkID string, window time.Duration) (int, error)
	StoreAlertEvent(ctx context.Context, checkID, alertType, message string, ts time.Time) (int64, error)
	LatestOpenAlert(ctx context.Context, checkID string) (*store.AlertRecord, error)
	ResolveAlert(ctx context.Context, id int64, resolvedAt time.Time) error
}

// MetricsRecorder is the ambient observability surface; a nil value is
// always safe to call into.
type MetricsRecorder interface {
	RecordAlertDispatch(channel, severity string)
}

// Manager is the stateful alert pipeline: dedup, thresholding, severity
// assignment, auto-resolution, and channel fan-out.
type Manager struct {
	store             AlertStore
	channels          []Channel
	thresholdFailures int
	dedupWindow       time.Duration
	failureWindow     time.Duration
	metrics           MetricsRecorder

	mu     sync.Mutex
	dedup  map[string]time.Time
	states map[string]checkState
}

// Config holds the manager's tunables, all sourced from spec.md §6's
// configuration table.
type Config struct {
	ThresholdFailures int
	DedupWindow       time.Duration
	FailureWindow     time.Duration // window CountRecentFailures evaluates, default 5 minutes
}

// NewManager constructs a Manager against the given store and channels.
func NewManager(store AlertStore, channels []Channel, cfg Config) *Manager {
	if cfg.FailureWindow == 0 {
		cfg.FailureWindow = 5 * time.Minute
	}
	return &Manager{
		store:             store,
		channels:          channels,
		thresholdFailures: cfg.ThresholdFailures,
		dedupWindow:       cfg.DedupWindow,
		failureWindow:     cfg.FailureWindow,
		dedup:             make(map[string]time.Time),
		states:            make(map[string]checkState),
	}
}

// WithMetrics attaches a metrics recorder, returning the Manager for
// chaining. Optional — a Manager with no recorder simply skips
// instrumentation.
func (m *Manager) WithMetrics(mr MetricsRecorder) *Manager {
	m.metrics = mr
	return m
}

// Process consumes one result, per spec.md §4.4. It never returns an
// error to the caller for channel or persistence failures — those are
// logged and swallowed, since the scheduler must keep advancing
// regardless of alerting trouble.
func (m *Manager) Process(ctx context.Context, r result.Result) {
	switch r.Status {
	case result.StatusWarn:
		m.setState(r.CheckID, stateDegraded)
		return
	case result.StatusPass:
		m.handlePass(ctx, r)
		return
	case result.StatusFail:
		m.handleFail(ctx, r)
		return
	}
}

func (m *Manager) handlePass(ctx context.Context, r result.Result) {
	wasFailing := m.stateOf(r.CheckID) == stateFailing
	m.setState(r.CheckID, stateOK)

	if !wasFailing {
		return
	}

	open, err := m.store.LatestOpenAlert(ctx, r.CheckID)
	if err != nil {
		log.Warn().Err(err).Str("check_id", r.CheckID).Msg("alerts: failed to look up open alert for auto-resolve")
		return
	}
	if open == nil {
		return
	}

	now := time.Now()
	if err := m.store.ResolveAlert(ctx, open.ID, now); err != nil {
		log.Warn().Err(err).Str("check_id", r.CheckID).Msg("alerts: failed to resolve alert")
	}

	payload := Payload{
		CheckID:   r.CheckID,
		AlertType: "recovery",
		Severity:  SeverityInfo,
		Status:    r.Status,
		Message:   fmt.Sprintf("%s has recovered", r.CheckID),
		Timestamp: now,
		LatencyMS: r.LatencyMS,
	}
	m.dispatchIfNotDeduped(ctx, payload)
}

func (m *Manager) handleFail(ctx context.Context, r result.Result) {
	m.setState(r.CheckID, stateFailing)

	count, err := m.store.CountRecentFailures(ctx, r.CheckID, m.failureWindow)
	if err != nil {
		log.Warn().Err(err).Str("check_id", r.CheckID).Msg("alerts: failed to count recent failures")
		return
	}
	if count < m.thresholdFailures {
		return
	}

	severity := severityFor(r.CheckID, count, m.thresholdFailures)
	now := time.Now()
	payload := Payload{
		CheckID:   r.CheckID,
		AlertType: "threshold",
		Severity:  severity,
		Status:    r.Status,
		Message:   r.Message,
		Timestamp: now,
		LatencyMS: r.LatencyMS,
		Details:   r.Details,
	}

	if !m.dispatchIfNotDeduped(ctx, payload) {
		return
	}

	if _, err := m.store.StoreAlertEvent(ctx, r.CheckID, payload.AlertType, payload.Message, now); err != nil {
		log.Warn().Err(err).Str("check_id", r.CheckID).Msg("alerts: failed to persist alert event")
	}
}

// dispatchIfNotDeduped applies the sliding-window suppression and, if
// the alert is not suppressed, fans it out to every channel
// concurrently. It returns whether dispatch actually happened.
func (m *Manager) dispatchIfNotDeduped(ctx context.Context, p Payload) bool {
	fp := fingerprint(p.CheckID, p.Status, p.Message)

	m.mu.Lock()
	last, suppressed := m.dedup[fp]
	if suppressed && time.Since(last) < m.dedupWindow {
		m.mu.Unlock()
		return false
	}
	m.dedup[fp] = time.Now()
	m.mu.Unlock()

	m.dispatch(ctx, p)
	return true
}

// dispatch fans the payload out to every channel concurrently. A
// channel that errors is logged and skipped; it still counts as
// dispatched for dedup purposes, per spec.md §7 ("avoid loops").
func (m *Manager) dispatch(ctx context.Context, p Payload) {
	g := new(errgroup.Group)
	for _, ch := range m.channels {
		ch := ch
		g.Go(func() error {
			if err := ch.Dispatch(ctx, p); err != nil {
				log.Warn().Err(err).Str("channel", ch.Name()).Str("check_id", p.CheckID).Msg("alerts: channel dispatch failed")
				return nil
			}
			if m.metrics != nil {
				m.metrics.RecordAlertDispatch(ch.Name(), string(p.Severity))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Manager) stateOf(checkID string) checkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.states[checkID]; ok {
		return s
	}
	return stateOK
}

func (m *Manager) setState(checkID string, s checkState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[checkID] = s
}
