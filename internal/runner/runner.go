// Package runner drives the whole system: a fixed-interval tick loop
// that fans every enabled check out concurrently, joins before the
// next tick, and threads each result through persistence, the ring
// buffers, and the alert manager. Grounded on the teacher's
// ticker-driven background loops (internal/aidiscovery's
// discoveryLoop), generalized to the fan-out-then-join cadence
// spec.md §4.7/§5 mandates.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/result"
	"github.com/veris-memory/sentinel/internal/utils"
)

const (
	failuresBufferCap = 200
	tracesBufferCap   = 500
)

// ResultStore is the persistence surface the runner needs.
type ResultStore interface {
	StoreResult(ctx context.Context, r result.Result) error
}

// AlertProcessor is the surface the runner hands completed results to.
type AlertProcessor interface {
	Process(ctx context.Context, r result.Result)
}

// MetricsRecorder is the ambient observability surface; a nil value is
// always safe to call into (internal/metrics.Metrics implements this
// with nil-receiver-safe methods).
type MetricsRecorder interface {
	RecordCheck(r result.Result)
}

// Runner owns the scheduling loop and the process-local state every
// cycle touches: the active checks, the ring buffers, and the state
// the query API reads.
type Runner struct {
	checks   []check.Check
	store    ResultStore
	alerts   AlertProcessor
	metrics  MetricsRecorder
	interval time.Duration

	mu            sync.RWMutex
	running       bool
	lastCycleTime time.Time
	lastCycleDur  time.Duration

	failures *utils.Queue[result.Result]
	traces   *utils.Queue[result.Trace]
}

// New constructs a Runner. interval is the cycle period; per spec.md
// §5 every check's timeout must be shorter than it, so the runner runs
// each check with checkTimeout(interval), 90% of the interval.
func New(checks []check.Check, store ResultStore, alertMgr AlertProcessor, interval time.Duration) *Runner {
	return &Runner{
		checks:   checks,
		store:    store,
		alerts:   alertMgr,
		interval: interval,
		failures: utils.NewQueue[result.Result](failuresBufferCap),
		traces:   utils.NewQueue[result.Trace](tracesBufferCap),
	}
}

// WithMetrics attaches a metrics recorder, returning the Runner for
// chaining. Optional — a Runner with no recorder simply skips
// instrumentation.
func (r *Runner) WithMetrics(m MetricsRecorder) *Runner {
	r.metrics = m
	return r
}

// Run enters the main loop and blocks until ctx is cancelled. On
// cancellation it finishes the in-flight cycle before returning —
// spec.md §5 forbids abandoning a cycle mid-way, since that could
// leave results un-persisted.
func (r *Runner) Run(ctx context.Context) {
	r.setRunning(true)
	defer r.setRunning(false)

	r.runCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.runCycle(ctx)
		case <-ctx.Done():
			log.Info().Msg("runner: shutdown signal observed, exiting after in-flight cycle")
			return
		}
	}
}

func (r *Runner) runCycle(ctx context.Context) {
	start := time.Now()

	results := r.fanOut(ctx)
	for _, res := range results {
		r.processResult(ctx, res)
	}

	dur := time.Since(start)
	r.mu.Lock()
	r.lastCycleTime = start
	r.lastCycleDur = dur
	r.mu.Unlock()

	log.Info().Dur("duration", dur).Int("checks", len(results)).Msg("runner: cycle completed")
}

// fanOut launches every enabled check concurrently via ExecuteWithTimeout
// and joins before returning, per spec.md §5 ("N worker tasks ... all
// joined before the tick completes").
func (r *Runner) fanOut(ctx context.Context) []result.Result {
	results := make([]result.Result, len(r.checks))

	g := new(errgroup.Group)
	for i, c := range r.checks {
		i, c := i, c
		g.Go(func() error {
			if !c.Enabled() {
				return nil
			}
			results[i] = c.ExecuteWithTimeout(ctx, checkTimeout(r.interval))
			return nil
		})
	}
	_ = g.Wait()

	out := make([]result.Result, 0, len(results))
	for i, c := range r.checks {
		if !c.Enabled() {
			continue
		}
		out = append(out, results[i])
	}
	return out
}

// processResult threads a single cycle's result through persistence,
// the ring buffers, and the alert manager, in that order (spec.md
// §4.7: "persistence → ring buffers → alert manager").
func (r *Runner) processResult(ctx context.Context, res result.Result) {
	if err := r.store.StoreResult(ctx, res); err != nil {
		log.Warn().Err(err).Str("check_id", res.CheckID).Msg("runner: failed to persist result")
	}

	if r.metrics != nil {
		r.metrics.RecordCheck(res)
	}

	if res.Status == result.StatusFail {
		r.failures.Push(res)
	}
	r.traces.Push(result.Trace{
		Timestamp: res.Timestamp,
		CheckID:   res.CheckID,
		Status:    res.Status,
		LatencyMS: res.LatencyMS,
	})

	r.alerts.Process(ctx, res)
}

func (r *Runner) setRunning(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = v
}

// IsRunning reports whether the main loop is currently active.
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// LastCycle returns the start time and duration of the most recently
// completed cycle.
func (r *Runner) LastCycle() (time.Time, time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastCycleTime, r.lastCycleDur
}

// RecentFailures returns up to limit most recent failing results,
// newest first, drawn from the bounded in-memory buffer (not the
// persisted store).
func (r *Runner) RecentFailures(limit int) []result.Result {
	all := r.failures.Snapshot()
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]result.Result, limit)
	for i := 0; i < limit; i++ {
		out[i] = all[len(all)-1-i]
	}
	return out
}

// Checks returns the runner's active check set.
func (r *Runner) Checks() []check.Check {
	return r.checks
}

func checkTimeout(interval time.Duration) time.Duration {
	// spec.md §5: per-check timeout must be shorter than the cycle
	// interval; this is the scheduler-enforced ceiling, not a floor —
	// individual checks may use shorter timeouts via their own
	// ExecuteWithTimeout callers.
	timeout := interval - interval/10
	if timeout <= 0 {
		timeout = interval
	}
	return timeout
}
