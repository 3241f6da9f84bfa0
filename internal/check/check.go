// Package check defines the contract every monitoring check implements
// and the timed, panic-safe execution wrapper shared by all of them.
package check

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/veris-memory/sentinel/internal/result"
)

// Check is the interface the runner schedules. Concrete checks embed
// *Base and supply only their probing logic via RunFunc.
type Check interface {
	ID() string
	Description() string
	Enabled() bool
	Execute(ctx context.Context) result.Result
	ExecuteWithTimeout(ctx context.Context, timeout time.Duration) result.Result
}

// RunFunc is the body of a check: free to issue any number of probes,
// but must emit exactly one Result.
type RunFunc func(ctx context.Context) result.Result

// Stats is the mutable per-check aggregate the runner and query API
// read. It is reset only on process restart.
type Stats struct {
	TotalRuns           int
	Pass, Warn, Fail    int
	CumulativeLatencyMS float64
	Last                *result.Result
}

// MeanLatencyMS returns the mean latency across all recorded runs, or 0
// if none have run yet.
func (s Stats) MeanLatencyMS() float64 {
	if s.TotalRuns == 0 {
		return 0
	}
	return s.CumulativeLatencyMS / float64(s.TotalRuns)
}

// Base implements the timed, panic-safe Execute/ExecuteWithTimeout
// wrapper described in spec.md §4.2. Concrete checks embed it.
type Base struct {
	id          string
	description string
	enabled     bool
	run         RunFunc

	mu    sync.Mutex
	stats Stats
}

// NewBase constructs a Base. run is the check's actual probing logic.
func NewBase(id, description string, enabled bool, run RunFunc) *Base {
	return &Base{id: id, description: description, enabled: enabled, run: run}
}

func (b *Base) ID() string          { return b.id }
func (b *Base) Description() string { return b.description }
func (b *Base) Enabled() bool       { return b.enabled }

// Stats returns a snapshot of the check's running statistics.
func (b *Base) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Execute runs the check body, converting any panic into a fail Result
// and enforcing that the emitted check_id matches the check's own id.
func (b *Base) Execute(ctx context.Context) result.Result {
	res := b.runOnce(ctx)
	b.recordStats(res)
	return res
}

// runOnce runs the check body and normalizes the result, without
// touching Stats. Split out of Execute so ExecuteWithTimeout can record
// stats exactly once for the outcome that actually wins the race,
// regardless of whether the background goroutine or the timeout fires
// first.
func (b *Base) runOnce(ctx context.Context) result.Result {
	start := time.Now()
	res := b.safeRun(ctx, start)

	if res.CheckID != b.id {
		res.CheckID = b.id
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = start
	}
	return res
}

func (b *Base) safeRun(ctx context.Context, start time.Time) (res result.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = result.Result{
				CheckID:   b.id,
				Timestamp: start,
				Status:    result.StatusFail,
				LatencyMS: float64(time.Since(start)) / float64(time.Millisecond),
				Message:   fmt.Sprintf("Check execution failed: %v", r),
				Details: map[string]interface{}{
					"exception_type":    "panic",
					"exception_message": fmt.Sprintf("%v", r),
				},
			}
		}
	}()
	return b.run(ctx)
}

// ExecuteWithTimeout runs the check body, returning a synthetic fail
// Result if it does not complete within timeout. The underlying run
// still completes in the background (its own context is cancelled, so
// it should return promptly); its result is discarded and never
// recorded into Stats, since the timeout path already recorded the
// one outcome for this call.
func (b *Base) ExecuteWithTimeout(ctx context.Context, timeout time.Duration) result.Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result.Result, 1)
	go func() { done <- b.runOnce(ctx) }()

	select {
	case res := <-done:
		b.recordStats(res)
		return res
	case <-ctx.Done():
		res := result.Result{
			CheckID:   b.id,
			Timestamp: time.Now(),
			Status:    result.StatusFail,
			LatencyMS: float64(timeout.Milliseconds()),
			Message:   fmt.Sprintf("Check timed out after %s", timeout),
		}
		b.recordStats(res)
		return res
	}
}

func (b *Base) recordStats(res result.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.TotalRuns++
	b.stats.CumulativeLatencyMS += res.LatencyMS
	switch res.Status {
	case result.StatusPass:
		b.stats.Pass++
	case result.StatusWarn:
		b.stats.Warn++
	case result.StatusFail:
		b.stats.Fail++
	}
	r := res
	b.stats.Last = &r
}
