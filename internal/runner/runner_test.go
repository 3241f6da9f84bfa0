package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/result"
)

func newTestCheck(id string, status result.Status, delay time.Duration) check.Check {
	return check.NewBase(id, "test check", true, func(ctx context.Context) result.Result {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
		}
		return result.Result{Status: status, LatencyMS: 1}
	})
}

type fakeStore struct {
	mu      sync.Mutex
	results []result.Result
	err     error
}

func (f *fakeStore) StoreResult(ctx context.Context, r result.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return f.err
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

type fakeAlerts struct {
	mu        sync.Mutex
	processed []result.Result
}

func (f *fakeAlerts) Process(ctx context.Context, r result.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, r)
}

func (f *fakeAlerts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.processed)
}

func TestRunCycleProcessesAllEnabledChecks(t *testing.T) {
	checks := []check.Check{
		newTestCheck("S1-probes", result.StatusPass, 0),
		newTestCheck("S2-recall", result.StatusFail, 0),
	}
	store := &fakeStore{}
	alertMgr := &fakeAlerts{}
	r := New(checks, store, alertMgr, time.Second)

	r.runCycle(context.Background())

	assert.Equal(t, 2, store.count())
	assert.Equal(t, 2, alertMgr.count())
}

func TestRunCycleSkipsDisabledChecks(t *testing.T) {
	disabled := check.NewBase("S9-disabled", "disabled check", false, func(ctx context.Context) result.Result {
		t.Fatal("disabled check must never run")
		return result.Result{}
	})
	store := &fakeStore{}
	alertMgr := &fakeAlerts{}
	r := New([]check.Check{disabled}, store, alertMgr, time.Second)

	r.runCycle(context.Background())

	assert.Equal(t, 0, store.count())
}

func TestRunCycleRecordsFailuresInRingBuffer(t *testing.T) {
	checks := []check.Check{
		newTestCheck("S1-probes", result.StatusFail, 0),
		newTestCheck("S2-recall", result.StatusPass, 0),
	}
	r := New(checks, &fakeStore{}, &fakeAlerts{}, time.Second)

	r.runCycle(context.Background())

	recent := r.RecentFailures(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "S1-probes", recent[0].CheckID)
}

func TestRunCycleUpdatesLastCycleTime(t *testing.T) {
	r := New([]check.Check{newTestCheck("S1-probes", result.StatusPass, 0)}, &fakeStore{}, &fakeAlerts{}, time.Second)

	before := time.Now()
	r.runCycle(context.Background())
	ts, dur := r.LastCycle()

	assert.True(t, !ts.Before(before))
	assert.GreaterOrEqual(t, dur, time.Duration(0))
}

func TestFanOutJoinsAllChecksBeforeReturning(t *testing.T) {
	var completed int32
	slow := check.NewBase("slow", "slow check", true, func(ctx context.Context) result.Result {
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&completed, 1)
		return result.Result{Status: result.StatusPass}
	})
	fast := check.NewBase("fast", "fast check", true, func(ctx context.Context) result.Result {
		atomic.AddInt32(&completed, 1)
		return result.Result{Status: result.StatusPass}
	})
	r := New([]check.Check{slow, fast}, &fakeStore{}, &fakeAlerts{}, time.Second)

	results := r.fanOut(context.Background())

	assert.Len(t, results, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&completed))
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	r := New([]check.Check{newTestCheck("S1-probes", result.StatusPass, 0)}, &fakeStore{}, &fakeAlerts{}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	assert.False(t, r.IsRunning())
}

func TestCheckTimeoutIsShorterThanInterval(t *testing.T) {
	interval := 60 * time.Second
	timeout := checkTimeout(interval)
	assert.Less(t, timeout, interval)
	assert.Greater(t, timeout, time.Duration(0))
}

func TestRecentFailuresReturnsNewestFirst(t *testing.T) {
	r := New(nil, &fakeStore{}, &fakeAlerts{}, time.Second)
	r.processResult(context.Background(), result.Result{CheckID: "first", Status: result.StatusFail})
	r.processResult(context.Background(), result.Result{CheckID: "second", Status: result.StatusFail})

	recent := r.RecentFailures(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].CheckID)
	assert.Equal(t, "first", recent[1].CheckID)
}
