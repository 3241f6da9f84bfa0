package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/result"
)

type fakeRunner struct {
	running   bool
	checks    []check.Check
	lastCycle time.Time
	lastDur   time.Duration
	failures  []result.Result
}

func (f *fakeRunner) IsRunning() bool                         { return f.running }
func (f *fakeRunner) Checks() []check.Check                   { return f.checks }
func (f *fakeRunner) LastCycle() (time.Time, time.Duration)   { return f.lastCycle, f.lastDur }
func (f *fakeRunner) RecentFailures(limit int) []result.Result { return f.failures }

type fakeHistory struct {
	results []result.Result
	err     error
}

func (f *fakeHistory) QueryHistory(ctx context.Context, checkID string, limit int) ([]result.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestHandleStatusReturnsRunnerSnapshot(t *testing.T) {
	probe := check.NewBase("S1-probes", "probe", true, func(ctx context.Context) result.Result {
		return result.Result{Status: result.StatusPass}
	})
	probe.Execute(context.Background())

	runner := &fakeRunner{
		running:   true,
		checks:    []check.Check{probe},
		lastCycle: time.Now(),
		lastDur:   250 * time.Millisecond,
	}
	srv := NewServer(runner, &fakeHistory{})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Running)
	assert.Equal(t, 1, resp.TotalChecks)
	assert.Equal(t, 1, resp.EnabledChecks)
	assert.Equal(t, 1, resp.PerCheckStats["S1-probes"].TotalRuns)
}

func TestHandleStatusRejectsNonGet(t *testing.T) {
	srv := NewServer(&fakeRunner{}, &fakeHistory{})

	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleHistoryRequiresCheckID(t *testing.T) {
	srv := NewServer(&fakeRunner{}, &fakeHistory{})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHistoryReturnsResults(t *testing.T) {
	hist := &fakeHistory{results: []result.Result{
		{CheckID: "S1-probes", Status: result.StatusPass},
		{CheckID: "S1-probes", Status: result.StatusFail},
	}}
	srv := NewServer(&fakeRunner{}, hist)

	req := httptest.NewRequest(http.MethodGet, "/api/history?check_id=S1-probes&limit=10", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results []result.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 2)
}

func TestHandleHistoryPropagatesStoreError(t *testing.T) {
	hist := &fakeHistory{err: assertError{}}
	srv := NewServer(&fakeRunner{}, hist)

	req := httptest.NewRequest(http.MethodGet, "/api/history?check_id=S1-probes", nil)
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
