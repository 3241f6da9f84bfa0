package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veris-memory/sentinel/internal/result"
	"github.com/veris-memory/sentinel/internal/utils"
)

type fakeStore struct {
	results []result.Result
	err     error
	since   time.Time
}

func (f *fakeStore) QueryWindow(ctx context.Context, since time.Time) ([]result.Result, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeSink struct {
	sent []string
	err  error
}

func (f *fakeSink) Send(ctx context.Context, text string, disableNotification bool) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.sent = append(f.sent, text)
	return true, nil
}

func newReportsBuf() *utils.Queue[Report] {
	return utils.NewQueue[Report](50)
}

func TestRunOnceSkipsWhenWindowEmpty(t *testing.T) {
	store := &fakeStore{}
	sink := &fakeSink{}
	reports := newReportsBuf()
	g := NewGenerator(store, sink, time.Hour, 5, reports)

	g.RunOnce(context.Background())

	assert.Empty(t, sink.sent)
	assert.Equal(t, 0, reports.Len())
}

func TestRunOnceSendsDigestAndStoresReport(t *testing.T) {
	now := time.Now()
	store := &fakeStore{results: []result.Result{
		{CheckID: "S1-probes", Status: result.StatusPass, LatencyMS: 10, Timestamp: now},
		{CheckID: "S1-probes", Status: result.StatusFail, LatencyMS: 20, Timestamp: now},
		{CheckID: "S2-recall", Status: result.StatusFail, LatencyMS: 30, Timestamp: now},
	}}
	sink := &fakeSink{}
	reports := newReportsBuf()
	g := NewGenerator(store, sink, time.Hour, 5, reports)

	g.RunOnce(context.Background())

	require.Len(t, sink.sent, 1)
	assert.Contains(t, sink.sent[0], "Sentinel Digest")
	assert.Contains(t, sink.sent[0], "S1-probes")
	require.Equal(t, 1, reports.Len())

	report, ok := reports.Peek()
	require.True(t, ok)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Pass)
	assert.Equal(t, 2, report.Fail)
	assert.InDelta(t, 33.33, report.UptimePercent, 0.1)
}

func TestRunOnceDoesNothingOnStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db unavailable")}
	sink := &fakeSink{}
	reports := newReportsBuf()
	g := NewGenerator(store, sink, time.Hour, 5, reports)

	g.RunOnce(context.Background())

	assert.Empty(t, sink.sent)
	assert.Equal(t, 0, reports.Len())
}

func TestRunOnceSwallowsSinkError(t *testing.T) {
	store := &fakeStore{results: []result.Result{
		{CheckID: "S1-probes", Status: result.StatusPass, LatencyMS: 10},
	}}
	sink := &fakeSink{err: errors.New("network down")}
	reports := newReportsBuf()
	g := NewGenerator(store, sink, time.Hour, 5, reports)

	assert.NotPanics(t, func() { g.RunOnce(context.Background()) })
	assert.Equal(t, 1, reports.Len())
}

func TestTopFailingChecksOrdersByCountThenID(t *testing.T) {
	counts := map[string]int{
		"S3-paraphrase": 2,
		"S1-probes":     5,
		"S2-recall":     5,
	}
	top := topFailingChecks(counts, 5)
	require.Len(t, top, 3)
	assert.Equal(t, "S1-probes", top[0].CheckID)
	assert.Equal(t, "S2-recall", top[1].CheckID)
	assert.Equal(t, "S3-paraphrase", top[2].CheckID)
}

func TestTopFailingChecksRespectsLimit(t *testing.T) {
	counts := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}
	top := topFailingChecks(counts, 2)
	assert.Len(t, top, 2)
}

func TestBuildReportZeroTotalsWhenEmpty(t *testing.T) {
	report := buildReport(time.Now().Add(-time.Hour), time.Now(), nil, 5)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0.0, report.UptimePercent)
	assert.Equal(t, 0.0, report.AvgLatencyMS)
}
