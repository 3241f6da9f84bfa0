package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veris-memory/sentinel/internal/result"
)

func TestRecordCheckIncrementsCounterAndHistogram(t *testing.T) {
	m := New()
	m.RecordCheck(result.Result{CheckID: "S1-probes", Status: result.StatusPass, LatencyMS: 120})

	req := httptest.NewRequest("GET", "/internal/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "sentinel_checks_total")
	assert.Contains(t, body, `check_id="S1-probes"`)
	assert.Contains(t, body, "sentinel_probe_latency_seconds")
}

func TestRecordAlertDispatchIncrementsCounter(t *testing.T) {
	m := New()
	m.RecordAlertDispatch("telegram", "critical")

	req := httptest.NewRequest("GET", "/internal/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "sentinel_alerts_dispatched_total")
	assert.Contains(t, rec.Body.String(), `channel="telegram"`)
}

func TestNilMetricsRecordCheckDoesNotPanic(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCheck(result.Result{CheckID: "S1-probes", Status: result.StatusPass})
		m.RecordAlertDispatch("telegram", "critical")
	})
}
