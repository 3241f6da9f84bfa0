// Package summary implements the periodic digest generator: at a
// configured cadence it aggregates stored results into a status report
// and emits it through the notification sink, per spec.md §4.6.
package summary

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/veris-memory/sentinel/internal/result"
	"github.com/veris-memory/sentinel/internal/utils"
)

// Store is the persistence surface the generator needs.
type Store interface {
	QueryWindow(ctx context.Context, since time.Time) ([]result.Result, error)
}

// Sink is the notification surface the generator emits through.
type Sink interface {
	Send(ctx context.Context, text string, disableNotification bool) (bool, error)
}

// CheckFailureCount is one entry of a Report's top-N failing checks.
type CheckFailureCount struct {
	CheckID  string
	Failures int
}

// Report is one generated digest, also kept in the generator's reports
// ring buffer.
type Report struct {
	WindowStart   time.Time
	WindowEnd     time.Time
	Total         int
	Pass          int
	Warn          int
	Fail          int
	AvgLatencyMS  float64
	UptimePercent float64
	TopFailing    []CheckFailureCount
}

// Generator runs the cron-scheduled digest.
type Generator struct {
	store   Store
	sink    Sink
	period  time.Duration
	topN    int
	reports *utils.Queue[Report]

	cron *cron.Cron
}

// NewGenerator constructs a Generator. reports is the bounded reports
// ring buffer every digest is pushed into (main builds it with cap 50,
// per spec.md §3).
func NewGenerator(store Store, sink Sink, period time.Duration, topN int, reports *utils.Queue[Report]) *Generator {
	return &Generator{
		store:   store,
		sink:    sink,
		period:  period,
		topN:    topN,
		reports: reports,
	}
}

// Start schedules the digest on its own cron-driven timer, decoupled
// from the scheduler's tick loop.
func (g *Generator) Start(ctx context.Context) error {
	g.cron = cron.New()
	_, err := g.cron.AddFunc(fmt.Sprintf("@every %s", g.period), func() {
		g.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("summary: scheduling digest: %w", err)
	}
	g.cron.Start()
	return nil
}

// Stop cancels the periodic task. The in-flight run, if any, still
// completes.
func (g *Generator) Stop() {
	if g.cron != nil {
		g.cron.Stop()
	}
}

// RunOnce triggers one digest cycle synchronously, used by tests. It
// runs the same body (runOnce) that Start schedules.
func (g *Generator) RunOnce(ctx context.Context) {
	g.runOnce(ctx)
}

func (g *Generator) runOnce(ctx context.Context) {
	now := time.Now()
	since := now.Add(-g.period)

	results, err := g.store.QueryWindow(ctx, since)
	if err != nil {
		log.Warn().Err(err).Msg("summary: failed to query window")
		return
	}
	if len(results) == 0 {
		log.Info().Msg("summary: no results in window, skipping digest")
		return
	}

	report := buildReport(since, now, results, g.topN)
	g.reports.Push(report)

	text := renderReport(report)
	if _, err := g.sink.Send(ctx, text, true); err != nil {
		log.Warn().Err(err).Msg("summary: failed to send digest")
	}
}

func buildReport(start, end time.Time, results []result.Result, topN int) Report {
	report := Report{WindowStart: start, WindowEnd: end}
	failuresByCheck := make(map[string]int)
	var latencySum float64

	for _, r := range results {
		report.Total++
		latencySum += r.LatencyMS
		switch r.Status {
		case result.StatusPass:
			report.Pass++
		case result.StatusWarn:
			report.Warn++
		case result.StatusFail:
			report.Fail++
			failuresByCheck[r.CheckID]++
		}
	}

	if report.Total > 0 {
		report.AvgLatencyMS = latencySum / float64(report.Total)
		report.UptimePercent = float64(report.Pass) / float64(report.Total) * 100
	}

	report.TopFailing = topFailingChecks(failuresByCheck, topN)
	return report
}

func topFailingChecks(failuresByCheck map[string]int, topN int) []CheckFailureCount {
	entries := make([]CheckFailureCount, 0, len(failuresByCheck))
	for id, count := range failuresByCheck {
		entries = append(entries, CheckFailureCount{CheckID: id, Failures: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Failures != entries[j].Failures {
			return entries[i].Failures > entries[j].Failures
		}
		return entries[i].CheckID < entries[j].CheckID
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

func renderReport(r Report) string {
	var b strings.Builder
	b.WriteString("<b>📊 Sentinel Digest</b>\n")
	fmt.Fprintf(&b, "Window: %s → %s\n", r.WindowStart.UTC().Format(time.RFC3339), r.WindowEnd.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Total: %d  Pass: %d  Warn: %d  Fail: %d\n", r.Total, r.Pass, r.Warn, r.Fail)
	fmt.Fprintf(&b, "Uptime: %.1f%%  Avg latency: %.1fms\n", r.UptimePercent, r.AvgLatencyMS)
	if len(r.TopFailing) > 0 {
		b.WriteString("Top failing checks:\n")
		for _, f := range r.TopFailing {
			fmt.Fprintf(&b, "• %s: %d\n", html.EscapeString(f.CheckID), f.Failures)
		}
	}
	return b.String()
}
