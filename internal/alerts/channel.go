package alerts

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogChannel is the always-present structured-text channel spec.md
// §4.4 requires. It never fails.
type LogChannel struct{}

func (LogChannel) Name() string { return "log" }

func (LogChannel) Dispatch(ctx context.Context, p Payload) error {
	event := log.Warn()
	if p.Severity == SeverityInfo {
		event = log.Info()
	}
	event.
		Str("check_id", p.CheckID).
		Str("alert_type", p.AlertType).
		Str("severity", string(p.Severity)).
		Str("status", string(p.Status)).
		Float64("latency_ms", p.LatencyMS).
		Time("timestamp", p.Timestamp).
		Interface("details", p.Details).
		Msg(p.Message)
	return nil
}
