package alerts

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/veris-memory/sentinel/internal/result"
)

// Payload is the channel-agnostic alert the manager hands to every
// configured channel; each channel renders it in its own way (spec.md
// §4.4: "identical semantic payload but a channel-specific rendering").
type Payload struct {
	CheckID   string
	AlertType string // "threshold" or "recovery"
	Severity  Severity
	Status    result.Status
	Message   string
	Timestamp time.Time
	LatencyMS float64
	Details   map[string]interface{}
}

// Channel is anything the manager can dispatch a Payload to. Dispatch
// errors are logged and skipped — a failing channel never blocks
// others (spec.md §4.4).
type Channel interface {
	Name() string
	Dispatch(ctx context.Context, p Payload) error
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// fingerprint derives the dedup key from (check_id, status, normalized
// message), per spec.md §3. It is never persisted as a primary key —
// purely an in-memory lookup.
func fingerprint(checkID string, status result.Status, message string) string {
	normalized := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(message)), " ")
	return checkID + "|" + string(status) + "|" + normalized
}
