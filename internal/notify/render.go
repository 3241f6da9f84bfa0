// Package notify implements the rate-limited chat-bot sink and the
// optional ticket sink, plus the HTML rendering of alert payloads used
// by the chat-bot sink. The periodic summary generator renders its own
// digest text (internal/summary).
package notify

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/veris-memory/sentinel/internal/alerts"
)

var severityHeader = map[alerts.Severity]string{
	alerts.SeverityCritical: "🚨 CRITICAL",
	alerts.SeverityHigh:     "🔶 HIGH",
	alerts.SeverityWarning:  "⚠️ WARNING",
	alerts.SeverityInfo:     "ℹ️ INFO",
}

// RenderAlert formats a Payload as the HTML message body spec.md §4.5
// describes: severity header, separator, explicit fields, and an
// optional bulleted details block. Every field is HTML-escaped.
func RenderAlert(p alerts.Payload) string {
	var b strings.Builder

	header := severityHeader[p.Severity]
	if header == "" {
		header = string(p.Severity)
	}
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(header))
	b.WriteString(strings.Repeat("─", 20) + "\n")
	fmt.Fprintf(&b, "<b>Check:</b> %s\n", html.EscapeString(p.CheckID))
	fmt.Fprintf(&b, "<b>Status:</b> %s\n", html.EscapeString(string(p.Status)))
	fmt.Fprintf(&b, "<b>Time:</b> %s\n", html.EscapeString(p.Timestamp.UTC().Format(time.RFC3339)))
	fmt.Fprintf(&b, "<b>Latency:</b> %.1fms\n", p.LatencyMS)
	fmt.Fprintf(&b, "<b>Message:</b> %s\n", html.EscapeString(p.Message))

	if len(p.Details) > 0 {
		b.WriteString("<b>Details:</b>\n")
		keys := make([]string, 0, len(p.Details))
		for k := range p.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "• %s: %s\n", html.EscapeString(k), html.EscapeString(fmt.Sprintf("%v", p.Details[k])))
		}
	}

	if p.Severity == alerts.SeverityCritical || p.Severity == alerts.SeverityHigh {
		b.WriteString("<b>Action Required</b>\n")
	}

	return b.String()
}

// disableNotificationFor reports whether a Payload's delivery should be
// silent. Info-severity alerts (including auto-resolve recovery
// messages) never buzz a phone.
func disableNotificationFor(p alerts.Payload) bool {
	return p.Severity == alerts.SeverityInfo
}
