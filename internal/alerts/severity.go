package alerts

// Severity is the alert manager's own classification, never sourced
// from a check body (spec.md §4.4).
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// criticalImmediate is the set of check IDs whose first threshold
// breach is already critical: safety/security and data-integrity
// checks don't get a warning ramp.
var criticalImmediate = map[string]bool{
	"S5-security-negatives": true,
	"S6-backup-restore":     true,
}

// severityFor derives severity from the check ID class and how far past
// the threshold the failure count has grown. Health/probe-class checks
// escalate warning -> high -> critical as the count passes multiples of
// the threshold; safety/security/data-integrity checks go straight to
// critical.
func severityFor(checkID string, failureCount, threshold int) Severity {
	if criticalImmediate[checkID] {
		return SeverityCritical
	}
	if threshold <= 0 {
		threshold = 1
	}
	switch {
	case failureCount >= 3*threshold:
		return SeverityCritical
	case failureCount >= 2*threshold:
		return SeverityHigh
	default:
		return SeverityWarning
	}
}
