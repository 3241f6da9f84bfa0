package checks

import (
	"context"

	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/result"
)

// newPlaceholder builds a check that always passes. spec.md §4.2 names
// several checks only at contract level ("most are placeholders
// today") — their business logic is an external collaborator out of
// scope for the core, but the registry still needs a slot and a stable
// ID for each so the alert manager and query API can reference them.
func newPlaceholder(id, description string) check.Factory {
	return func(deps check.Deps) check.Check {
		return check.NewBase(id, description, true, func(ctx context.Context) result.Result {
			return result.Result{Status: result.StatusPass, Message: "placeholder: not yet implemented"}
		})
	}
}

// NewParaphraseRobustness is the S3 placeholder.
func NewParaphraseRobustness(deps check.Deps) check.Check {
	return newPlaceholder("S3-paraphrase-robustness", "Paraphrase robustness of retrieval")(deps)
}

// NewMetricsWiring is the S4 placeholder.
func NewMetricsWiring(deps check.Deps) check.Check {
	return newPlaceholder("S4-metrics-wiring", "Operational metrics pipeline wiring")(deps)
}

// NewSecurityNegatives is the S5 placeholder.
func NewSecurityNegatives(deps check.Deps) check.Check {
	return newPlaceholder("S5-security-negatives", "Security negative-path probes")(deps)
}

// NewBackupRestore is the S6 placeholder.
func NewBackupRestore(deps check.Deps) check.Check {
	return newPlaceholder("S6-backup-restore", "Backup and restore smoke test")(deps)
}

// NewConfigParity is the S7 placeholder.
func NewConfigParity(deps check.Deps) check.Check {
	return newPlaceholder("S7-config-parity", "Configuration parity across replicas")(deps)
}

// NewCapacitySmoke is the S8 placeholder.
func NewCapacitySmoke(deps check.Deps) check.Check {
	return newPlaceholder("S8-capacity-smoke", "Capacity and load smoke test")(deps)
}

// NewGraphIntentValidation is the S9 placeholder.
func NewGraphIntentValidation(deps check.Deps) check.Check {
	return newPlaceholder("S9-graph-intent-validation", "Graph intent validation")(deps)
}

// NewContentPipelineMonitoring is the S10 placeholder.
func NewContentPipelineMonitoring(deps check.Deps) check.Check {
	return newPlaceholder("S10-content-pipeline", "Content pipeline monitoring")(deps)
}
