// Package checks implements the concrete check bodies named in
// spec.md §4.2, registered against internal/check.Registry by main.
package checks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/result"
)

// componentTolerance lists, per dependency class, which reported
// statuses are acceptable. Secondary dependencies (redis, neo4j) tolerate
// "degraded"; the primary vector store (qdrant) does not.
var componentTolerance = map[string][]string{
	"qdrant": {"ok", "healthy"},
	"redis":  {"ok", "healthy", "degraded"},
	"neo4j":  {"ok", "healthy", "degraded"},
}

// NewHealthProbe builds the S1 check: liveness plus readiness, verifying
// the declared dependency status map.
func NewHealthProbe(deps check.Deps) check.Check {
	return check.NewBase("S1-probes", "Liveness and readiness probe", true, func(ctx context.Context) result.Result {
		liveURL := deps.BaseURL + "/health/live"
		okLive, msg, latLive, bodyLive := deps.Client.CallJSON(ctx, http.MethodGet, liveURL, nil, http.StatusOK, 5*time.Second)
		if !okLive {
			return result.Result{Status: result.StatusFail, LatencyMS: latLive, Message: "liveness probe failed: " + msg}
		}
		status, _ := bodyLive["status"].(string)
		if status != "alive" {
			return result.Result{
				Status:    result.StatusFail,
				LatencyMS: latLive,
				Message:   fmt.Sprintf("liveness status %q, want \"alive\"", status),
				Details:   map[string]interface{}{"endpoint": liveURL, "response": bodyLive},
			}
		}

		readyURL := deps.BaseURL + "/health/ready"
		okReady, msg, latReady, bodyReady := deps.Client.CallJSON(ctx, http.MethodGet, readyURL, nil, http.StatusOK, 5*time.Second)
		totalLatency := latLive + latReady
		if !okReady {
			return result.Result{Status: result.StatusFail, LatencyMS: totalLatency, Message: "readiness probe failed: " + msg}
		}

		componentStatuses, problems := evaluateComponents(bodyReady)
		if len(problems) > 0 {
			return result.Result{
				Status:    result.StatusFail,
				LatencyMS: totalLatency,
				Message:   "unhealthy dependencies: " + strings.Join(problems, ", "),
				Details: map[string]interface{}{
					"endpoint":           readyURL,
					"component_statuses": componentStatuses,
				},
			}
		}

		return result.Result{
			Status:    result.StatusPass,
			LatencyMS: totalLatency,
			Message:   "liveness and readiness nominal",
			Details: map[string]interface{}{
				"component_statuses": componentStatuses,
			},
		}
	})
}

// evaluateComponents classifies each entry in the readiness body's
// "components" array and reports any that fall outside its class's
// tolerance. It never panics on unexpected shapes — a missing or
// malformed array is simply reported as having no components.
func evaluateComponents(readyBody map[string]interface{}) (statuses map[string]string, problems []string) {
	statuses = make(map[string]string)

	raw, _ := readyBody["components"].([]interface{})
	for _, entry := range raw {
		component, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := component["name"].(string)
		componentStatus, _ := component["status"].(string)
		statuses[name] = componentStatus

		acceptable, tracked := toleranceFor(name)
		if !tracked {
			continue
		}
		if !contains(acceptable, componentStatus) {
			problems = append(problems, fmt.Sprintf("%s=%s", name, componentStatus))
		}
	}
	return statuses, problems
}

func toleranceFor(componentName string) ([]string, bool) {
	lower := strings.ToLower(componentName)
	for class, acceptable := range componentTolerance {
		if strings.Contains(lower, class) {
			return acceptable, true
		}
	}
	return nil, false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
