package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/result"
)

// goldenFact is one trial of the golden-fact-recall dataset: a small
// structured fact is stored, then queried back through a natural
// language question; the retrieval is expected to surface a substring
// of the original fact.
type goldenFact struct {
	content        map[string]interface{}
	contentType    string
	question       string
	expectContains string
}

var goldenFactDataset = []goldenFact{
	{
		content:        map[string]interface{}{"key": "deployment_region", "value": "us-east-1"},
		contentType:    "decision",
		question:       "What region is the deployment in?",
		expectContains: "us-east-1",
	},
	{
		content:        map[string]interface{}{"key": "retry_budget", "value": "3 attempts"},
		contentType:    "design",
		question:       "How many retry attempts are budgeted?",
		expectContains: "3 attempts",
	},
	{
		content:        map[string]interface{}{"key": "on_call_rotation", "value": "weekly"},
		contentType:    "sprint",
		question:       "How often does the on-call rotation change?",
		expectContains: "weekly",
	},
	{
		content:        map[string]interface{}{"key": "incident_postmortem_owner", "value": "platform-team"},
		contentType:    "trace",
		question:       "Who owns incident postmortems?",
		expectContains: "platform-team",
	},
	{
		content:        map[string]interface{}{"key": "backup_cadence", "value": "nightly"},
		contentType:    "decision",
		question:       "How often are backups taken?",
		expectContains: "nightly",
	},
}

// NewGoldenFactRecall builds the S2 check: stores small structured facts
// then queries them through the retrieval endpoint, passing if the
// expected substring is recalled for at least 80% of trials (warning
// between 60% and 80%), per spec.md §4.2 and original_source's
// s2_golden_fact_recall.py banding.
func NewGoldenFactRecall(deps check.Deps) check.Check {
	return check.NewBase("S2-golden-fact-recall", "Golden fact storage and recall", true, func(ctx context.Context) result.Result {
		var totalLatency float64
		var passedTests int
		testResults := make([]map[string]interface{}, 0, len(goldenFactDataset))

		for _, fact := range goldenFactDataset {
			passed, latency, detail := runGoldenFactTrial(ctx, deps, fact)
			totalLatency += latency
			if passed {
				passedTests++
			}
			testResults = append(testResults, detail)
		}

		total := len(goldenFactDataset)
		successRate := 0.0
		if total > 0 {
			successRate = float64(passedTests) / float64(total)
		}

		status := result.StatusFail
		switch {
		case successRate >= 0.8:
			status = result.StatusPass
		case successRate >= 0.6:
			status = result.StatusWarn
		}

		return result.Result{
			Status:    status,
			LatencyMS: totalLatency,
			Message:   fmt.Sprintf("golden fact recall: %d/%d (%.0f%%)", passedTests, total, successRate*100),
			Details: map[string]interface{}{
				"total_tests":  total,
				"passed_tests": passedTests,
				"success_rate": successRate,
				"test_results": testResults,
			},
		}
	})
}

func runGoldenFactTrial(ctx context.Context, deps check.Deps, fact goldenFact) (passed bool, latencyMS float64, detail map[string]interface{}) {
	storeBody := map[string]interface{}{
		"content": fact.content,
		"type":    fact.contentType,
		"author":  "sentinel",
		"metadata": map[string]interface{}{
			"source": "golden-fact-recall",
		},
	}
	storeOK, storeMsg, storeLatency, _ := deps.Client.CallJSON(ctx, http.MethodPost, deps.BaseURL+"/tools/store_context", storeBody, http.StatusOK, 10*time.Second)
	latencyMS += storeLatency
	if !storeOK {
		return false, latencyMS, map[string]interface{}{
			"question": fact.question,
			"passed":   false,
			"reason":   "store failed: " + storeMsg,
		}
	}

	queryBody := map[string]interface{}{
		"query": fact.question,
		"limit": 5,
	}
	queryOK, queryMsg, queryLatency, queryBody2 := deps.Client.CallJSON(ctx, http.MethodPost, deps.BaseURL+"/tools/retrieve_context", queryBody, http.StatusOK, 10*time.Second)
	latencyMS += queryLatency
	if !queryOK {
		return false, latencyMS, map[string]interface{}{
			"question": fact.question,
			"passed":   false,
			"reason":   "retrieve failed: " + queryMsg,
		}
	}

	found := retrievalContains(queryBody2, fact.expectContains)
	return found, latencyMS, map[string]interface{}{
		"question": fact.question,
		"expected": fact.expectContains,
		"passed":   found,
	}
}

// retrievalContains reports whether any result in a retrieve_context
// response contains the expected substring anywhere in its encoded
// content.
func retrievalContains(body map[string]interface{}, expect string) bool {
	results, _ := body["results"].([]interface{})
	for _, r := range results {
		encoded, err := json.Marshal(r)
		if err != nil {
			continue
		}
		if strings.Contains(string(encoded), expect) {
			return true
		}
	}
	return false
}
