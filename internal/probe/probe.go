// Package probe provides the uniform outbound HTTP helpers every check
// uses to talk to the monitored service: a liveness-style GET and a
// JSON-body call, both with a consistent authentication and timeout
// discipline. Neither ever raises to the caller — every outcome is
// reduced to a tuple, per spec.md §4.1.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client wraps an *http.Client with the credential used for outbound
// authenticated calls. A zero-value Credential means "no credential" —
// calls proceed without the X-API-Key header.
type Client struct {
	HTTP       *http.Client
	Credential Credential
}

// New returns a Client. cred may be the zero value if no credential is
// configured.
func New(cred Credential) *Client {
	return &Client{
		HTTP:       &http.Client{},
		Credential: cred,
	}
}

// CheckEndpointHealth issues a GET against url and reports whether the
// response status matches expectedStatus. Latency is measured
// regardless of outcome; ok is false on transport error, timeout, or
// status mismatch.
func (c *Client) CheckEndpointHealth(ctx context.Context, url string, expectedStatus int, timeout time.Duration) (ok bool, message string, latencyMS float64) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Sprintf("failed to build request: %v", err), elapsedMS(start)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Sprintf("request failed: %v", err), elapsedMS(start)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	latencyMS = elapsedMS(start)
	if resp.StatusCode != expectedStatus {
		return false, fmt.Sprintf("unexpected status %d (want %d)", resp.StatusCode, expectedStatus), latencyMS
	}
	return true, "ok", latencyMS
}

// CallJSON issues method against url with an optional JSON body,
// attaching the configured credential's X-API-Key header if present.
// JSON parse failures on a matching status do not fail the call;
// parsedBody is nil in that case.
func (c *Client) CallJSON(ctx context.Context, method, url string, body interface{}, expectedStatus int, timeout time.Duration) (ok bool, message string, latencyMS float64, parsedBody map[string]interface{}) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Sprintf("failed to encode request body: %v", err), elapsedMS(start), nil
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return false, fmt.Sprintf("failed to build request: %v", err), elapsedMS(start), nil
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Credential.Key != "" {
		req.Header.Set("X-API-Key", c.Credential.Key)
		log.Debug().Str("credential_prefix", c.Credential.RedactedPrefix()).Msg("attached outbound credential")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Sprintf("request failed: %v", err), elapsedMS(start), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Sprintf("failed to read response body: %v", err), elapsedMS(start), nil
	}

	latencyMS = elapsedMS(start)
	if resp.StatusCode != expectedStatus {
		return false, fmt.Sprintf("unexpected status %d (want %d)", resp.StatusCode, expectedStatus), latencyMS, nil
	}

	if len(raw) > 0 {
		var parsed map[string]interface{}
		if err := json.Unmarshal(raw, &parsed); err == nil {
			parsedBody = parsed
		}
	}
	return true, "ok", latencyMS, parsedBody
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
