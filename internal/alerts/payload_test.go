package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veris-memory/sentinel/internal/result"
)

func TestFingerprintNormalizesWhitespaceAndCase(t *testing.T) {
	a := fingerprint("S1-probes", result.StatusFail, "Connection   Refused")
	b := fingerprint("S1-probes", result.StatusFail, "connection refused")
	assert.Equal(t, a, b)
}

func TestFingerprintDiffersByCheckID(t *testing.T) {
	a := fingerprint("S1-probes", result.StatusFail, "down")
	b := fingerprint("S2-golden-fact-recall", result.StatusFail, "down")
	assert.NotEqual(t, a, b)
}
