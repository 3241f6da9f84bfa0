package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCredentialBare(t *testing.T) {
	cred, ok := ParseCredential("vmk_abc123_def456")
	require.True(t, ok)
	assert.Equal(t, "vmk_abc123_def456", cred.Key)
	assert.False(t, cred.Extended)
}

func TestParseCredentialExtended(t *testing.T) {
	cred, ok := ParseCredential("vmk_abc123_def456:alice:admin:true")
	require.True(t, ok)
	assert.Equal(t, "vmk_abc123_def456", cred.Key)
	assert.Equal(t, "alice", cred.User)
	assert.Equal(t, "admin", cred.Role)
	assert.True(t, cred.IsAgent)
	assert.True(t, cred.Extended)
}

func TestParseCredentialInvalid(t *testing.T) {
	cases := []string{
		"",
		"not-a-key",
		"vmk_onlyoneprefix",
		"vmk_abc123_def456:alice:admin",          // missing field
		"vmk_abc123_def456:alice:admin:notabool", // bad bool
	}
	for _, raw := range cases {
		_, ok := ParseCredential(raw)
		assert.False(t, ok, "expected %q to be rejected", raw)
	}
}

func TestRedactedPrefixNeverLeaksColon(t *testing.T) {
	cred, ok := ParseCredential("vmk_abc123_def456:alice:admin:false")
	require.True(t, ok)
	assert.NotContains(t, cred.Key, ":")
	assert.NotContains(t, cred.RedactedPrefix(), ":")
}
