package probe

import (
	"regexp"
	"strconv"
	"strings"
)

// Credential is the tagged variant spec.md §9 asks for: a bare key, or a
// key extended with user/role/agent metadata. Only Key is ever
// transmitted; the rest exists for callers that need to log or audit
// who a credential represents.
type Credential struct {
	Key      string
	User     string
	Role     string
	IsAgent  bool
	Extended bool
}

var bareKeyPattern = regexp.MustCompile(`^vmk_[a-zA-Z0-9]+_[a-zA-Z0-9]+$`)

// ParseCredential parses either the bare form "vmk_{prefix}_{hash}" or the
// extended form "vmk_{prefix}_{hash}:user:role:isAgent". It returns
// ok=false for anything that doesn't match one of those two shapes;
// callers must treat a false return as "no credential" rather than an
// error, per spec.md §4.1.
func ParseCredential(raw string) (Credential, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Credential{}, false
	}

	parts := strings.SplitN(raw, ":", 2)
	key := parts[0]
	if !bareKeyPattern.MatchString(key) {
		return Credential{}, false
	}
	if len(parts) == 1 {
		return Credential{Key: key}, true
	}

	fields := strings.Split(parts[1], ":")
	if len(fields) != 3 {
		return Credential{}, false
	}
	isAgent, err := strconv.ParseBool(fields[2])
	if err != nil {
		return Credential{}, false
	}

	return Credential{
		Key:      key,
		User:     fields[0],
		Role:     fields[1],
		IsAgent:  isAgent,
		Extended: true,
	}, true
}

// RedactedPrefix returns a short, log-safe prefix of the credential key
// (never the full key, never anything after a colon).
func (c Credential) RedactedPrefix() string {
	if len(c.Key) <= 12 {
		return c.Key
	}
	return c.Key[:12] + "…"
}
