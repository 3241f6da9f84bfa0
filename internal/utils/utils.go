package utils

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a unique identifier. When prefix is non-empty the
// result is "prefix-<uuid>"; otherwise it is the bare uuid.
func GenerateID(prefix string) string {
	id := uuid.New().String()
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// WriteJSONResponse marshals data and writes it to w with a
// Content-Type of application/json. It does not set a status code,
// leaving that to the caller (or the default 200).
func WriteJSONResponse(w http.ResponseWriter, data interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(b)
	return err
}

var truthyValues = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"y":    true,
	"on":   true,
}

// ParseBool interprets common truthy strings (true/1/yes/y/on, any case,
// surrounding whitespace trimmed). Anything else is false, including an
// empty string.
func ParseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return truthyValues[s]
}

// GetenvTrim returns the named environment variable with leading and
// trailing whitespace removed.
func GetenvTrim(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// GetDataDir returns the directory Sentinel should use for its SQLite
// database and other on-disk state, honoring SENTINEL_DATA_DIR.
func GetDataDir() string {
	if dir := GetenvTrim("SENTINEL_DATA_DIR"); dir != "" {
		return dir
	}
	return "/var/lib/sentinel"
}
