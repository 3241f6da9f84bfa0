// Package config loads Sentinel's runtime configuration from the
// environment (and an optional .env file), mirroring the env-first
// approach of the Python runner it was distilled from.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/veris-memory/sentinel/internal/probe"
	"github.com/veris-memory/sentinel/internal/store"
	"github.com/veris-memory/sentinel/internal/utils"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validEnvironments = map[string]bool{
	"development": true, "staging": true, "production": true,
}

// Config is Sentinel's full runtime configuration.
type Config struct {
	TargetBaseURL string
	Credential    probe.Credential

	CheckInterval        time.Duration
	AlertThresholdFailures int
	DedupWindow          time.Duration
	SummaryInterval      time.Duration
	SummaryTopN          int
	EnabledChecks        []string

	TelegramBotToken string
	TelegramChatID   string
	TelegramRateLimit int
	TelegramQueueCap  int

	GitHubToken string
	GitHubRepo  string

	APIPort int
	NoAPI   bool

	LogLevel    string
	Environment string
	DBPath      string
}

// Load reads .env (if present) then the environment, applying defaults
// and validating what it can. Invalid db_path is fatal (returns an
// error); invalid log_level/environment are non-fatal and only logged,
// matching the original runner's permissive startup behavior.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("config: failed to load .env file")
	}

	cfg := &Config{
		TargetBaseURL:          getenv("TARGET_BASE_URL", "http://localhost:8000"),
		CheckInterval:          getenvSeconds("CHECK_INTERVAL_SECONDS", 60),
		AlertThresholdFailures: getenvInt("ALERT_THRESHOLD_FAILURES", 3),
		DedupWindow:            getenvMinutes("DEDUP_WINDOW_MINUTES", 30),
		SummaryInterval:        getenvHours("SUMMARY_INTERVAL_HOURS", 24),
		SummaryTopN:            getenvInt("SUMMARY_TOP_N", 5),
		EnabledChecks:          getenvList("ENABLED_CHECKS"),

		TelegramBotToken:  getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    getenv("TELEGRAM_CHAT_ID", ""),
		TelegramRateLimit: getenvInt("TELEGRAM_RATE_LIMIT", 20),
		TelegramQueueCap:  getenvInt("TELEGRAM_QUEUE_CAPACITY", 100),

		GitHubToken: getenv("GITHUB_TOKEN", ""),
		GitHubRepo:  getenv("GITHUB_REPO", ""),

		APIPort: getenvInt("API_PORT", 9090),
		NoAPI:   getenvBool("NO_API", false),

		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		Environment: strings.ToLower(getenv("ENVIRONMENT", "production")),
		DBPath:      getenv("SENTINEL_DB_PATH", store.DefaultPath()),
	}

	rawKey := getenv("SENTINEL_API_KEY", getenv("API_KEY_MCP", ""))
	if rawKey != "" {
		if cred, ok := probe.ParseCredential(rawKey); ok {
			cfg.Credential = cred
		} else {
			log.Warn().Msg("config: SENTINEL_API_KEY/API_KEY_MCP did not parse as a recognized credential shape")
		}
	}

	cfg.validateNonFatal()

	if err := store.ValidatePath(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("config: invalid db path: %w", err)
	}

	return cfg, nil
}

// validateNonFatal logs warnings for fields the original runner
// tolerates rather than rejects outright.
func (c *Config) validateNonFatal() {
	if !validLogLevels[c.LogLevel] {
		log.Warn().Str("log_level", c.LogLevel).Msg("config: unrecognized log level, defaulting behavior to info")
		c.LogLevel = "info"
	}
	if !validEnvironments[c.Environment] {
		log.Warn().Str("environment", c.Environment).Msg("config: unrecognized environment, defaulting behavior to production")
		c.Environment = "production"
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("config: expected integer, using default")
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	return utils.ParseBool(raw)
}

func getenvSeconds(key string, fallbackSeconds int) time.Duration {
	return time.Duration(getenvInt(key, fallbackSeconds)) * time.Second
}

func getenvMinutes(key string, fallbackMinutes int) time.Duration {
	return time.Duration(getenvInt(key, fallbackMinutes)) * time.Minute
}

func getenvHours(key string, fallbackHours int) time.Duration {
	return time.Duration(getenvInt(key, fallbackHours)) * time.Hour
}

func getenvList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
