package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veris-memory/sentinel/internal/config"
)

func TestBuildRegistryRegistersAllElevenChecks(t *testing.T) {
	r := buildRegistry()
	ids := r.IDs()
	assert.Len(t, ids, 11)
	for _, want := range []string{
		"S1-probes", "S2-golden-fact-recall", "S3-paraphrase-robustness",
		"S4-metrics-wiring", "S5-security-negatives", "S6-backup-restore",
		"S7-config-parity", "S8-capacity-smoke", "S9-graph-intent-validation",
		"S10-content-pipeline", "S11-firewall-status",
	} {
		assert.Contains(t, ids, want)
	}
}

func TestBuildChannelsAlwaysIncludesLogChannel(t *testing.T) {
	cfg := &config.Config{}
	channels := buildChannels(cfg)
	assert.Len(t, channels, 1)
	assert.Equal(t, "log", channels[0].Name())
}

func TestBuildChannelsAddsTelegramWhenConfigured(t *testing.T) {
	cfg := &config.Config{TelegramBotToken: "token", TelegramChatID: "chat", TelegramRateLimit: 20, TelegramQueueCap: 100}
	channels := buildChannels(cfg)
	require := assert.New(t)
	require.Len(channels, 2)
	names := []string{channels[0].Name(), channels[1].Name()}
	require.Contains(names, "telegram")
}

func TestBuildChannelsSkipsTicketSinkWithoutRepo(t *testing.T) {
	cfg := &config.Config{GitHubToken: "token"}
	channels := buildChannels(cfg)
	assert.Len(t, channels, 1)
}

func TestBuildChannelsAddsTicketSinkWhenFullyConfigured(t *testing.T) {
	cfg := &config.Config{GitHubToken: "token", GitHubRepo: "owner/repo"}
	channels := buildChannels(cfg)
	var names []string
	for _, c := range channels {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "ticket")
}
