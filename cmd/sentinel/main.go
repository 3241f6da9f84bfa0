// Command sentinel runs the continuous black-box monitoring engine:
// it probes a target memory/retrieval service on a fixed cadence,
// persists results, raises deduplicated alerts, and serves a read-only
// status API. Grounded on the teacher's cmd/pulse/main.go (cobra root
// command, zerolog ConsoleWriter bootstrap, signal-driven shutdown).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/veris-memory/sentinel/internal/alerts"
	"github.com/veris-memory/sentinel/internal/api"
	"github.com/veris-memory/sentinel/internal/check"
	"github.com/veris-memory/sentinel/internal/check/checks"
	"github.com/veris-memory/sentinel/internal/config"
	"github.com/veris-memory/sentinel/internal/metrics"
	"github.com/veris-memory/sentinel/internal/notify"
	"github.com/veris-memory/sentinel/internal/probe"
	"github.com/veris-memory/sentinel/internal/runner"
	"github.com/veris-memory/sentinel/internal/store"
	"github.com/veris-memory/sentinel/internal/summary"
	"github.com/veris-memory/sentinel/internal/utils"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	flagAPIPort     int
	flagNoAPI       bool
	flagStandalone  bool
)

var rootCmd = &cobra.Command{
	Use:     "sentinel",
	Short:   "Sentinel - continuous black-box monitoring for a memory/retrieval service",
	Long:    "Sentinel probes a target service on a fixed cadence, persists results, raises deduplicated alerts, and serves a read-only status API.",
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd.Flags().Changed("api-port"))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sentinel %s\n", Version)
	},
}

func init() {
	rootCmd.Flags().IntVar(&flagAPIPort, "api-port", 9090, "port the read-only status API listens on")
	rootCmd.Flags().BoolVar(&flagNoAPI, "no-api", false, "disable the status API and metrics endpoint")
	rootCmd.Flags().BoolVar(&flagStandalone, "standalone", false, "run without any external orchestration assumptions (single process, no supervisor handoff)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(apiPortFlagSet bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("sentinel: failed to load configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if apiPortFlagSet {
		cfg.APIPort = flagAPIPort
	}
	cfg.NoAPI = cfg.NoAPI || flagNoAPI

	if cfg.CheckInterval <= 0 {
		log.Fatal().Msg("sentinel: check_interval_seconds must be positive")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("sentinel: failed to open database")
	}
	defer db.Close()

	client := probe.New(cfg.Credential)
	registry := buildRegistry()

	enabled := cfg.EnabledChecks
	if len(enabled) == 0 {
		enabled = registry.IDs()
	}
	activeChecks, err := registry.Build(check.Deps{Client: client, BaseURL: cfg.TargetBaseURL}, enabled)
	if err != nil {
		log.Warn().Err(err).Msg("sentinel: some enabled checks were not recognized")
	}

	metricsRecorder := metrics.New()

	channels := buildChannels(cfg)
	alertMgr := alerts.NewManager(db, channels, alerts.Config{
		ThresholdFailures: cfg.AlertThresholdFailures,
		DedupWindow:       cfg.DedupWindow,
	}).WithMetrics(metricsRecorder)

	sched := runner.New(activeChecks, db, alertMgr, cfg.CheckInterval).WithMetrics(metricsRecorder)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var digest *summary.Generator
	if cfg.TelegramBotToken != "" {
		// Reuse the alert channel's sink so digests and alerts share one
		// rate-limit budget and overflow queue.
		var sink *notify.TelegramSink
		for _, ch := range channels {
			if ts, ok := ch.(*notify.TelegramSink); ok {
				sink = ts
			}
		}
		reports := utils.NewQueue[summary.Report](50)
		digest = summary.NewGenerator(db, sink, cfg.SummaryInterval, cfg.SummaryTopN, reports)
		if err := digest.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("sentinel: failed to start summary generator")
		} else {
			defer digest.Stop()
		}
	}

	var apiServer *http.Server
	if !cfg.NoAPI {
		apiServer = startAPIServer(sched, db, metricsRecorder, cfg.APIPort)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	log.Info().
		Str("version", Version).
		Str("target", cfg.TargetBaseURL).
		Dur("interval", cfg.CheckInterval).
		Int("checks", len(activeChecks)).
		Bool("standalone", flagStandalone).
		Msg("sentinel: starting monitoring loop")

	sched.Run(ctx)

	log.Info().Msg("sentinel: shutdown complete")
}

func buildRegistry() *check.Registry {
	r := check.NewRegistry()
	r.Register("S1-probes", checks.NewHealthProbe)
	r.Register("S2-golden-fact-recall", checks.NewGoldenFactRecall)
	r.Register("S3-paraphrase-robustness", checks.NewParaphraseRobustness)
	r.Register("S4-metrics-wiring", checks.NewMetricsWiring)
	r.Register("S5-security-negatives", checks.NewSecurityNegatives)
	r.Register("S6-backup-restore", checks.NewBackupRestore)
	r.Register("S7-config-parity", checks.NewConfigParity)
	r.Register("S8-capacity-smoke", checks.NewCapacitySmoke)
	r.Register("S9-graph-intent-validation", checks.NewGraphIntentValidation)
	r.Register("S10-content-pipeline", checks.NewContentPipelineMonitoring)
	r.Register("S11-firewall-status", checks.NewFirewallStatus)
	return r
}

func buildChannels(cfg *config.Config) []alerts.Channel {
	channels := []alerts.Channel{&alerts.LogChannel{}}

	if cfg.TelegramBotToken != "" {
		channels = append(channels, notify.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramRateLimit, cfg.TelegramQueueCap))
	}
	if cfg.GitHubToken != "" && cfg.GitHubRepo != "" {
		ticket, err := notify.NewTicketSink(context.Background(), cfg.GitHubToken, cfg.GitHubRepo)
		if err != nil {
			log.Warn().Err(err).Msg("sentinel: failed to configure ticket sink, continuing without it")
		} else {
			channels = append(channels, ticket)
		}
	}
	return channels
}

func startAPIServer(sched *runner.Runner, db *store.Store, m *metrics.Metrics, port int) *http.Server {
	apiSrv := api.NewServer(sched, db)
	mux := apiSrv.Mux()
	mux.Handle("/internal/metrics", m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Int("port", port).Msg("sentinel: status API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("sentinel: status API stopped unexpectedly")
		}
	}()

	return srv
}
