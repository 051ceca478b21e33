// Command monitor runs one decision cycle of the temperature monitor.
// It is designed to run unattended under cron: overlapping invocations are
// serialized by an advisory file lock, and the exit code plus one log line
// per failure is the entire user-visible contract.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emirkmo/google-alert/internal/config"
	"github.com/emirkmo/google-alert/internal/monitor"
	"github.com/emirkmo/google-alert/internal/notifier"
	"github.com/emirkmo/google-alert/internal/notifier/command"
	"github.com/emirkmo/google-alert/internal/notifier/email"
	"github.com/emirkmo/google-alert/internal/notifier/kafkapub"
	"github.com/emirkmo/google-alert/internal/notifier/slack"
	"github.com/emirkmo/google-alert/internal/notifier/webhook"
	"github.com/emirkmo/google-alert/internal/runinfo"
	"github.com/emirkmo/google-alert/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := parseFlags()

	setupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return monitor.ExitError
	}

	slog.Info("Starting monitor",
		"db", cfg.DBPath,
		"backend", cfg.StoreBackend,
		"threshold", cfg.Threshold,
		"cooldown_seconds", cfg.Cooldown,
		"window_seconds", cfg.Window,
		"notify_type", cfg.NotifyType,
		"lock", cfg.LockPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.StoreBackend, cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		return monitor.ExitError
	}
	defer st.Close()

	registry := notifier.NewRegistry()
	registry.Register(command.New())
	registry.Register(webhook.New())
	registry.Register(slack.New())
	registry.Register(email.New())
	registry.Register(kafkapub.New())

	transport, ok := registry.Get(cfg.NotifyType)
	if !ok {
		slog.Error("Unknown notification transport", "notify_type", cfg.NotifyType)
		return monitor.ExitError
	}

	var reporter *runinfo.Reporter
	if cfg.RedisAddr != "" {
		reporter = runinfo.NewReporter(ctx, cfg.RedisAddr)
		defer reporter.Close()
	}

	runner := monitor.NewRunner(cfg, st, transport, reporter)
	return runner.Run(ctx)
}

// parseFlags builds the invocation configuration from flags with
// environment fallbacks.
func parseFlags() *config.Config {
	cfg := &config.Config{}
	flag.StringVar(&cfg.DBPath, "db", "", "Path to the SQLite DB (or Postgres DSN) with readings and alerts tables")
	flag.StringVar(&cfg.StoreBackend, "store-backend", "sqlite", "Store backend: sqlite or postgres")
	flag.Float64Var(&cfg.Threshold, "threshold", 8.0, "Temperature threshold in degrees Celsius")
	flag.Int64Var(&cfg.Cooldown, "cooldown", 3600, "Cooldown period in seconds between alerts")
	flag.Int64Var(&cfg.Window, "window", 60, "Trailing aggregation window in seconds")
	flag.StringVar(&cfg.Message, "message", "Temperature below threshold", "Alert message to send when the threshold is breached")
	flag.StringVar(&cfg.NotifyType, "notify-type", config.NotifyCommand, "Notification transport: command, webhook, slack, email, kafka")
	flag.StringVar(&cfg.NotifyTarget, "notify-target", "", "Transport target: command path, webhook URL, recipients, or brokers/topic")
	flag.DurationVar(&cfg.DispatchTimeout, "dispatch-timeout", 30*time.Second, "Upper bound on one dispatch attempt")
	flag.StringVar(&cfg.LockPath, "lock", config.GetEnvOrDefault("MONITOR_MINUTE_LOCK", config.DefaultLockPath), "Lock file path preventing overlapping runs")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", "", "Optional Redis address for run summary reporting")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()
	return cfg
}

// setupLogging configures the default slog logger.
func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})))
}
