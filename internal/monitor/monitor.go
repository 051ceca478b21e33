// Package monitor orchestrates one decision cycle: exclusivity guard,
// windowed metric read, decision engine, dispatch, and alert bookkeeping.
// Every outcome maps to a process exit code; the lock is released on every
// exit path.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emirkmo/google-alert/internal/config"
	"github.com/emirkmo/google-alert/internal/engine"
	"github.com/emirkmo/google-alert/internal/lockfile"
	"github.com/emirkmo/google-alert/internal/notifier"
	"github.com/emirkmo/google-alert/internal/runinfo"
	"github.com/emirkmo/google-alert/internal/store"
)

// Process exit codes. Zero covers every steady state (no data, above
// threshold, cooldown, lock busy); one covers anything an operator must
// look at.
const (
	ExitOK    = 0
	ExitError = 1
)

// Reporter consumes the end-of-run summary. *runinfo.Reporter implements it.
type Reporter interface {
	Report(ctx context.Context, summary runinfo.RunSummary)
}

// Runner executes one monitor invocation.
type Runner struct {
	cfg      *config.Config
	store    store.Store
	notifier notifier.Notifier
	reporter Reporter
	runID    string
	now      func() time.Time
}

// NewRunner creates a runner for one invocation. reporter may be nil when
// run-summary reporting is disabled.
func NewRunner(cfg *config.Config, st store.Store, n notifier.Notifier, reporter Reporter) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    st,
		notifier: n,
		reporter: reporter,
		runID:    uuid.NewString(),
		now:      time.Now,
	}
}

// RunID returns the identifier attached to this invocation's logs and payloads.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes the decision cycle under the advisory lock and returns the
// process exit code. A busy lock means another invocation owns this cycle
// and is not an error.
func (r *Runner) Run(ctx context.Context) int {
	lock, err := lockfile.Acquire(r.cfg.LockPath)
	if err != nil {
		if errors.Is(err, lockfile.ErrBusy) {
			slog.Info("Another invocation holds the lock, exiting",
				"lock", r.cfg.LockPath,
				"run_id", r.runID,
			)
			return ExitOK
		}
		slog.Error("Failed to acquire lock",
			"lock", r.cfg.LockPath,
			"run_id", r.runID,
			"error", err,
		)
		return ExitError
	}
	// Release is idempotent; the defer covers panics in the cycle.
	defer lock.Release()

	start := r.now()
	summary, code := r.cycle(ctx)
	summary.RunID = r.runID
	summary.StartedAt = start.Unix()
	summary.DurationMs = time.Since(start).Milliseconds()
	summary.Threshold = r.cfg.Threshold
	summary.ExitCode = code

	// The summary write is best-effort observability; release first so a
	// slow Redis cannot extend the mutual-exclusion window.
	lock.Release()
	if r.reporter != nil {
		r.reporter.Report(ctx, summary)
	}

	return code
}

// cycle runs the pipeline from metric read to bookkeeping and returns the
// run summary plus the exit code.
func (r *Runner) cycle(ctx context.Context) (runinfo.RunSummary, int) {
	now := r.now().Unix()
	summary := runinfo.RunSummary{}

	avg, hasData, err := r.store.AverageInWindow(ctx, r.cfg.Window, now)
	if err != nil {
		slog.Error("Failed to read average temperature",
			"run_id", r.runID,
			"error", err,
		)
		summary.Outcome = "store-error"
		summary.Error = err.Error()
		return summary, ExitError
	}
	summary.Mean = avg
	summary.HasData = hasData

	// First pass with empty history: NoData and AboveThreshold win before
	// the history is ever consulted, so those paths never touch the
	// alerts table.
	outcome := engine.Evaluate(engine.Input{
		Mean:      avg,
		HasData:   hasData,
		Threshold: r.cfg.Threshold,
		Now:       now,
	})

	if outcome == engine.NoData {
		slog.Info("No readings in the window",
			"run_id", r.runID,
			"window_seconds", r.cfg.Window,
		)
		summary.Outcome = outcome.String()
		return summary, ExitOK
	}

	slog.Info("Average temperature",
		"run_id", r.runID,
		"avg", avg,
		"threshold", r.cfg.Threshold,
		"window_seconds", r.cfg.Window,
	)

	if outcome == engine.AboveThreshold {
		slog.Info("Temperature above threshold, no alert", "run_id", r.runID)
		summary.Outcome = outcome.String()
		return summary, ExitOK
	}

	// Threshold breached: now the alert history matters.
	lastAlert, err := r.store.LastAlertTime(ctx)
	if err != nil {
		slog.Error("Failed to read last alert time",
			"run_id", r.runID,
			"error", err,
		)
		summary.Outcome = "store-error"
		summary.Error = err.Error()
		return summary, ExitError
	}

	outcome = engine.Evaluate(engine.Input{
		Mean:      avg,
		HasData:   hasData,
		Threshold: r.cfg.Threshold,
		LastAlert: lastAlert,
		Cooldown:  r.cfg.Cooldown,
		Now:       now,
	})
	summary.Outcome = outcome.String()

	switch outcome {
	case engine.ClockSkew:
		slog.Error("Clock skew detected: last alert recorded in the future",
			"run_id", r.runID,
			"last_alert", lastAlert,
			"now", now,
		)
		summary.Error = "last alert recorded in the future"
		return summary, ExitError

	case engine.CooldownActive:
		slog.Info("Cooldown active, alert suppressed",
			"run_id", r.runID,
			"elapsed_seconds", now-lastAlert,
			"cooldown_seconds", r.cfg.Cooldown,
		)
		return summary, ExitOK

	case engine.ShouldAlert:
		return r.dispatchAndRecord(ctx, summary, avg, now, lastAlert)

	default:
		// Unreachable: the first pass already handled NoData and
		// AboveThreshold, and rereading history cannot produce them.
		slog.Error("Unexpected decision outcome",
			"run_id", r.runID,
			"outcome", outcome.String(),
		)
		summary.Error = "unexpected decision outcome"
		return summary, ExitError
	}
}

// dispatchAndRecord makes the single delivery attempt and, only on success,
// appends the alert record. A failed dispatch leaves history untouched so
// the next tick re-evaluates and fires again.
func (r *Runner) dispatchAndRecord(ctx context.Context, summary runinfo.RunSummary, avg float64, now, lastAlert int64) (runinfo.RunSummary, int) {
	slog.Warn("Threshold crossed, dispatching alert",
		"run_id", r.runID,
		"avg", avg,
		"last_alert", lastAlert,
	)

	n := &notifier.Notification{
		RunID:     r.runID,
		Message:   r.cfg.Message,
		Mean:      avg,
		Threshold: r.cfg.Threshold,
		FiredAt:   now,
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, r.cfg.DispatchTimeout)
	defer cancel()
	if err := r.notifier.Send(dispatchCtx, r.cfg.NotifyTarget, n); err != nil {
		slog.Error("Alert dispatch failed, nothing recorded",
			"run_id", r.runID,
			"transport", r.notifier.Type(),
			"error", err,
		)
		summary.Error = err.Error()
		return summary, ExitError
	}

	if err := r.store.RecordAlert(ctx, now); err != nil {
		// The notification went out but history missed it: a duplicate
		// on the next tick is accepted over a lost notification.
		slog.Error("Notification sent but alert record failed",
			"run_id", r.runID,
			"alert_time", now,
			"error", err,
		)
		summary.Error = err.Error()
		return summary, ExitError
	}

	slog.Info("Alert executed and recorded",
		"run_id", r.runID,
		"alert_time", now,
	)
	return summary, ExitOK
}
