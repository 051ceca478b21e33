// Package runinfo reports a summary of each invocation to Redis so an
// operator (or dashboard) can see what the unattended cron runs decided
// without grepping logs. Reporting is best-effort: a failure here is logged
// and never changes the process exit code.
package runinfo

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// LastRunKey is the Redis key holding the most recent run summary.
	LastRunKey = "monitor:lastrun"
	// SummaryTTL is how long a summary stays in Redis if not refreshed.
	// Sized for a once-per-minute cron cadence with generous slack.
	SummaryTTL = 24 * time.Hour
)

// RunSummary describes the outcome of one invocation.
type RunSummary struct {
	RunID      string  `json:"run_id"`
	StartedAt  int64   `json:"started_at"`
	DurationMs int64   `json:"duration_ms"`
	Outcome    string  `json:"outcome"`
	Mean       float64 `json:"mean,omitempty"`
	HasData    bool    `json:"has_data"`
	Threshold  float64 `json:"threshold"`
	ExitCode   int     `json:"exit_code"`
	Error      string  `json:"error,omitempty"`
}

// Reporter writes run summaries to Redis.
type Reporter struct {
	client *redis.Client
}

// NewReporter connects to Redis at addr and validates the connection.
// Returns nil (reporting disabled) if the connection cannot be established;
// observability must not block the decision cycle.
func NewReporter(ctx context.Context, addr string) *Reporter {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Run summary reporting disabled, Redis unreachable", "addr", addr, "error", err)
		client.Close()
		return nil
	}
	return &Reporter{client: client}
}

// Report writes the summary to Redis with a TTL. Failures are logged at
// Warn severity and swallowed.
func (r *Reporter) Report(ctx context.Context, summary RunSummary) {
	if r == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		slog.Warn("Failed to marshal run summary", "error", err)
		return
	}
	if err := r.client.Set(ctx, LastRunKey, data, SummaryTTL).Err(); err != nil {
		slog.Warn("Failed to report run summary", "error", err)
		return
	}

	slog.Info("Run summary reported",
		"run_id", summary.RunID,
		"outcome", summary.Outcome,
		"exit_code", summary.ExitCode,
	)
}

// Close releases the Redis connection.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.client.Close()
}
