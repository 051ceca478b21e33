// Package store provides persistence for temperature readings and alert
// history. Two backends share one schema: a local SQLite file for
// single-host cron deployments and PostgreSQL for shared ones.
package store

import (
	"context"
	"fmt"
)

// Reading is one timestamped temperature sample. Readings are append-only
// and ordered only by timestamp.
type Reading struct {
	Timestamp   int64
	Temperature float64
}

// Store is the persistence boundary the monitor runs against.
// All failures surface as wrapped errors; the caller decides the exit code.
type Store interface {
	// EnsureSchema creates the readings and alerts tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// AverageInWindow returns the mean temperature of readings with
	// timestamp >= now-window. ok is false when no reading qualifies,
	// which is distinct from a legitimate mean of 0.
	AverageInWindow(ctx context.Context, window, now int64) (avg float64, ok bool, err error)

	// LastAlertTime returns the most recent recorded alert timestamp,
	// or 0 if no alert was ever recorded.
	LastAlertTime(ctx context.Context) (int64, error)

	// RecordAlert durably appends one alert record at ts.
	RecordAlert(ctx context.Context, ts int64) error

	// AddReading appends one reading. The monitor itself never writes
	// readings; this exists for the ingest side and for tests.
	AddReading(ctx context.Context, r Reading) error

	// Close releases the underlying connection.
	Close() error
}

// Open creates a store for the given backend ("sqlite" or "postgres") and DSN.
func Open(backend, dsn string) (Store, error) {
	switch backend {
	case "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
