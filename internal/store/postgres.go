package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Postgres implements Store on top of a shared PostgreSQL database, for
// deployments where several hosts feed readings into one place.
type Postgres struct {
	conn *sql.DB
}

// OpenPostgres connects to PostgreSQL using the provided DSN, verifies the
// connection with a bounded ping, and ensures the schema exists, so a
// freshly initialized database reads as "no data" rather than failing.
func OpenPostgres(dsn string) (*Postgres, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{conn: conn}
	if err := p.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("Successfully connected to PostgreSQL store")
	return p, nil
}

// EnsureSchema creates the readings and alerts tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			timestamp BIGINT NOT NULL,
			temperature DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			alert_time BIGINT NOT NULL
		)`,
	}
	for _, q := range ddl {
		if _, err := p.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// AverageInWindow returns the mean temperature over the trailing window.
func (p *Postgres) AverageInWindow(ctx context.Context, window, now int64) (float64, bool, error) {
	cutoff := now - window
	var avg sql.NullFloat64
	err := p.conn.QueryRowContext(ctx,
		`SELECT AVG(temperature) FROM readings WHERE timestamp >= $1`, cutoff,
	).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query average temperature: %w", err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// LastAlertTime returns the newest alert timestamp, or 0 if none exists.
func (p *Postgres) LastAlertTime(ctx context.Context) (int64, error) {
	var last sql.NullInt64
	err := p.conn.QueryRowContext(ctx, `SELECT MAX(alert_time) FROM alerts`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to query last alert time: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return last.Int64, nil
}

// RecordAlert appends one alert record at ts.
func (p *Postgres) RecordAlert(ctx context.Context, ts int64) error {
	if _, err := p.conn.ExecContext(ctx,
		`INSERT INTO alerts(alert_time) VALUES ($1)`, ts,
	); err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

// AddReading appends one reading.
func (p *Postgres) AddReading(ctx context.Context, r Reading) error {
	if _, err := p.conn.ExecContext(ctx,
		`INSERT INTO readings(timestamp, temperature) VALUES ($1, $2)`,
		r.Timestamp, r.Temperature,
	); err != nil {
		return fmt.Errorf("failed to add reading: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	if p.conn != nil {
		slog.Info("Closing database connection")
		return p.conn.Close()
	}
	return nil
}
