package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// SQLite implements Store on top of a local SQLite database file.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (creating if absent) the SQLite database at path and
// ensures the schema exists, so a freshly initialized store reads as
// "no data" rather than failing.
func OpenSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	// A cron invocation is a single short-lived caller; one connection
	// avoids SQLITE_BUSY between the schema check and the queries.
	conn.SetMaxOpenConns(1)

	s := &SQLite{conn: conn}
	if err := s.EnsureSchema(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("Opened SQLite store", "path", path)
	return s, nil
}

// EnsureSchema creates the readings and alerts tables if they do not exist.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			timestamp INTEGER NOT NULL,
			temperature REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			alert_time INTEGER NOT NULL
		)`,
	}
	for _, q := range ddl {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// AverageInWindow returns the mean temperature over the trailing window.
func (s *SQLite) AverageInWindow(ctx context.Context, window, now int64) (float64, bool, error) {
	cutoff := now - window
	var avg sql.NullFloat64
	err := s.conn.QueryRowContext(ctx,
		`SELECT AVG(temperature) FROM readings WHERE timestamp >= ?`, cutoff,
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
func (s *SQLite) LastAlertTime(ctx context.Context) (int64, error) {
	var last sql.NullInt64
	err := s.conn.QueryRowContext(ctx, `SELECT MAX(alert_time) FROM alerts`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to query last alert time: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return last.Int64, nil
}

// RecordAlert appends one alert record at ts.
func (s *SQLite) RecordAlert(ctx context.Context, ts int64) error {
	if _, err := s.conn.ExecContext(ctx,
		`INSERT INTO alerts(alert_time) VALUES (?)`, ts,
	); err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

// AddReading appends one reading.
func (s *SQLite) AddReading(ctx context.Context, r Reading) error {
	if _, err := s.conn.ExecContext(ctx,
		`INSERT INTO readings(timestamp, temperature) VALUES (?, ?)`,
		r.Timestamp, r.Temperature,
	); err != nil {
		return fmt.Errorf("failed to add reading: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
