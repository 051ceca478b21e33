// Package config provides configuration parsing and validation for the monitor.
package config

import (
	"fmt"
	"math"
	"os"
	"time"
)

// Notify transport types accepted by -notify-type.
const (
	NotifyCommand = "command"
	NotifyWebhook = "webhook"
	NotifySlack   = "slack"
	NotifyEmail   = "email"
	NotifyKafka   = "kafka"
)

// DefaultLockPath is used when neither -lock nor MONITOR_MINUTE_LOCK is set.
const DefaultLockPath = "/tmp/monitor_minute.lock"

// Config holds all configuration parameters for one monitor invocation.
// It is constructed once at process start and never mutated afterwards.
type Config struct {
	DBPath          string
	StoreBackend    string // sqlite or postgres
	Threshold       float64
	Cooldown        int64 // seconds between alerts
	Window          int64 // trailing aggregation window in seconds
	Message         string
	NotifyType      string
	NotifyTarget    string
	DispatchTimeout time.Duration
	LockPath        string
	RedisAddr       string // optional run-summary reporting
	LogLevel        string
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db cannot be empty")
	}
	if c.StoreBackend != "sqlite" && c.StoreBackend != "postgres" {
		return fmt.Errorf("store-backend must be sqlite or postgres, got %q", c.StoreBackend)
	}
	if math.IsNaN(c.Threshold) {
		return fmt.Errorf("threshold cannot be NaN")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must be >= 0")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be > 0")
	}
	switch c.NotifyType {
	case NotifyCommand, NotifyWebhook, NotifySlack, NotifyEmail, NotifyKafka:
	default:
		return fmt.Errorf("notify-type must be one of command, webhook, slack, email, kafka, got %q", c.NotifyType)
	}
	if c.NotifyTarget == "" {
		return fmt.Errorf("notify-target cannot be empty")
	}
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("dispatch-timeout must be > 0")
	}
	if c.LockPath == "" {
		return fmt.Errorf("lock path cannot be empty")
	}
	return nil
}

// GetEnvOrDefault returns the environment variable value or a default if not set.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
