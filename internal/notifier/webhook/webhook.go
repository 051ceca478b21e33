// Package webhook provides alert delivery via HTTP POST.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emirkmo/google-alert/internal/notifier"
)

// isValidURL checks if a string is a valid HTTP/HTTPS URL.
func isValidURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Notifier implements alert delivery via HTTP POST.
type Notifier struct {
	httpClient *http.Client
}

// New creates a new webhook notifier.
func New() *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Type returns the transport type this notifier handles.
func (w *Notifier) Type() string {
	return "webhook"
}

// Send posts the notification as JSON to the target URL. A non-2xx response
// is a delivery failure.
func (w *Notifier) Send(ctx context.Context, target string, n *notifier.Notification) error {
	if target == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !isValidURL(target) {
		return fmt.Errorf("invalid webhook URL: %q (must be a valid HTTP/HTTPS URL)", target)
	}

	jsonData, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Alert delivered via webhook",
		"url", target,
		"run_id", n.RunID,
	)
	return nil
}
