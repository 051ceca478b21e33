// Package slack provides alert delivery via Slack Incoming Webhooks.
package slack

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

// maskURL masks sensitive parts of a URL for logging.
func maskURL(url string) string {
	if len(url) > 50 {
		return url[:30] + "..." + url[len(url)-10:]
	}
	return url
}

// Notifier implements alert delivery via Slack Incoming Webhooks.
type Notifier struct {
	httpClient *http.Client
}

// New creates a new Slack notifier.
func New() *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Type returns the transport type this notifier handles.
func (s *Notifier) Type() string {
	return "slack"
}

// Send posts the notification to a Slack incoming webhook URL.
func (s *Notifier) Send(ctx context.Context, target string, n *notifier.Notification) error {
	if target == "" {
		return fmt.Errorf("slack webhook URL is required")
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return fmt.Errorf("invalid Slack webhook URL: %q (must be a valid HTTP/HTTPS URL, not a channel name)", target)
	}

	jsonData, err := json.Marshal(notifier.BuildSlackPayload(n))
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	slog.Info("Alert delivered via Slack",
		"webhook_url", maskURL(target),
		"run_id", n.RunID,
	)
	return nil
}
