// Package email provides alert delivery via email, backed by a provider
// registry (Resend, AWS SES).
package email

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/emirkmo/google-alert/internal/notifier"
	"github.com/emirkmo/google-alert/internal/notifier/email/provider"
)

// Notifier implements alert delivery via email.
type Notifier struct {
	registry *provider.Registry
	from     string
	initOnce sync.Once
}

// New creates a new email notifier with the default providers. Provider
// construction is deferred to the first Send so invocations that never
// email don't probe credential chains.
func New() *Notifier {
	return &Notifier{
		from: provider.GetEnvOrDefault("ALERT_EMAIL_FROM", "alerts@google-alert.local"),
	}
}

func (e *Notifier) init() {
	e.initOnce.Do(func() {
		if e.registry != nil {
			return
		}
		registry := provider.NewRegistry()
		registry.Register(provider.NewResendProvider())
		registry.Register(provider.NewSESProvider())
		e.registry = registry
	})
}

// NewWithRegistry creates an email notifier with a custom provider registry.
// This is useful for testing.
func NewWithRegistry(registry *provider.Registry, from string) *Notifier {
	return &Notifier{registry: registry, from: from}
}

// Type returns the transport type this notifier handles.
func (e *Notifier) Type() string {
	return "email"
}

// Send delivers the notification to the comma-separated recipient list in
// target through the first configured provider. One attempt, no fallback.
func (e *Notifier) Send(ctx context.Context, target string, n *notifier.Notification) error {
	e.init()

	recipients := parseRecipients(target)
	if len(recipients) == 0 {
		return fmt.Errorf("no valid email recipients provided")
	}
	for _, recipient := range recipients {
		if !strings.Contains(recipient, "@") {
			return fmt.Errorf("invalid email address format: %q (missing @ symbol)", recipient)
		}
	}

	p, err := e.registry.Pick()
	if err != nil {
		return err
	}

	payload := notifier.BuildEmailPayload(n)
	return p.Send(ctx, &provider.EmailRequest{
		From:    e.from,
		To:      recipients,
		Subject: payload.Subject,
		Body:    payload.Body,
	})
}

// parseRecipients splits a comma-separated recipient list and trims whitespace.
func parseRecipients(value string) []string {
	parts := strings.Split(value, ",")
	recipients := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
