// Package provider defines the email provider interface and registry.
// It uses the Strategy pattern to support multiple email backends (SES, Resend).
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// EmailRequest represents an email to be sent.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Body    string // Plain text body
}

// Provider is the interface that all email providers must implement.
type Provider interface {
	// Name returns the provider name (e.g., "ses", "resend")
	Name() string

	// Send sends an email using this provider.
	Send(ctx context.Context, req *EmailRequest) error

	// IsConfigured returns true if the provider is properly configured.
	IsConfigured() bool
}

// Registry manages email providers.
type Registry struct {
	providers map[string]Provider
	order     []string // registration order, used when picking a provider
}

// NewRegistry creates a new email provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) {
	if _, ok := r.providers[provider.Name()]; !ok {
		r.order = append(r.order, provider.Name())
	}
	r.providers[provider.Name()] = provider
	slog.Info("Registered email provider", "name", provider.Name(), "configured", provider.IsConfigured())
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Pick returns the first configured provider in registration order.
// The choice is made once per invocation; the delivery itself is a single
// attempt with no per-send fallback.
func (r *Registry) Pick() (Provider, error) {
	for _, name := range r.order {
		if p := r.providers[name]; p.IsConfigured() {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no configured email provider available")
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// GetEnvOrDefault returns env var value or default.
func GetEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
