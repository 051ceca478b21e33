// Package notifier defines the notification transport boundary and the
// strategy registry that routes an alert to the configured transport.
//
// Each transport makes exactly one delivery attempt per invocation: the
// cron scheduler's next tick is the retry mechanism, so no transport
// retries or falls back internally.
package notifier

import "context"

// Notification is the payload handed to a transport when an alert fires.
type Notification struct {
	RunID     string  `json:"run_id"`
	Message   string  `json:"message"`
	Mean      float64 `json:"mean"`
	Threshold float64 `json:"threshold"`
	FiredAt   int64   `json:"fired_at"`
}

// Notifier is the interface that all notification transports implement.
type Notifier interface {
	// Send makes one delivery attempt to the target. The target format
	// depends on the transport type:
	//   - command: path to the alert program
	//   - webhook, slack: webhook URL
	//   - email: recipient address(es) as a comma-separated string
	//   - kafka: "brokers/topic" with comma-separated brokers
	Send(ctx context.Context, target string, n *Notification) error

	// Type returns the transport type this notifier handles.
	Type() string
}

// Registry manages notification transports.
type Registry struct {
	notifiers map[string]Notifier
}

// NewRegistry creates a new transport registry.
func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[string]Notifier),
	}
}

// Register registers a transport.
func (r *Registry) Register(n Notifier) {
	r.notifiers[n.Type()] = n
}

// Get retrieves a transport by type.
func (r *Registry) Get(notifyType string) (Notifier, bool) {
	n, ok := r.notifiers[notifyType]
	return n, ok
}

// List returns all registered transport types.
func (r *Registry) List() []string {
	types := make([]string, 0, len(r.notifiers))
	for t := range r.notifiers {
		types = append(types, t)
	}
	return types
}
