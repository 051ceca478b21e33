// Package kafkapub provides alert delivery by publishing an alert event to
// a Kafka topic, for deployments where a downstream consumer owns the
// actual paging or playback.
package kafkapub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/emirkmo/google-alert/internal/notifier"
)

const (
	// writeTimeout is the maximum time to wait for a Kafka write operation.
	writeTimeout = 10 * time.Second
)

// Notifier implements alert delivery via a Kafka topic. Events are keyed by
// run_id and written synchronously with leader acknowledgement so a failed
// publish is reported as a dispatch failure.
type Notifier struct{}

// New creates a new Kafka notifier.
func New() *Notifier {
	return &Notifier{}
}

// Type returns the transport type this notifier handles.
func (k *Notifier) Type() string {
	return "kafka"
}

// parseTarget splits a "brokers/topic" target. Brokers may be a
// comma-separated list; the topic follows the last slash.
func parseTarget(target string) ([]string, string, error) {
	idx := strings.LastIndex(target, "/")
	if idx <= 0 || idx == len(target)-1 {
		return nil, "", fmt.Errorf("kafka target must be brokers/topic, got %q", target)
	}
	var brokerList []string
	for _, b := range strings.Split(target[:idx], ",") {
		b = strings.TrimSpace(b)
		if b == "" {
			return nil, "", fmt.Errorf("kafka target has an empty broker entry, got %q", target)
		}
		brokerList = append(brokerList, b)
	}
	return brokerList, target[idx+1:], nil
}

// Send publishes the notification as a JSON event to the target topic.
func (k *Notifier) Send(ctx context.Context, target string, n *notifier.Notification) error {
	brokers, topic, err := parseTarget(target)
	if err != nil {
		return err
	}

	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	defer writer.Close()

	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.RunID),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish alert event: %w", err)
	}

	slog.Info("Alert event published to Kafka",
		"topic", topic,
		"run_id", n.RunID,
	)
	return nil
}
