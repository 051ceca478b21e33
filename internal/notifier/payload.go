package notifier

import (
	"fmt"
	"strings"
	"time"
)

// EmailPayload represents email message content.
type EmailPayload struct {
	Subject string
	Body    string
}

// BuildEmailPayload builds email subject and body from a notification.
func BuildEmailPayload(n *Notification) EmailPayload {
	var sb strings.Builder
	sb.WriteString("Temperature Alert\n")
	sb.WriteString("=================\n\n")
	sb.WriteString(fmt.Sprintf("%s\n\n", n.Message))
	sb.WriteString(fmt.Sprintf("Average temperature: %.2f\n", n.Mean))
	sb.WriteString(fmt.Sprintf("Threshold: %.2f\n", n.Threshold))
	sb.WriteString(fmt.Sprintf("Fired at: %s\n", time.Unix(n.FiredAt, 0).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run ID: %s\n", n.RunID))

	return EmailPayload{
		Subject: fmt.Sprintf("Alert: %s", n.Message),
		Body:    sb.String(),
	}
}

// SlackPayload represents a Slack webhook payload.
type SlackPayload struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a Slack message attachment.
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
}

// Field represents a field in a Slack attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// BuildSlackPayload builds a Slack message from a notification.
func BuildSlackPayload(n *Notification) SlackPayload {
	return SlackPayload{
		Text: fmt.Sprintf(":snowflake: %s", n.Message),
		Attachments: []Attachment{
			{
				Color: "danger",
				Title: "Temperature below threshold",
				Fields: []Field{
					{Title: "Average", Value: fmt.Sprintf("%.2f", n.Mean), Short: true},
					{Title: "Threshold", Value: fmt.Sprintf("%.2f", n.Threshold), Short: true},
					{Title: "Run ID", Value: n.RunID, Short: false},
				},
				Timestamp: n.FiredAt,
			},
		},
	}
}
