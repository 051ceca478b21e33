// Package command provides alert delivery by running an external program,
// typically a script that discovers networked speakers and plays a
// synthesized voice message on them.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/emirkmo/google-alert/internal/notifier"
)

// Notifier implements alert delivery via an external command. The command
// receives the alert message on its argv and must exit zero on success.
type Notifier struct{}

// New creates a new command notifier.
func New() *Notifier {
	return &Notifier{}
}

// Type returns the transport type this notifier handles.
func (c *Notifier) Type() string {
	return "command"
}

// Send runs the target program once with "--play --message <message>".
// The ctx deadline bounds the child process: if the program hangs past the
// dispatch timeout it is killed and the attempt counts as a failure.
func (c *Notifier) Send(ctx context.Context, target string, n *notifier.Notification) error {
	if target == "" {
		return fmt.Errorf("alert command path is required")
	}

	cmd := exec.CommandContext(ctx, target, "--play", "--message", n.Message)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("alert command %s failed: %w (output: %s)", target, err, string(out))
	}

	slog.Info("Alert delivered via command",
		"command", target,
		"run_id", n.RunID,
	)
	return nil
}
