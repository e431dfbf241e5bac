package notification

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

const (
	// appName groups notifications from every incback run.
	appName = "incback"

	sendTimeout = 10 * time.Second
)

// Adapter implements NotificationPort with the platform's notification tool.
// Failures are logged at debug level and never returned.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new notification adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

// run executes a notifier with output discarded, bounded by sendTimeout.
func (a *Adapter) run(ctx context.Context, name string, args ...string) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		a.logger.Debug("notification failed", slog.String("tool", name), slog.Any("err", err))
	}
}
