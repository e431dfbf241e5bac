//go:build linux

package notification

import (
	"context"
	"log/slog"
	"os/exec"
)

// Send sends a desktop notification through notify-send. A sound other than
// "default" is passed as a freedesktop sound-name hint.
func (a *Adapter) Send(ctx context.Context, title, message, sound string) error {
	if ctx.Err() != nil {
		return nil
	}

	notifyPath, err := exec.LookPath("notify-send")
	if err != nil {
		a.logger.Debug("notification backend not found", slog.Any("err", err))
		return nil
	}

	a.run(ctx, notifyPath, linuxArgs(title, message, sound)...)
	return nil
}

func linuxArgs(title, message, sound string) []string {
	args := []string{"--app-name=" + appName}
	if sound != "" && sound != "default" {
		args = append(args, "--hint=string:sound-name:"+sound)
	}
	return append(args, title, message)
}
