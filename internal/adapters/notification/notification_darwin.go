//go:build darwin

package notification

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Send sends a desktop notification on macOS.
func (a *Adapter) Send(ctx context.Context, title, message, sound string) error {
	if ctx.Err() != nil {
		return nil
	}

	notifierPath, err := exec.LookPath("terminal-notifier")
	if err == nil {
		args := []string{"-title", title, "-message", message, "-group", appName}
		if sound != "" {
			args = append(args, "-sound", sound)
		}
		a.run(ctx, notifierPath, args...)
		return nil
	}

	if ctx.Err() != nil {
		return nil
	}

	a.run(ctx, "osascript", "-e", buildAppleScriptNotification(title, message, sound))
	return nil
}

func buildAppleScriptNotification(title, message, sound string) string {
	script := fmt.Sprintf("display notification \"%s\" with title \"%s\"",
		escapeAppleScriptString(message), escapeAppleScriptString(title))
	if sound != "" && sound != "default" {
		script += fmt.Sprintf(" sound name \"%s\"", escapeAppleScriptString(sound))
	}
	return script
}

func escapeAppleScriptString(value string) string {
	escaped := strings.ReplaceAll(value, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	escaped = strings.ReplaceAll(escaped, "\n", " ")
	escaped = strings.ReplaceAll(escaped, "\r", " ")
	escaped = strings.ReplaceAll(escaped, "\t", " ")
	return escaped
}
