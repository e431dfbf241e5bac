//go:build windows

package notification

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// balloonScript shows a tray balloon through Windows Forms; title and message
// arrive as script arguments.
const balloonScript = `param($title, $message)
Add-Type -AssemblyName System.Windows.Forms
$icon = New-Object System.Windows.Forms.NotifyIcon
$icon.Icon = [System.Drawing.SystemIcons]::Information
$icon.Text = 'incback'
$icon.Visible = $true
$icon.ShowBalloonTip(5000, $title, $message, 'Info')
Start-Sleep -Seconds 5
$icon.Dispose()`

// Send shows a tray balloon via PowerShell. The sound argument is ignored.
func (a *Adapter) Send(ctx context.Context, title, message, sound string) error {
	if ctx.Err() != nil {
		return nil
	}
	_ = sound

	shell, err := exec.LookPath("powershell.exe")
	if err != nil {
		a.logger.Debug("notification backend not found", slog.Any("err", err))
		return nil
	}

	script := "& {" + balloonScript + "} " + quotePowerShell(title) + " " + quotePowerShell(message)
	a.run(ctx, shell, "-NoProfile", "-NonInteractive", "-Command", script)
	return nil
}

func quotePowerShell(value string) string {
	value = strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
