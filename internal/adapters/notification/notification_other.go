//go:build !linux && !darwin && !windows

package notification

import "context"

// Send has no backend on this platform.
func (a *Adapter) Send(ctx context.Context, title, message, sound string) error {
	_, _ = message, sound
	if ctx.Err() != nil {
		return nil
	}
	a.logger.DebugContext(ctx, "notifications not supported on this platform", "title", title)
	return nil
}
