package process

import (
	"log/slog"
	"os"
	"sync"
)

// Adapter implements ProcessPort using real process operations
type Adapter struct {
	logger *slog.Logger

	hostnameOnce sync.Once
	hostname     string
}

// New creates a new process adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("process adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// GetPID returns the current process PID
func (a *Adapter) GetPID() int {
	return os.Getpid()
}

// Hostname returns the machine name recorded in lock files. It is resolved
// once; a lookup failure yields an empty string.
func (a *Adapter) Hostname() string {
	a.hostnameOnce.Do(func() {
		name, err := os.Hostname()
		if err != nil {
			a.logger.Debug("hostname lookup failed", "error", err)
			return
		}
		a.hostname = name
	})
	return a.hostname
}
