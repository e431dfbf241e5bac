//nolint:gci,gofumpt
package lock

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/arumata/incback/internal/usecase"
)

const (
	infoFileName = "info"

	// DefaultStaleAfter is the age after which an unrefreshed lock is ignored.
	DefaultStaleAfter = 24 * time.Hour
)

// Adapter implements LockPort with a lock directory holding a JSON info file.
// Directory creation is atomic on every supported filesystem, so two
// processes racing on the same BackupName cannot both succeed.
type Adapter struct {
	logger     *slog.Logger
	staleAfter time.Duration
}

// Option configures the lock adapter.
type Option func(*Adapter)

// WithStaleAfter overrides DefaultStaleAfter.
func WithStaleAfter(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.staleAfter = d
		}
	}
}

// New creates a new lock adapter.
func New(logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		panic("lock adapter requires logger")
	}
	a := &Adapter{logger: logger, staleAfter: DefaultStaleAfter}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AcquireLock creates the lock directory. A live lock held by another process
// yields usecase.ErrLockBusy; a stale one is replaced.
func (a *Adapter) AcquireLock(ctx context.Context, path string, info usecase.LockInfo) error {
	err := os.Mkdir(path, 0o750)
	if err == nil {
		return a.writeInfo(filepath.Join(path, infoFileName), info)
	}
	if !os.IsExist(err) {
		return errors.Wrap(err, "create lock directory")
	}

	infoPath := filepath.Join(path, infoFileName)
	holder, readErr := a.readInfo(infoPath)
	if readErr == nil && a.isActive(holder) {
		return errors.Wrapf(usecase.ErrLockBusy, "held by pid %d on %s since %s",
			holder.PID, holder.Hostname, holder.StartTime.Format(time.RFC3339))
	}

	a.logger.WarnContext(ctx, "removing stale lock", "path", path, "pid", holder.PID)
	if err := os.RemoveAll(path); err != nil {
		return errors.Wrap(err, "remove stale lock")
	}
	if err := os.Mkdir(path, 0o750); err != nil {
		if os.IsExist(err) {
			return errors.Wrap(usecase.ErrLockBusy, "lock taken while replacing stale lock")
		}
		return errors.Wrap(err, "create lock after cleanup")
	}
	return a.writeInfo(infoPath, info)
}

// ReleaseLock releases held lock
func (a *Adapter) ReleaseLock(ctx context.Context, path string) error {
	return os.RemoveAll(path)
}

// IsLocked reports whether path holds an active lock and who holds it.
func (a *Adapter) IsLocked(ctx context.Context, path string) (bool, usecase.LockInfo, error) {
	infoPath := filepath.Join(path, infoFileName)
	if _, err := os.Stat(infoPath); os.IsNotExist(err) {
		return false, usecase.LockInfo{}, nil
	}

	info, err := a.readInfo(infoPath)
	if err != nil {
		return false, usecase.LockInfo{}, err
	}
	return a.isActive(info), info, nil
}

// RefreshLock moves the lock's start time forward so it does not go stale
// during a long backup.
func (a *Adapter) RefreshLock(ctx context.Context, path string) error {
	infoPath := filepath.Join(path, infoFileName)
	info, err := a.readInfo(infoPath)
	if err != nil {
		return errors.Wrap(err, "read lock info")
	}
	info.StartTime = time.Now()
	return a.writeInfo(infoPath, info)
}

func (a *Adapter) writeInfo(infoPath string, info usecase.LockInfo) error {
	if info.PID == 0 {
		info.PID = os.Getpid()
	}
	if info.StartTime.IsZero() {
		info.StartTime = time.Now()
	}
	if info.Hostname == "" {
		hostname, _ := os.Hostname()
		info.Hostname = hostname
	}
	if info.ProcessStartID == "" {
		if id, ok := processStartID(info.PID); ok {
			info.ProcessStartID = id
		}
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal lock info")
	}
	return os.WriteFile(infoPath, data, 0o600)
}

func (a *Adapter) readInfo(infoPath string) (usecase.LockInfo, error) {
	data, err := os.ReadFile(infoPath) // #nosec G304 - infoPath is controlled by the adapter
	if err != nil {
		return usecase.LockInfo{}, err
	}
	var info usecase.LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return usecase.LockInfo{}, errors.Wrap(err, "invalid lock file")
	}
	return info, nil
}

// isActive reports whether the lock holder is still alive. Locks from another
// host are trusted until they go stale.
func (a *Adapter) isActive(info usecase.LockInfo) bool {
	if time.Since(info.StartTime) > a.staleAfter {
		return false
	}

	if info.Hostname != "" {
		if hostname, err := os.Hostname(); err == nil && hostname != info.Hostname {
			return true
		}
	}

	if info.ProcessStartID != "" {
		if id, ok := processStartID(info.PID); ok {
			return id == info.ProcessStartID
		}
	}

	return processAlive(info.PID)
}

var _ usecase.LockPort = (*Adapter)(nil)
