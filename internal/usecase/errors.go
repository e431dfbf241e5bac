package usecase

import "github.com/cockroachdb/errors"

var (
	// ErrUsage indicates user input/usage errors.
	ErrUsage = errors.New("usage error")
	// ErrCritical indicates critical failures that should exit with error.
	ErrCritical = errors.New("critical error")
	// ErrLockBusy indicates an active lock held by another process.
	ErrLockBusy = errors.New("lock busy")
	// ErrInterrupted indicates a canceled or interrupted operation.
	ErrInterrupted = errors.New("interrupted")

	// ErrNoSource indicates the requested source index has no valid source directory.
	ErrNoSource = errors.New("no source")
	// ErrNoDestination indicates that no destination directory was configured.
	ErrNoDestination = errors.New("no destination")
	// ErrNoFullBackup indicates an increment was requested without a full backup to anchor it.
	ErrNoFullBackup = errors.New("no full backup found")
	// ErrInvalidArgument indicates malformed input to naming or parsing helpers.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState indicates a session method was called out of order.
	ErrInvalidState = errors.New("invalid session state")
	// ErrCopyAborted indicates no copy could be attempted because destination directories could not be created.
	ErrCopyAborted = errors.New("copy aborted")
)

// structuralError marks err as a usage-class failure so the CLI maps it to the usage exit code.
func structuralError(err error) error {
	return errors.Mark(err, ErrUsage)
}
