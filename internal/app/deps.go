package app

import (
	"io"
	"log/slog"

	"github.com/arumata/incback/internal/adapters/config"
	"github.com/arumata/incback/internal/adapters/dryrun"
	"github.com/arumata/incback/internal/adapters/filesystem"
	"github.com/arumata/incback/internal/adapters/lock"
	"github.com/arumata/incback/internal/adapters/notification"
	"github.com/arumata/incback/internal/adapters/process"
	"github.com/arumata/incback/internal/adapters/report"
	"github.com/arumata/incback/internal/usecase"
)

// NewDefaultDependencies creates dependencies with real adapters.
// Reports written to "-" go to stdout.
func NewDefaultDependencies(logger *slog.Logger, stdout io.Writer) *usecase.Dependencies {
	if logger == nil {
		panic("default dependencies require logger")
	}

	return &usecase.Dependencies{
		FileSystem:   filesystem.New(logger),
		Config:       config.New(logger),
		Lock:         lock.New(logger),
		Process:      process.New(logger),
		Report:       report.New(logger, stdout),
		Notification: notification.New(logger),
	}
}

// WithDryRun returns a copy of deps whose filesystem and notification
// adapters only log what they would do. Reads still hit the real disk.
func WithDryRun(deps *usecase.Dependencies, logger *slog.Logger) *usecase.Dependencies {
	if deps == nil {
		panic("dry-run dependencies require base dependencies")
	}
	if logger == nil {
		panic("dry-run dependencies require logger")
	}
	out := *deps
	out.FileSystem = dryrun.NewFileSystem(deps.FileSystem, logger)
	out.Notification = dryrun.NewNotification(logger)
	return &out
}
