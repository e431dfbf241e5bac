// Package dryrun wraps adapters so that mutating calls are logged instead of performed.
package dryrun

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/arumata/incback/internal/usecase"
)

// FileSystem forwards reads to the wrapped adapter and turns writes into log lines.
// Stat and Walk still see the real tree, so a dry run classifies files exactly
// like a real run would.
type FileSystem struct {
	usecase.FileSystemPort
	logger *slog.Logger
}

// NewFileSystem wraps a filesystem adapter for dry-run use.
func NewFileSystem(wrapped usecase.FileSystemPort, logger *slog.Logger) *FileSystem {
	if wrapped == nil {
		panic("dryrun filesystem requires a wrapped filesystem")
	}
	if logger == nil {
		panic("dryrun adapter requires logger")
	}
	return &FileSystem{FileSystemPort: wrapped, logger: logger}
}

// WriteFile logs the write
func (a *FileSystem) WriteFile(ctx context.Context, path string, data []byte, perm int) error {
	a.logger.InfoContext(ctx, "dry-run: write file", "path", path, "size", len(data))
	return nil
}

// CreateDir logs the directory creation
func (a *FileSystem) CreateDir(ctx context.Context, path string, perm int) error {
	a.logger.DebugContext(ctx, "dry-run: create directory", "path", path)
	return nil
}

// CreateDirExclusive reports an existing path the same way the real adapter
// would, so a clashing container name is still detected.
func (a *FileSystem) CreateDirExclusive(ctx context.Context, path string, perm int) error {
	if info, err := a.FileSystemPort.Lstat(ctx, path); err == nil && info != nil {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
	}
	a.logger.InfoContext(ctx, "dry-run: create container", "path", path)
	return nil
}

// CopyFile logs the copy
func (a *FileSystem) CopyFile(ctx context.Context, src, dstDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "dry-run: copy", "src", src, "dst", a.Join(dstDir, a.Base(src)))
	return nil
}

// Notification suppresses desktop notifications.
type Notification struct {
	logger *slog.Logger
}

// NewNotification creates a notification adapter that only logs.
func NewNotification(logger *slog.Logger) *Notification {
	if logger == nil {
		panic("dryrun adapter requires logger")
	}
	return &Notification{logger: logger}
}

// Send logs the notification and returns nil.
func (n *Notification) Send(ctx context.Context, title, message, sound string) error {
	n.logger.DebugContext(ctx, "dry-run: notification", "title", title, "message", message)
	return nil
}

var (
	_ usecase.FileSystemPort   = (*FileSystem)(nil)
	_ usecase.NotificationPort = (*Notification)(nil)
)
