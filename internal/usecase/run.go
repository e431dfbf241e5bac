package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

var lockRefreshInterval = time.Hour

// BackupOptions carries per-invocation hooks that are not configuration.
type BackupOptions struct {
	// OnClassify receives progress for every file considered.
	OnClassify func(source string, ev ClassificationEvent)
}

// Backup runs one session per configured source, sequentially. A source that
// fails does not stop the remaining ones. The returned error is nil when every
// source completed, even if individual files could not be copied.
func Backup(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	opts BackupOptions,
	logger *slog.Logger,
) (*BackupResult, error) {
	if logger == nil {
		panic("logger is required")
	}

	logger.InfoContext(
		ctx,
		"Starting backup operation",
		"mode",
		cfg.Mode.String(),
		"destination",
		cfg.Destination,
		"dry_run",
		cfg.DryRun,
	)
	bc := newBackupContext(logger, cfg.Verbose)

	if err := validateBackupDependencies(ctx, cfg, deps, logger); err != nil {
		return nil, err
	}
	if cfg.Mode != ModeFull && cfg.Mode != ModeIncrement {
		return nil, errors.WithHint(
			errors.Wrap(ErrUsage, "backup mode not selected"),
			"pass --full or --increment",
		)
	}

	sources, destination, err := ResolveSources(ctx, deps.FileSystem, cfg.Sources, cfg.Destination, logger)
	if err != nil {
		return nil, err
	}
	runCfg := *cfg
	runCfg.Sources = sources
	runCfg.Destination = destination
	if runCfg.DryRun {
		runCfg.NoLock = true
	}

	printConfig(&runCfg, bc)

	result := &BackupResult{}
	for i := range runCfg.Sources {
		if ctx.Err() != nil {
			break
		}
		var onClassify func(ClassificationEvent)
		if opts.OnClassify != nil {
			source := runCfg.Sources[i]
			onClassify = func(ev ClassificationEvent) { opts.OnClassify(source, ev) }
		}
		res := backupSource(ctx, &runCfg, deps, i, onClassify, bc)
		if len(res.Summary.Failures) > 0 {
			result.PartialSuccess = true
		}
		printSourceSummary(res, bc)
		result.Sources = append(result.Sources, res)
	}

	printBackupSummary(result, bc)
	finishBatch(ctx, &runCfg, deps, result, logger)

	if ctx.Err() != nil {
		return result, errors.Wrap(ErrInterrupted, "backup interrupted")
	}
	return result, batchError(result)
}

// batchError picks the most severe failure of the batch.
func batchError(result *BackupResult) error {
	var usage, busy, interrupted, critical error
	for _, s := range result.Sources {
		switch {
		case s.Err == nil:
		case errors.Is(s.Err, ErrInterrupted):
			interrupted = s.Err
		case errors.Is(s.Err, ErrLockBusy):
			busy = s.Err
		case errors.Is(s.Err, ErrUsage):
			usage = s.Err
		default:
			critical = s.Err
		}
	}
	switch {
	case interrupted != nil:
		return interrupted
	case critical != nil:
		return errors.Mark(errors.Wrapf(critical, "%d of %d sources failed", result.Failed(), len(result.Sources)), ErrCritical)
	case busy != nil:
		return busy
	case usage != nil:
		return usage
	}
	return nil
}

func finishBatch(ctx context.Context, cfg *Config, deps *Dependencies, result *BackupResult, logger *slog.Logger) {
	if cfg.ReportPath != "" && deps.Report != nil {
		report := BuildRunReport(cfg, result)
		if err := deps.Report.Write(ctx, cfg.ReportPath, report); err != nil {
			logger.WarnContext(ctx, "Failed to write run report", "path", cfg.ReportPath, "error", err)
		} else {
			logger.InfoContext(ctx, "Run report written", "path", cfg.ReportPath)
		}
	}

	if cfg.Notify && !cfg.DryRun && deps.Notification != nil {
		title, message := notificationText(result)
		if err := deps.Notification.Send(ctx, title, message, cfg.NotifySound); err != nil {
			logger.DebugContext(ctx, "Notification failed", "error", err)
		}
	}
}

func notificationText(result *BackupResult) (string, string) {
	failed := result.Failed()
	total := len(result.Sources)
	switch {
	case failed > 0:
		return "incback: backup failed", fmt.Sprintf("%d of %d sources failed", failed, total)
	case result.PartialSuccess:
		return "incback: backup finished with warnings", fmt.Sprintf("%d sources backed up, some files skipped", total)
	default:
		return "incback: backup finished", fmt.Sprintf("%d sources backed up", total)
	}
}

// ResolveSources validates the command line paths. Missing or non-directory
// sources are skipped with a warning and duplicates removed. The destination
// must be an existing directory.
func ResolveSources(
	ctx context.Context,
	fs FileSystemPort,
	sources []string,
	destination string,
	logger *slog.Logger,
) ([]string, string, error) {
	if strings.TrimSpace(destination) == "" {
		return nil, "", structuralError(errors.WithHint(
			errors.WithStack(ErrNoDestination),
			"pass a destination argument or set backup.destination in the config file",
		))
	}
	dest, err := fs.Abs(ctx, destination)
	if err != nil {
		return nil, "", errors.Wrapf(ErrUsage, "invalid destination %q: %v", destination, err)
	}
	info, err := fs.Stat(ctx, dest)
	if err != nil || !info.IsDir() {
		return nil, "", structuralError(errors.WithHint(
			errors.Wrapf(ErrNoDestination, "destination %s is not a directory", dest),
			"create the destination directory first",
		))
	}

	seen := make(map[string]struct{}, len(sources))
	resolved := make([]string, 0, len(sources))
	for _, raw := range sources {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		abs, err := fs.Abs(ctx, raw)
		if err != nil {
			logger.WarnContext(ctx, "Skipping source", "source", raw, "error", err)
			continue
		}
		abs = trimTrailingSeparators(fs, abs)
		info, err := fs.Stat(ctx, abs)
		if err != nil {
			logger.WarnContext(ctx, "Skipping source that does not exist", "source", raw)
			continue
		}
		if !info.IsDir() {
			logger.WarnContext(ctx, "Skipping source that is not a directory", "source", raw)
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		resolved = append(resolved, abs)
	}

	if len(resolved) == 0 {
		return nil, "", structuralError(errors.WithHint(
			errors.Wrap(ErrNoSource, "no valid source directory"),
			"check that every SOURCE argument is an existing directory",
		))
	}
	return resolved, dest, nil
}

func validateBackupDependencies(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
) error {
	if deps == nil || deps.FileSystem == nil {
		logger.ErrorContext(ctx, "FileSystem adapter not available")
		return errors.Wrap(ErrCritical, "filesystem adapter not available")
	}
	if cfg.DryRun || cfg.NoLock {
		return nil
	}
	if deps.Lock == nil {
		logger.ErrorContext(ctx, "Lock adapter not available")
		return errors.Wrap(ErrCritical, "lock adapter not available")
	}
	if deps.Process == nil {
		logger.ErrorContext(ctx, "Process adapter not available")
		return errors.Wrap(ErrCritical, "process adapter not available")
	}
	return nil
}

func printConfig(cfg *Config, bc *backupContext) {
	bc.vlogf("→ Configuration:")
	bc.vlogf("   Mode: %s", cfg.Mode)
	bc.vlogf("   Destination: %s", cfg.Destination)
	for _, s := range cfg.Sources {
		bc.vlogf("   Source: %s", s)
	}
	bc.vlogf("   Lock: %t", !cfg.NoLock)
	if len(cfg.Excludes) > 0 {
		bc.vlogf("   Exclude: %s", strings.Join(cfg.Excludes, ", "))
	}
	if cfg.ModTimeResolution > 0 {
		bc.vlogf("   Mtime resolution: %s", cfg.ModTimeResolution)
	}
	bc.vlogf("")
}
