package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const lockDirName = ".incback.lock"

type backupContext struct {
	logger  *slog.Logger
	verbose bool
}

func newBackupContext(logger *slog.Logger, verbose bool) *backupContext {
	if logger == nil {
		panic("logger is required")
	}
	return &backupContext{logger: logger, verbose: verbose}
}

func (bc *backupContext) logf(format string, a ...any) {
	bc.logger.Info(fmt.Sprintf(format, a...))
}

func (bc *backupContext) vlogf(format string, a ...any) {
	if !bc.verbose {
		return
	}
	bc.logf(format, a...)
}

func (bc *backupContext) warnf(format string, a ...any) {
	bc.logger.Warn(fmt.Sprintf(format, a...))
}

// shouldSkip matches a source-relative path against exclude patterns. Patterns
// with glob metacharacters match the base name, or the whole path when they
// contain a slash. Plain patterns match the path or any path below it.
func shouldSkip(p string, excludes []string) (bool, string) {
	normalizedPath := strings.ReplaceAll(p, "\\", "/")
	for _, ex := range excludes {
		pattern := strings.ReplaceAll(ex, "\\", "/")
		hasMeta := strings.ContainsAny(pattern, "*?[")
		hasSlash := strings.Contains(pattern, "/")

		if hasMeta {
			if hasSlash {
				if ok, _ := path.Match(pattern, normalizedPath); ok {
					return true, ex
				}
			} else if ok, _ := path.Match(pattern, path.Base(normalizedPath)); ok {
				return true, ex
			}
			continue
		}

		if normalizedPath == pattern || strings.HasPrefix(normalizedPath, pattern+"/") {
			return true, ex
		}
	}
	return false, ""
}

// backupSource runs one session end to end. Panics are turned into ErrCritical
// so the remaining sources still run.
func backupSource(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	index int,
	onClassify func(ClassificationEvent),
	bc *backupContext,
) (res SourceResult) {
	res = SourceResult{Source: cfg.Sources[index], Mode: cfg.Mode}
	defer func() {
		if r := recover(); r != nil {
			bc.logger.ErrorContext(ctx, "Unexpected failure during backup", "source", res.Source, "panic", r)
			res.Err = errors.Wrap(ErrCritical, "unexpected failure during backup")
		}
	}()

	session := NewSession(cfg.Mode, deps.FileSystem, SessionOptions{
		Sources:           cfg.Sources,
		Destination:       cfg.Destination,
		Excludes:          cfg.Excludes,
		ModTimeResolution: cfg.ModTimeResolution,
		Verbose:           cfg.Verbose,
		OnClassify:        onClassify,
	}, bc.logger)

	if err := session.Initialize(ctx, index); err != nil {
		res.Err = err
		return res
	}
	res.BackupName = session.BackupName()
	res.ContainerName = session.ContainerName()
	res.ContainerPath = session.ContainerPath()
	res.Chain = session.Chain()

	if err := deps.FileSystem.CreateDir(ctx, session.BackupDir(), 0o755); err != nil {
		res.Err = errors.Wrapf(err, "create backup directory %s", session.BackupDir())
		return res
	}

	if !cfg.NoLock {
		lockPath, release, err := acquireBackupLock(ctx, deps, session, cfg)
		if err != nil {
			res.Err = err
			return res
		}
		defer release()
		stopRefresh := startLockRefresh(ctx, deps, lockPath, bc.logger)
		defer stopRefresh()
	}

	bc.logf("→ %s backup of %s → %s", session.Mode(), res.Source, res.ContainerPath)
	runErr := session.Run(ctx)
	res.Counters = session.Counters()
	if runErr != nil {
		res.Summary.Failures = session.Plan().Failures()
		res.Err = runErr
		return res
	}

	summary, err := session.Execute(ctx)
	res.Summary = summary
	if err != nil {
		res.Err = err
		return res
	}
	return res
}

func printSourceSummary(res SourceResult, bc *backupContext) {
	if res.Err != nil {
		bc.warnf("✗ %s: %v", res.Source, res.Err)
		return
	}
	bc.logf("✓ %s → %s", res.Source, res.ContainerName)
	bc.logf("   copied %d of %d planned, %d unmodified (new %d, modified %d)",
		res.Summary.Succeeded, res.Summary.Planned, res.Counters.Unmodified, res.Counters.New, res.Counters.Modified)
}

func printBackupSummary(result *BackupResult, bc *backupContext) {
	var failures []CopyFailure
	for _, s := range result.Sources {
		failures = append(failures, s.Summary.Failures...)
	}
	failed := result.Failed()
	if len(failures) == 0 && failed == 0 {
		return
	}

	bc.logf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	bc.logf("BACKUP SUMMARY:")

	if failed > 0 {
		bc.warnf("WARNING: %d of %d sources were not backed up", failed, len(result.Sources))
	}

	if len(failures) > 0 {
		bc.warnf("WARNING: Skipped %d files due to errors", len(failures))
		limit := len(failures)
		if !bc.verbose && limit > 5 {
			limit = 5
			bc.warnf("First 5 errors:")
		} else {
			bc.warnf("Errors:")
		}
		for _, f := range failures[:limit] {
			bc.warnf("  - %s: %s", f.Reason, f.Path)
		}
		if limit < len(failures) {
			bc.warnf("  ... and %d more errors", len(failures)-limit)
		}
	}

	if result.PartialSuccess {
		bc.warnf("IMPORTANT: Backup completed with warnings")
		bc.warnf("Some files were not backed up due to errors.")
	}

	bc.logf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func acquireBackupLock(
	ctx context.Context,
	deps *Dependencies,
	session *BackupSession,
	cfg *Config,
) (string, func(), error) {
	lockPath := deps.FileSystem.Join(session.BackupDir(), lockDirName)
	lockInfo := LockInfo{
		PID:         deps.Process.GetPID(),
		StartTime:   time.Now(),
		SourcePath:  session.Source(),
		Destination: cfg.Destination,
		Mode:        session.Mode().String(),
		Hostname:    deps.Process.Hostname(),
	}

	if err := deps.Lock.AcquireLock(ctx, lockPath, lockInfo); err != nil {
		if errors.Is(err, ErrLockBusy) {
			return "", nil, errors.WithHint(err, "wait for the running backup to finish or pass --no-lock")
		}
		return "", nil, errors.Wrap(errors.Mark(err, ErrCritical), "failed to acquire lock")
	}

	release := func() {
		_ = deps.Lock.ReleaseLock(ctx, lockPath)
	}
	return lockPath, release, nil
}

func startLockRefresh(
	ctx context.Context,
	deps *Dependencies,
	lockPath string,
	logger *slog.Logger,
) func() {
	refreshCtx, stopRefresh := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(lockRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				if err := deps.Lock.RefreshLock(refreshCtx, lockPath); err != nil {
					logger.WarnContext(refreshCtx, "Failed to refresh lock", "error", err)
				}
			}
		}
	}()
	return stopRefresh
}
