package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const initBackupTimeFormat = "20060102-150405"

//nolint:gochecknoglobals // overridden in tests for deterministic backups.
var initNow = time.Now

// InitOptions describes init behavior.
type InitOptions struct {
	ConfigPath  string
	Destination string
	LogDir      string
	Force       bool
	DryRun      bool
	HomeDir     string
}

// Init writes a default configuration file and creates the directories it names.
func Init(ctx context.Context, opts InitOptions, deps *Dependencies, logger *slog.Logger) error {
	if logger == nil {
		panic("logger is required")
	}
	if ctx.Err() != nil {
		return ErrInterrupted
	}
	if err := validateInitDependencies(deps); err != nil {
		return err
	}

	homeDir, configPath, err := normalizeInitInputs(opts)
	if err != nil {
		return err
	}

	cfg := DefaultConfigFile()
	if dest := strings.TrimSpace(opts.Destination); dest != "" {
		cfg.Backup.Destination = dest
	}
	if dir := strings.TrimSpace(opts.LogDir); dir != "" {
		cfg.Logging.Dir = contractHomeDir(dir, homeDir, deps.FileSystem.PathSeparator())
	}

	if err := ensureConfig(ctx, opts, deps, configPath, cfg); err != nil {
		return err
	}
	if err := ensureInitDirs(ctx, deps, homeDir, cfg, opts.DryRun); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Init completed", "config", configPath)
	return nil
}

func validateInitDependencies(deps *Dependencies) error {
	if deps == nil {
		return errors.Wrap(ErrCritical, "dependencies are required")
	}
	if deps.FileSystem == nil {
		return errors.Wrap(ErrCritical, "filesystem adapter not available")
	}
	if deps.Config == nil {
		return errors.Wrap(ErrCritical, "config adapter not available")
	}
	return nil
}

func normalizeInitInputs(opts InitOptions) (string, string, error) {
	homeDir := strings.TrimSpace(opts.HomeDir)
	if homeDir == "" {
		return "", "", errors.Wrap(ErrCritical, "home directory is empty")
	}
	configPath := strings.TrimSpace(opts.ConfigPath)
	if configPath == "" {
		return "", "", errors.Wrap(ErrCritical, "config path is empty")
	}
	if opts.Destination != "" && strings.TrimSpace(opts.Destination) == "" {
		return "", "", errors.Wrap(ErrUsage, "destination is empty")
	}
	return homeDir, configPath, nil
}

func ensureConfig(ctx context.Context, opts InitOptions, deps *Dependencies, configPath string, cfg ConfigFile) error {
	exists, err := pathExists(ctx, deps.FileSystem, configPath)
	if err != nil {
		return errors.Wrap(errors.Mark(err, ErrCritical), "check config path")
	}
	if !exists {
		if opts.DryRun {
			return nil
		}
		return writeConfig(ctx, deps, configPath, cfg)
	}
	info, err := deps.FileSystem.Stat(ctx, configPath)
	if err != nil {
		return errors.Wrap(errors.Mark(err, ErrCritical), "stat config")
	}
	if info.IsDir() {
		return errors.Wrapf(ErrUsage, "config path %s is a directory", configPath)
	}
	if !opts.Force {
		return errors.WithHint(
			errors.Wrapf(ErrUsage, "config already exists at %s", configPath),
			"pass --force to replace it; the old file is kept with a timestamp suffix",
		)
	}
	if opts.DryRun {
		return nil
	}
	if err := backupConfig(ctx, deps.FileSystem, configPath); err != nil {
		return err
	}
	return writeConfig(ctx, deps, configPath, cfg)
}

func backupConfig(ctx context.Context, fs FileSystemPort, configPath string) error {
	data, err := fs.ReadFile(ctx, configPath)
	if err != nil {
		return errors.Wrap(errors.Mark(err, ErrCritical), "read config")
	}
	backupPath := configPath + ".bak." + initNow().Format(initBackupTimeFormat)
	if err := fs.WriteFile(ctx, backupPath, data, 0o600); err != nil {
		return errors.Wrap(errors.Mark(err, ErrCritical), "backup config")
	}
	return nil
}

func writeConfig(ctx context.Context, deps *Dependencies, configPath string, cfg ConfigFile) error {
	if err := deps.FileSystem.CreateDir(ctx, deps.FileSystem.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(errors.Mark(err, ErrCritical), "create config dir")
	}
	if err := deps.Config.Save(ctx, configPath, cfg); err != nil {
		return errors.Wrap(errors.Mark(err, ErrCritical), "save config")
	}
	return nil
}

func ensureInitDirs(ctx context.Context, deps *Dependencies, homeDir string, cfg ConfigFile, dryRun bool) error {
	if dryRun {
		return nil
	}
	if dir := strings.TrimSpace(cfg.Backup.Destination); dir != "" {
		expanded := normalizePath(deps.FileSystem, dir, homeDir)
		if err := deps.FileSystem.CreateDir(ctx, expanded, 0o755); err != nil {
			return errors.Wrap(errors.Mark(err, ErrCritical), "create destination directory")
		}
	}
	if dir := strings.TrimSpace(cfg.Logging.Dir); dir != "" {
		expanded := normalizePath(deps.FileSystem, dir, homeDir)
		if err := deps.FileSystem.CreateDir(ctx, expanded, 0o755); err != nil {
			return errors.Wrap(errors.Mark(err, ErrCritical), "create log directory")
		}
	}
	return nil
}

func pathExists(ctx context.Context, fs FileSystemPort, path string) (bool, error) {
	info, err := fs.Stat(ctx, path)
	if err != nil {
		if fs.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info != nil, nil
}

// ExpandHomeDirPublic expands ~ and $HOME prefixes in path.
func ExpandHomeDirPublic(path, homeDir string) string {
	return expandHomeDir(path, homeDir)
}

func expandHomeDir(path, homeDir string) string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return clean
	}
	for _, prefix := range []string{"~", "$HOME", "${HOME}"} {
		if clean == prefix {
			return homeDir
		}
		if strings.HasPrefix(clean, prefix+"/") {
			return strings.TrimRight(homeDir, "/") + clean[len(prefix):]
		}
	}
	return clean
}

func contractHomeDir(path, homeDir string, sep byte) string {
	if homeDir == "" || path == "" {
		return path
	}
	if path == homeDir {
		return "~"
	}
	prefix := homeDir + string(sep)
	if strings.HasPrefix(path, prefix) {
		return "~" + string(sep) + path[len(prefix):]
	}
	return path
}

func normalizePath(fs FileSystemPort, path, homeDir string) string {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return ""
	}
	expanded := expandHomeDir(clean, homeDir)
	cleaned := fs.Clean(expanded)
	if cleaned == "." {
		return ""
	}
	return trimTrailingSeparators(fs, cleaned)
}

func trimTrailingSeparators(fs FileSystemPort, path string) string {
	if path == "" {
		return ""
	}
	sep := fs.PathSeparator()
	if path == string(sep) {
		return path
	}
	volume := fs.VolumeName(path)
	if volume != "" {
		rest := strings.TrimPrefix(path, volume)
		if rest == "" || rest == string(sep) || rest == "/" || rest == "\\" {
			return volume + string(sep)
		}
	}
	trimmed := strings.TrimRight(path, "/\\")
	if trimmed == "" {
		return string(sep)
	}
	return trimmed
}
