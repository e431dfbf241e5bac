package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arumata/incback/internal/adapters/loghandler"
	"github.com/arumata/incback/internal/app"
	"github.com/arumata/incback/internal/usecase"
)

const appName = "incback"

func main() {
	os.Exit(runMain())
}

func runMain() int {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGHUP,
	)
	defer stop()

	cmd, exitCode := newRootCmd(
		func(logger *slog.Logger) *usecase.Dependencies {
			return app.NewDefaultDependencies(logger, os.Stdout)
		},
		func(cfg *usecase.Config, deps *usecase.Dependencies, opts usecase.BackupOptions, logger *slog.Logger) error {
			_, err := usecase.Backup(ctx, cfg, deps, opts, logger)
			return err
		},
	)
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		printError(os.Stderr, err)
		return exitUsageError
	}
	return *exitCode
}

type depsFactory func(*slog.Logger) *usecase.Dependencies

type backupFunc func(*usecase.Config, *usecase.Dependencies, usecase.BackupOptions, *slog.Logger) error

type rootFlags struct {
	full       bool
	increment  bool
	verbose    bool
	dryRun     bool
	noLock     bool
	noProgress bool
	reportPath string
	excludes   []string
}

func newRootCmd(newDeps depsFactory, run backupFunc) (*cobra.Command, *int) {
	exitCode := 0
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   appName + " (-f|-i) [flags] SOURCE... DESTINATION",
		Short: "Versioned full and incremental directory backups",
		Long: `incback copies source directories into numbered backup containers.

A full backup (-f) copies every file into
DESTINATION/<name>/YYYY-MM-DD_HHMM__Full-N.
An increment (-i) copies only files that are new or newer than their copy in
the latest full backup or any of its increments, into
DESTINATION/<name>/YYYY-MM-DD_HHMM__Increment-N-M.

DESTINATION may be omitted when backup.destination is set in the config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			exitCode = runRootCommand(cmd, flags, args, newDeps, run)
		},
	}
	cmd.SetErr(os.Stderr)

	cmd.Flags().BoolVarP(&flags.full, "full", "f", false, "create a full backup")
	cmd.Flags().BoolVarP(&flags.increment, "increment", "i", false, "create an increment on the latest full backup")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "plan and classify but write nothing")
	cmd.Flags().BoolVar(&flags.noLock, "no-lock", false, "do not lock the backup directory")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "disable the progress line")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "write a YAML run report to FILE (\"-\" for stdout)")
	cmd.Flags().StringArrayVar(&flags.excludes, "exclude", nil, "skip files matching PATTERN (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("full", "increment")

	cmd.AddCommand(newListCmd(newDeps, &exitCode))
	cmd.AddCommand(newInitCmd(newDeps, &exitCode))
	cmd.AddCommand(newVersionCmd())

	return cmd, &exitCode
}

func runRootCommand(cmd *cobra.Command, flags *rootFlags, args []string, newDeps depsFactory, run backupFunc) int {
	logger := setupLogger(flags.verbose)

	state, err := initRootState(cmd.Context(), newDeps, logger)
	if err != nil {
		return mapExitCodeWithLog(err)
	}
	cfg, err := buildBackupConfig(state.backupCfg, flags, args)
	if err != nil {
		if errors.Is(err, usecase.ErrUsage) && len(args) == 0 {
			_ = cmd.Usage()
		}
		return mapExitCodeWithLog(err)
	}

	fileLogger, cleanup := withFileLogging(logger, state.configFile.Logging, flags.verbose)
	defer cleanup()
	logger = fileLogger
	logger.Info("Starting incback", "version", version)

	deps := state.deps
	if cfg.DryRun {
		deps = app.WithDryRun(deps, logger)
	}

	progress := newProgress(os.Stderr, !flags.noProgress && !flags.verbose && isTerminal(os.Stderr))
	defer progress.Finish()
	opts := usecase.BackupOptions{OnClassify: progress.Update}

	return mapExitCodeWithLog(run(cfg, deps, opts, logger))
}

// buildBackupConfig merges command line arguments over the config file.
func buildBackupConfig(fileCfg *usecase.Config, flags *rootFlags, args []string) (*usecase.Config, error) {
	cfg := *fileCfg

	switch {
	case flags.full:
		cfg.Mode = usecase.ModeFull
	case flags.increment:
		cfg.Mode = usecase.ModeIncrement
	default:
		return nil, errors.WithHint(
			errors.Wrap(usecase.ErrUsage, "backup mode not selected"),
			"pass --full to start a new backup version or --increment to extend the latest one",
		)
	}

	switch {
	case len(args) >= 2:
		cfg.Sources = append([]string(nil), args[:len(args)-1]...)
		cfg.Destination = args[len(args)-1]
	case len(args) == 1 && cfg.Destination != "":
		cfg.Sources = []string{args[0]}
	case len(args) == 1:
		return nil, errors.WithHint(
			errors.Wrap(usecase.ErrUsage, "missing destination"),
			"pass SOURCE... DESTINATION or set backup.destination in "+configPath(),
		)
	default:
		return nil, errors.Wrap(usecase.ErrUsage, "no source given")
	}

	cfg.Verbose = flags.verbose
	cfg.DryRun = flags.dryRun
	if flags.noLock {
		cfg.NoLock = true
	}
	if flags.reportPath != "" {
		cfg.ReportPath = flags.reportPath
	}
	for _, ex := range flags.excludes {
		if ex = strings.TrimSpace(ex); ex != "" {
			cfg.Excludes = append(cfg.Excludes, ex)
		}
	}
	return &cfg, nil
}

type rootState struct {
	deps       *usecase.Dependencies
	configFile usecase.ConfigFile
	backupCfg  *usecase.Config
}

func initRootState(ctx context.Context, newDeps depsFactory, logger *slog.Logger) (rootState, error) {
	deps := newDeps(logger)
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return rootState{}, errors.Wrapf(usecase.ErrCritical, "resolve home dir: %v", err)
	}
	configFile, err := loadConfigFile(ctx, deps, configPath())
	if err != nil {
		return rootState{}, err
	}
	backupCfg, err := usecase.RuntimeConfigFromFile(configFile, homeDir)
	if err != nil {
		return rootState{}, err
	}
	return rootState{
		deps:       deps,
		configFile: configFile,
		backupCfg:  backupCfg,
	}, nil
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv("INCBACK_CONFIG")); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func defaultLogDir() string {
	return filepath.Join(xdg.StateHome, appName, "logs")
}

func loadConfigFile(ctx context.Context, deps *usecase.Dependencies, path string) (usecase.ConfigFile, error) {
	if deps == nil || deps.Config == nil || deps.FileSystem == nil {
		return usecase.ConfigFile{}, errors.Wrap(usecase.ErrCritical, "dependencies not available")
	}
	info, err := deps.FileSystem.Stat(ctx, path)
	if err == nil && info != nil && info.IsDir() {
		return usecase.ConfigFile{}, errors.Wrapf(usecase.ErrUsage, "config path %s is a directory", path)
	}
	if err != nil && !deps.FileSystem.IsNotExist(err) {
		return usecase.ConfigFile{}, errors.Wrapf(errors.Mark(err, usecase.ErrCritical), "stat config")
	}
	cfg, err := deps.Config.Load(ctx, path)
	if err != nil {
		return usecase.ConfigFile{}, errors.WithHint(
			errors.Wrapf(errors.Mark(err, usecase.ErrUsage), "load config %s", path),
			"fix the file or regenerate it with: incback init --force",
		)
	}
	return cfg, nil
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := loghandler.NewHandler(os.Stderr, &loghandler.Options{
		Level:    level,
		UseColor: shouldUseColor(os.Stderr),
	})
	return slog.New(handler)
}

func withFileLogging(
	logger *slog.Logger,
	logCfg usecase.LoggingConfig,
	verbose bool,
) (*slog.Logger, func()) {
	dir := strings.TrimSpace(logCfg.Dir)
	if dir == "" {
		dir = defaultLogDir()
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dir = usecase.ExpandHomeDirPublic(dir, homeDir)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		logger.Warn("Cannot create log directory", "path", dir, "error", err)
		return logger, func() {}
	}
	filename := appName + "-" + time.Now().Format("2006-01-02") + ".log"
	logPath := filepath.Join(dir, filename)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path from config
	if err != nil {
		logger.Warn("Cannot open log file", "path", logPath, "error", err)
		return logger, func() {}
	}

	fileLevel := parseLogLevel(logCfg.Level)
	if verbose && fileLevel > slog.LevelDebug {
		fileLevel = slog.LevelDebug
	}
	fileHandler := loghandler.NewHandler(f, &loghandler.Options{
		Level:    fileLevel,
		UseColor: false,
	})

	stderrHandler := logger.Handler()
	combined := loghandler.NewMultiHandler(stderrHandler, fileHandler)
	return slog.New(combined), func() { _ = f.Close() }
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func shouldUseColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal(f)
}
