package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/arumata/incback/internal/usecase"
)

func newInitCmd(newDeps depsFactory, exitCode *int) *cobra.Command {
	var (
		destination string
		logDir      string
		force       bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write a commented default config file to ` + configPath() + `.

The destination and log directories named in it are created.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logger := setupLogger(false)
			deps := newDeps(logger)
			homeDir, err := os.UserHomeDir()
			if err != nil {
				handleCmdError(exitCode, errors.Wrapf(usecase.ErrCritical, "resolve home dir: %v", err))
				return
			}
			if logDir == "" {
				logDir = defaultLogDir()
			}
			opts := usecase.InitOptions{
				ConfigPath:  configPath(),
				Destination: destination,
				LogDir:      logDir,
				Force:       force,
				DryRun:      dryRun,
				HomeDir:     homeDir,
			}
			handleCmdError(exitCode, usecase.Init(cmd.Context(), opts, deps, logger))
		},
	}

	cmd.Flags().StringVar(
		&destination, "destination", "",
		"default backup destination (suggested: "+usecase.SuggestedDestination+")",
	)
	cmd.Flags().StringVar(&logDir, "log-dir", "", "log directory (default: "+defaultLogDir()+")")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config (the old one is kept with a timestamp suffix)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan changes without writing to disk")

	_ = cmd.RegisterFlagCompletionFunc("destination",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
	)

	return cmd
}
