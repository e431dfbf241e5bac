package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/arumata/incback/internal/usecase"
)

func newListCmd(newDeps depsFactory, exitCode *int) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [DESTINATION] [NAME...]",
		Short: "List full backups and their increments",
		Long: `List the backup containers under DESTINATION, grouped by backup name.

DESTINATION defaults to backup.destination from the config file.
With NAME arguments only those backup directories are shown.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logger := setupLogger(false)
			deps := newDeps(logger)
			opts, err := listOptions(cmd, deps, logger, args)
			if err != nil {
				handleCmdError(exitCode, err)
				return
			}
			listings, err := usecase.List(cmd.Context(), opts, deps, logger)
			if err != nil {
				handleCmdError(exitCode, err)
				return
			}
			out := usecase.FormatListing(opts.Destination, listings, shouldUseColor(os.Stdout))
			if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
				handleCmdError(exitCode, err)
				return
			}
			*exitCode = exitSuccess
		},
	}
	return cmd
}

func listOptions(cmd *cobra.Command, deps *usecase.Dependencies, logger *slog.Logger, args []string) (usecase.ListOptions, error) {
	if len(args) > 0 {
		return usecase.ListOptions{Destination: args[0], Names: args[1:]}, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return usecase.ListOptions{}, errors.Wrapf(usecase.ErrCritical, "resolve home dir: %v", err)
	}
	configFile, err := loadConfigFile(cmd.Context(), deps, configPath())
	if err != nil {
		return usecase.ListOptions{}, err
	}
	cfg, err := usecase.RuntimeConfigFromFile(configFile, homeDir)
	if err != nil {
		return usecase.ListOptions{}, err
	}
	if cfg.Destination == "" {
		return usecase.ListOptions{}, errors.WithHint(
			errors.Wrap(usecase.ErrUsage, "no destination given"),
			"pass DESTINATION or set backup.destination in "+configPath(),
		)
	}
	logger.Debug("Using destination from config", "destination", cfg.Destination)
	return usecase.ListOptions{Destination: cfg.Destination}, nil
}
