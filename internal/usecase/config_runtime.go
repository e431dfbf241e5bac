package usecase

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// RuntimeConfigFromFile converts TOML config into runtime config for backup execution.
// Mode and sources come from the command line and are left unset.
func RuntimeConfigFromFile(cfg ConfigFile, homeDir string) (*Config, error) {
	cleanHome := strings.TrimSpace(homeDir)
	if cleanHome == "" {
		return nil, errors.Wrap(ErrCritical, "home directory is empty")
	}

	destination := strings.TrimSpace(cfg.Backup.Destination)
	if destination != "" {
		destination = expandHomeDir(destination, cleanHome)
	}

	var resolution time.Duration
	if raw := strings.TrimSpace(cfg.Backup.MtimeResolution); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, errors.WithHint(
				errors.Wrapf(ErrUsage, "invalid backup.mtime_resolution %q", raw),
				"use a non-negative Go duration such as \"1s\" or \"2s\"",
			)
		}
		resolution = d
	}

	excludes := make([]string, 0, len(cfg.Backup.Exclude))
	for _, ex := range cfg.Backup.Exclude {
		ex = strings.TrimSuffix(strings.TrimSpace(ex), "/")
		if ex != "" {
			excludes = append(excludes, ex)
		}
	}

	reportPath := strings.TrimSpace(cfg.Report.Path)
	if reportPath != "" {
		reportPath = expandHomeDir(reportPath, cleanHome)
	}

	return &Config{
		Destination:       destination,
		NoLock:            !cfg.Backup.Lock,
		Excludes:          excludes,
		ModTimeResolution: resolution,
		ReportPath:        reportPath,
		Notify:            cfg.Notifications.Enabled,
		NotifySound:       cfg.Notifications.Sound,
	}, nil
}
