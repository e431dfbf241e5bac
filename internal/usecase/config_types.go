package usecase

// ConfigFile describes TOML configuration structure.
type ConfigFile struct {
	Backup        BackupConfig        `toml:"backup"`
	Notifications NotificationsConfig `toml:"notifications"`
	Logging       LoggingConfig       `toml:"logging"`
	Report        ReportConfig        `toml:"report"`
}

// BackupConfig holds backup-related settings.
type BackupConfig struct {
	Destination string   `toml:"destination"`
	Lock        bool     `toml:"lock"`
	Exclude     []string `toml:"exclude"`
	// MtimeResolution is a Go duration string such as "2s"; empty compares exactly.
	MtimeResolution string `toml:"mtime_resolution"`
}

// NotificationsConfig holds notification settings.
type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Sound   string `toml:"sound"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"`
}

// ReportConfig holds run report settings.
type ReportConfig struct {
	Path string `toml:"path"`
}

// SuggestedDestination is the recommended default for backup.destination.
const SuggestedDestination = "~/Backups/incback"

// DefaultConfigFile returns default TOML configuration.
func DefaultConfigFile() ConfigFile {
	return ConfigFile{
		Backup: BackupConfig{
			Destination:     "",
			Lock:            true,
			Exclude:         []string{},
			MtimeResolution: "",
		},
		Notifications: NotificationsConfig{
			Enabled: false,
			Sound:   "default",
		},
		Logging: LoggingConfig{
			Dir:   "",
			Level: "info",
		},
		Report: ReportConfig{
			Path: "",
		},
	}
}
