package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arumata/incback/internal/usecase"
)

// Adapter implements ConfigPort using TOML files on disk.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new config adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("config adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// Load reads config from path or returns defaults when file is missing.
func (a *Adapter) Load(ctx context.Context, path string) (usecase.ConfigFile, error) {
	if strings.TrimSpace(path) == "" {
		return usecase.ConfigFile{}, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is controlled by usecase
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.logger.DebugContext(ctx, "config file not found, using defaults", "path", path)
			return usecase.DefaultConfigFile(), nil
		}
		return usecase.ConfigFile{}, err
	}

	cfg := usecase.DefaultConfigFile()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return usecase.ConfigFile{}, fmt.Errorf("parse config toml: %w", err)
	}
	for _, key := range md.Undecoded() {
		a.logger.WarnContext(ctx, "unknown config key", "key", key.String(), "path", path)
	}

	return cfg, nil
}

// Save writes config to path in TOML format with inline documentation.
func (a *Adapter) Save(ctx context.Context, path string, cfg usecase.ConfigFile) error {
	_ = ctx
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is empty")
	}

	content := renderCommentedTOML(cfg)

	// #nosec G306 G304 - config is not secret, path is controlled by usecase.
	return os.WriteFile(path, []byte(content), 0o644)
}

func tomlStringArray(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

//nolint:lll // template readability is more important than line length.
func renderCommentedTOML(cfg usecase.ConfigFile) string {
	return fmt.Sprintf(`# incback Configuration
# Command line arguments override every value below.

# ── Backup Settings ──────────────────────────────────────────────
[backup]

# Default destination when none is given on the command line.
# Supports ~, $HOME, ${HOME}. Created by: incback init
destination = %[1]q

# Hold an exclusive lock on <destination>/<name> while a backup runs.
# Same as omitting --no-lock.
lock = %[2]t

# Patterns skipped during the source walk. A glob without a slash, like
# "*.tmp", matches names at any depth. Other patterns match a path
# relative to the source root and everything below it.
exclude = %[3]s

# Truncate modification times before comparing them, e.g. "2s" for FAT
# filesystems. Empty compares exactly. A file whose time equals the
# backed up copy is treated as unchanged either way.
mtime_resolution = %[4]q

# ── Desktop Notifications ────────────────────────────────────────
[notifications]

# Enable notifications after backup completion.
enabled = %[5]t

# Notification sound ("default" = system default).
sound = %[6]q

# ── Logging ──────────────────────────────────────────────────────
[logging]

# Log directory. Supports ~, $HOME, ${HOME}. Created automatically.
dir = %[7]q

# Minimum log level: debug, info, warn, error.
level = %[8]q

# ── Run Report ───────────────────────────────────────────────────
[report]

# Write a YAML summary of every run to this path. Empty disables it.
# Same as --report <path>.
path = %[9]q
`,
		cfg.Backup.Destination,
		cfg.Backup.Lock,
		tomlStringArray(cfg.Backup.Exclude),
		cfg.Backup.MtimeResolution,
		cfg.Notifications.Enabled,
		cfg.Notifications.Sound,
		cfg.Logging.Dir,
		cfg.Logging.Level,
		cfg.Report.Path,
	)
}

var _ usecase.ConfigPort = (*Adapter)(nil)
