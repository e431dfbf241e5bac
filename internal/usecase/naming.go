package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Container types as they appear in container names.
const (
	TypeFull      = "Full"
	TypeIncrement = "Increment"
)

// containerTimeLayout renders the human-readable prefix of a container name.
const containerTimeLayout = "2006-01-02_1504"

// rootBackupName is used when a source path has no final component outside Windows.
const rootBackupName = "root"

var (
	fullNamePattern      = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}_[0-9]{4}__` + TypeFull + `-([0-9]+)$`)
	incrementNamePattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}_[0-9]{4}__` + TypeIncrement + `-([0-9]+)-([0-9]+)$`)
)

// FormatFull returns the container name of full backup version taken at t.
func FormatFull(t time.Time, version int) (string, error) {
	if version < 0 {
		return "", errors.Wrapf(ErrInvalidArgument, "full version must be non-negative, got %d", version)
	}
	return fmt.Sprintf("%s__%s-%d", t.Format(containerTimeLayout), TypeFull, version), nil
}

// FormatIncrement returns the container name of increment seq of full backup fullVersion taken at t.
func FormatIncrement(t time.Time, fullVersion, seq int) (string, error) {
	if fullVersion < 0 || seq < 0 {
		return "", errors.Wrapf(ErrInvalidArgument, "increment version must be non-negative, got %d-%d", fullVersion, seq)
	}
	return fmt.Sprintf("%s__%s-%d-%d", t.Format(containerTimeLayout), TypeIncrement, fullVersion, seq), nil
}

// ParseFullVersion extracts the version from a full backup container name.
// Names that do not match the fixed-width format report ok=false.
func ParseFullVersion(name string) (int, bool) {
	m := fullNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseIncrementVersion extracts (fullVersion, seq) from an increment container name.
func ParseIncrementVersion(name string) (int, int, bool) {
	m := incrementNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	full, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return full, seq, true
}

// BackupNameFor derives the directory name grouping all containers of source.
// A path without a final component falls back to the drive letter on Windows
// volumes and to "root" elsewhere.
func BackupNameFor(fs FileSystemPort, source string) (string, error) {
	clean := strings.TrimSpace(source)
	if clean == "" {
		return "", errors.Wrap(ErrInvalidArgument, "source cannot be empty")
	}
	trimmed := trimTrailingSeparators(fs, clean)
	volume := fs.VolumeName(trimmed)
	rest := strings.TrimPrefix(trimmed, volume)
	if rest == "" || rest == "/" || rest == "\\" {
		return rootNameForVolume(volume), nil
	}
	name := fs.Base(trimmed)
	if name == "" || name == "." || name == "/" || name == "\\" || name == volume {
		return rootNameForVolume(volume), nil
	}
	return name, nil
}

func rootNameForVolume(volume string) string {
	if len(volume) >= 2 && volume[1] == ':' {
		return volume[:1]
	}
	return rootBackupName
}
