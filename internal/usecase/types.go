package usecase

import (
	iofs "io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

// Config contains all application configuration
type Config struct {
	Mode        Mode
	Sources     []string
	Destination string
	Verbose     bool
	DryRun      bool
	NoLock      bool
	Excludes    []string
	// ModTimeResolution truncates modification times before comparison; zero compares exactly.
	ModTimeResolution time.Duration
	ReportPath        string
	Notify            bool
	NotifySound       string
}

// Mode selects the backup variant of a session.
type Mode int

const (
	// ModeFull copies every source file unconditionally.
	ModeFull Mode = iota + 1
	// ModeIncrement copies only new or modified files relative to the candidate chain.
	ModeIncrement
)

var modeNames = map[Mode]string{
	ModeFull:      "full",
	ModeIncrement: "increment",
}

// String returns the string representation of a Mode.
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode parses "full" or "increment".
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidArgument, "invalid backup mode %q, must be 'full' or 'increment'", s)
}

// FileInfo represents file information.
type FileInfo interface {
	Name() string
	Size() int64
	Mode() int
	ModTime() time.Time
	IsDir() bool
	IsSymlink() bool
	IsRegular() bool
	Sys() interface{}
}

// WalkFunc is called for each file/directory during Walk.
type WalkFunc func(path string, info FileInfo, err error) error

// SkipDir returned from a WalkFunc skips the directory being visited.
var SkipDir = iofs.SkipDir

// DirEntry represents a directory entry.
type DirEntry interface {
	Name() string
	IsDir() bool
}

// LockInfo represents lock file information.
type LockInfo struct {
	PID            int       `json:"pid"`
	StartTime      time.Time `json:"start_time"`
	SourcePath     string    `json:"source_path"`
	Destination    string    `json:"destination"`
	Mode           string    `json:"mode"`
	Hostname       string    `json:"hostname"`
	ProcessStartID string    `json:"process_start_id"`
}

// Container is one versioned backup directory. Seq is zero for full backups.
type Container struct {
	Type        string
	FullVersion int
	Seq         int
	Name        string
	Path        string
}

// IsFull reports whether the container holds a full backup.
func (c Container) IsFull() bool {
	return c.Type == TypeFull
}

// Classification is the outcome of comparing a source file against the candidate chain.
type Classification int

const (
	// New means no container in the chain holds the file.
	New Classification = iota + 1
	// Modified means the source is newer than the most recent backed up copy.
	Modified
	// Unmodified means the most recent backed up copy is current.
	Unmodified
)

// String returns the label used in progress output and reports.
func (c Classification) String() string {
	switch c {
	case New:
		return "New"
	case Modified:
		return "Modified"
	case Unmodified:
		return "Unmodified"
	default:
		return "Unknown"
	}
}

// ClassificationEvent is emitted for every file a session considers.
type ClassificationEvent struct {
	RelPath        string
	Classification Classification
	Counters       Counters
}

// Counters tallies classifications of one run.
type Counters struct {
	New        int `yaml:"new"`
	Modified   int `yaml:"modified"`
	Unmodified int `yaml:"unmodified"`
}

// Add increments the counter for c.
func (c *Counters) Add(cl Classification) {
	switch cl {
	case New:
		c.New++
	case Modified:
		c.Modified++
	case Unmodified:
		c.Unmodified++
	}
}

// Total returns the number of files classified.
func (c Counters) Total() int {
	return c.New + c.Modified + c.Unmodified
}

// CopyInstruction copies Source into the directory DestDir.
type CopyInstruction struct {
	Source  string
	DestDir string
}

// Copy failure reasons.
const (
	ReasonPermissionDenied = "Permission Denied"
	ReasonNotFound         = "Not Found"
	ReasonCopyFailed       = "Copy Failed"
)

// CopyFailure records one file that could not be backed up.
type CopyFailure struct {
	Reason string `yaml:"reason"`
	Path   string `yaml:"path"`
}

// ExecutionSummary reports the outcome of executing a copy plan.
type ExecutionSummary struct {
	Planned   int
	Attempted int
	Succeeded int
	Failures  []CopyFailure
}

// SourceResult describes the backup of a single source.
type SourceResult struct {
	Source        string
	BackupName    string
	Mode          Mode
	ContainerName string
	ContainerPath string
	Chain         []Container
	Counters      Counters
	Summary       ExecutionSummary
	Err           error
}

// BackupResult contains backup execution statistics for one invocation.
type BackupResult struct {
	Sources        []SourceResult
	PartialSuccess bool
}

// Failed returns the number of sources whose session did not complete.
func (r *BackupResult) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != nil {
			n++
		}
	}
	return n
}
