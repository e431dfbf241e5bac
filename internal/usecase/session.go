package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateInitialized
	stateWalkingSource
	statePlanReady
)

func (s sessionState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitialized:
		return "initialized"
	case stateWalkingSource:
		return "walking source"
	case statePlanReady:
		return "plan ready"
	default:
		return "unknown"
	}
}

// SessionOptions configures a BackupSession.
type SessionOptions struct {
	Sources           []string
	Destination       string
	Excludes          []string
	ModTimeResolution time.Duration
	Verbose           bool
	// Now stamps container names; defaults to time.Now.
	Now func() time.Time
	// OnClassify receives every file the session considers, with running counts.
	OnClassify func(ClassificationEvent)
}

// BackupSession backs up one source into one new container. A full session
// plans every file; an increment session plans only files that are new or
// modified relative to its candidate chain.
type BackupSession struct {
	mode     Mode
	fs       FileSystemPort
	opts     SessionOptions
	index    *ContainerIndex
	detector *ChangeDetector
	plan     *CopyPlan
	bc       *backupContext
	state    sessionState

	source        string
	backupName    string
	backupDir     string
	fullVersion   int
	seq           int
	containerName string
	containerPath string
	chain         []Container
	counters      Counters
}

// NewFullSession creates a session producing a new full backup.
func NewFullSession(fs FileSystemPort, opts SessionOptions, logger *slog.Logger) *BackupSession {
	return NewSession(ModeFull, fs, opts, logger)
}

// NewIncrementSession creates a session producing a new increment.
func NewIncrementSession(fs FileSystemPort, opts SessionOptions, logger *slog.Logger) *BackupSession {
	return NewSession(ModeIncrement, fs, opts, logger)
}

// NewSession creates a session of the given mode.
func NewSession(mode Mode, fs FileSystemPort, opts SessionOptions, logger *slog.Logger) *BackupSession {
	if logger == nil {
		panic("logger is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BackupSession{
		mode:     mode,
		fs:       fs,
		opts:     opts,
		index:    NewContainerIndex(fs, logger),
		detector: NewChangeDetector(fs, opts.ModTimeResolution),
		plan:     NewCopyPlan(fs, logger),
		bc:       newBackupContext(logger, opts.Verbose),
	}
}

// Initialize selects the source, names the new container and, for increments,
// resolves the candidate chain. It reads the destination but writes nothing.
func (s *BackupSession) Initialize(ctx context.Context, sourceIndex int) error {
	if s.state != stateUninitialized {
		return errors.Wrapf(ErrInvalidState, "initialize called in state %s", s.state)
	}
	if sourceIndex < 0 || sourceIndex >= len(s.opts.Sources) {
		return structuralError(errors.Wrapf(ErrNoSource, "source index %d out of range", sourceIndex))
	}
	if strings.TrimSpace(s.opts.Destination) == "" {
		return structuralError(errors.WithHint(
			errors.WithStack(ErrNoDestination),
			"pass a destination argument or set backup.destination in the config file",
		))
	}

	source := s.opts.Sources[sourceIndex]
	name, err := BackupNameFor(s.fs, source)
	if err != nil {
		return structuralError(err)
	}
	s.source = source
	s.backupName = name
	s.backupDir = s.fs.Join(s.opts.Destination, name)

	last, found, err := s.index.GetLastFullBackup(ctx, s.backupDir)
	if err != nil {
		return err
	}

	now := s.opts.Now()
	switch s.mode {
	case ModeFull:
		s.fullVersion = 1
		if found {
			s.fullVersion = last.FullVersion + 1
		}
		s.containerName, err = FormatFull(now, s.fullVersion)
	case ModeIncrement:
		if !found {
			return structuralError(errors.WithHint(
				errors.Wrapf(ErrNoFullBackup, "no full backup of %s in %s", name, s.opts.Destination),
				"run a full backup first: incback --full SOURCE DESTINATION",
			))
		}
		s.chain, err = s.index.BuildChain(ctx, s.backupDir, last)
		if err != nil {
			return err
		}
		s.fullVersion = last.FullVersion
		s.seq = 1
		if len(s.chain) > 1 {
			s.seq = s.chain[0].Seq + 1
		}
		s.containerName, err = FormatIncrement(now, s.fullVersion, s.seq)
	default:
		return errors.Wrapf(ErrInvalidArgument, "unsupported backup mode %d", s.mode)
	}
	if err != nil {
		return err
	}
	s.containerPath = s.fs.Join(s.backupDir, s.containerName)
	s.state = stateInitialized

	s.bc.vlogf("→ %s backup of %s", s.mode, s.source)
	s.bc.vlogf("   Container: %s", s.containerPath)
	for _, c := range s.chain {
		s.bc.vlogf("   Candidate: %s", c.Name)
	}
	return nil
}

// Run creates the container directory and walks the source, filling the copy plan.
func (s *BackupSession) Run(ctx context.Context) error {
	if s.state != stateInitialized {
		return errors.Wrapf(ErrInvalidState, "run called in state %s", s.state)
	}
	if err := s.createContainer(ctx); err != nil {
		return err
	}

	s.state = stateWalkingSource
	if err := s.walkSource(ctx); err != nil {
		return err
	}
	s.state = statePlanReady
	return nil
}

func (s *BackupSession) createContainer(ctx context.Context) error {
	if err := s.fs.CreateDir(ctx, s.backupDir, 0o755); err != nil {
		return errors.Wrapf(err, "create backup directory %s", s.backupDir)
	}
	if err := s.fs.CreateDirExclusive(ctx, s.containerPath, 0o755); err != nil {
		if s.fs.IsExist(err) {
			return errors.WithHint(
				errors.Wrapf(ErrLockBusy, "container %s already exists", s.containerName),
				"another backup of this source may be running",
			)
		}
		return errors.Wrapf(err, "create container %s", s.containerPath)
	}
	return nil
}

func (s *BackupSession) walkSource(ctx context.Context) error {
	root := s.source
	destination := s.fs.Clean(s.opts.Destination)

	walkErr := s.fs.Walk(ctx, root, func(path string, info FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == root {
				return err
			}
			s.bc.warnf("cannot read %s: %v", path, err)
			s.plan.RecordFailure(s.plan.failureReason(err), path)
			return nil
		}
		if info == nil {
			return nil
		}

		rel, err := s.fs.Rel(root, path)
		if err != nil {
			s.plan.RecordFailure(ReasonCopyFailed, path)
			return nil
		}
		if rel == "." {
			return nil
		}

		if info.IsDir() {
			if s.fs.Clean(path) == destination {
				s.bc.vlogf("   skip destination %s", rel)
				return SkipDir
			}
			if skip, pattern := shouldSkip(rel, s.opts.Excludes); skip {
				s.bc.vlogf("   skip %s (exclude '%s')", rel, pattern)
				return SkipDir
			}
			return nil
		}
		if skip, pattern := shouldSkip(rel, s.opts.Excludes); skip {
			s.bc.vlogf("   skip %s (exclude '%s')", rel, pattern)
			return nil
		}
		if !info.IsRegular() && !info.IsSymlink() {
			s.bc.warnf("skipping special file %s", path)
			return nil
		}
		if info.IsSymlink() {
			// Linked directories are not descended into.
			if target, err := s.fs.Stat(ctx, path); err == nil && target.IsDir() {
				s.bc.logger.DebugContext(ctx, "Skipping symlinked directory", "path", path)
				return nil
			}
		}

		s.considerFile(ctx, path, rel)
		return nil
	})

	if walkErr != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ErrInterrupted, "source walk interrupted")
		}
		return errors.Wrapf(walkErr, "walk source %s", root)
	}
	return nil
}

func (s *BackupSession) considerFile(ctx context.Context, path, rel string) {
	cl := New
	if s.mode == ModeIncrement {
		var (
			baseline Container
			found    bool
			err      error
		)
		cl, baseline, found, err = s.detector.Classify(ctx, rel, s.source, s.chain)
		if err != nil {
			s.bc.warnf("cannot classify %s: %v", rel, err)
			s.plan.RecordFailure(s.plan.failureReason(err), path)
			return
		}
		if found {
			s.bc.vlogf("   %s: %s (baseline %s)", cl, rel, baseline.Name)
		} else {
			s.bc.vlogf("   %s: %s", cl, rel)
		}
	} else {
		s.bc.vlogf("   %s", rel)
	}

	if cl == New || cl == Modified {
		s.plan.Add(path, s.fs.Join(s.containerPath, s.fs.Dir(rel)))
	}
	s.counters.Add(cl)
	if s.opts.OnClassify != nil {
		s.opts.OnClassify(ClassificationEvent{RelPath: rel, Classification: cl, Counters: s.counters})
	}
}

// Plan returns the copy plan built by Run.
func (s *BackupSession) Plan() *CopyPlan {
	return s.plan
}

// Execute runs the copy plan. It is valid only once Run has completed.
func (s *BackupSession) Execute(ctx context.Context) (ExecutionSummary, error) {
	if s.state != statePlanReady {
		return ExecutionSummary{}, errors.Wrapf(ErrInvalidState, "execute called in state %s", s.state)
	}
	return s.plan.Execute(ctx)
}

// Mode returns the session variant.
func (s *BackupSession) Mode() Mode { return s.mode }

// Source returns the selected source path.
func (s *BackupSession) Source() string { return s.source }

// BackupName returns the name of the directory grouping this source's containers.
func (s *BackupSession) BackupName() string { return s.backupName }

// BackupDir returns destination/BackupName.
func (s *BackupSession) BackupDir() string { return s.backupDir }

// ContainerName returns the name of the container being created.
func (s *BackupSession) ContainerName() string { return s.containerName }

// ContainerPath returns the absolute path of the container being created.
func (s *BackupSession) ContainerPath() string { return s.containerPath }

// FullVersion returns the full version the new container belongs to.
func (s *BackupSession) FullVersion() int { return s.fullVersion }

// Seq returns the increment sequence number, zero for full sessions.
func (s *BackupSession) Seq() int { return s.seq }

// Chain returns the candidate chain, most recent container first.
func (s *BackupSession) Chain() []Container {
	out := make([]Container, len(s.chain))
	copy(out, s.chain)
	return out
}

// Counters returns the classification tally so far.
func (s *BackupSession) Counters() Counters { return s.counters }
