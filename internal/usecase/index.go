package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/cockroachdb/errors"
)

// ContainerIndex lists and ranks the containers of one BackupName directory.
// Every call rescans the directory so results always reflect the disk.
type ContainerIndex struct {
	fs     FileSystemPort
	logger *slog.Logger
}

// NewContainerIndex creates an index reading through fs.
func NewContainerIndex(fs FileSystemPort, logger *slog.Logger) *ContainerIndex {
	if logger == nil {
		panic("logger is required")
	}
	return &ContainerIndex{fs: fs, logger: logger}
}

// ListFullBackups returns full backups in dir ordered by ascending version.
// A missing directory yields an empty list.
func (ix *ContainerIndex) ListFullBackups(ctx context.Context, dir string) ([]Container, error) {
	entries, err := ix.readDirs(ctx, dir)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[int]Container)
	for _, name := range entries {
		v, ok := ParseFullVersion(name)
		if !ok {
			continue
		}
		c := Container{Type: TypeFull, FullVersion: v, Name: name, Path: ix.fs.Join(dir, name)}
		if prev, dup := byVersion[v]; dup {
			ix.logger.WarnContext(ctx, "Duplicate full backup version", "version", v, "kept", maxName(prev.Name, name))
			if prev.Name > name {
				continue
			}
		}
		byVersion[v] = c
	}
	return sortedContainers(byVersion), nil
}

// GetFullBackup returns the full backup with the given version.
func (ix *ContainerIndex) GetFullBackup(ctx context.Context, dir string, version int) (Container, bool, error) {
	fulls, err := ix.ListFullBackups(ctx, dir)
	if err != nil {
		return Container{}, false, err
	}
	for _, c := range fulls {
		if c.FullVersion == version {
			return c, true, nil
		}
	}
	return Container{}, false, nil
}

// GetLastFullBackup returns the full backup with the highest version.
func (ix *ContainerIndex) GetLastFullBackup(ctx context.Context, dir string) (Container, bool, error) {
	fulls, err := ix.ListFullBackups(ctx, dir)
	if err != nil {
		return Container{}, false, err
	}
	if len(fulls) == 0 {
		return Container{}, false, nil
	}
	return fulls[len(fulls)-1], true, nil
}

// ListIncrements returns the increments of fullVersion ordered by ascending seq.
func (ix *ContainerIndex) ListIncrements(ctx context.Context, dir string, fullVersion int) ([]Container, error) {
	entries, err := ix.readDirs(ctx, dir)
	if err != nil {
		return nil, err
	}
	bySeq := make(map[int]Container)
	for _, name := range entries {
		full, seq, ok := ParseIncrementVersion(name)
		if !ok || full != fullVersion {
			continue
		}
		c := Container{Type: TypeIncrement, FullVersion: full, Seq: seq, Name: name, Path: ix.fs.Join(dir, name)}
		if prev, dup := bySeq[seq]; dup {
			ix.logger.WarnContext(ctx, "Duplicate increment", "full", full, "seq", seq, "kept", maxName(prev.Name, name))
			if prev.Name > name {
				continue
			}
		}
		bySeq[seq] = c
	}
	return sortedContainers(bySeq), nil
}

// BuildChain returns the candidate chain anchored at full: its increments from
// most recent to earliest, then full itself.
func (ix *ContainerIndex) BuildChain(ctx context.Context, dir string, full Container) ([]Container, error) {
	incs, err := ix.ListIncrements(ctx, dir, full.FullVersion)
	if err != nil {
		return nil, err
	}
	chain := make([]Container, 0, len(incs)+1)
	for i := len(incs) - 1; i >= 0; i-- {
		chain = append(chain, incs[i])
	}
	return append(chain, full), nil
}

// ListBackupNames returns the BackupName directories under destination.
func (ix *ContainerIndex) ListBackupNames(ctx context.Context, destination string) ([]string, error) {
	names, err := ix.readDirs(ctx, destination)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (ix *ContainerIndex) readDirs(ctx context.Context, dir string) ([]string, error) {
	entries, err := ix.fs.ReadDir(ctx, dir)
	if err != nil {
		if ix.fs.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "list containers in %s", dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func sortedContainers(m map[int]Container) []Container {
	out := make([]Container, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullVersion != out[j].FullVersion {
			return out[i].FullVersion < out[j].FullVersion
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func maxName(a, b string) string {
	if a > b {
		return a
	}
	return b
}
