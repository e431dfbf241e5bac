//nolint:gci,gofumpt
package it

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arumata/incback/internal/app"
	"github.com/arumata/incback/internal/usecase"
)

var (
	mtimeJuly1 = time.Date(2015, 7, 1, 13, 15, 0, 0, time.Local)
	mtimeJuly2 = time.Date(2015, 7, 2, 9, 30, 0, 0, time.Local)
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// containers returns the container names under dest/name, sorted.
func containers(t *testing.T, dest, name string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dest, name))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if _, ok := usecase.ParseFullVersion(e.Name()); ok {
			names = append(names, e.Name())
		}
		if _, _, ok := usecase.ParseIncrementVersion(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func runBackup(t *testing.T, deps *usecase.Dependencies, cfg usecase.Config) *usecase.BackupResult {
	t.Helper()
	result, err := usecase.Backup(context.Background(), &cfg, deps, usecase.BackupOptions{}, newLogger())
	require.NoError(t, err)
	require.Len(t, result.Sources, len(cfg.Sources))
	return result
}

// TestBackupCycle_RealAdapters runs full, unchanged increment and modified
// increment against the real filesystem.
func TestBackupCycle_RealAdapters(t *testing.T) {
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	src := filepath.Join(t.TempDir(), "bup1")
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "notes.txt"), "v1", mtimeJuly1)
	writeFile(t, filepath.Join(src, "deep", "nested", "data.bin"), "data", mtimeJuly1)

	full := runBackup(t, deps, usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest})
	res := full.Sources[0]
	assert.Equal(t, 2, res.Counters.New)
	assert.Equal(t, 2, res.Summary.Succeeded)

	copied := filepath.Join(res.ContainerPath, "deep", "nested", "data.bin")
	info, err := os.Stat(copied)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtimeJuly1), "copy must keep the source mtime")

	inc := runBackup(t, deps, usecase.Config{Mode: usecase.ModeIncrement, Sources: []string{src}, Destination: dest})
	res = inc.Sources[0]
	assert.Equal(t, usecase.Counters{Unmodified: 2}, res.Counters)
	assert.Equal(t, 0, res.Summary.Planned)
	assert.DirExists(t, res.ContainerPath, "empty increments are still created")

	writeFile(t, filepath.Join(src, "notes.txt"), "v2", mtimeJuly2)
	inc = runBackup(t, deps, usecase.Config{Mode: usecase.ModeIncrement, Sources: []string{src}, Destination: dest})
	res = inc.Sources[0]
	assert.Equal(t, usecase.Counters{Modified: 1, Unmodified: 1}, res.Counters)
	assert.Equal(t, 1, res.Summary.Succeeded)
	_, seq, ok := usecase.ParseIncrementVersion(res.ContainerName)
	require.True(t, ok)
	assert.Equal(t, 2, seq)
	require.Len(t, res.Chain, 2)
	assert.True(t, res.Chain[1].IsFull())

	data, err := os.ReadFile(filepath.Join(res.ContainerPath, "notes.txt")) // #nosec G304 - test data
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
	assert.NoFileExists(t, filepath.Join(res.ContainerPath, "deep", "nested", "data.bin"))

	assert.Len(t, containers(t, dest, "bup1"), 3)
	assert.NoDirExists(t, filepath.Join(dest, "bup1", ".incback.lock"), "lock must be released")
}

func TestFullNumbering_RealAdapters(t *testing.T) {
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	src := filepath.Join(t.TempDir(), "docs")
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a", mtimeJuly1)

	first := runBackup(t, deps, usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest})
	second := runBackup(t, deps, usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest})

	v1, ok := usecase.ParseFullVersion(first.Sources[0].ContainerName)
	require.True(t, ok)
	v2, ok := usecase.ParseFullVersion(second.Sources[0].ContainerName)
	require.True(t, ok)
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
	assert.Len(t, containers(t, dest, "docs"), 2)
}

func TestIncrementWithoutFull_RealAdapters(t *testing.T) {
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	src := filepath.Join(t.TempDir(), "docs")
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a", mtimeJuly1)

	cfg := usecase.Config{Mode: usecase.ModeIncrement, Sources: []string{src}, Destination: dest}
	result, err := usecase.Backup(context.Background(), &cfg, deps, usecase.BackupOptions{}, newLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, usecase.ErrNoFullBackup))
	assert.True(t, errors.Is(err, usecase.ErrUsage))
	require.NotNil(t, result)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing may be written before the full backup check")
}

func TestMultipleSources_RealAdapters(t *testing.T) {
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	root := t.TempDir()
	dest := t.TempDir()
	srcA := filepath.Join(root, "alpha")
	srcB := filepath.Join(root, "beta")
	writeFile(t, filepath.Join(srcA, "a.txt"), "a", mtimeJuly1)
	writeFile(t, filepath.Join(srcB, "b.txt"), "b", mtimeJuly1)

	cfg := usecase.Config{
		Mode:        usecase.ModeFull,
		Sources:     []string{srcA, srcB, filepath.Join(root, "missing"), srcA},
		Destination: dest,
	}
	result, err := usecase.Backup(context.Background(), &cfg, deps, usecase.BackupOptions{}, newLogger())
	require.NoError(t, err)
	require.Len(t, result.Sources, 2, "missing and duplicate sources are skipped")
	assert.Equal(t, "alpha", result.Sources[0].BackupName)
	assert.Equal(t, "beta", result.Sources[1].BackupName)

	assert.Len(t, containers(t, dest, "alpha"), 1)
	assert.Len(t, containers(t, dest, "beta"), 1)
	assert.NoDirExists(t, filepath.Join(dest, "missing"))
}

func TestDryRun_RealAdapters(t *testing.T) {
	logger := newLogger()
	deps := app.WithDryRun(app.NewDefaultDependencies(logger, io.Discard), logger)
	src := filepath.Join(t.TempDir(), "docs")
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a", mtimeJuly1)

	result := runBackup(t, deps, usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest, DryRun: true})

	assert.Equal(t, 1, result.Sources[0].Counters.New)
	assert.Equal(t, 1, result.Sources[0].Summary.Succeeded)
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not write to the destination")
}

func TestExcludes_RealAdapters(t *testing.T) {
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	src := filepath.Join(t.TempDir(), "proj")
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "main.go"), "package main", mtimeJuly1)
	writeFile(t, filepath.Join(src, "build.tmp"), "x", mtimeJuly1)
	writeFile(t, filepath.Join(src, "node_modules", "dep", "index.js"), "x", mtimeJuly1)

	result := runBackup(t, deps, usecase.Config{
		Mode:        usecase.ModeFull,
		Sources:     []string{src},
		Destination: dest,
		Excludes:    []string{"*.tmp", "node_modules"},
	})

	res := result.Sources[0]
	assert.Equal(t, 1, res.Counters.New)
	assert.FileExists(t, filepath.Join(res.ContainerPath, "main.go"))
	assert.NoFileExists(t, filepath.Join(res.ContainerPath, "build.tmp"))
	assert.NoDirExists(t, filepath.Join(res.ContainerPath, "node_modules"))
}

func TestDestinationInsideSource_RealAdapters(t *testing.T) {
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	src := filepath.Join(t.TempDir(), "home")
	dest := filepath.Join(src, "backups")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	writeFile(t, filepath.Join(src, "a.txt"), "a", mtimeJuly1)

	runBackup(t, deps, usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest})
	result := runBackup(t, deps, usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest})

	assert.Equal(t, 1, result.Sources[0].Counters.New, "the destination subtree must not be backed up")
}

func TestLockBusy_RealAdapters(t *testing.T) {
	ctx := context.Background()
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	src := filepath.Join(t.TempDir(), "docs")
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a", mtimeJuly1)

	lockPath := filepath.Join(dest, "docs", ".incback.lock")
	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0o755))
	require.NoError(t, deps.Lock.AcquireLock(ctx, lockPath, usecase.LockInfo{PID: os.Getpid(), StartTime: time.Now()}))
	defer func() { _ = deps.Lock.ReleaseLock(ctx, lockPath) }()

	cfg := usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest}
	_, err := usecase.Backup(ctx, &cfg, deps, usecase.BackupOptions{}, newLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, usecase.ErrLockBusy))
	assert.Empty(t, containers(t, dest, "docs"))

	cfg.NoLock = true
	_, err = usecase.Backup(ctx, &cfg, deps, usecase.BackupOptions{}, newLogger())
	require.NoError(t, err)
	assert.Len(t, containers(t, dest, "docs"), 1)
}

func TestPermissionDenied_RealAdapters(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	src := filepath.Join(t.TempDir(), "docs")
	dest := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		writeFile(t, filepath.Join(src, name+".txt"), name, mtimeJuly1)
	}
	secret := filepath.Join(src, "c.txt")
	require.NoError(t, os.Chmod(secret, 0o000))
	defer func() { _ = os.Chmod(secret, 0o600) }()

	result := runBackup(t, deps, usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest})

	summary := result.Sources[0].Summary
	assert.True(t, result.PartialSuccess)
	assert.Equal(t, 5, summary.Attempted)
	assert.Equal(t, 4, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, usecase.ReasonPermissionDenied, summary.Failures[0].Reason)
	assert.Equal(t, secret, summary.Failures[0].Path)
}

func TestRunReport_RealAdapters(t *testing.T) {
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	src := filepath.Join(t.TempDir(), "docs")
	dest := t.TempDir()
	reportPath := filepath.Join(t.TempDir(), "reports", "last.yaml")
	writeFile(t, filepath.Join(src, "a.txt"), "a", mtimeJuly1)

	runBackup(t, deps, usecase.Config{Mode: usecase.ModeFull, Sources: []string{src}, Destination: dest, ReportPath: reportPath})

	data, err := os.ReadFile(reportPath) // #nosec G304 - test data
	require.NoError(t, err)
	var report usecase.RunReport
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, "full", report.Mode)
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "docs", report.Sources[0].BackupName)
	assert.Equal(t, 1, report.Sources[0].Succeeded)
}

func TestInitAndList_RealAdapters(t *testing.T) {
	ctx := context.Background()
	deps := app.NewDefaultDependencies(newLogger(), io.Discard)
	home := t.TempDir()
	configPath := filepath.Join(home, ".config", "incback", "config.toml")
	dest := filepath.Join(home, "Backups")

	require.NoError(t, usecase.Init(ctx, usecase.InitOptions{
		ConfigPath:  configPath,
		Destination: "~/Backups",
		HomeDir:     home,
	}, deps, newLogger()))

	cfgFile, err := deps.Config.Load(ctx, configPath)
	require.NoError(t, err)
	cfg, err := usecase.RuntimeConfigFromFile(cfgFile, home)
	require.NoError(t, err)
	assert.Equal(t, dest, cfg.Destination)
	assert.DirExists(t, dest)

	src := filepath.Join(t.TempDir(), "docs")
	writeFile(t, filepath.Join(src, "a.txt"), "a", mtimeJuly1)
	assert.False(t, cfg.Notify)
	cfg.Mode = usecase.ModeFull
	cfg.Sources = []string{src}
	runBackup(t, deps, *cfg)
	cfg.Mode = usecase.ModeIncrement
	runBackup(t, deps, *cfg)

	listings, err := usecase.List(ctx, usecase.ListOptions{Destination: dest}, deps, newLogger())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "docs", listings[0].Name)
	require.Len(t, listings[0].Fulls, 1)
	assert.Len(t, listings[0].Fulls[0].Increments, 1)
}
