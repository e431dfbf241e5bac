package usecase

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

type testFileSystem struct{}

func newTestFileSystem() *testFileSystem {
	return &testFileSystem{}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func safeFileMode(perm int, fallback fs.FileMode) fs.FileMode {
	if perm < 0 || perm > 0o777 {
		return fallback
	}
	// #nosec G115 -- perm validated to be within safe range.
	return fs.FileMode(perm)
}

func (a *testFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	_ = ctx
	// #nosec G304 -- test paths are controlled by the test harness.
	return os.ReadFile(path)
}

func (a *testFileSystem) WriteFile(ctx context.Context, path string, data []byte, perm int) error {
	_ = ctx
	return os.WriteFile(path, data, safeFileMode(perm, 0o644))
}

func (a *testFileSystem) CreateDir(ctx context.Context, path string, perm int) error {
	_ = ctx
	return os.MkdirAll(path, safeFileMode(perm, 0o755))
}

func (a *testFileSystem) Stat(ctx context.Context, path string) (FileInfo, error) {
	_ = ctx
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &fileInfoWrapperTest{info}, nil
}

func (a *testFileSystem) Lstat(ctx context.Context, path string) (FileInfo, error) {
	_ = ctx
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	return &fileInfoWrapperTest{info}, nil
}

func (a *testFileSystem) Walk(ctx context.Context, root string, walkFn WalkFunc) error {
	_ = ctx
	return filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		var fileInfo FileInfo
		if info != nil {
			fileInfo = &fileInfoWrapperTest{info}
		}
		return walkFn(path, fileInfo, err)
	})
}

func (a *testFileSystem) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	_ = ctx
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, &dirEntryWrapperTest{entry})
	}
	return result, nil
}

func (a *testFileSystem) CreateDirExclusive(ctx context.Context, path string, perm int) error {
	_ = ctx
	return os.Mkdir(path, safeFileMode(perm, 0o755))
}

func (a *testFileSystem) CopyFile(ctx context.Context, src, dstDir string) error {
	_ = ctx
	// #nosec G304 -- test paths are controlled by the test harness.
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dst := filepath.Join(dstDir, filepath.Base(src))
	// #nosec G304 -- test paths are controlled by the test harness.
	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func (a *testFileSystem) Abs(ctx context.Context, path string) (string, error) {
	_ = ctx
	return filepath.Abs(path)
}

func (a *testFileSystem) Join(elements ...string) string {
	return filepath.Join(elements...)
}

func (a *testFileSystem) Base(path string) string {
	return filepath.Base(path)
}

func (a *testFileSystem) Dir(path string) string {
	return filepath.Dir(path)
}

func (a *testFileSystem) Rel(basepath, targpath string) (string, error) {
	return filepath.Rel(basepath, targpath)
}
func (a *testFileSystem) Clean(path string) string      { return filepath.Clean(path) }
func (a *testFileSystem) VolumeName(path string) string { return filepath.VolumeName(path) }
func (a *testFileSystem) PathSeparator() byte           { return os.PathSeparator }
func (a *testFileSystem) IsNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
func (a *testFileSystem) IsExist(err error) bool { return os.IsExist(err) || errors.Is(err, fs.ErrExist) }
func (a *testFileSystem) IsPermission(err error) bool {
	return os.IsPermission(err) || errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM)
}

type fileInfoWrapperTest struct {
	info fs.FileInfo
}

func (f *fileInfoWrapperTest) Name() string       { return f.info.Name() }
func (f *fileInfoWrapperTest) Size() int64        { return f.info.Size() }
func (f *fileInfoWrapperTest) Mode() int          { return int(f.info.Mode()) }
func (f *fileInfoWrapperTest) ModTime() time.Time { return f.info.ModTime() }
func (f *fileInfoWrapperTest) IsDir() bool        { return f.info.IsDir() }
func (f *fileInfoWrapperTest) IsSymlink() bool    { return f.info.Mode()&os.ModeSymlink != 0 }
func (f *fileInfoWrapperTest) IsRegular() bool    { return f.info.Mode().IsRegular() }
func (f *fileInfoWrapperTest) Sys() interface{}   { return f.info.Sys() }

type dirEntryWrapperTest struct {
	entry fs.DirEntry
}

func (d *dirEntryWrapperTest) Name() string { return d.entry.Name() }
func (d *dirEntryWrapperTest) IsDir() bool  { return d.entry.IsDir() }

// faultyFileSystem injects errors for chosen paths on top of the real filesystem.
type faultyFileSystem struct {
	*testFileSystem
	copyErrs  map[string]error
	mkdirErrs map[string]error
	copied    []string
	panicOn   string
}

func newFaultyFileSystem() *faultyFileSystem {
	return &faultyFileSystem{
		testFileSystem: newTestFileSystem(),
		copyErrs:       make(map[string]error),
		mkdirErrs:      make(map[string]error),
	}
}

func (f *faultyFileSystem) CreateDir(ctx context.Context, path string, perm int) error {
	if err, ok := f.mkdirErrs[path]; ok {
		return err
	}
	return f.testFileSystem.CreateDir(ctx, path, perm)
}

func (f *faultyFileSystem) CopyFile(ctx context.Context, src, dstDir string) error {
	if f.panicOn != "" && filepath.Base(src) == f.panicOn {
		panic("injected failure")
	}
	if err, ok := f.copyErrs[src]; ok {
		return err
	}
	f.copied = append(f.copied, src)
	return f.testFileSystem.CopyFile(ctx, src, dstDir)
}

// fakeLock records lock calls; busy makes every acquire fail.
type fakeLock struct {
	mu       sync.Mutex
	busy     bool
	acquired []string
	released []string
	infos    []LockInfo
}

func (l *fakeLock) AcquireLock(ctx context.Context, path string, info LockInfo) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return ErrLockBusy
	}
	l.acquired = append(l.acquired, path)
	l.infos = append(l.infos, info)
	return nil
}

func (l *fakeLock) ReleaseLock(ctx context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, path)
	return nil
}

func (l *fakeLock) IsLocked(ctx context.Context, path string) (bool, LockInfo, error) {
	return false, LockInfo{}, nil
}

func (l *fakeLock) RefreshLock(ctx context.Context, path string) error {
	return nil
}

type fakeProcess struct{}

func (fakeProcess) GetPID() int { return 4242 }

func (fakeProcess) Hostname() string { return "testhost" }

type fakeReport struct {
	path    string
	report  RunReport
	written int
}

func (r *fakeReport) Write(ctx context.Context, path string, report RunReport) error {
	r.path = path
	r.report = report
	r.written++
	return nil
}

type fakeNotification struct {
	title   string
	message string
	sent    int
}

func (n *fakeNotification) Send(ctx context.Context, title, message, sound string) error {
	n.title = title
	n.message = message
	n.sent++
	return nil
}

type fakeConfigPort struct {
	fs        FileSystemPort
	data      map[string]ConfigFile
	saveCalls int
}

func newFakeConfigPort(fs FileSystemPort) *fakeConfigPort {
	return &fakeConfigPort{
		fs:   fs,
		data: make(map[string]ConfigFile),
	}
}

func (f *fakeConfigPort) Load(ctx context.Context, path string) (ConfigFile, error) {
	if cfg, ok := f.data[path]; ok {
		return cfg, nil
	}
	return DefaultConfigFile(), nil
}

func (f *fakeConfigPort) Save(ctx context.Context, path string, cfg ConfigFile) error {
	f.saveCalls++
	f.data[path] = cfg
	return f.fs.WriteFile(ctx, path, []byte("config"), 0o644)
}
