package usecase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// ChangeDetector decides whether a source file differs from its most recent
// backed up copy in a candidate chain.
type ChangeDetector struct {
	fs FileSystemPort
	// ModTimeResolution truncates both timestamps before they are compared.
	ModTimeResolution time.Duration
}

// NewChangeDetector creates a detector reading through fs.
func NewChangeDetector(fs FileSystemPort, resolution time.Duration) *ChangeDetector {
	return &ChangeDetector{fs: fs, ModTimeResolution: resolution}
}

// Classify compares sourceRoot/rel against the chain. The first container
// holding a regular file at the same relative path is the baseline and is
// returned with found=true. Equal timestamps classify as Unmodified.
func (d *ChangeDetector) Classify(
	ctx context.Context,
	rel, sourceRoot string,
	chain []Container,
) (Classification, Container, bool, error) {
	srcInfo, err := d.fs.Stat(ctx, d.fs.Join(sourceRoot, rel))
	if err != nil {
		return 0, Container{}, false, errors.Wrapf(err, "stat source %s", rel)
	}

	for _, c := range chain {
		info, err := d.fs.Stat(ctx, d.fs.Join(c.Path, rel))
		if err != nil {
			if d.fs.IsNotExist(err) {
				continue
			}
			return 0, Container{}, false, errors.Wrapf(err, "stat %s in %s", rel, c.Name)
		}
		if !info.IsRegular() {
			continue
		}
		if d.truncate(srcInfo.ModTime()).After(d.truncate(info.ModTime())) {
			return Modified, c, true, nil
		}
		return Unmodified, c, true, nil
	}
	return New, Container{}, false, nil
}

func (d *ChangeDetector) truncate(t time.Time) time.Time {
	if d.ModTimeResolution <= 0 {
		return t
	}
	return t.Truncate(d.ModTimeResolution)
}
