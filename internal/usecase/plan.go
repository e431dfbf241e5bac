package usecase

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// CopyPlan is the ordered list of copies a session decided on, plus the
// per-file failures seen while building and executing it.
type CopyPlan struct {
	fs           FileSystemPort
	logger       *slog.Logger
	instructions []CopyInstruction
	failures     []CopyFailure
}

// NewCopyPlan creates an empty plan executed through fs.
func NewCopyPlan(fs FileSystemPort, logger *slog.Logger) *CopyPlan {
	if logger == nil {
		panic("logger is required")
	}
	return &CopyPlan{fs: fs, logger: logger}
}

// Add appends an instruction copying source into destDir.
func (p *CopyPlan) Add(source, destDir string) {
	p.instructions = append(p.instructions, CopyInstruction{Source: source, DestDir: destDir})
}

// RecordFailure notes a file that will not be backed up.
func (p *CopyPlan) RecordFailure(reason, path string) {
	p.failures = append(p.failures, CopyFailure{Reason: reason, Path: path})
}

// Instructions returns the planned copies in insertion order.
func (p *CopyPlan) Instructions() []CopyInstruction {
	out := make([]CopyInstruction, len(p.instructions))
	copy(out, p.instructions)
	return out
}

// Failures returns the failures recorded so far.
func (p *CopyPlan) Failures() []CopyFailure {
	out := make([]CopyFailure, len(p.failures))
	copy(out, p.failures)
	return out
}

// Len returns the number of planned copies.
func (p *CopyPlan) Len() int {
	return len(p.instructions)
}

// Execute performs every instruction in order. A failing file is recorded and
// skipped. ErrCopyAborted is returned when instructions existed but none could
// be attempted because their destination directories could not be created.
func (p *CopyPlan) Execute(ctx context.Context) (ExecutionSummary, error) {
	summary := ExecutionSummary{Planned: len(p.instructions)}
	for _, in := range p.instructions {
		if err := ctx.Err(); err != nil {
			summary.Failures = p.Failures()
			return summary, errors.Wrap(ErrInterrupted, "copy interrupted")
		}

		if err := p.fs.CreateDir(ctx, in.DestDir, 0o755); err != nil {
			p.logger.DebugContext(ctx, "Create destination directory failed", "dir", in.DestDir, "error", err)
			p.RecordFailure(p.failureReason(err), in.Source)
			continue
		}

		summary.Attempted++
		if err := p.fs.CopyFile(ctx, in.Source, in.DestDir); err != nil {
			p.logger.DebugContext(ctx, "Copy failed", "source", in.Source, "error", err)
			p.RecordFailure(p.failureReason(err), in.Source)
			continue
		}
		summary.Succeeded++
	}

	summary.Failures = p.Failures()
	if summary.Planned > 0 && summary.Attempted == 0 {
		return summary, errors.Wrapf(ErrCopyAborted, "no destination directory could be created for %d files", summary.Planned)
	}
	return summary, nil
}

func (p *CopyPlan) failureReason(err error) string {
	switch {
	case p.fs.IsPermission(err):
		return ReasonPermissionDenied
	case p.fs.IsNotExist(err):
		return ReasonNotFound
	default:
		return ReasonCopyFailed
	}
}
