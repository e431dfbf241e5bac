// Package report writes run reports as YAML documents.
package report

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/arumata/incback/internal/usecase"
)

// StdoutPath makes Write print the report instead of storing it.
const StdoutPath = "-"

// Adapter implements ReportPort.
type Adapter struct {
	logger *slog.Logger
	stdout io.Writer
}

// New creates a report adapter. stdout receives reports written to StdoutPath.
func New(logger *slog.Logger, stdout io.Writer) *Adapter {
	if logger == nil {
		panic("report adapter requires logger")
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Adapter{logger: logger, stdout: stdout}
}

// Write encodes report to path, replacing any previous file.
func (a *Adapter) Write(ctx context.Context, path string, report usecase.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(report)
	if err != nil {
		return err
	}

	if path == StdoutPath {
		_, err := a.stdout.Write(data)
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create report directory")
	}
	tmp, err := os.CreateTemp(dir, ".report-*.yaml")
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write report")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close report")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "replace report")
	}
	tmpPath = ""
	a.logger.DebugContext(ctx, "report written", "path", path, "sources", len(report.Sources))
	return nil
}

// Encode renders report as a YAML document with two-space indentation.
func Encode(report usecase.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return nil, errors.Wrap(err, "encode report")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "encode report")
	}
	return buf.Bytes(), nil
}

var _ usecase.ReportPort = (*Adapter)(nil)
