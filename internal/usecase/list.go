package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
)

// listPalette colors list output. With color disabled every func is identity.
type listPalette struct {
	bold  func(a ...interface{}) string
	dim   func(a ...interface{}) string
	green func(a ...interface{}) string
	cyan  func(a ...interface{}) string
	red   func(a ...interface{}) string
}

func newListPalette(useColor bool) listPalette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return listPalette{
		bold:  mk(color.Bold),
		dim:   mk(color.Faint),
		green: mk(color.FgGreen),
		cyan:  mk(color.FgCyan, color.Bold),
		red:   mk(color.FgRed),
	}
}

// ListOptions selects what List reports.
type ListOptions struct {
	Destination string
	// Names restricts the listing to these BackupName directories; empty lists all.
	Names []string
}

// BackupListing holds the containers of one BackupName directory.
type BackupListing struct {
	Name  string
	Fulls []FullListing
}

// FullListing is a full backup with the increments built on it.
type FullListing struct {
	Full       Container
	Increments []Container
}

// List reads the containers under a destination, ordered by version.
func List(ctx context.Context, opts ListOptions, deps *Dependencies, logger *slog.Logger) ([]BackupListing, error) {
	if logger == nil {
		panic("logger is required")
	}
	if deps == nil || deps.FileSystem == nil {
		return nil, errors.Wrap(ErrCritical, "filesystem adapter not available")
	}
	fs := deps.FileSystem
	if strings.TrimSpace(opts.Destination) == "" {
		return nil, structuralError(errors.WithStack(ErrNoDestination))
	}
	info, err := fs.Stat(ctx, opts.Destination)
	if err != nil || !info.IsDir() {
		return nil, structuralError(errors.Wrapf(ErrNoDestination, "destination %s is not a directory", opts.Destination))
	}

	index := NewContainerIndex(fs, logger)
	names := opts.Names
	if len(names) == 0 {
		names, err = index.ListBackupNames(ctx, opts.Destination)
		if err != nil {
			return nil, err
		}
	}

	listings := make([]BackupListing, 0, len(names))
	for _, name := range names {
		dir := fs.Join(opts.Destination, name)
		fulls, err := index.ListFullBackups(ctx, dir)
		if err != nil {
			return nil, err
		}
		listing := BackupListing{Name: name}
		for _, full := range fulls {
			incs, err := index.ListIncrements(ctx, dir, full.FullVersion)
			if err != nil {
				return nil, err
			}
			listing.Fulls = append(listing.Fulls, FullListing{Full: full, Increments: incs})
		}
		if len(listing.Fulls) == 0 && len(opts.Names) == 0 {
			logger.DebugContext(ctx, "Skipping directory without backups", "dir", dir)
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// FormatListing renders List output for a terminal.
func FormatListing(destination string, listings []BackupListing, useColor bool) string {
	p := newListPalette(useColor)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", p.bold("Backups in"), destination)
	b.WriteString(strings.Repeat("─", 54))
	b.WriteString("\n")
	if len(listings) == 0 {
		fmt.Fprintf(&b, "  %s\n", p.dim("(none)"))
		return b.String()
	}
	for _, l := range listings {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s\n", p.cyan(l.Name+":"))
		if len(l.Fulls) == 0 {
			fmt.Fprintf(&b, "  %s %s\n", p.red("✗"), p.dim("(no full backup)"))
			continue
		}
		for _, f := range l.Fulls {
			fmt.Fprintf(&b, "  %s %s\n", p.green("●"), f.Full.Name)
			for _, inc := range f.Increments {
				fmt.Fprintf(&b, "    %s %s\n", p.dim("└"), inc.Name)
			}
		}
	}
	return b.String()
}
