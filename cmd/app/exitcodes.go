package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/arumata/incback/internal/usecase"
)

// Exit codes. 76 is EX_PROTOCOL from sysexits.h, kept for "another backup holds the lock".
const (
	exitSuccess       = 0
	exitCriticalError = 1
	exitUsageError    = 2
	exitLockBusy      = 76
	exitInterrupted   = 130
)

// handleCmdError prints err and stores its exit code.
func handleCmdError(exitCode *int, err error) {
	*exitCode = mapExitCodeWithLog(err)
}

func mapExitCodeWithLog(err error) int {
	if err == nil {
		return exitSuccess
	}
	printError(os.Stderr, err)
	return mapExitCode(err)
}

// mapExitCode ranks sentinels: an interrupt wins over a critical failure,
// which wins over a busy lock, which wins over a usage error.
func mapExitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, usecase.ErrInterrupted):
		return exitInterrupted
	case errors.Is(err, usecase.ErrCritical):
		return exitCriticalError
	case errors.Is(err, usecase.ErrLockBusy):
		return exitLockBusy
	case errors.Is(err, usecase.ErrUsage):
		return exitUsageError
	default:
		return exitCriticalError
	}
}

// printError writes err and its hints, one per line.
func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s: %v\n", appName, err)
	for _, line := range strings.Split(errors.FlattenHints(err), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			_, _ = fmt.Fprintf(w, "hint: %s\n", line)
		}
	}
}
