//go:build linux

package lock

import (
	"fmt"
	"os"
	"strings"
)

// processStartID reads the start time in clock ticks from /proc/<pid>/stat.
func processStartID(pid int) (string, bool) {
	if pid <= 0 {
		return "", false
	}
	// #nosec G304 -- reading /proc/<pid>/stat from controlled path.
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return "", false
	}
	// The command name may contain spaces; fields resume after its closing paren.
	stat := string(data)
	if i := strings.LastIndexByte(stat, ')'); i >= 0 {
		stat = stat[i+1:]
	}
	fields := strings.Fields(stat)
	// starttime is field 22, the 20th after the command name.
	if len(fields) < 20 {
		return "", false
	}
	return "ticks:" + fields[19], true
}
