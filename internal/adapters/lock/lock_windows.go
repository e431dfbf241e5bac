//go:build windows

package lock

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// processStartID identifies a process incarnation by its creation time.
func processStartID(pid int) (string, bool) {
	handle, ok := openProcess(pid)
	if !ok {
		return "", false
	}
	defer windows.CloseHandle(handle) //nolint:errcheck

	var creation, exit, kernel, user windows.Filetime
	if err := windows.GetProcessTimes(handle, &creation, &exit, &kernel, &user); err != nil {
		return "", false
	}
	return fmt.Sprintf("ctime:%d", creation.Nanoseconds()), true
}

func processAlive(pid int) bool {
	handle, ok := openProcess(pid)
	if !ok {
		return false
	}
	defer windows.CloseHandle(handle) //nolint:errcheck

	var exitCode uint32
	if err := windows.GetExitCodeProcess(handle, &exitCode); err != nil {
		return false
	}
	return exitCode == windows.STILL_ACTIVE
}

func openProcess(pid int) (windows.Handle, bool) {
	if pid <= 0 {
		return 0, false
	}
	// #nosec G115 -- pid checked positive above.
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return 0, false
	}
	return handle, true
}
