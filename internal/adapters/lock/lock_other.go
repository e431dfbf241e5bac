//go:build !linux && !darwin && !windows

package lock

func processStartID(pid int) (string, bool) {
	_ = pid
	return "", false
}
