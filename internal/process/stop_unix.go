//go:build !windows

package process

import (
	"errors"
	"syscall"
	"time"

	"github.com/loykin/stackup/internal/detector"
)

// StopPID terminates the process group led by pid: SIGTERM first, then
// SIGKILL once wait elapses without the process disappearing. Detached
// children are session leaders, so -pid addresses their whole group
// (a prefork worker and its children go together).
func StopPID(pid int, wait time.Duration) error {
	if pid <= 0 || !detector.PIDAlive(pid) {
		return nil
	}
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		// Not a group leader; signal the single process.
		if err2 := syscall.Kill(pid, syscall.SIGTERM); err2 != nil && !errors.Is(err2, syscall.ESRCH) {
			return err2
		}
	}
	if waitGone(pid, wait) {
		return nil
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
	_ = syscall.Kill(pid, syscall.SIGKILL)
	if waitGone(pid, 200*time.Millisecond) {
		return nil
	}
	return errors.New("process did not exit after SIGKILL")
}

func waitGone(pid int, wait time.Duration) bool {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if !detector.PIDAlive(pid) {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return !detector.PIDAlive(pid)
}
