//go:build !windows

package detector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// pidAlive returns true if a process with given pid exists (or EPERM).
// On Linux, a child that exited but was not yet reaped is a zombie;
// treat that as not alive.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if runtime.GOOS == "linux" && isZombieLinux(pid) {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// isZombieLinux returns true if /proc/<pid>/status reports a zombie state (Z) on Linux.
func isZombieLinux(pid int) bool {
	path := "/proc/" + strconv.Itoa(pid) + "/status"
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Contains(b, []byte("State:\tZ"))
}

// PIDAlive exposes the liveness probe for callers outside this package.
func PIDAlive(pid int) bool { return pidAlive(pid) }

// PIDFileDetector detects a process via a PID file.
// The file holds the PID on the first line and optionally a JSON meta
// line carrying the process start time, used to reject reused PIDs.
type PIDFileDetector struct {
	PIDFile string
}

type pidMeta struct {
	StartUnix int64 `json:"start_unix"`
}

func (d PIDFileDetector) Alive() (bool, error) {
	data, err := os.ReadFile(d.PIDFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return false, fmt.Errorf("empty pidfile: %s", d.PIDFile)
	}
	pidStr := strings.TrimSpace(lines[0])
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return false, fmt.Errorf("invalid pid in %s: %w", d.PIDFile, err)
	}

	var metaStart int64
	if len(lines) >= 2 {
		var m pidMeta
		if err := json.Unmarshal([]byte(strings.TrimSpace(lines[1])), &m); err == nil {
			metaStart = m.StartUnix
		}
	}
	if metaStart > 0 {
		cur := getProcStartUnix(pid)
		if cur > 0 && cur != metaStart {
			return false, nil // PID reused; not our process
		}
	}

	return pidAlive(pid), nil
}

func (d PIDFileDetector) Describe() string { return "pidfile:" + d.PIDFile }

// PIDDetector detects by a provided PID number.
type PIDDetector struct{ PID int }

func (d PIDDetector) Alive() (bool, error) { return pidAlive(d.PID), nil }
func (d PIDDetector) Describe() string     { return fmt.Sprintf("pid:%d", d.PID) }
