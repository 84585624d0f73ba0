package detector

import (
	"os"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// NameDetector scans the process table for a command line containing
// Pattern. This mirrors a pgrep -f check: loose, and intentionally the
// last-resort strategy, since unrelated processes can match.
type NameDetector struct {
	Pattern string
	// Exclude drops PIDs from consideration, e.g. the scanning process itself.
	Exclude []int32
}

func (d NameDetector) Alive() (bool, error) {
	pids, err := FindByPattern(d.Pattern, d.Exclude)
	if err != nil {
		return false, err
	}
	return len(pids) > 0, nil
}

func (d NameDetector) Describe() string { return "name:" + d.Pattern }

// FindByPattern returns PIDs whose command line contains pattern.
// The calling process is always excluded.
func FindByPattern(pattern string, exclude []int32) ([]int32, error) {
	if pattern == "" {
		return nil, nil
	}
	procs, err := gopsproc.Processes()
	if err != nil {
		return nil, err
	}
	self := int32(os.Getpid())
	var out []int32
	for _, p := range procs {
		if p.Pid == self || excluded(p.Pid, exclude) {
			continue
		}
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			continue
		}
		if strings.Contains(cmdline, pattern) {
			out = append(out, p.Pid)
		}
	}
	return out, nil
}

func excluded(pid int32, exclude []int32) bool {
	for _, e := range exclude {
		if pid == e {
			return true
		}
	}
	return false
}
