package process

import (
	"os/exec"
	"strings"

	"github.com/loykin/stackup/internal/detector"
	"github.com/loykin/stackup/internal/logger"
)

// Spec describes a process to be launched.
type Spec struct {
	Name     string        `json:"name"`
	Command  string        `json:"command"`            // command to start the process (shell)
	WorkDir  string        `json:"work_dir,omitempty"` // optional working dir
	Env      []string      `json:"env,omitempty"`      // optional extra env
	PIDFile  string        `json:"pid_file,omitempty"` // pidfile path; written on start
	Pattern  string        `json:"pattern,omitempty"`  // command-line substring for fallback detection
	Detached bool          `json:"detached"`           // start in a new session, survive parent exit
	Log      logger.Config `json:"log"`                // combined stdout+stderr destination
}

// BuildCommand constructs an *exec.Cmd for the given spec.Command.
// It avoids invoking a shell when not necessary, and it also respects
// an explicit shell invocation already present in the command string
// (e.g., "sh -c 'echo hi'"), avoiding double-wrapping with another shell.
func (s *Spec) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(s.Command)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	// If the command already explicitly uses a shell, honor it without adding another layer.
	if _, afterC, ok := parseExplicitShell(cmdStr); ok {
		// Always use absolute shell path to avoid PATH dependency when Env is overridden.
		// #nosec G204
		return exec.Command("/bin/sh", "-c", afterC)
	}
	// Fallback: when metacharacters are present, use /bin/sh -c
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// ok: intentional execution, input is validated and safe
	// #nosec G204
	return exec.Command(name, args...)
}

// Detectors returns the liveness strategies for this spec, strongest
// first: pidfile (with PID-reuse guard), then command-line pattern.
func (s *Spec) Detectors() []detector.Detector {
	dets := make([]detector.Detector, 0, 2)
	if s.PIDFile != "" {
		dets = append(dets, detector.PIDFileDetector{PIDFile: s.PIDFile})
	}
	if s.Pattern != "" {
		dets = append(dets, detector.NameDetector{Pattern: s.Pattern})
	}
	return dets
}

// parseExplicitShell detects patterns like "sh -c <ARG>" or "/bin/sh -c <ARG>" at the
// beginning of cmdStr. It returns (shellPath, afterCArg, true) when matched.
// It preserves the substring after "-c " verbatim to avoid breaking quoting.
func parseExplicitShell(cmdStr string) (string, string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	candidates := []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "}
	for _, p := range candidates {
		if strings.HasPrefix(trim, p) {
			after := trim[len(p):]
			// If after is wrapped in single or double quotes, strip one pair so that
			// we pass the actual script to the shell (the outer quotes would otherwise
			// inhibit parsing/redirection inside the script).
			if n := len(after); n >= 2 {
				if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
					after = after[1 : n-1]
				}
			}
			return strings.Fields(p)[0], after, true
		}
	}
	return "", "", false
}
