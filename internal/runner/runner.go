package runner

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Result is the outcome of one external command.
type Result struct {
	Step     string        `json:"step"`
	Command  string        `json:"command"`
	Output   string        `json:"output,omitempty"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the command completed without error.
func (r Result) OK() bool { return r.Err == nil }

// Runner executes external commands and reports typed results.
// Implementations must be safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, step, command string) Result
}

// Func adapts a function to the Runner interface; used by tests to
// record invocations without spawning processes.
type Func func(ctx context.Context, step, command string) Result

func (f Func) Run(ctx context.Context, step, command string) Result {
	return f(ctx, step, command)
}

// ExecRunner runs commands on the host via os/exec.
type ExecRunner struct {
	Env []string // optional environment; nil inherits the parent's
}

func (e ExecRunner) Run(ctx context.Context, step, command string) Result {
	start := time.Now()
	cmd := buildShellAwareCommand(ctx, command)
	if len(e.Env) > 0 {
		cmd.Env = e.Env
	}
	out, err := cmd.CombinedOutput()
	res := Result{
		Step:     step,
		Command:  command,
		Output:   strings.TrimSpace(string(out)),
		Err:      err,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// buildShellAwareCommand constructs an *exec.Cmd for a command string.
// Avoids invoking a shell unless obvious shell metacharacters are present (G204 mitigation).
func buildShellAwareCommand(ctx context.Context, cmdStr string) *exec.Cmd {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		// #nosec G204
		return exec.CommandContext(ctx, "/bin/true")
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.CommandContext(ctx, "/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.CommandContext(ctx, name, args...)
}

// LookPath reports whether the named executable is discoverable on PATH.
func LookPath(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}
