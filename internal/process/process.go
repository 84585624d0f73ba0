package process

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status is a point-in-time snapshot of a launched process.
type Status struct {
	Name       string    `json:"name"`
	Running    bool      `json:"running"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"started_at"`
	DetectedBy string    `json:"detected_by,omitempty"`
	LogFile    string    `json:"log_file,omitempty"`
}

// Process launches and releases a detached child described by a Spec.
// Unlike a supervisor, it does not wait on the child: the stack is
// fire-and-forget and ownership is recorded via pidfile and store.
type Process struct {
	spec   Spec
	mu     sync.Mutex
	pid    int
	closer io.WriteCloser
	start  time.Time
}

func New(spec Spec) *Process { return &Process{spec: spec} }

func (p *Process) Spec() Spec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spec
}

// Start spawns the child with mergedEnv, stdout+stderr combined into
// the spec's log file (passed as an inherited file descriptor),
// detached per spec, and writes the pidfile. The child is released
// immediately; it is not reaped by this process. A non-zero pid is
// returned alongside the error when the child started but the pidfile
// could not be written.
func (p *Process) Start(mergedEnv []string) (int, error) {
	p.mu.Lock()
	spec := p.spec
	p.mu.Unlock()

	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(mergedEnv) > 0 {
		cmd.Env = mergedEnv
	}
	configureSysProcAttr(cmd, spec)

	// The child must inherit a real descriptor: stdout/stderr piped
	// through this process stop working the moment it exits.
	if path := spec.Log.Filename(spec.Name); path != "" {
		f, err := spec.Log.OpenFile(spec.Name)
		if err != nil {
			return 0, fmt.Errorf("open log %s: %w", path, err)
		}
		cmd.Stdout = f
		cmd.Stderr = f
		p.mu.Lock()
		p.closer = f
		p.mu.Unlock()
	} else {
		null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		cmd.Stdout = null
		cmd.Stderr = null
		p.mu.Lock()
		p.closer = null
		p.mu.Unlock()
	}
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		p.CloseWriter()
		return 0, fmt.Errorf("start %s: %w", spec.Name, err)
	}
	pid := cmd.Process.Pid

	p.mu.Lock()
	p.pid = pid
	p.start = time.Now()
	p.mu.Unlock()

	pidErr := WritePIDFile(spec.PIDFile, pid)
	// Detached children are re-parented on our exit; drop the handle so
	// the launcher never blocks on them. The child keeps its own dup of
	// the log descriptor, so ours can go too.
	_ = cmd.Process.Release()
	p.CloseWriter()
	if pidErr != nil {
		return pid, fmt.Errorf("pidfile %s: %w", spec.PIDFile, pidErr)
	}
	return pid, nil
}

// CloseWriter closes the log writer owned by the launcher side. The
// child keeps its own descriptor; this only drops our duplicate.
func (p *Process) CloseWriter() {
	p.mu.Lock()
	if p.closer != nil {
		_ = p.closer.Close()
		p.closer = nil
	}
	p.mu.Unlock()
}

// Alive probes liveness via the spec's detectors.
func (p *Process) Alive() (bool, string) {
	spec := p.Spec()
	for _, d := range spec.Detectors() {
		ok, _ := d.Alive()
		if ok {
			return true, d.Describe()
		}
	}
	return false, ""
}

// Snapshot returns the current status, re-detecting liveness.
func (p *Process) Snapshot() Status {
	p.mu.Lock()
	spec := p.spec
	pid := p.pid
	started := p.start
	p.mu.Unlock()

	if pid == 0 {
		if filePID, _, err := ReadPIDFile(spec.PIDFile); err == nil {
			pid = filePID
		}
	}
	alive, by := p.Alive()
	return Status{
		Name:       spec.Name,
		Running:    alive,
		PID:        pid,
		StartedAt:  started,
		DetectedBy: by,
		LogFile:    spec.Log.Filename(spec.Name),
	}
}

// RemovePIDFile best-effort
func (p *Process) RemovePIDFile() {
	pidFile := p.Spec().PIDFile
	if pidFile == "" {
		return
	}
	_ = os.Remove(pidFile)
}

func ensureDir(path string) {
	if path == "" {
		return
	}
	_ = os.MkdirAll(filepath.Dir(path), 0o750)
}
