package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/stackup/internal/detector"
	"github.com/loykin/stackup/internal/env"
	"github.com/loykin/stackup/internal/metrics"
	"github.com/loykin/stackup/internal/process"
	"github.com/loykin/stackup/internal/report"
	"github.com/loykin/stackup/internal/runner"
	"github.com/loykin/stackup/internal/store"
)

const DefaultStopWait = 5 * time.Second

// Launcher starts and stops the worker and monitor processes. Each
// launch is guarded: the previously recorded instance is terminated by
// its owned PID before a new one starts, so at most one instance of a
// given name is ever alive. The guard applies to worker and monitor
// alike.
type Launcher struct {
	Store    store.Store
	Report   *report.Report
	Env      *env.Env
	StopWait time.Duration

	// stopPID is swappable for tests.
	stopPID func(pid int, wait time.Duration) error
}

func New(st store.Store, rep *report.Report, e *env.Env) *Launcher {
	return &Launcher{
		Store:    st,
		Report:   rep,
		Env:      e,
		StopWait: DefaultStopWait,
		stopPID:  process.StopPID,
	}
}

// Launch ensures no prior instance survives, then spawns the process
// described by spec, records ownership, and reports the step under
// phase. The returned error is nil for non-fatal phases even when the
// launch failed; the report carries the failure.
func (l *Launcher) Launch(ctx context.Context, phase report.Phase, spec process.Spec) (process.Status, error) {
	if err := l.stopExisting(ctx, spec); err != nil {
		res := runner.Result{Step: "guard " + spec.Name, Command: spec.Command, Err: err, Error: err.Error()}
		return process.Status{}, l.Report.Add(phase, res)
	}

	p := process.New(spec)
	started := time.Now()
	pid, err := p.Start(l.mergedEnv(spec))
	res := runner.Result{Step: "launch " + spec.Name, Command: spec.Command, Duration: time.Since(started)}
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		if pid > 0 {
			// The child is up; only the pidfile failed. Record it so a
			// later stop still owns it rather than leaking it.
			l.record(ctx, spec.Name, pid, "started")
			metrics.SetProcessUp(spec.Name, true)
		} else {
			metrics.SetProcessUp(spec.Name, false)
		}
		return process.Status{}, l.Report.Add(phase, res)
	}
	if addErr := l.Report.Add(phase, res); addErr != nil {
		return process.Status{}, addErr
	}

	l.record(ctx, spec.Name, pid, "started")
	metrics.IncLaunch(spec.Name)
	metrics.SetProcessUp(spec.Name, true)
	slog.Info("process launched", "name", spec.Name, "pid", pid, "log", spec.Log.Filename(spec.Name))
	return p.Snapshot(), nil
}

// Stop terminates the owned instance of spec, if any.
func (l *Launcher) Stop(ctx context.Context, spec process.Spec) error {
	return l.stopExisting(ctx, spec)
}

// Status reports liveness of the named process from its detectors and
// last recorded ownership. When the pidfile and pattern both miss, the
// store-recorded PID is probed directly, so a deleted pidfile does not
// hide a process we know we started.
func (l *Launcher) Status(ctx context.Context, spec process.Spec) process.Status {
	st := process.New(spec).Snapshot()
	if rec, err := l.Store.GetByName(ctx, spec.Name); err == nil {
		if st.PID == 0 {
			st.PID = rec.PID
		}
		if !st.Running && rec.LastStatus == "started" && owned(rec.PID, rec.StartUnix) {
			d := detector.PIDDetector{PID: rec.PID}
			if ok, _ := d.Alive(); ok {
				st.Running = true
				st.PID = rec.PID
				st.DetectedBy = d.Describe()
			}
		}
	}
	metrics.SetProcessUp(spec.Name, st.Running)
	return st
}

// stopExisting terminates any previously recorded instance: first by
// the store record, then by the pidfile, and only as a warned fallback
// by a command-line pattern scan (for stacks started before ownership
// tracking existed).
func (l *Launcher) stopExisting(ctx context.Context, spec process.Spec) error {
	stopWait := l.StopWait
	if stopWait <= 0 {
		stopWait = DefaultStopWait
	}

	recorded := false
	if rec, err := l.Store.GetByName(ctx, spec.Name); err == nil && rec.PID > 0 {
		recorded = true
		if owned(rec.PID, rec.StartUnix) {
			if err := l.terminate(spec.Name, rec.PID, stopWait); err != nil {
				return err
			}
		}
		l.record(ctx, spec.Name, rec.PID, "stopped")
	} else if err != nil && err != store.ErrNotFound {
		slog.Warn("ownership store lookup failed", "name", spec.Name, "error", err)
	}

	if spec.PIDFile != "" {
		if pid, meta, err := process.ReadPIDFile(spec.PIDFile); err == nil && pid > 0 {
			recorded = true
			start := int64(0)
			if meta != nil {
				start = meta.StartUnix
			}
			if owned(pid, start) {
				if err := l.terminate(spec.Name, pid, stopWait); err != nil {
					return err
				}
			}
		}
		process.New(spec).RemovePIDFile()
	}

	// Last resort, and only when no ownership record exists at all:
	// inherited from the old pattern-kill behavior, kept for takeover
	// of unrecorded processes and always warned. With a record present
	// the scan is skipped so unrelated matches are never signalled.
	if spec.Pattern != "" && !recorded {
		pids, err := detector.FindByPattern(spec.Pattern, nil)
		if err != nil {
			return fmt.Errorf("pattern scan %q: %w", spec.Pattern, err)
		}
		for _, pid := range pids {
			slog.Warn("terminating unrecorded process matched by pattern",
				"name", spec.Name, "pattern", spec.Pattern, "pid", pid)
			if err := l.terminate(spec.Name, int(pid), stopWait); err != nil {
				return err
			}
		}
	}
	metrics.SetProcessUp(spec.Name, false)
	return nil
}

func (l *Launcher) terminate(name string, pid int, wait time.Duration) error {
	stop := l.stopPID
	if stop == nil {
		stop = process.StopPID
	}
	if err := stop(pid, wait); err != nil {
		return fmt.Errorf("stop %s (pid %d): %w", name, pid, err)
	}
	metrics.IncTermination(name)
	slog.Info("process stopped", "name", name, "pid", pid)
	return nil
}

func (l *Launcher) record(ctx context.Context, name string, pid int, status string) {
	rec := store.Record{
		Name:       name,
		PID:        pid,
		StartUnix:  detector.ProcStartUnix(pid),
		LastStatus: status,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := l.Store.Record(ctx, rec); err != nil {
		slog.Warn("ownership store update failed", "name", name, "error", err)
	}
}

func (l *Launcher) mergedEnv(spec process.Spec) []string {
	if l.Env == nil {
		return spec.Env
	}
	return l.Env.Merge(spec.Env)
}

// owned verifies the PID still refers to the process we recorded:
// alive, and with a matching kernel start time when one was captured.
func owned(pid int, startUnix int64) bool {
	if !detector.PIDAlive(pid) {
		return false
	}
	if startUnix > 0 {
		if cur := detector.ProcStartUnix(pid); cur > 0 && cur != startUnix {
			return false // PID recycled by an unrelated process
		}
	}
	return true
}
