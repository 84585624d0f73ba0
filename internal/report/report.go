package report

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/loykin/stackup/internal/metrics"
	"github.com/loykin/stackup/internal/runner"
)

// Phase identifies one stage of the bootstrap run.
type Phase string

const (
	PhaseDeps    Phase = "deps"
	PhaseBrokers Phase = "brokers"
	PhaseWorker  Phase = "worker"
	PhaseMonitor Phase = "monitor"
)

// FatalFor reports whether a failure in the phase aborts the run.
// Dependencies and brokers are load-bearing, as is the worker itself;
// a missing monitor must not prevent the worker from running.
func FatalFor(p Phase) bool { return p != PhaseMonitor }

// Entry is one recorded step outcome.
type Entry struct {
	Phase  Phase         `json:"phase"`
	Result runner.Result `json:"result"`
	Fatal  bool          `json:"fatal"`
}

// Report collects step outcomes across phases. Safe for concurrent use.
type Report struct {
	mu        sync.Mutex
	StartedAt time.Time `json:"started_at"`
	Entries   []Entry   `json:"entries"`
}

func New() *Report {
	return &Report{StartedAt: time.Now()}
}

// Add records a result under the given phase and returns an error when
// the result failed and the phase is fatal, so callers can abort.
func (r *Report) Add(phase Phase, res runner.Result) error {
	r.mu.Lock()
	r.Entries = append(r.Entries, Entry{Phase: phase, Result: res, Fatal: FatalFor(phase)})
	r.mu.Unlock()
	metrics.IncStep(string(phase), res.OK())
	if !res.OK() && FatalFor(phase) {
		return fmt.Errorf("%s: %s: %w", phase, res.Step, res.Err)
	}
	return nil
}

// Snapshot returns a copy of the recorded entries.
func (r *Report) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.Entries))
	copy(out, r.Entries)
	return out
}

// Failed reports whether any fatal entry recorded a failure.
func (r *Report) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Entries {
		if e.Fatal && !e.Result.OK() {
			return true
		}
	}
	return false
}

// Warnings returns failed entries from non-fatal phases.
func (r *Report) Warnings() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.Entries {
		if !e.Fatal && !e.Result.OK() {
			out = append(out, e)
		}
	}
	return out
}

// String renders one line per step, suitable for the end-of-run summary.
func (r *Report) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	for _, e := range r.Entries {
		mark := "ok"
		if !e.Result.OK() {
			if e.Fatal {
				mark = "FAIL"
			} else {
				mark = "warn"
			}
		}
		fmt.Fprintf(&b, "%-8s %-24s %-4s %s\n", e.Phase, e.Result.Step, mark, e.Result.Duration.Round(time.Millisecond))
		if !e.Result.OK() {
			fmt.Fprintf(&b, "         %s: %s\n", e.Result.Command, e.Result.Error)
		}
	}
	return b.String()
}
