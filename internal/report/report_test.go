package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/loykin/stackup/internal/runner"
)

func TestFatalFor(t *testing.T) {
	for _, p := range []Phase{PhaseDeps, PhaseBrokers, PhaseWorker} {
		if !FatalFor(p) {
			t.Fatalf("%s should be fatal", p)
		}
	}
	if FatalFor(PhaseMonitor) {
		t.Fatalf("monitor phase must not be fatal")
	}
}

func TestAddFatalFailureReturnsError(t *testing.T) {
	r := New()
	err := r.Add(PhaseBrokers, runner.Result{Step: "install redis", Err: errors.New("boom"), Error: "boom"})
	if err == nil {
		t.Fatalf("fatal phase failure must return error")
	}
	if !r.Failed() {
		t.Fatalf("report should be failed")
	}
}

func TestAddMonitorFailureIsWarning(t *testing.T) {
	r := New()
	err := r.Add(PhaseMonitor, runner.Result{Step: "launch monitor", Err: errors.New("bind"), Error: "bind"})
	if err != nil {
		t.Fatalf("monitor failure must not abort: %v", err)
	}
	if r.Failed() {
		t.Fatalf("monitor failure must not mark the report failed")
	}
	if len(r.Warnings()) != 1 {
		t.Fatalf("expected one warning, got %d", len(r.Warnings()))
	}
}

func TestAddSuccess(t *testing.T) {
	r := New()
	if err := r.Add(PhaseDeps, runner.Result{Step: "deps-install"}); err != nil {
		t.Fatalf("success must not error: %v", err)
	}
	if r.Failed() || len(r.Warnings()) != 0 {
		t.Fatalf("clean report reported problems")
	}
	if len(r.Snapshot()) != 1 {
		t.Fatalf("entry not recorded")
	}
}

func TestStringRendersMarks(t *testing.T) {
	r := New()
	_ = r.Add(PhaseDeps, runner.Result{Step: "deps-install"})
	_ = r.Add(PhaseMonitor, runner.Result{Step: "launch monitor", Err: errors.New("bind"), Error: "bind"})
	out := r.String()
	if !strings.Contains(out, "ok") || !strings.Contains(out, "warn") {
		t.Fatalf("unexpected render:\n%s", out)
	}
}
