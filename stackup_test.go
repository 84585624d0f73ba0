//go:build !windows

package stackup

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestFacadeWorkerLifecycle(t *testing.T) {
	dir := t.TempDir()
	c := DefaultConfig()
	c.Store.Path = "" // in-memory
	c.Worker.Command = "sleep 7361"
	c.Worker.Pattern = "sleep 7361"
	c.Worker.PIDFile = filepath.Join(dir, "worker.pid")
	c.Worker.LogFile = filepath.Join(dir, "worker.log")
	c.Worker.StopWait = 2 * time.Second

	s, err := New(c)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	defer func() { _ = s.StopWorker(ctx) }()

	if err := s.LaunchWorker(ctx); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if s.ReportFailed() {
		t.Fatalf("report failed:\n%s", s.ReportString())
	}
	if len(s.Report()) == 0 {
		t.Fatalf("expected a recorded launch entry")
	}

	st := s.Status(ctx)
	if !st.Worker.Running {
		t.Fatalf("worker should be running: %+v", st.Worker)
	}

	if err := s.StopWorker(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s.Status(ctx).Worker.Running {
		t.Fatalf("worker should be stopped")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Worker.App != "celery_app" || c.Monitor.Port != 5555 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}
