package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Manifest != "requirements.txt" || cfg.Installer != "pip install -r" {
		t.Fatalf("unexpected installer defaults: %+v", cfg)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Path != "stackup.db" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if len(cfg.Brokers) != 2 {
		t.Fatalf("expected the stock broker pair, got %d", len(cfg.Brokers))
	}
	if cfg.Monitor.Port != 5555 || cfg.Server.Listen != ":8555" {
		t.Fatalf("unexpected port defaults: %+v", cfg)
	}
}

func TestLoadMissingOptional(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"), false)
	if err != nil {
		t.Fatalf("optional missing config must fall back to defaults: %v", err)
	}
	if cfg.Worker.App != "celery_app" {
		t.Fatalf("defaults not applied: %+v", cfg.Worker)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml"), true); err == nil {
		t.Fatalf("explicitly requested config must exist")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackup.toml")
	body := `
manifest = "deps/requirements.txt"
env = ["CELERY_BROKER_URL=redis://localhost:6379/0"]

[worker]
app = "tasks"
pool = "prefork"
concurrency = 4
queues = ["default", "emails"]

[monitor]
port = 6600

[store]
type = "sqlite"
path = "state/stackup.db"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Manifest != "deps/requirements.txt" {
		t.Fatalf("manifest not overlaid: %q", cfg.Manifest)
	}
	if cfg.Worker.App != "tasks" || cfg.Worker.Concurrency != 4 {
		t.Fatalf("worker not overlaid: %+v", cfg.Worker)
	}
	// Values absent from the file keep their defaults.
	if cfg.Worker.LogLevel != "info" || cfg.Installer != "pip install -r" {
		t.Fatalf("defaults lost during overlay: %+v", cfg)
	}
	if cfg.Monitor.Port != 6600 {
		t.Fatalf("monitor port not overlaid: %d", cfg.Monitor.Port)
	}
	if len(cfg.Brokers) != 2 {
		t.Fatalf("broker defaults should survive when the file lists none")
	}
}

func TestWorkerSpecComposition(t *testing.T) {
	cfg := Default()
	cfg.Worker.App = "tasks"
	cfg.Worker.Pool = "prefork"
	cfg.Worker.Concurrency = 2
	cfg.Worker.Queues = []string{"default", "emails"}

	spec := cfg.WorkerSpec()
	want := "celery -A tasks worker --pool=prefork --loglevel=info --concurrency=2 -Q default,emails"
	if spec.Command != want {
		t.Fatalf("command:\n got %q\nwant %q", spec.Command, want)
	}
	if spec.Pattern != "-A tasks worker" {
		t.Fatalf("pattern: %q", spec.Pattern)
	}
	if !spec.Detached || spec.Name != "worker" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if spec.Log.Filename(spec.Name) != "celery.log" {
		t.Fatalf("log file: %q", spec.Log.Filename(spec.Name))
	}
}

func TestWorkerSpecCommandOverride(t *testing.T) {
	cfg := Default()
	cfg.Worker.Command = "sleep 30"
	cfg.Worker.Pattern = "sleep 30"
	spec := cfg.WorkerSpec()
	if spec.Command != "sleep 30" || spec.Pattern != "sleep 30" {
		t.Fatalf("override ignored: %+v", spec)
	}
}

func TestMonitorSpecComposition(t *testing.T) {
	cfg := Default()
	spec := cfg.MonitorSpec()
	if spec.Command != "celery -A celery_app flower --port=5555" {
		t.Fatalf("command: %q", spec.Command)
	}
	if spec.Pattern != "-A celery_app flower" {
		t.Fatalf("pattern: %q", spec.Pattern)
	}
	if spec.Log.Filename(spec.Name) != "flower.log" {
		t.Fatalf("log file: %q", spec.Log.Filename(spec.Name))
	}
}
