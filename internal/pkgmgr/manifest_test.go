package pkgmgr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loykin/stackup/internal/runner"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestPackagesParsing(t *testing.T) {
	path := writeManifest(t, "celery==5.3.6\nredis>=4.5  # broker client\n\n# comment only\nflower\n")
	ins := Installer{Manifest: path, Command: "pip install -r"}
	pkgs, err := ins.Packages()
	if err != nil {
		t.Fatalf("packages: %v", err)
	}
	want := []string{"celery==5.3.6", "redis>=4.5", "flower"}
	if len(pkgs) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), pkgs)
	}
	for i := range want {
		if pkgs[i] != want[i] {
			t.Fatalf("entry %d: %q != %q", i, pkgs[i], want[i])
		}
	}
}

func TestPackagesMissingManifest(t *testing.T) {
	ins := Installer{Manifest: filepath.Join(t.TempDir(), "nope.txt"), Command: "pip install -r"}
	_, err := ins.Packages()
	if err == nil || !strings.Contains(err.Error(), "manifest missing") {
		t.Fatalf("expected typed missing error, got %v", err)
	}
}

func TestRunInvokesInstallerOnce(t *testing.T) {
	path := writeManifest(t, "celery\nredis\nflower\n")
	ins := Installer{Manifest: path, Command: "pip install -r"}

	var calls []string
	rec := runner.Func(func(_ context.Context, step, command string) runner.Result {
		calls = append(calls, command)
		return runner.Result{Step: step, Command: command}
	})

	res := ins.Run(context.Background(), rec)
	if !res.OK() {
		t.Fatalf("run failed: %v", res.Err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected a single install invocation, got %d", len(calls))
	}
	if calls[0] != "pip install -r "+path {
		t.Fatalf("unexpected command: %q", calls[0])
	}

	// Re-running is harmless: same single invocation, no extra state.
	_ = ins.Run(context.Background(), rec)
	if len(calls) != 2 {
		t.Fatalf("second run should invoke the installer again, got %d calls", len(calls))
	}
}

func TestRunEmptyManifest(t *testing.T) {
	path := writeManifest(t, "# nothing pinned yet\n")
	ins := Installer{Manifest: path, Command: "pip install -r"}

	called := false
	rec := runner.Func(func(_ context.Context, _, _ string) runner.Result {
		called = true
		return runner.Result{}
	})
	res := ins.Run(context.Background(), rec)
	if !res.OK() {
		t.Fatalf("empty manifest must succeed: %v", res.Err)
	}
	if called {
		t.Fatalf("empty manifest must not invoke the installer")
	}
	if !strings.Contains(res.Output, "nothing to install") {
		t.Fatalf("unexpected output: %q", res.Output)
	}
}

func TestRunMissingManifestFails(t *testing.T) {
	ins := Installer{Manifest: filepath.Join(t.TempDir(), "gone.txt"), Command: "pip install -r"}
	res := ins.Run(context.Background(), runner.Func(func(_ context.Context, _, _ string) runner.Result {
		t.Fatalf("installer must not run without a manifest")
		return runner.Result{}
	}))
	if res.OK() {
		t.Fatalf("expected failure result")
	}
	if !strings.Contains(res.Error, "manifest missing") {
		t.Fatalf("unexpected error: %q", res.Error)
	}
}
