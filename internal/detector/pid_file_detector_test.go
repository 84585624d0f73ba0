//go:build !windows

package detector

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writePIDFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "p.pid")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write pidfile: %v", err)
	}
	return path
}

func TestPIDFileDetectorAliveSelf(t *testing.T) {
	path := writePIDFile(t, fmt.Sprintf("%d\n", os.Getpid()))
	ok, err := PIDFileDetector{PIDFile: path}.Alive()
	if err != nil {
		t.Fatalf("Alive: %v", err)
	}
	if !ok {
		t.Fatalf("own pid should be alive")
	}
}

func TestPIDFileDetectorMissingFile(t *testing.T) {
	ok, err := PIDFileDetector{PIDFile: filepath.Join(t.TempDir(), "none.pid")}.Alive()
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if ok {
		t.Fatalf("missing file must report not alive")
	}
}

func TestPIDFileDetectorInvalidPID(t *testing.T) {
	path := writePIDFile(t, "not-a-pid\n")
	if _, err := (PIDFileDetector{PIDFile: path}).Alive(); err == nil {
		t.Fatalf("invalid pid should error")
	}
}

func TestPIDFileDetectorRejectsReusedPID(t *testing.T) {
	// Meta start time that cannot match the current process.
	path := writePIDFile(t, fmt.Sprintf("%d\n{\"start_unix\":1}\n", os.Getpid()))
	ok, err := PIDFileDetector{PIDFile: path}.Alive()
	if err != nil {
		t.Fatalf("Alive: %v", err)
	}
	if ok {
		t.Fatalf("mismatched start time must be treated as a recycled pid")
	}
}

func TestPIDFileDetectorMatchingMeta(t *testing.T) {
	start := getProcStartUnix(os.Getpid())
	if start == 0 {
		t.Skip("start time unavailable on this platform")
	}
	path := writePIDFile(t, fmt.Sprintf("%d\n{\"start_unix\":%d}\n", os.Getpid(), start))
	ok, err := PIDFileDetector{PIDFile: path}.Alive()
	if err != nil {
		t.Fatalf("Alive: %v", err)
	}
	if !ok {
		t.Fatalf("matching start time should be alive")
	}
}

func TestPIDDetector(t *testing.T) {
	if ok, _ := (PIDDetector{PID: os.Getpid()}).Alive(); !ok {
		t.Fatalf("own pid should be alive")
	}
	if ok, _ := (PIDDetector{PID: 0}).Alive(); ok {
		t.Fatalf("pid 0 must not be alive")
	}
}
