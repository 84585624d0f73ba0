package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/loykin/stackup/internal/runner"
)

// Installer installs language-runtime dependencies from a manifest
// (one package specifier per line, '#' starts a comment).
type Installer struct {
	Manifest string // manifest path, e.g. requirements.txt
	Command  string // install command prefix, e.g. "pip install -r"
}

// Packages parses the manifest and returns its package specifiers.
// A missing manifest is a fatal, typed error.
func (i Installer) Packages() ([]string, error) {
	b, err := os.ReadFile(i.Manifest)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest missing: %s", i.Manifest)
		}
		return nil, err
	}
	var pkgs []string
	for _, line := range strings.Split(string(b), "\n") {
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pkgs = append(pkgs, line)
	}
	return pkgs, nil
}

// Run validates the manifest and performs a single install invocation
// covering every listed dependency. Re-running re-resolves but has no
// further side effects (the underlying installer is idempotent).
func (i Installer) Run(ctx context.Context, r runner.Runner) runner.Result {
	pkgs, err := i.Packages()
	if err != nil {
		return runner.Result{Step: "deps-install", Command: i.command(), Err: err, Error: err.Error()}
	}
	if len(pkgs) == 0 {
		return runner.Result{Step: "deps-install", Command: i.command(), Output: "manifest empty, nothing to install"}
	}
	return r.Run(ctx, "deps-install", i.command())
}

func (i Installer) command() string {
	return strings.TrimSpace(i.Command) + " " + i.Manifest
}
