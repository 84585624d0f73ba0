package pkgmgr

import (
	"context"
	"fmt"

	"github.com/loykin/stackup/internal/runner"
)

// Manager describes a system package manager as update/install command
// templates executed through a runner.
type Manager struct {
	Name       string
	UpdateCmd  string // run once before installing, e.g. "apt-get update"
	InstallCmd string // install prefix; package name is appended
}

// known managers in detection order.
var known = []Manager{
	{Name: "apt", UpdateCmd: "apt-get update -y", InstallCmd: "apt-get install -y"},
	{Name: "dnf", UpdateCmd: "dnf makecache", InstallCmd: "dnf install -y"},
	{Name: "yum", UpdateCmd: "yum makecache", InstallCmd: "yum install -y"},
	{Name: "brew", UpdateCmd: "brew update", InstallCmd: "brew install"},
}

// lookPath is swappable for tests.
var lookPath = runner.LookPath

// Detect returns the first known package manager present on PATH.
func Detect() (Manager, error) {
	for _, m := range known {
		if lookPath(binaryOf(m)) {
			return m, nil
		}
	}
	return Manager{}, fmt.Errorf("no supported package manager found (tried apt-get, dnf, yum, brew)")
}

func binaryOf(m Manager) string {
	switch m.Name {
	case "apt":
		return "apt-get"
	default:
		return m.Name
	}
}

// Update refreshes the package index.
func (m Manager) Update(ctx context.Context, r runner.Runner) runner.Result {
	return r.Run(ctx, "pkg-update", m.UpdateCmd)
}

// Install installs a single system package.
func (m Manager) Install(ctx context.Context, r runner.Runner, pkg string) runner.Result {
	return r.Run(ctx, "install "+pkg, m.InstallCmd+" "+pkg)
}
