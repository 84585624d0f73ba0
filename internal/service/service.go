package service

import (
	"context"

	"github.com/loykin/stackup/internal/runner"
)

// State is the explicit lifecycle position of a system service.
type State string

const (
	StateAbsent           State = "absent"            // binary not installed
	StateInstalledStopped State = "installed-stopped" // installed, not running
	StateRunning          State = "running"
)

// Manager abstracts the OS service manager so bootstrapping can be
// tested without systemd.
type Manager interface {
	Start(ctx context.Context, name string) runner.Result
	Enable(ctx context.Context, name string) runner.Result
	IsActive(ctx context.Context, name string) bool
}

// Systemd drives services via systemctl.
type Systemd struct {
	Runner runner.Runner
}

func NewSystemd(r runner.Runner) Systemd { return Systemd{Runner: r} }

func (s Systemd) Start(ctx context.Context, name string) runner.Result {
	return s.Runner.Run(ctx, "service-start "+name, "systemctl start "+name)
}

func (s Systemd) Enable(ctx context.Context, name string) runner.Result {
	return s.Runner.Run(ctx, "service-enable "+name, "systemctl enable "+name)
}

func (s Systemd) IsActive(ctx context.Context, name string) bool {
	res := s.Runner.Run(ctx, "service-is-active "+name, "systemctl is-active --quiet "+name)
	return res.OK()
}
