package broker

import (
	"context"
	"log/slog"

	"github.com/loykin/stackup/internal/detector"
	"github.com/loykin/stackup/internal/metrics"
	"github.com/loykin/stackup/internal/pkgmgr"
	"github.com/loykin/stackup/internal/report"
	"github.com/loykin/stackup/internal/runner"
	"github.com/loykin/stackup/internal/service"
)

// Bootstrapper drives each broker through the explicit state machine
// {absent, installed-stopped, running}. Transitions are triggered only
// by Bootstrap calls; nothing is reinstalled when a stopped
// installation merely needs starting.
type Bootstrapper struct {
	Pkg    pkgmgr.Manager
	Runner runner.Runner
	Svc    service.Manager
	Report *report.Report

	// LookPath and Alive are swappable for tests.
	LookPath func(bin string) bool
	Alive    func(ctx context.Context, b Broker) bool
}

func NewBootstrapper(pkg pkgmgr.Manager, r runner.Runner, svc service.Manager, rep *report.Report) *Bootstrapper {
	bs := &Bootstrapper{Pkg: pkg, Runner: r, Svc: svc, Report: rep}
	bs.LookPath = runner.LookPath
	bs.Alive = bs.detectAlive
	return bs
}

// StateOf classifies the broker's current lifecycle state.
func (bs *Bootstrapper) StateOf(ctx context.Context, b Broker) service.State {
	if !bs.LookPath(b.Binary) {
		return service.StateAbsent
	}
	if bs.Alive(ctx, b) {
		return service.StateRunning
	}
	return service.StateInstalledStopped
}

// Bootstrap transitions the broker to running. It returns an error as
// soon as a step fails; broker failures are fatal to the run.
func (bs *Bootstrapper) Bootstrap(ctx context.Context, b Broker) error {
	state := bs.StateOf(ctx, b)
	metrics.SetBrokerState(b.Name, string(state))
	log := slog.With("broker", b.Name, "state", string(state))

	switch state {
	case service.StateRunning:
		log.Info("broker already running")
		return bs.Report.Add(report.PhaseBrokers, runner.Result{
			Step:   "broker " + b.Name,
			Output: "already running",
		})

	case service.StateInstalledStopped:
		log.Info("broker installed but stopped, starting")
		if err := bs.startAndEnable(ctx, b); err != nil {
			return err
		}

	case service.StateAbsent:
		log.Info("broker absent, installing")
		if err := bs.Report.Add(report.PhaseBrokers, bs.Pkg.Update(ctx, bs.Runner)); err != nil {
			return err
		}
		if err := bs.Report.Add(report.PhaseBrokers, bs.Pkg.Install(ctx, bs.Runner, b.Package)); err != nil {
			return err
		}
		if err := bs.startAndEnable(ctx, b); err != nil {
			return err
		}
		if err := bs.enablePlugins(ctx, b); err != nil {
			return err
		}
	}

	metrics.SetBrokerState(b.Name, string(service.StateRunning))
	return nil
}

func (bs *Bootstrapper) startAndEnable(ctx context.Context, b Broker) error {
	if err := bs.Report.Add(report.PhaseBrokers, bs.Svc.Start(ctx, b.Service)); err != nil {
		return err
	}
	return bs.Report.Add(report.PhaseBrokers, bs.Svc.Enable(ctx, b.Service))
}

func (bs *Bootstrapper) enablePlugins(ctx context.Context, b Broker) error {
	if len(b.Plugins) == 0 {
		return nil
	}
	tool := b.PluginTool
	if tool == "" {
		tool = b.Name + "-plugins"
	}
	for _, p := range b.Plugins {
		res := bs.Runner.Run(ctx, "plugin-enable "+p, tool+" enable "+p)
		if err := bs.Report.Add(report.PhaseBrokers, res); err != nil {
			return err
		}
	}
	if b.AdminWarning != "" {
		slog.Warn(b.AdminWarning, "broker", b.Name)
	}
	return nil
}

// detectAlive probes broker liveness: explicit check command when
// configured, otherwise the service manager, then a process scan.
func (bs *Bootstrapper) detectAlive(ctx context.Context, b Broker) bool {
	if b.CheckCommand != "" {
		ok, _ := detector.CommandDetector{Command: b.CheckCommand}.Alive()
		return ok
	}
	if bs.Svc != nil && bs.Svc.IsActive(ctx, b.Service) {
		return true
	}
	ok, _ := detector.NameDetector{Pattern: b.Binary}.Alive()
	return ok
}
