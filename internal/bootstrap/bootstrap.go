package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loykin/stackup/internal/broker"
	"github.com/loykin/stackup/internal/config"
	"github.com/loykin/stackup/internal/env"
	"github.com/loykin/stackup/internal/launcher"
	"github.com/loykin/stackup/internal/pkgmgr"
	"github.com/loykin/stackup/internal/process"
	"github.com/loykin/stackup/internal/report"
	"github.com/loykin/stackup/internal/runner"
	"github.com/loykin/stackup/internal/service"
	"github.com/loykin/stackup/internal/store"
)

// Orchestrator sequences the four bootstrap phases: dependency
// install, broker bootstrap, worker launch, monitor launch. Control
// flow is linear; the only concurrency it leaves behind is the two
// detached processes.
type Orchestrator struct {
	Cfg      *config.Config
	Runner   runner.Runner
	Svc      service.Manager
	Store    store.Store
	Report   *report.Report
	Launcher *launcher.Launcher

	detectPkg  func() (pkgmgr.Manager, error)
	brokerHook func(*broker.Bootstrapper) // test seam for liveness/presence probes
}

// New wires an orchestrator from config with host implementations:
// exec runner, systemd, and the configured ownership store.
func New(cfg *config.Config) (*Orchestrator, error) {
	st, err := store.CreateStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.EnsureSchema(context.Background()); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("store schema: %w", err)
	}
	r := runner.ExecRunner{}
	e := env.New()
	e.FromOS()
	rep := report.New()
	l := launcher.New(st, rep, e)
	if cfg.Worker.StopWait > 0 {
		l.StopWait = cfg.Worker.StopWait
	}
	return &Orchestrator{
		Cfg:       cfg,
		Runner:    r,
		Svc:       service.NewSystemd(r),
		Store:     st,
		Report:    rep,
		Launcher:  l,
		detectPkg: pkgmgr.Detect,
	}, nil
}

func (o *Orchestrator) Close() {
	if o.Store != nil {
		_ = o.Store.Close()
	}
}

// InstallDeps runs phase 1. Fatal on manifest or installer failure.
func (o *Orchestrator) InstallDeps(ctx context.Context) error {
	inst := pkgmgr.Installer{Manifest: o.Cfg.Manifest, Command: o.Cfg.Installer}
	pkgs, err := inst.Packages()
	if err != nil {
		res := runner.Result{Step: "deps-install", Command: o.Cfg.Manifest, Err: err, Error: err.Error()}
		return o.Report.Add(report.PhaseDeps, res)
	}
	slog.Info("installing dependencies", "manifest", o.Cfg.Manifest, "count", len(pkgs))
	return o.Report.Add(report.PhaseDeps, inst.Run(ctx, o.Runner))
}

// BootstrapBrokers runs phase 2. Fatal on any broker step failure.
func (o *Orchestrator) BootstrapBrokers(ctx context.Context) error {
	pkg, perr := o.detectPkg()
	bs := broker.NewBootstrapper(pkg, o.Runner, o.Svc, o.Report)
	if o.brokerHook != nil {
		o.brokerHook(bs)
	}
	for _, b := range o.Cfg.Brokers {
		if perr != nil && bs.StateOf(ctx, b) == service.StateAbsent {
			res := runner.Result{Step: "broker " + b.Name, Command: b.Package, Err: perr, Error: perr.Error()}
			return o.Report.Add(report.PhaseBrokers, res)
		}
		if err := bs.Bootstrap(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// LaunchWorker runs phase 3. Fatal on failure.
func (o *Orchestrator) LaunchWorker(ctx context.Context) error {
	_, err := o.Launcher.Launch(ctx, report.PhaseWorker, o.Cfg.WorkerSpec())
	return err
}

// LaunchMonitor runs phase 4. Failures are recorded as warnings; the
// worker keeps running without its dashboard.
func (o *Orchestrator) LaunchMonitor(ctx context.Context) error {
	_, err := o.Launcher.Launch(ctx, report.PhaseMonitor, o.Cfg.MonitorSpec())
	if err == nil {
		for _, w := range o.Report.Warnings() {
			slog.Warn("monitor launch degraded", "step", w.Result.Step, "error", w.Result.Error)
		}
	}
	return err
}

// Up runs all four phases in order, stopping at the first fatal error.
func (o *Orchestrator) Up(ctx context.Context) error {
	if err := o.InstallDeps(ctx); err != nil {
		return err
	}
	if err := o.BootstrapBrokers(ctx); err != nil {
		return err
	}
	if err := o.LaunchWorker(ctx); err != nil {
		return err
	}
	return o.LaunchMonitor(ctx)
}

// StopWorker stops only the owned worker process.
func (o *Orchestrator) StopWorker(ctx context.Context) error {
	return o.Launcher.Stop(ctx, o.Cfg.WorkerSpec())
}

// StopMonitor stops only the owned monitor process.
func (o *Orchestrator) StopMonitor(ctx context.Context) error {
	return o.Launcher.Stop(ctx, o.Cfg.MonitorSpec())
}

// Down stops the owned worker and monitor. Brokers stay with the
// service manager.
func (o *Orchestrator) Down(ctx context.Context) error {
	var firstErr error
	for _, spec := range []process.Spec{o.Cfg.MonitorSpec(), o.Cfg.WorkerSpec()} {
		if err := o.Launcher.Stop(ctx, spec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StackStatus is the full observable state of the stack.
type StackStatus struct {
	Brokers []BrokerStatus `json:"brokers"`
	Worker  process.Status `json:"worker"`
	Monitor process.Status `json:"monitor"`
}

type BrokerStatus struct {
	Name  string        `json:"name"`
	State service.State `json:"state"`
}

// Status inspects brokers and launched processes without mutating anything.
func (o *Orchestrator) Status(ctx context.Context) StackStatus {
	var pkg pkgmgr.Manager
	if o.detectPkg != nil {
		pkg, _ = o.detectPkg()
	}
	bs := broker.NewBootstrapper(pkg, o.Runner, o.Svc, o.Report)
	if o.brokerHook != nil {
		o.brokerHook(bs)
	}
	out := StackStatus{}
	for _, b := range o.Cfg.Brokers {
		out.Brokers = append(out.Brokers, BrokerStatus{Name: b.Name, State: bs.StateOf(ctx, b)})
	}
	out.Worker = o.Launcher.Status(ctx, o.Cfg.WorkerSpec())
	out.Monitor = o.Launcher.Status(ctx, o.Cfg.MonitorSpec())
	return out
}
