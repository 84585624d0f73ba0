package stackup

import (
	"context"
	"net/http"

	"github.com/loykin/stackup/internal/bootstrap"
	cfg "github.com/loykin/stackup/internal/config"
	"github.com/loykin/stackup/internal/metrics"
	"github.com/loykin/stackup/internal/process"
	"github.com/loykin/stackup/internal/report"
	iapi "github.com/loykin/stackup/internal/server"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type ProcessStatus = process.Status

type StackStatus = bootstrap.StackStatus

type ReportEntry = report.Entry

// Stack is a thin facade over the internal orchestrator. It provides a
// stable public API for embedding the bootstrap in other programs.
type Stack struct{ inner *bootstrap.Orchestrator }

// DefaultConfig returns the stock Redis + RabbitMQ + celery/flower setup.
func DefaultConfig() *Config { return cfg.Default() }

// LoadConfig reads a TOML config, overlaying it on the defaults.
func LoadConfig(path string, required bool) (*Config, error) { return cfg.Load(path, required) }

// New wires a Stack against the host: exec runner, systemd, and the
// configured ownership store.
func New(c *Config) (*Stack, error) {
	o, err := bootstrap.New(c)
	if err != nil {
		return nil, err
	}
	return &Stack{inner: o}, nil
}

func (s *Stack) Close() { s.inner.Close() }

func (s *Stack) Up(ctx context.Context) error               { return s.inner.Up(ctx) }
func (s *Stack) InstallDeps(ctx context.Context) error      { return s.inner.InstallDeps(ctx) }
func (s *Stack) BootstrapBrokers(ctx context.Context) error { return s.inner.BootstrapBrokers(ctx) }
func (s *Stack) LaunchWorker(ctx context.Context) error     { return s.inner.LaunchWorker(ctx) }
func (s *Stack) LaunchMonitor(ctx context.Context) error    { return s.inner.LaunchMonitor(ctx) }
func (s *Stack) StopWorker(ctx context.Context) error       { return s.inner.StopWorker(ctx) }
func (s *Stack) StopMonitor(ctx context.Context) error      { return s.inner.StopMonitor(ctx) }
func (s *Stack) Down(ctx context.Context) error             { return s.inner.Down(ctx) }
func (s *Stack) Status(ctx context.Context) StackStatus     { return s.inner.Status(ctx) }

// Report returns the step results recorded so far.
func (s *Stack) Report() []ReportEntry { return s.inner.Report.Snapshot() }

// ReportFailed reports whether any fatal step failed.
func (s *Stack) ReportFailed() bool { return s.inner.Report.Failed() }

// ReportString renders the end-of-run summary.
func (s *Stack) ReportString() string { return s.inner.Report.String() }

// NewHTTPServer starts an HTTP server exposing the status API for the given stack.
func NewHTTPServer(addr, basePath string, s *Stack) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, s.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
