package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/loykin/stackup"
	"github.com/loykin/stackup/internal/logger"
	"github.com/spf13/cobra"
)

// command bundles the global flags with helpers shared by subcommands.
type command struct {
	flags *GlobalFlags
}

func buildRoot() *cobra.Command {
	flags := &GlobalFlags{}
	c := command{flags: flags}

	root := &cobra.Command{
		Use:   "stackup",
		Short: "Provision and launch a background job-processing stack",
		Long: "stackup installs the declared dependencies, bootstraps the Redis and RabbitMQ\n" +
			"brokers, and launches the task worker and monitoring dashboard as detached,\n" +
			"ownership-tracked processes.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			flags.configSet = cmd.Flags().Changed("config")
			logger.Setup(flags.logLevel())
		},
	}
	flags.register(root)

	root.AddCommand(
		c.newUpCmd(),
		c.newDepsCmd(),
		c.newBrokersCmd(),
		c.newWorkerCmd(),
		c.newMonitorCmd(),
		c.newStatusCmd(),
		c.newDownCmd(),
		c.newServeCmd(),
	)
	return root
}

// openStack loads config and wires a Stack; callers must Close it.
func (c command) openStack() (*stackup.Stack, error) {
	cfg, err := stackup.LoadConfig(c.flags.ConfigPath, c.flags.configSet)
	if err != nil {
		return nil, err
	}
	return stackup.New(cfg)
}

// runPhase executes fn against a freshly wired stack and prints the
// step report. The process exits non-zero when a fatal step failed.
func (c command) runPhase(fn func(ctx context.Context, st *stackup.Stack) error) error {
	st, err := c.openStack()
	if err != nil {
		return err
	}
	defer st.Close()
	_ = stackup.RegisterMetricsDefault()

	runErr := fn(context.Background(), st)
	if out := st.ReportString(); out != "" {
		fmt.Print(out)
	}
	if runErr != nil {
		return runErr
	}
	if st.ReportFailed() {
		return fmt.Errorf("bootstrap failed, see report above")
	}
	return nil
}

func (c command) newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all phases: deps, brokers, worker, monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPhase(func(ctx context.Context, st *stackup.Stack) error {
				return st.Up(ctx)
			})
		},
	}
}

func (c command) newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Install dependencies from the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPhase(func(ctx context.Context, st *stackup.Stack) error {
				return st.InstallDeps(ctx)
			})
		},
	}
}

func (c command) newBrokersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brokers",
		Short: "Install, start and enable the broker services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPhase(func(ctx context.Context, st *stackup.Stack) error {
				return st.BootstrapBrokers(ctx)
			})
		},
	}
}

func (c command) newWorkerCmd() *cobra.Command {
	worker := &cobra.Command{
		Use:   "worker",
		Short: "Manage the task worker process",
	}
	worker.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Launch the worker (stopping any prior instance)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runPhase(func(ctx context.Context, st *stackup.Stack) error {
					return st.LaunchWorker(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the owned worker process",
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := c.openStack()
				if err != nil {
					return err
				}
				defer st.Close()
				return st.StopWorker(context.Background())
			},
		},
	)
	return worker
}

func (c command) newMonitorCmd() *cobra.Command {
	monitor := &cobra.Command{
		Use:   "monitor",
		Short: "Manage the monitoring dashboard process",
	}
	monitor.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Launch the dashboard (stopping any prior instance)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.runPhase(func(ctx context.Context, st *stackup.Stack) error {
					return st.LaunchMonitor(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the owned dashboard process",
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := c.openStack()
				if err != nil {
					return err
				}
				defer st.Close()
				return st.StopMonitor(context.Background())
			},
		},
	)
	return monitor
}

func (c command) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show broker states and worker/monitor liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStack()
			if err != nil {
				return err
			}
			defer st.Close()
			s := st.Status(context.Background())
			for _, b := range s.Brokers {
				fmt.Printf("broker  %-10s %s\n", b.Name, b.State)
			}
			printProc := func(label string, p stackup.ProcessStatus) {
				state := "stopped"
				if p.Running {
					state = fmt.Sprintf("running (pid %d, %s)", p.PID, p.DetectedBy)
				}
				fmt.Printf("%-7s %-10s %s\n", label, p.Name, state)
			}
			printProc("process", s.Worker)
			printProc("process", s.Monitor)
			return nil
		},
	}
}

func (c command) newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop the owned worker and monitor processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStack()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Down(context.Background())
		},
	}
}

func (c command) newServeCmd() *cobra.Command {
	sf := &ServeFlags{}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only status API and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := stackup.LoadConfig(c.flags.ConfigPath, c.flags.configSet)
			if err != nil {
				return err
			}
			st, err := stackup.New(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			_ = stackup.RegisterMetricsDefault()

			listen := sf.Listen
			if listen == "" {
				listen = cfg.Server.Listen
			}
			base := sf.BasePath
			if base == "" {
				base = cfg.Server.BasePath
			}
			srv, err := stackup.NewHTTPServer(listen, base, st)
			if err != nil {
				return err
			}
			fmt.Printf("status API listening on %s\n", listen)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			return srv.Close()
		},
	}
	serve.Flags().StringVar(&sf.Listen, "listen", "", "listen address (default from config)")
	serve.Flags().StringVar(&sf.BasePath, "base-path", "", "base path for API routes")
	return serve
}
