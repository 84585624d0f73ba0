package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/loykin/stackup/internal/broker"
	"github.com/loykin/stackup/internal/logger"
	"github.com/loykin/stackup/internal/process"
	"github.com/loykin/stackup/internal/store"
	"github.com/spf13/viper"
)

// Config is the top-level TOML structure.
type Config struct {
	Manifest  string          `toml:"manifest" mapstructure:"manifest"`
	Installer string          `toml:"installer" mapstructure:"installer"`
	Env       []string        `toml:"env" mapstructure:"env"`
	Log       logger.Config   `toml:"log" mapstructure:"log"`
	Store     store.Config    `toml:"store" mapstructure:"store"`
	Brokers   []broker.Broker `toml:"brokers" mapstructure:"brokers"`
	Worker    WorkerConfig    `toml:"worker" mapstructure:"worker"`
	Monitor   MonitorConfig   `toml:"monitor" mapstructure:"monitor"`
	Server    ServerConfig    `toml:"server" mapstructure:"server"`
}

// WorkerConfig parameterizes the task worker process.
type WorkerConfig struct {
	App         string        `toml:"app" mapstructure:"app"`                 // task application module
	Pool        string        `toml:"pool" mapstructure:"pool"`               // execution pool mode
	LogLevel    string        `toml:"loglevel" mapstructure:"loglevel"`
	Concurrency int           `toml:"concurrency" mapstructure:"concurrency"` // 0 = framework default
	Queues      []string      `toml:"queues" mapstructure:"queues"`           // optional queue subset
	Command     string        `toml:"command" mapstructure:"command"`         // full override
	LogFile     string        `toml:"logfile" mapstructure:"logfile"`
	PIDFile     string        `toml:"pidfile" mapstructure:"pidfile"`
	Pattern     string        `toml:"pattern" mapstructure:"pattern"`
	StopWait    time.Duration `toml:"stop_wait" mapstructure:"stop_wait"`
}

// MonitorConfig parameterizes the dashboard process.
type MonitorConfig struct {
	Port    int    `toml:"port" mapstructure:"port"`
	Command string `toml:"command" mapstructure:"command"` // full override
	LogFile string `toml:"logfile" mapstructure:"logfile"`
	PIDFile string `toml:"pidfile" mapstructure:"pidfile"`
	Pattern string `toml:"pattern" mapstructure:"pattern"`
}

// ServerConfig parameterizes the status API.
type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// Default returns the configuration matching the stock stack: pip
// manifest, Redis + RabbitMQ, a celery worker and a flower dashboard.
func Default() *Config {
	return &Config{
		Manifest:  "requirements.txt",
		Installer: "pip install -r",
		Store:     store.Config{Type: "sqlite", Path: "stackup.db"},
		Brokers:   broker.Defaults(),
		Worker: WorkerConfig{
			App:      "celery_app",
			Pool:     "solo",
			LogLevel: "info",
			LogFile:  "celery.log",
			PIDFile:  "run/worker.pid",
		},
		Monitor: MonitorConfig{
			Port:    5555,
			LogFile: "flower.log",
			PIDFile: "run/monitor.pid",
		},
		Server: ServerConfig{Listen: ":8555"},
	}
}

// Load reads the TOML file at path, overlaying it on Default. A
// missing file at the default path is not an error; an explicitly
// requested file must exist.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if len(cfg.Brokers) == 0 {
		cfg.Brokers = broker.Defaults()
	}
	return cfg, nil
}

// WorkerSpec builds the process spec for the task worker.
func (c *Config) WorkerSpec() process.Spec {
	w := c.Worker
	cmd := w.Command
	if cmd == "" {
		var b strings.Builder
		fmt.Fprintf(&b, "celery -A %s worker --pool=%s --loglevel=%s", w.App, w.Pool, w.LogLevel)
		if w.Concurrency > 0 {
			fmt.Fprintf(&b, " --concurrency=%d", w.Concurrency)
		}
		if len(w.Queues) > 0 {
			fmt.Fprintf(&b, " -Q %s", strings.Join(w.Queues, ","))
		}
		cmd = b.String()
	}
	pattern := w.Pattern
	if pattern == "" {
		pattern = fmt.Sprintf("-A %s worker", w.App)
	}
	return process.Spec{
		Name:     "worker",
		Command:  cmd,
		Env:      c.Env,
		PIDFile:  w.PIDFile,
		Pattern:  pattern,
		Detached: true,
		Log:      c.logFor(w.LogFile),
	}
}

// MonitorSpec builds the process spec for the dashboard.
func (c *Config) MonitorSpec() process.Spec {
	m := c.Monitor
	cmd := m.Command
	if cmd == "" {
		cmd = fmt.Sprintf("celery -A %s flower --port=%d", c.Worker.App, m.Port)
	}
	pattern := m.Pattern
	if pattern == "" {
		pattern = fmt.Sprintf("-A %s flower", c.Worker.App)
	}
	return process.Spec{
		Name:     "monitor",
		Command:  cmd,
		Env:      c.Env,
		PIDFile:  m.PIDFile,
		Pattern:  pattern,
		Detached: true,
		Log:      c.logFor(m.LogFile),
	}
}

func (c *Config) logFor(path string) logger.Config {
	lc := c.Log
	if path != "" {
		lc.Path = path
	}
	return lc
}
