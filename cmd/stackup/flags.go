package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
	configSet  bool // true when --config was passed explicitly
	Verbose    bool
}

func (g *GlobalFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "stackup.toml", "path to TOML config")
	cmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "enable debug logging")
}

func (g *GlobalFlags) logLevel() slog.Level {
	if g.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen   string
	BasePath string
}
