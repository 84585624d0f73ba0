package logger

import (
	"fmt"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for spawned process logs.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the log destination for a spawned process.
// Stdout and stderr are combined into a single file: Path if set,
// otherwise Dir/<name>.log. Rotation follows lumberjack semantics.
type Config struct {
	Dir        string `json:"dir" mapstructure:"dir"`                 // base directory for logs
	Path       string `json:"path" mapstructure:"path"`               // explicit file path overrides Dir
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"` // megabytes before rotation (default 10)
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"` // number of backups to keep (default 3)
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"` // gzip rotated files
}

// Filename resolves the log file path for the given process name.
// Returns "" when neither Path nor Dir is configured.
func (c Config) Filename(name string) string {
	if c.Path != "" {
		return c.Path
	}
	if c.Dir != "" {
		return filepath.Join(c.Dir, fmt.Sprintf("%s.log", name))
	}
	return ""
}

// OpenFile opens the named process's log append-only and returns the
// descriptor, or (nil, nil) when logging is not configured. A detached
// child must inherit a real file descriptor: anything piped through
// the launcher dies with it. Rotation therefore happens out-of-band,
// before the open, when the previous file outgrew the limit.
func (c Config) OpenFile(name string) (*os.File, error) {
	path := c.Filename(name)
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	c.rotateIfOversize(path)
	// #nosec G304 -- path comes from operator config
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
}

func (c Config) rotateIfOversize(path string) {
	limit := int64(valOr(c.MaxSizeMB, DefaultMaxSizeMB)) * 1024 * 1024
	fi, err := os.Stat(path)
	if err != nil || fi.Size() < limit {
		return
	}
	lw := &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
	_ = lw.Rotate()
	_ = lw.Close()
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
