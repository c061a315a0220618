// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Config selects where log output goes.
type Config struct {
	Level    string // debug, info, warn, error
	Console  bool
	FilePath string // append-only file, empty disables
	NoColor  bool
	Out      io.Writer // console destination, os.Stderr when nil
}

// DefaultConfig logs info and above to the console only.
func DefaultConfig() Config {
	return Config{Level: "info", Console: true}
}

var (
	mu     sync.RWMutex
	root   = zerolog.Nop()
	closer io.Closer
)

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// Init replaces the root logger. It may be called again (e.g. after the
// settings dialog changes the level); a previously opened log file is closed.
func Init(cfg Config) error {
	var writers []io.Writer
	if cfg.Console {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    cfg.NoColor,
		})
	}

	var file *os.File
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}

	logger := zerolog.Nop()
	if len(writers) > 0 {
		logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
			Level(ParseLevel(cfg.Level)).
			With().
			Timestamp().
			Logger()
	}

	mu.Lock()
	old := closer
	root = logger
	closer = nil
	if file != nil {
		closer = file
	}
	mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Close flushes and closes the log file, if any.
func Close() {
	mu.Lock()
	c := closer
	closer = nil
	root = zerolog.Nop()
	mu.Unlock()
	if c != nil {
		_ = c.Close()
	}
}

// Root returns the current root logger.
func Root() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// For returns a child logger tagged with the module name.
func For(module string) zerolog.Logger {
	return Root().With().Str("module", module).Logger()
}
