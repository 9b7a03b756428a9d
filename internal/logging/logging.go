// Package logging routes the standard logger to stderr and, when a file is
// configured, to a size-rotated log file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/1broseidon/orbit/internal/config"
)

// Level orders log verbosity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var current atomic.Int32

func init() {
	current.Store(int32(LevelInfo))
}

// ParseLevel maps a config level name to a Level. Unknown names are info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warning", "warn":
		return LevelWarning
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Setup points the standard logger at stderr plus cfg.File. The returned
// closer releases the file; it is safe to call when no file is configured.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	return setup(cfg, os.Stderr)
}

func setup(cfg config.LoggingConfig, console io.Writer) (io.Closer, error) {
	SetLevel(ParseLevel(cfg.Level))
	log.SetFlags(log.LstdFlags)

	if cfg.File == "" {
		log.SetOutput(console)
		return nopCloser{}, nil
	}

	path := expandHome(cfg.File)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = 3
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxFiles,
	}
	log.SetOutput(io.MultiWriter(console, file))
	return file, nil
}

// SetLevel changes the minimum level emitted by Debugf and Warnf.
func SetLevel(l Level) { current.Store(int32(l)) }

// CurrentLevel returns the active level.
func CurrentLevel() Level { return Level(current.Load()) }

// Enabled reports whether messages at l are emitted.
func Enabled(l Level) bool { return l >= CurrentLevel() }

// Debugf logs only when the level is debug.
func Debugf(format string, args ...any) {
	if Enabled(LevelDebug) {
		log.Printf(format, args...)
	}
}

// Warnf logs unless the level is error.
func Warnf(format string, args ...any) {
	if Enabled(LevelWarning) {
		log.Printf(format, args...)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
