package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/orbit/internal/config"
)

func restoreStdLogger(t *testing.T) {
	t.Helper()
	out, flags := log.Writer(), log.Flags()
	lvl := CurrentLevel()
	t.Cleanup(func() {
		log.SetOutput(out)
		log.SetFlags(flags)
		SetLevel(lvl)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warning": LevelWarning,
		"warn":    LevelWarning,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDebugfGatedByLevel(t *testing.T) {
	restoreStdLogger(t)
	var buf bytes.Buffer
	if _, err := setup(config.LoggingConfig{Level: "info"}, &buf); err != nil {
		t.Fatalf("setup: %v", err)
	}
	Debugf("hidden %d", 1)
	log.Printf("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("output = %q", buf.String())
	}

	buf.Reset()
	SetLevel(LevelDebug)
	Debugf("visible %d", 2)
	if !strings.Contains(buf.String(), "visible 2") {
		t.Fatalf("debug output = %q", buf.String())
	}

	buf.Reset()
	SetLevel(LevelError)
	Warnf("quiet")
	if buf.Len() != 0 {
		t.Fatalf("warn at error level = %q", buf.String())
	}
}

func TestSetupWritesFile(t *testing.T) {
	restoreStdLogger(t)
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "orbit.log")
	closer, err := setup(config.LoggingConfig{Level: "debug", File: path}, &console)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	log.Printf("Daemon: started")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "Daemon: started") {
		t.Fatalf("file = %q", data)
	}
	if !strings.Contains(console.String(), "Daemon: started") {
		t.Fatalf("console = %q", console.String())
	}
	if CurrentLevel() != LevelDebug {
		t.Fatalf("level = %v", CurrentLevel())
	}
}
