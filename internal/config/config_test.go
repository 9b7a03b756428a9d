package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/orbit/internal/window"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_ValidAndHasBuiltinMenu(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if _, ok := cfg.MenuItem("ball-quick-chat"); !ok {
		t.Fatalf("expected builtin chat item")
	}
	if cfg.BallSize != 40 || cfg.ShowMenuDelayMs != 500 || cfg.HideMenuDelayMs != 200 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TransitionTimeout() <= cfg.AnimationDuration() {
		t.Fatalf("transition timeout must exceed the animation")
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.BallSize != DefaultBallSize {
		t.Fatalf("expected ball_size %d, got %d", DefaultBallSize, res.Config.BallSize)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Menu) != 5 {
		t.Fatalf("expected builtin menu, got %d items", len(res.Config.Menu))
	}
}

func TestLoadFromPath_AnimationMovesTimeoutFallback(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "animation_duration_ms: 150\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.TransitionTimeoutMs != 1150 {
		t.Fatalf("expected derived timeout 1150, got %d", res.Config.TransitionTimeoutMs)
	}
}

func TestLoadFromPath_MenuHotkeyCanBeDisabled(t *testing.T) {
	if DefaultConfig().MenuHotkey != DefaultMenuHotkey {
		t.Fatalf("expected default hotkey %q", DefaultMenuHotkey)
	}
	path := writeConfig(t, t.TempDir(), "config.yaml", "menu_hotkey: \"\"\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.MenuHotkey != "" {
		t.Fatalf("expected disabled hotkey, got %q", res.Config.MenuHotkey)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")
	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{"ball size", "ball_size: 0\n", "ball_size"},
		{"negative delay", "show_menu_delay_ms: -1\n", "show_menu_delay_ms"},
		{"timeout below animation", "transition_timeout_ms: 100\n", "transition_timeout_ms"},
		{"bad selector", "drag_selectors: [\"a > b\"]\n", "drag_selectors"},
		{"log level", "logging:\n  level: loud\n", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tt.data)
			_, err := LoadFromPath(path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
			if verr.Source.Kind != SourceFile || verr.Source.Line == 0 {
				t.Fatalf("expected file source, got %#v", verr.Source)
			}
			if !strings.Contains(err.Error(), path+":") {
				t.Fatalf("expected file:line:col prefix, got %v", err)
			}
		})
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, configD, "10-base.yaml", "ball_size: 48\nedge_distance: 4\n")
	writeConfig(t, configD, "20-override.yaml", "ball_size: 52\n")

	// Main file overrides includes.
	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"ball_size: 56",
		"",
	}, "\n")
	path := writeConfig(t, dir, "config.yaml", main)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.BallSize != 56 {
		t.Fatalf("expected ball_size to be 56, got %d", res.Config.BallSize)
	}
	if res.Config.EdgeDistance != 4 {
		t.Fatalf("expected edge_distance from include, got %d", res.Config.EdgeDistance)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include:\n  - missing.yaml\n")
	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeGlobAndSharedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "shared.yaml", "edge_distance: 6\n")
	writeConfig(t, dir, "a.part.yaml", "include: shared.yaml\nball_size: 44\n")
	writeConfig(t, dir, "b.part.yaml", "include: shared.yaml\nboundary_margin: 12\n")
	path := writeConfig(t, dir, "config.yaml", "include: \"*.part.yaml\"\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.BallSize != 44 || res.Config.EdgeDistance != 6 || res.Config.BoundaryMargin != 12 {
		t.Fatalf("unexpected merge: ball %d edge %d margin %d", res.Config.BallSize, res.Config.EdgeDistance, res.Config.BoundaryMargin)
	}
	if len(res.Files) != 4 {
		t.Fatalf("expected each file listed once, got %v", res.Files)
	}

	empty := writeConfig(t, t.TempDir(), "config.yaml", "include: \"nothing-*.yaml\"\n")
	if _, err := LoadFromPath(empty); err == nil || !strings.Contains(err.Error(), "no files match") {
		t.Fatalf("expected unmatched glob error, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_MenuPatchAndNewItem(t *testing.T) {
	data := `
menu:
  - id: ball-todo
    visible: false
  - id: ball-quick-chat
    window:
      layout:
        width: 800
        height: 600
  - id: weather
    label: Weather
    window:
      name: Weather
      layout:
        width: 300
        height: 200
`
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.TrimSpace(data)+"\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config

	todo, _ := cfg.MenuItem("ball-todo")
	if todo.Visible {
		t.Fatalf("expected todo hidden")
	}
	chat, _ := cfg.MenuItem("ball-quick-chat")
	if chat.Window.Name != "ChatWithMe" || chat.Window.Layout.Width != 800 {
		t.Fatalf("expected patched chat window, got %+v", chat.Window)
	}
	weather, ok := cfg.MenuItem("weather")
	if !ok {
		t.Fatalf("expected new item")
	}
	if !weather.Visible || weather.Window.Type != window.AttachWindow {
		t.Fatalf("new item defaults wrong: %+v", weather)
	}
	if cfg.Menu[len(cfg.Menu)-1].ID != "weather" {
		t.Fatalf("new item should be appended")
	}

	_, src, err := Explain(res, "menu.ball-todo")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceBuiltin || src.Name != "ball-todo" {
		t.Fatalf("expected builtin source, got %#v", src)
	}
}

func TestLoadFromPath_NewMenuItemNeedsWindow(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "menu:\n  - id: lonely\n    label: x\n")
	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "menu[0].window" {
		t.Fatalf("expected menu[0].window error, got %v", err)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("expected source from enclosing entry, got %#v", verr.Source)
	}
}

func TestLoadFromPath_NotificationOverride(t *testing.T) {
	data := `
notifications:
  - type: meeting
    label: Standup
  - type: build
    window:
      name: BuildStatus
      layout:
        width: 320
        height: 120
`
	path := writeConfig(t, t.TempDir(), "config.yaml", strings.TrimSpace(data)+"\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var found bool
	for _, k := range res.Config.Notifications {
		switch k.Type {
		case "meeting":
			if k.Label != "Standup" || k.Window.Name != "MeetingDialog" {
				t.Fatalf("meeting patch wrong: %+v", k)
			}
		case "build":
			found = true
			if k.Window.Type != window.NotificationWindow {
				t.Fatalf("expected notification window type, got %q", k.Window.Type)
			}
		}
	}
	if !found {
		t.Fatalf("expected build notification")
	}
}

func TestExplainSources(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "hide_menu_delay_ms: 250\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	val, src, err := Explain(res, "hide_menu_delay_ms")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 250 || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("got %#v from %#v", val, src)
	}
	val, src, err = Explain(res, "ball_size")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 40 || src.Kind != SourceDefault {
		t.Fatalf("got %#v from %#v", val, src)
	}
	if _, _, err := Explain(res, "ball_size.extra"); err == nil {
		t.Fatalf("expected error for nested scalar path")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BallSize = 44
	cfg.Logging.File = "/tmp/orbit.log"
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Config.BallSize != 44 || res.Config.Logging.File != "/tmp/orbit.log" {
		t.Fatalf("round trip lost values: %+v", res.Config)
	}
	if len(res.Config.Menu) != len(cfg.Menu) {
		t.Fatalf("menu duplicated or lost: %d vs %d", len(res.Config.Menu), len(cfg.Menu))
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BallSize = -1
	if err := cfg.SaveTo(filepath.Join(t.TempDir(), "c.yaml")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDefaultConfigPathEnvOverride(t *testing.T) {
	t.Setenv("ORBIT_CONFIG", "/etc/orbit.yaml")
	p, err := DefaultConfigPath()
	if err != nil || p != "/etc/orbit.yaml" {
		t.Fatalf("got %q, %v", p, err)
	}
	t.Setenv("ORBIT_CONFIG", "")
	t.Setenv("HOME", "/home/tester")
	p, err = DefaultConfigPath()
	if err != nil || p != "/home/tester/.config/orbit/config.yaml" {
		t.Fatalf("got %q, %v", p, err)
	}
}

func TestGetStatePath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := DefaultConfig()
	if got := cfg.GetStatePath(); got != "/home/tester/.local/share/orbit/state.db" {
		t.Fatalf("default state path = %q", got)
	}
	cfg.StateFile = "~/orbit/state.db"
	if got := cfg.GetStatePath(); got != "/home/tester/orbit/state.db" {
		t.Fatalf("expanded state path = %q", got)
	}
}
