package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/notify"
	"github.com/1broseidon/orbit/internal/surface"
)

// LoggingConfig configures the daemon log output.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warning, error
	Level string `yaml:"level,omitempty"`
	// File is the log file path; empty logs to stderr only
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// Config holds the application configuration.
type Config struct {
	BallSize             int           `yaml:"ball_size"`
	EdgeDistance         int           `yaml:"edge_distance"`
	BoundaryMargin       int           `yaml:"boundary_margin"`
	AnimationDurationMs  int           `yaml:"animation_duration_ms"`
	TransitionTimeoutMs  int           `yaml:"transition_timeout_ms"`
	ShowMenuDelayMs      int           `yaml:"show_menu_delay_ms"`
	HideMenuDelayMs      int           `yaml:"hide_menu_delay_ms"`
	CoordGridDelayMs     int           `yaml:"coord_grid_delay_ms"`
	DragSelectors        []string      `yaml:"drag_selectors"`
	InteractiveSelectors []string      `yaml:"interactive_selectors"`
	Display              string        `yaml:"display,omitempty"`
	XAuthority           string        `yaml:"xauthority,omitempty"`
	StateFile            string        `yaml:"state_file,omitempty"`
	MenuHotkey           string        `yaml:"menu_hotkey,omitempty"`
	Menu                 []menu.Item   `yaml:"menu"`
	Notifications        []notify.Kind `yaml:"notifications"`
	Logging              LoggingConfig `yaml:"logging,omitempty"`
}

const (
	DefaultBallSize            = 40
	DefaultEdgeDistance        = 10
	DefaultBoundaryMargin      = 10
	DefaultAnimationDurationMs = 300
	DefaultShowMenuDelayMs     = 500
	DefaultHideMenuDelayMs     = 200
	DefaultCoordGridDelayMs    = 500
	DefaultMenuHotkey          = "Mod4-grave"
)

// Interactive regions carry these classes in the overlay document.
var (
	DefaultDragSelectors        = []string{".mouse-drag", ".mouse-interactive_drag"}
	DefaultInteractiveSelectors = []string{".mouse-interactive", ".mouse-interactive_drag"}
)

func DefaultConfig() *Config {
	return &Config{
		BallSize:             DefaultBallSize,
		EdgeDistance:         DefaultEdgeDistance,
		BoundaryMargin:       DefaultBoundaryMargin,
		AnimationDurationMs:  DefaultAnimationDurationMs,
		TransitionTimeoutMs:  DefaultAnimationDurationMs + 1000,
		ShowMenuDelayMs:      DefaultShowMenuDelayMs,
		HideMenuDelayMs:      DefaultHideMenuDelayMs,
		CoordGridDelayMs:     DefaultCoordGridDelayMs,
		DragSelectors:        append([]string(nil), DefaultDragSelectors...),
		InteractiveSelectors: append([]string(nil), DefaultInteractiveSelectors...),
		MenuHotkey:           DefaultMenuHotkey,
		Menu:                 menu.Builtin(),
		Notifications:        notify.Builtin(),
		Logging:              LoggingConfig{Level: "info"},
	}
}

func (c *Config) AnimationDuration() time.Duration {
	return time.Duration(c.AnimationDurationMs) * time.Millisecond
}

func (c *Config) TransitionTimeout() time.Duration {
	return time.Duration(c.TransitionTimeoutMs) * time.Millisecond
}

func (c *Config) ShowMenuDelay() time.Duration {
	return time.Duration(c.ShowMenuDelayMs) * time.Millisecond
}

func (c *Config) HideMenuDelay() time.Duration {
	return time.Duration(c.HideMenuDelayMs) * time.Millisecond
}

func (c *Config) CoordGridDelay() time.Duration {
	return time.Duration(c.CoordGridDelayMs) * time.Millisecond
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{Level: "info", MaxSizeMB: 10, MaxFiles: 3}
	}
	cfg := c.Logging
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// GetStatePath returns the sqlite state file, defaulting to
// ~/.local/share/orbit/state.db.
func (c *Config) GetStatePath() string {
	if c != nil && c.StateFile != "" {
		return expandHome(c.StateFile)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		// Last resort fallback - use current directory
		home = "."
	}
	return filepath.Join(home, ".local", "share", "orbit", "state.db")
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// MenuItem returns the menu item with the given id.
func (c *Config) MenuItem(id string) (menu.Item, bool) {
	for _, it := range c.Menu {
		if it.ID == id {
			return it, true
		}
	}
	return menu.Item{}, false
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.BallSize <= 0 {
		return &ValidationError{Path: "ball_size", Err: fmt.Errorf("ball_size must be > 0")}
	}
	if c.EdgeDistance < 0 {
		return &ValidationError{Path: "edge_distance", Err: fmt.Errorf("edge_distance must be >= 0")}
	}
	if c.BoundaryMargin < 0 {
		return &ValidationError{Path: "boundary_margin", Err: fmt.Errorf("boundary_margin must be >= 0")}
	}
	delays := []struct {
		path string
		v    int
	}{
		{"animation_duration_ms", c.AnimationDurationMs},
		{"show_menu_delay_ms", c.ShowMenuDelayMs},
		{"hide_menu_delay_ms", c.HideMenuDelayMs},
		{"coord_grid_delay_ms", c.CoordGridDelayMs},
	}
	for _, d := range delays {
		if d.v < 0 {
			return &ValidationError{Path: d.path, Err: fmt.Errorf("%s must be >= 0", d.path)}
		}
	}
	if c.TransitionTimeoutMs <= c.AnimationDurationMs {
		return &ValidationError{Path: "transition_timeout_ms", Err: fmt.Errorf("transition_timeout_ms must exceed animation_duration_ms (%d)", c.AnimationDurationMs)}
	}

	if len(c.DragSelectors) == 0 {
		return &ValidationError{Path: "drag_selectors", Err: fmt.Errorf("drag_selectors must not be empty")}
	}
	if _, err := surface.CompileAll(c.DragSelectors...); err != nil {
		return &ValidationError{Path: "drag_selectors", Err: err}
	}
	if len(c.InteractiveSelectors) == 0 {
		return &ValidationError{Path: "interactive_selectors", Err: fmt.Errorf("interactive_selectors must not be empty")}
	}
	if _, err := surface.CompileAll(c.InteractiveSelectors...); err != nil {
		return &ValidationError{Path: "interactive_selectors", Err: err}
	}

	seen := make(map[string]struct{}, len(c.Menu))
	for i, it := range c.Menu {
		path := fmt.Sprintf("menu[%d]", i)
		if strings.TrimSpace(it.ID) == "" {
			return &ValidationError{Path: path + ".id", Err: fmt.Errorf("menu item id is required")}
		}
		if _, dup := seen[it.ID]; dup {
			return &ValidationError{Path: path + ".id", Err: fmt.Errorf("duplicate menu item id %q", it.ID)}
		}
		seen[it.ID] = struct{}{}
		if err := it.Window.Validate(); err != nil {
			return &ValidationError{Path: path + ".window", Err: err}
		}
	}

	types := make(map[string]struct{}, len(c.Notifications))
	for i, k := range c.Notifications {
		path := fmt.Sprintf("notifications[%d]", i)
		if strings.TrimSpace(k.Type) == "" {
			return &ValidationError{Path: path + ".type", Err: fmt.Errorf("notification type is required")}
		}
		if _, dup := types[k.Type]; dup {
			return &ValidationError{Path: path + ".type", Err: fmt.Errorf("duplicate notification type %q", k.Type)}
		}
		types[k.Type] = struct{}{}
		if err := k.Window.Validate(); err != nil {
			return &ValidationError{Path: path + ".window", Err: err}
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("logging.level must be one of: debug, info, warning, error")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
