package config

import (
	"fmt"

	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/notify"
	"github.com/1broseidon/orbit/internal/window"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.BallSize != nil {
		cfg.BallSize = *raw.BallSize
	}
	if raw.EdgeDistance != nil {
		cfg.EdgeDistance = *raw.EdgeDistance
	}
	if raw.BoundaryMargin != nil {
		cfg.BoundaryMargin = *raw.BoundaryMargin
	}
	if raw.AnimationDurationMs != nil {
		cfg.AnimationDurationMs = *raw.AnimationDurationMs
		// The fallback tracks the animation unless set explicitly.
		cfg.TransitionTimeoutMs = cfg.AnimationDurationMs + 1000
	}
	if raw.TransitionTimeoutMs != nil {
		cfg.TransitionTimeoutMs = *raw.TransitionTimeoutMs
	}
	if raw.ShowMenuDelayMs != nil {
		cfg.ShowMenuDelayMs = *raw.ShowMenuDelayMs
	}
	if raw.HideMenuDelayMs != nil {
		cfg.HideMenuDelayMs = *raw.HideMenuDelayMs
	}
	if raw.CoordGridDelayMs != nil {
		cfg.CoordGridDelayMs = *raw.CoordGridDelayMs
	}
	if raw.DragSelectors != nil {
		cfg.DragSelectors = append([]string(nil), raw.DragSelectors...)
	}
	if raw.InteractiveSelectors != nil {
		cfg.InteractiveSelectors = append([]string(nil), raw.InteractiveSelectors...)
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.StateFile != nil {
		cfg.StateFile = *raw.StateFile
	}
	if raw.MenuHotkey != nil {
		cfg.MenuHotkey = *raw.MenuHotkey
	}
	if raw.Logging != nil {
		if raw.Logging.Level != nil {
			cfg.Logging.Level = *raw.Logging.Level
		}
		if raw.Logging.File != nil {
			cfg.Logging.File = *raw.Logging.File
		}
		if raw.Logging.MaxSizeMB != nil {
			cfg.Logging.MaxSizeMB = *raw.Logging.MaxSizeMB
		}
		if raw.Logging.MaxFiles != nil {
			cfg.Logging.MaxFiles = *raw.Logging.MaxFiles
		}
	}

	items, err := applyMenu(cfg.Menu, raw.Menu)
	if err != nil {
		return nil, err
	}
	cfg.Menu = items

	kinds, err := applyNotifications(cfg.Notifications, raw.Notifications)
	if err != nil {
		return nil, err
	}
	cfg.Notifications = kinds

	return cfg, nil
}

func applyMenu(builtin []menu.Item, patches []RawMenuItem) ([]menu.Item, error) {
	out := append([]menu.Item(nil), builtin...)
	for i, patch := range patches {
		path := fmt.Sprintf("menu[%d]", i)
		if patch.ID == nil || *patch.ID == "" {
			return nil, &ValidationError{Path: path + ".id", Err: fmt.Errorf("menu item id is required")}
		}
		idx := -1
		for j, it := range out {
			if it.ID == *patch.ID {
				idx = j
				break
			}
		}
		if idx < 0 {
			if patch.Window == nil {
				return nil, &ValidationError{Path: path + ".window", Err: fmt.Errorf("new menu item %q needs a window", *patch.ID)}
			}
			out = append(out, menu.Item{ID: *patch.ID, Visible: true})
			idx = len(out) - 1
		}
		it := out[idx]
		if patch.Label != nil {
			it.Label = *patch.Label
		}
		if patch.Type != nil {
			it.Type = *patch.Type
		}
		if patch.Icon != nil {
			it.Icon = *patch.Icon
		}
		if patch.Visible != nil {
			it.Visible = *patch.Visible
		}
		if patch.Window != nil {
			it.Window = mergeWindow(it.Window, *patch.Window, window.AttachWindow)
		}
		if it.Label == "" {
			it.Label = it.Window.Title
		}
		out[idx] = it
	}
	return out, nil
}

func applyNotifications(builtin []notify.Kind, patches []RawNotification) ([]notify.Kind, error) {
	out := append([]notify.Kind(nil), builtin...)
	for i, patch := range patches {
		path := fmt.Sprintf("notifications[%d]", i)
		if patch.Type == nil || *patch.Type == "" {
			return nil, &ValidationError{Path: path + ".type", Err: fmt.Errorf("notification type is required")}
		}
		idx := -1
		for j, k := range out {
			if k.Type == *patch.Type {
				idx = j
				break
			}
		}
		if idx < 0 {
			if patch.Window == nil {
				return nil, &ValidationError{Path: path + ".window", Err: fmt.Errorf("new notification %q needs a window", *patch.Type)}
			}
			out = append(out, notify.Kind{Type: *patch.Type})
			idx = len(out) - 1
		}
		k := out[idx]
		if patch.Label != nil {
			k.Label = *patch.Label
		}
		if patch.Window != nil {
			k.Window = mergeWindow(k.Window, *patch.Window, window.NotificationWindow)
		}
		out[idx] = k
	}
	return out, nil
}

// mergeWindow overlays the fields set in patch onto base.
func mergeWindow(base, patch window.WindowConfig, defType window.WindowType) window.WindowConfig {
	out := base
	if patch.Name != "" {
		out.Name = patch.Name
	}
	if patch.Title != "" {
		out.Title = patch.Title
	}
	if patch.Component != "" {
		out.Component = patch.Component
	}
	if patch.Type != "" {
		out.Type = patch.Type
	}
	if patch.Layout != nil {
		out.Layout = patch.Layout
	}
	if patch.Toolbar != nil {
		out.Toolbar = patch.Toolbar
	}
	if patch.Behavior != nil {
		out.Behavior = patch.Behavior
	}
	if out.Type == "" {
		out.Type = defType
	}
	return out
}
