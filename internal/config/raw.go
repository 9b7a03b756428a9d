package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/orbit/internal/window"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawLoggingConfig struct {
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

// RawMenuItem patches the builtin item with the same id, or declares a new
// item when the id is unknown.
type RawMenuItem struct {
	ID      *string              `yaml:"id"`
	Label   *string              `yaml:"label"`
	Type    *string              `yaml:"type"`
	Icon    *string              `yaml:"icon"`
	Visible *bool                `yaml:"visible"`
	Window  *window.WindowConfig `yaml:"window"`
}

type RawNotification struct {
	Type   *string              `yaml:"type"`
	Label  *string              `yaml:"label"`
	Window *window.WindowConfig `yaml:"window"`
}

type RawConfig struct {
	Include              IncludeList       `yaml:"include"`
	BallSize             *int              `yaml:"ball_size"`
	EdgeDistance         *int              `yaml:"edge_distance"`
	BoundaryMargin       *int              `yaml:"boundary_margin"`
	AnimationDurationMs  *int              `yaml:"animation_duration_ms"`
	TransitionTimeoutMs  *int              `yaml:"transition_timeout_ms"`
	ShowMenuDelayMs      *int              `yaml:"show_menu_delay_ms"`
	HideMenuDelayMs      *int              `yaml:"hide_menu_delay_ms"`
	CoordGridDelayMs     *int              `yaml:"coord_grid_delay_ms"`
	DragSelectors        []string          `yaml:"drag_selectors"`
	InteractiveSelectors []string          `yaml:"interactive_selectors"`
	Display              *string           `yaml:"display"`
	XAuthority           *string           `yaml:"xauthority"`
	StateFile            *string           `yaml:"state_file"`
	MenuHotkey           *string           `yaml:"menu_hotkey"`
	Menu                 []RawMenuItem     `yaml:"menu"`
	Notifications        []RawNotification `yaml:"notifications"`
	Logging              *RawLoggingConfig `yaml:"logging"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.BallSize != nil {
		out.BallSize = overlay.BallSize
	}
	if overlay.EdgeDistance != nil {
		out.EdgeDistance = overlay.EdgeDistance
	}
	if overlay.BoundaryMargin != nil {
		out.BoundaryMargin = overlay.BoundaryMargin
	}
	if overlay.AnimationDurationMs != nil {
		out.AnimationDurationMs = overlay.AnimationDurationMs
	}
	if overlay.TransitionTimeoutMs != nil {
		out.TransitionTimeoutMs = overlay.TransitionTimeoutMs
	}
	if overlay.ShowMenuDelayMs != nil {
		out.ShowMenuDelayMs = overlay.ShowMenuDelayMs
	}
	if overlay.HideMenuDelayMs != nil {
		out.HideMenuDelayMs = overlay.HideMenuDelayMs
	}
	if overlay.CoordGridDelayMs != nil {
		out.CoordGridDelayMs = overlay.CoordGridDelayMs
	}
	if overlay.DragSelectors != nil {
		out.DragSelectors = overlay.DragSelectors
	}
	if overlay.InteractiveSelectors != nil {
		out.InteractiveSelectors = overlay.InteractiveSelectors
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.StateFile != nil {
		out.StateFile = overlay.StateFile
	}
	if overlay.MenuHotkey != nil {
		out.MenuHotkey = overlay.MenuHotkey
	}
	if overlay.Menu != nil {
		out.Menu = mergeMenu(out.Menu, overlay.Menu)
	}
	if overlay.Notifications != nil {
		out.Notifications = mergeNotifications(out.Notifications, overlay.Notifications)
	}
	if overlay.Logging != nil {
		if out.Logging == nil {
			out.Logging = &RawLoggingConfig{}
		}
		merged := *out.Logging
		if overlay.Logging.Level != nil {
			merged.Level = overlay.Logging.Level
		}
		if overlay.Logging.File != nil {
			merged.File = overlay.Logging.File
		}
		if overlay.Logging.MaxSizeMB != nil {
			merged.MaxSizeMB = overlay.Logging.MaxSizeMB
		}
		if overlay.Logging.MaxFiles != nil {
			merged.MaxFiles = overlay.Logging.MaxFiles
		}
		out.Logging = &merged
	}

	return out
}

// mergeMenu layers overlay entries onto base by id. Entries without an id
// are appended and rejected later by validation.
func mergeMenu(base, overlay []RawMenuItem) []RawMenuItem {
	out := append([]RawMenuItem(nil), base...)
	for _, item := range overlay {
		idx := -1
		if item.ID != nil {
			for i, cur := range out {
				if cur.ID != nil && *cur.ID == *item.ID {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			out = append(out, item)
			continue
		}
		cur := out[idx]
		if item.Label != nil {
			cur.Label = item.Label
		}
		if item.Type != nil {
			cur.Type = item.Type
		}
		if item.Icon != nil {
			cur.Icon = item.Icon
		}
		if item.Visible != nil {
			cur.Visible = item.Visible
		}
		if item.Window != nil {
			cur.Window = item.Window
		}
		out[idx] = cur
	}
	return out
}

func mergeNotifications(base, overlay []RawNotification) []RawNotification {
	out := append([]RawNotification(nil), base...)
	for _, n := range overlay {
		idx := -1
		if n.Type != nil {
			for i, cur := range out {
				if cur.Type != nil && *cur.Type == *n.Type {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			out = append(out, n)
			continue
		}
		cur := out[idx]
		if n.Label != nil {
			cur.Label = n.Label
		}
		if n.Window != nil {
			cur.Window = n.Window
		}
		out[idx] = cur
	}
	return out
}
