package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	ball_size
//	edge_distance
//	boundary_margin
//	animation_duration_ms
//	transition_timeout_ms
//	show_menu_delay_ms
//	hide_menu_delay_ms
//	coord_grid_delay_ms
//	drag_selectors
//	interactive_selectors
//	display
//	xauthority
//	state_file
//	menu_hotkey
//	logging.level
//	menu
//	menu.<id>
//	menu.<id>.window
//	notifications.<type>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	if strings.HasPrefix(path, "menu.") || strings.HasPrefix(path, "notifications.") {
		return value, Source{Kind: SourceBuiltin, Name: strings.Split(path, ".")[1]}, nil
	}

	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	scalar := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unsupported path %q", path)
		}
		return v, nil
	}
	switch parts[0] {
	case "ball_size":
		return scalar(cfg.BallSize)
	case "edge_distance":
		return scalar(cfg.EdgeDistance)
	case "boundary_margin":
		return scalar(cfg.BoundaryMargin)
	case "animation_duration_ms":
		return scalar(cfg.AnimationDurationMs)
	case "transition_timeout_ms":
		return scalar(cfg.TransitionTimeoutMs)
	case "show_menu_delay_ms":
		return scalar(cfg.ShowMenuDelayMs)
	case "hide_menu_delay_ms":
		return scalar(cfg.HideMenuDelayMs)
	case "coord_grid_delay_ms":
		return scalar(cfg.CoordGridDelayMs)
	case "drag_selectors":
		return scalar(cfg.DragSelectors)
	case "interactive_selectors":
		return scalar(cfg.InteractiveSelectors)
	case "display":
		return scalar(cfg.Display)
	case "xauthority":
		return scalar(cfg.XAuthority)
	case "state_file":
		return scalar(cfg.GetStatePath())
	case "menu_hotkey":
		return scalar(cfg.MenuHotkey)
	case "logging":
		if len(parts) == 1 {
			return cfg.GetLoggingConfig(), nil
		}
		lc := cfg.GetLoggingConfig()
		switch parts[1] {
		case "level":
			return lc.Level, nil
		case "file":
			return lc.File, nil
		case "max_size_mb":
			return lc.MaxSizeMB, nil
		case "max_files":
			return lc.MaxFiles, nil
		}
	case "menu":
		if len(parts) == 1 {
			return cfg.Menu, nil
		}
		it, ok := cfg.MenuItem(parts[1])
		if !ok {
			return nil, fmt.Errorf("menu item %q not found", parts[1])
		}
		if len(parts) == 2 {
			return it, nil
		}
		switch parts[2] {
		case "label":
			return it.Label, nil
		case "visible":
			return it.Visible, nil
		case "window":
			return it.Window, nil
		}
	case "notifications":
		if len(parts) == 1 {
			return cfg.Notifications, nil
		}
		for _, k := range cfg.Notifications {
			if k.Type == parts[1] {
				return k, nil
			}
		}
		return nil, fmt.Errorf("notification %q not found", parts[1])
	}
	return nil, fmt.Errorf("unsupported path %q", path)
}
