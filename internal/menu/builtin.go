package menu

import "github.com/1broseidon/orbit/internal/window"

// Builtin returns the default menu entries.
func Builtin() []Item {
	attach := func(name, title, component string, w, h float64) window.WindowConfig {
		resizable := true
		show := true
		return window.WindowConfig{
			Name:      name,
			Title:     title,
			Component: component,
			Type:      window.AttachWindow,
			Layout:    &window.Layout{Width: w, Height: h, Resizable: &resizable},
			Toolbar:   &window.Toolbar{Show: &show},
		}
	}
	return []Item{
		{ID: "ball-quick-chat", Label: "Chat", Type: "chat", Icon: "message-circle", Visible: true,
			Window: attach("ChatWithMe", "Chat", "chat", 400, 500)},
		{ID: "ball-quick-notes", Label: "Notes", Type: "note", Icon: "pen-tool", Visible: true,
			Window: attach("QuickNotes", "Notes", "notes", 400, 500)},
		{ID: "ball-todo", Label: "Todo", Type: "todo", Icon: "list-todo", Visible: true,
			Window: attach("TodoTab", "Todo", "todo", 350, 400)},
		{ID: "ball-it-tools", Label: "Tools", Type: "tools", Icon: "wrench", Visible: true,
			Window: attach("IT_Tools", "Tools", "tools", 600, 600)},
		{ID: "settings", Label: "Settings", Type: "setting", Icon: "settings", Visible: true,
			Window: attach("Settings", "Settings", "settings", 350, 400)},
	}
}
