package palette

import (
	"fmt"

	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/window"
)

// Entries lists the visible menu items followed by minimized windows that a
// menu item can restore. Menu items whose window is showing are marked active.
func Entries(items []menu.Item, windows []window.Record) []Item {
	showing := make(map[string]bool, len(windows))
	var hidden []window.Record
	for _, w := range windows {
		if w.Visible {
			showing[w.Name()] = true
		} else {
			hidden = append(hidden, w)
		}
	}

	var out []Item
	for _, it := range items {
		if !it.Visible {
			continue
		}
		if len(out) == 0 {
			out = append(out, Item{Label: "Menu", IsHeader: true})
		}
		label := it.Label
		if label == "" {
			label = it.ID
		}
		out = append(out, Item{
			Label:    label,
			Value:    it.ID,
			Icon:     it.Icon,
			IsActive: showing[it.Window.Name],
		})
	}
	// Only windows a menu item can reopen are offered for restore.
	byWindow := make(map[string]menu.Item, len(items))
	for _, it := range items {
		byWindow[it.Window.Name] = it
	}
	header := false
	for _, w := range hidden {
		it, ok := byWindow[w.Name()]
		if !ok {
			continue
		}
		if !header {
			out = append(out, Item{Label: "Minimized", IsHeader: true})
			header = true
		}
		out = append(out, Item{
			Label: fmt.Sprintf("Restore %s", w.Name()),
			Value: it.ID,
			Icon:  it.Icon,
		})
	}
	return out
}
