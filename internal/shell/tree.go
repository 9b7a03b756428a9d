package shell

import (
	"context"
	"log"

	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/surface"
	"github.com/1broseidon/orbit/internal/window"
)

// Classes the pointer layer keys on.
const (
	classInteractive     = "mouse-interactive"
	classInteractiveDrag = "mouse-interactive_drag"
	classMenuItem        = "menu-item"
	classToolbar         = "window-toolbar"
	classToolbarButton   = "toolbar-button"
)

const (
	menuWidth       = 200
	menuItemHeight  = 40
	menuPadding     = 20
	toolbarHeight   = 32
	toolbarButtonPx = 32
)

// menuSize returns the menu box for n visible items.
func menuSize(n int) (width, height float64) {
	return menuWidth, float64(2*menuPadding + n*menuItemHeight)
}

func (s *Shell) buildTree() {
	doc := s.doc
	ball := float64(s.cfg.BallSize)

	root := doc.CreateElement("div").SetID("orbit-root")
	root.SetStyles(map[string]string{
		"position": "fixed",
		"left":     "0px",
		"top":      "0px",
		"width":    surface.FormatPx(ball),
		"height":   surface.FormatPx(ball),
	})

	ballEl := doc.CreateElement("div").SetID("orbit-ball").AddClass("floating-ball", classInteractiveDrag)
	ballEl.SetStyles(map[string]string{
		"width":  surface.FormatPx(ball),
		"height": surface.FormatPx(ball),
	})

	menuEl := doc.CreateElement("nav").SetID("orbit-menu").AddClass("floating-menu", classInteractive)
	windows := doc.CreateElement("div").SetID("orbit-windows")

	root.AppendChild(ballEl)
	root.AppendChild(menuEl)
	root.AppendChild(windows)
	doc.Body().AppendChild(root)

	s.root, s.ball, s.menuEl, s.windowsEl = root, ballEl, menuEl, windows
	s.renderMenu()
}

// renderMenu rebuilds the menu entries from the registry.
func (s *Shell) renderMenu() {
	for _, child := range s.menuEl.Children() {
		child.Remove()
	}
	items := s.menu.Items()
	w, h := menuSize(len(items))
	s.menuEl.SetStyles(map[string]string{
		"width":  surface.FormatPx(w),
		"height": surface.FormatPx(h),
	})
	for i, it := range items {
		el := s.doc.CreateElement("button").SetID("menu-item-" + it.ID).AddClass(classMenuItem)
		el.SetAttribute("data-id", it.ID)
		el.SetStyles(map[string]string{
			"left":   "0px",
			"top":    surface.FormatPx(float64(menuPadding + i*menuItemHeight)),
			"height": surface.FormatPx(menuItemHeight),
		})
		id := it.ID
		el.AddEventListener(surface.EventMouseUp, func(*surface.Event) {
			s.activateAsync(id)
		})
		s.menuEl.AppendChild(el)
	}
}

func (s *Shell) activateAsync(id string) {
	s.background(func(ctx context.Context) {
		if _, err := s.OpenWindow(ctx, id, nil); err != nil {
			log.Printf("Shell: menu item %s: %v", id, err)
		}
	})
}

// mountWindow creates the element of a freshly allocated record, with a
// draggable toolbar carrying the enabled buttons from the left edge.
func (s *Shell) mountWindow(w window.Record) *surface.Element {
	el := s.doc.CreateElement("section").SetID("window-" + w.ID).AddClass("window", classInteractive)
	el.SetAttribute("data-name", w.Name())
	el.SetAttribute("data-component", w.Config.Component)

	tb := w.Config.Toolbar
	if tb != nil && derefBool(tb.Show) {
		bar := s.doc.CreateElement("header").AddClass(classToolbar, classInteractiveDrag)
		bar.SetStyles(map[string]string{
			"left":   "0px",
			"top":    "0px",
			"height": surface.FormatPx(toolbarHeight),
		})
		var actions []string
		if derefBool(tb.ShowMinimizeButton) {
			actions = append(actions, "minimize")
		}
		if derefBool(tb.ShowMaximizeButton) && w.Type() != window.NotificationWindow {
			actions = append(actions, "maximize")
		}
		if derefBool(tb.ShowCloseButton) {
			actions = append(actions, "close")
		}
		for i, action := range actions {
			btn := s.doc.CreateElement("button").AddClass(classToolbarButton)
			btn.SetAttribute("data-action", action)
			btn.SetStyles(map[string]string{
				"left":   surface.FormatPx(float64(i * toolbarButtonPx)),
				"top":    "0px",
				"width":  surface.FormatPx(toolbarButtonPx),
				"height": surface.FormatPx(toolbarHeight),
			})
			id, act := w.ID, action
			btn.AddEventListener(surface.EventMouseUp, func(*surface.Event) {
				s.toolbarAction(id, act)
			})
			bar.AppendChild(btn)
		}
		el.AppendChild(bar)
	}

	s.windowsEl.AppendChild(el)
	return el
}

func (s *Shell) toolbarAction(id, action string) {
	s.background(func(ctx context.Context) {
		var err error
		switch action {
		case "minimize":
			err = s.MinimizeWindow(ctx, id)
		case "maximize":
			err = s.MaximizeWindow(ctx, id)
		case "close":
			err = s.CloseWindow(ctx, id)
		}
		if err != nil {
			log.Printf("Shell: toolbar %s on %s: %v", action, id, err)
		}
	})
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

var _ menu.Opener = (*Shell)(nil)
