package shell

import (
	"context"
	"log"

	"github.com/1broseidon/orbit/internal/platform"
	"github.com/1broseidon/orbit/internal/view"
)

// ToggleMenu opens the menu from ball mode and collapses it from menu mode.
// It does nothing while a component window is open.
func (s *Shell) ToggleMenu(ctx context.Context) {
	switch s.view.State().Mode {
	case view.ModeBall:
		s.view.ShowMenu(ctx)
	case view.ModeMenu:
		s.view.HideMenu(ctx)
	}
}

// bindMenuHotkey replaces any previous grab with seq. An empty seq only
// releases.
func (s *Shell) bindMenuHotkey(seq string) {
	hk, ok := s.host.(platform.HotkeyBinder)
	if !ok {
		return
	}
	hk.ClearHotkeys()
	if seq == "" {
		return
	}
	if err := hk.BindHotkey(seq, func() { s.background(s.ToggleMenu) }); err != nil {
		log.Printf("Shell: menu hotkey: %v", err)
	}
}

func (s *Shell) releaseHotkeys() {
	if hk, ok := s.host.(platform.HotkeyBinder); ok {
		hk.ClearHotkeys()
	}
}
