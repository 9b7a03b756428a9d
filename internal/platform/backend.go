// Package platform abstracts the desktop host the overlay runs on.
package platform

import (
	"context"
	"errors"

	"github.com/1broseidon/orbit/internal/surface"
)

// ErrUnsupported is returned by NewHost on platforms without a host backend.
var ErrUnsupported = errors.New("no overlay host for this platform")

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Display describes a physical display.
type Display struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Bounds  Rect   `json:"bounds"`
	Primary bool   `json:"primary,omitempty"`
}

// Frame is what the host must present: the root surface geometry and the
// regions that stay clickable while pass-through is on.
type Frame struct {
	Bounds      Rect
	Interactive []Rect
}

// EventSink receives host input in viewport coordinates.
type EventSink interface {
	Move(x, y float64)
	Down(x, y float64, button int)
	Up(x, y float64, button int)
	Leave()
	ViewportChanged(s surface.Size)
}

// Bridge is the part of the host the pointer layer talks to.
type Bridge interface {
	// SetMousePassthrough lets clicks outside interactive regions reach the
	// desktop when ignore is true.
	SetMousePassthrough(ignore bool) error
	Viewport() (surface.Size, error)
}

// Host is a full overlay backend.
type Host interface {
	Bridge
	Displays() ([]Display, error)
	Present(f Frame) error
	// Run delivers input to sink until ctx is done.
	Run(ctx context.Context, sink EventSink) error
	Close() error
}

// HotkeyBinder is implemented by hosts that can grab global key sequences.
// Callbacks run on the host's event goroutine and must not block.
type HotkeyBinder interface {
	BindHotkey(seq string, fn func()) error
	ClearHotkeys()
}

// HostOptions configure NewHost.
type HostOptions struct {
	// Display is the X display name; empty uses $DISPLAY.
	Display string
	Name    string
}
