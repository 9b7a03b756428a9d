//go:build linux

package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/orbit/internal/hotkeys"
	"github.com/1broseidon/orbit/internal/surface"
	"github.com/1broseidon/orbit/internal/x11"
)

const (
	overlayBackground = 0x2d3436
	quitGrace         = 500 * time.Millisecond
)

// LinuxHost presents the overlay as a single override-redirect X11 window.
type LinuxHost struct {
	conn    *x11.Connection
	overlay *x11.Overlay
	hotkeys *hotkeys.Handler

	mu          sync.Mutex
	passthrough bool
	frame       Frame
}

var (
	_ Host         = (*LinuxHost)(nil)
	_ HotkeyBinder = (*LinuxHost)(nil)
)

// NewHost opens the X display and creates the overlay window.
func NewHost(opts HostOptions) (Host, error) {
	return NewLinuxHost(opts)
}

// NewLinuxHost creates a Linux host by opening a fresh X11 connection.
func NewLinuxHost(opts HostOptions) (*LinuxHost, error) {
	conn, err := x11.NewConnection(opts.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	name := opts.Name
	if name == "" {
		name = "orbit"
	}
	overlay, err := x11.NewOverlay(conn, name, overlayBackground)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &LinuxHost{
		conn:        conn,
		overlay:     overlay,
		hotkeys:     hotkeys.NewHandler(conn),
		passthrough: true,
	}, nil
}

func (h *LinuxHost) SetMousePassthrough(ignore bool) error {
	h.mu.Lock()
	h.passthrough = ignore
	frame := h.frame
	h.mu.Unlock()
	return h.applyInput(frame, ignore)
}

func (h *LinuxHost) Viewport() (surface.Size, error) {
	w, hgt, err := h.conn.RootSize()
	if err != nil {
		return surface.Size{}, err
	}
	return surface.Size{Width: float64(w), Height: float64(hgt)}, nil
}

// Displays returns all active displays.
func (h *LinuxHost) Displays() ([]Display, error) {
	monitors, err := h.conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:      m.ID,
			Name:    m.Name,
			Bounds:  Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
			Primary: m.Primary,
		})
	}
	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})
	return displays, nil
}

// Present moves the overlay to the frame bounds and refreshes its input shape.
func (h *LinuxHost) Present(f Frame) error {
	if err := h.overlay.Place(toX11(f.Bounds)); err != nil {
		return err
	}
	h.mu.Lock()
	h.frame = f
	ignore := h.passthrough
	h.mu.Unlock()
	return h.applyInput(f, ignore)
}

func (h *LinuxHost) applyInput(f Frame, ignore bool) error {
	if f.Bounds.Width <= 0 || f.Bounds.Height <= 0 {
		return nil
	}
	rects := make([]x11.Rect, 0, len(f.Interactive))
	for _, r := range f.Interactive {
		rects = append(rects, toX11(r))
	}
	return h.overlay.SetInputRegion(rects, !ignore)
}

func (h *LinuxHost) BindHotkey(seq string, fn func()) error {
	return h.hotkeys.Bind(seq, fn)
}

func (h *LinuxHost) ClearHotkeys() { h.hotkeys.Clear() }

// Run runs the X event loop until ctx is done.
func (h *LinuxHost) Run(ctx context.Context, sink EventSink) error {
	err := h.overlay.Listen(x11.PointerHandlers{
		Motion: func(x, y int) { sink.Move(float64(x), float64(y)) },
		Press:  func(x, y, b int) { sink.Down(float64(x), float64(y), b) },
		Release: func(x, y, b int) {
			sink.Up(float64(x), float64(y), b)
		},
		Leave: sink.Leave,
		RootResized: func(w, hgt int) {
			sink.ViewportChanged(surface.Size{Width: float64(w), Height: float64(hgt)})
		},
	})
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.conn.EventLoop()
	}()

	select {
	case <-ctx.Done():
		// The loop only notices Quit after the next event; Close unblocks it.
		h.conn.Quit()
		select {
		case <-done:
		case <-time.After(quitGrace):
		}
	case <-done:
	}
	return nil
}

// Close destroys the overlay and disconnects.
func (h *LinuxHost) Close() error {
	if h == nil || h.conn == nil {
		return nil
	}
	h.hotkeys.Clear()
	h.overlay.Destroy()
	h.conn.Close()
	return nil
}

func toX11(r Rect) x11.Rect {
	return x11.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
