package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/1broseidon/orbit/internal/surface"
)

// Nop is a headless host. It records what it was asked to present and can
// inject input, which makes it the host of choice for tests.
type Nop struct {
	mu          sync.Mutex
	viewport    surface.Size
	passthrough bool
	frame       Frame
	presents    int
	sink        EventSink
	hotkeys     map[string]func()
}

var (
	_ Host         = (*Nop)(nil)
	_ HotkeyBinder = (*Nop)(nil)
)

// NewNop returns a headless host with the given viewport.
func NewNop(viewport surface.Size) *Nop {
	return &Nop{viewport: viewport, passthrough: true}
}

func (n *Nop) SetMousePassthrough(ignore bool) error {
	n.mu.Lock()
	n.passthrough = ignore
	n.mu.Unlock()
	return nil
}

// Passthrough reports the last pass-through request.
func (n *Nop) Passthrough() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.passthrough
}

func (n *Nop) Viewport() (surface.Size, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.viewport, nil
}

func (n *Nop) Displays() ([]Display, error) {
	vp, _ := n.Viewport()
	return []Display{{
		ID:      0,
		Name:    "headless",
		Bounds:  Rect{Width: int(vp.Width), Height: int(vp.Height)},
		Primary: true,
	}}, nil
}

func (n *Nop) Present(f Frame) error {
	n.mu.Lock()
	n.frame = f
	n.presents++
	n.mu.Unlock()
	return nil
}

// LastFrame returns the most recent frame and how many were presented.
func (n *Nop) LastFrame() (Frame, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.frame, n.presents
}

func (n *Nop) Run(ctx context.Context, sink EventSink) error {
	n.mu.Lock()
	n.sink = sink
	n.mu.Unlock()
	<-ctx.Done()
	n.mu.Lock()
	n.sink = nil
	n.mu.Unlock()
	return nil
}

// Resize changes the viewport and notifies a running sink.
func (n *Nop) Resize(s surface.Size) {
	n.mu.Lock()
	n.viewport = s
	sink := n.sink
	n.mu.Unlock()
	if sink != nil {
		sink.ViewportChanged(s)
	}
}

// Sink returns the sink of a running Run call, or nil.
func (n *Nop) Sink() EventSink {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sink
}

func (n *Nop) BindHotkey(seq string, fn func()) error {
	if seq == "" {
		return fmt.Errorf("empty key sequence")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.hotkeys == nil {
		n.hotkeys = make(map[string]func())
	}
	n.hotkeys[seq] = fn
	return nil
}

func (n *Nop) ClearHotkeys() {
	n.mu.Lock()
	n.hotkeys = nil
	n.mu.Unlock()
}

// Press runs the callback bound to seq and reports whether one was bound.
func (n *Nop) Press(seq string) bool {
	n.mu.Lock()
	fn := n.hotkeys[seq]
	n.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (n *Nop) Close() error { return nil }
