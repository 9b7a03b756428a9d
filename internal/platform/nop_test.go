package platform

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/orbit/internal/surface"
)

type recordingSink struct {
	mu    sync.Mutex
	sizes []surface.Size
}

func (s *recordingSink) Move(x, y float64)             {}
func (s *recordingSink) Down(x, y float64, button int) {}
func (s *recordingSink) Up(x, y float64, button int)   {}
func (s *recordingSink) Leave()                        {}
func (s *recordingSink) ViewportChanged(v surface.Size) {
	s.mu.Lock()
	s.sizes = append(s.sizes, v)
	s.mu.Unlock()
}

func TestNopRecordsPresentAndPassthrough(t *testing.T) {
	n := NewNop(surface.Size{Width: 800, Height: 600})
	if !n.Passthrough() {
		t.Fatalf("pass-through should start enabled")
	}
	if err := n.SetMousePassthrough(false); err != nil || n.Passthrough() {
		t.Fatalf("SetMousePassthrough(false) = %v, passthrough=%v", err, n.Passthrough())
	}
	f := Frame{Bounds: Rect{X: 1, Y: 2, Width: 40, Height: 40}, Interactive: []Rect{{X: 1, Y: 2, Width: 40, Height: 40}}}
	if err := n.Present(f); err != nil {
		t.Fatalf("Present: %v", err)
	}
	got, count := n.LastFrame()
	if count != 1 || got.Bounds != f.Bounds || len(got.Interactive) != 1 {
		t.Fatalf("LastFrame = %+v, %d", got, count)
	}
	displays, err := n.Displays()
	if err != nil || len(displays) != 1 || displays[0].Bounds.Width != 800 {
		t.Fatalf("Displays = %+v, %v", displays, err)
	}
}

func TestNopRunDeliversResize(t *testing.T) {
	n := NewNop(surface.Size{Width: 800, Height: 600})
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx, sink) }()

	deadline := time.Now().Add(time.Second)
	for n.Sink() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("Run never registered the sink")
		}
		time.Sleep(time.Millisecond)
	}
	n.Resize(surface.Size{Width: 1024, Height: 768})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.sizes) != 1 || sink.sizes[0].Width != 1024 {
		t.Fatalf("sizes = %+v", sink.sizes)
	}
	if vp, _ := n.Viewport(); vp.Height != 768 {
		t.Fatalf("viewport = %+v", vp)
	}
}

func TestNopHotkeys(t *testing.T) {
	n := NewNop(surface.Size{Width: 100, Height: 100})
	if n.Press("Mod4-grave") {
		t.Fatalf("press without binding should report false")
	}
	if err := n.BindHotkey("", func() {}); err == nil {
		t.Fatalf("expected error for empty sequence")
	}
	calls := 0
	if err := n.BindHotkey("Mod4-grave", func() { calls++ }); err != nil {
		t.Fatalf("BindHotkey: %v", err)
	}
	if !n.Press("Mod4-grave") || calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
	n.ClearHotkeys()
	if n.Press("Mod4-grave") || calls != 1 {
		t.Fatalf("cleared hotkey still fired, calls = %d", calls)
	}
}
