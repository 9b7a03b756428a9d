package shell

import (
	"log"
	"math"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/platform"
	"github.com/1broseidon/orbit/internal/surface"
)

// present mirrors the root geometry and the clickable regions onto the host.
func (s *Shell) present() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	r := s.root.Rect()
	frame := platform.Frame{Bounds: toPlatform(r)}
	for _, el := range s.doc.QueryAll(s.interactive) {
		if !el.Displayed() {
			continue
		}
		if clipped, ok := intersect(el.Rect(), r); ok {
			frame.Interactive = append(frame.Interactive, toPlatform(clipped))
		}
	}
	if err := s.host.Present(frame); err != nil {
		log.Printf("Shell: present: %v", err)
	}
}

func (s *Shell) observeTree() {
	cancel := s.doc.Observe(func([]surface.Mutation) { s.present() })
	removeEnd := s.root.AddEventListener(surface.EventTransitionEnd, func(*surface.Event) { s.present() })
	s.mu.Lock()
	s.cleanup = append(s.cleanup, cancel, removeEnd)
	s.mu.Unlock()
}

func intersect(a, b coord.Rect) (coord.Rect, bool) {
	x1 := math.Max(a.X, b.X)
	y1 := math.Max(a.Y, b.Y)
	x2 := math.Min(a.Right(), b.Right())
	y2 := math.Min(a.Bottom(), b.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return coord.Rect{}, false
	}
	return coord.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

func toPlatform(r coord.Rect) platform.Rect {
	return platform.Rect{
		X:      int(math.Round(r.X)),
		Y:      int(math.Round(r.Y)),
		Width:  int(math.Round(r.Width)),
		Height: int(math.Round(r.Height)),
	}
}
