package shell

import (
	"log"
	"math"
	"time"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/pointer"
	"github.com/1broseidon/orbit/internal/surface"
	"github.com/1broseidon/orbit/internal/view"
)

const passthroughListener = "passthrough"

// ballDrag is the state of a drag that moves the whole root surface.
type ballDrag struct {
	active    bool
	start     coord.Point
	origin    coord.Point
	startedAt time.Time
	showGrid  bool
}

func (s *Shell) startPointer() error {
	drag, err := pointer.NewDragEngine(s.doc, pointer.DragOptions{
		Selectors:  s.cfg.DragSelectors,
		AutoDetect: true,
		Handlers: pointer.DragHandlers{
			OnCustomDrag:     s.beginDrag,
			OnCustomDragMove: s.moveDrag,
			OnCustomDragEnd:  s.endDrag,
		},
	})
	if err != nil {
		return err
	}
	s.drag = drag

	if _, err := s.hover.AddListener(passthroughListener, pointer.HoverOptions{
		Selectors:  s.cfg.InteractiveSelectors,
		AutoDetect: true,
		Handlers: pointer.HoverHandlers{
			OnMouseEnter: s.interactiveEnter,
			OnMouseLeave: s.interactiveLeave,
		},
	}); err != nil {
		return err
	}
	drag.Start()
	return nil
}

// beginDrag captures the pointer and root origin. It returns false so the
// engine does not move the handle element itself.
func (s *Shell) beginDrag(ev *surface.Event, _ *surface.Element) bool {
	r := s.root.Rect()
	s.mu.Lock()
	s.dragState = ballDrag{
		active:    true,
		start:     coord.Point{X: ev.ClientX, Y: ev.ClientY},
		origin:    coord.Point{X: r.X, Y: r.Y},
		startedAt: s.now(),
	}
	s.mu.Unlock()
	s.view.SetDragging(true)
	return false
}

func (s *Shell) moveDrag(ev *surface.Event, _ *surface.Element) bool {
	s.mu.Lock()
	st := s.dragState
	if !st.active {
		s.mu.Unlock()
		return true
	}
	showGrid := st.showGrid
	if !showGrid && s.now().Sub(st.startedAt) > s.gridDelay {
		s.dragState.showGrid = true
	}
	s.mu.Unlock()

	r := s.root.Rect()
	vp := s.doc.Viewport()
	x := st.origin.X + ev.ClientX - st.start.X
	y := st.origin.Y + ev.ClientY - st.start.Y
	x = math.Max(0, math.Min(vp.Width-r.Width, x))
	y = math.Max(0, math.Min(vp.Height-r.Height, y))
	s.root.SetStyles(map[string]string{
		"left": surface.FormatPx(x),
		"top":  surface.FormatPx(y),
	})

	if showGrid {
		s.tracker.SetActiveByClientPoint(ev.ClientX, ev.ClientY, coord.Rect{Width: vp.Width, Height: vp.Height})
	}
	return false
}

func (s *Shell) endDrag(_ *surface.Event, _ *surface.Element) {
	s.mu.Lock()
	wasActive := s.dragState.active
	gridShown := s.dragState.showGrid
	s.dragState = ballDrag{}
	s.mu.Unlock()
	if !wasActive {
		return
	}

	s.view.SetDragging(false)
	if s.view.Mode() == view.ModeBall {
		r := s.root.Rect()
		p := coord.Point{X: r.X, Y: r.Y}
		// A drop over the grid lands the ball on the highlighted area.
		if gridShown {
			vp := s.doc.Viewport()
			p = coord.SnapPosition(s.tracker.Active(), r, vp.Width, vp.Height)
			s.root.SetStyles(map[string]string{
				"left": surface.FormatPx(p.X),
				"top":  surface.FormatPx(p.Y),
			})
		}
		s.view.SetBallPosition(p)
	}
	s.present()
}

// GridVisible reports whether the floating-area grid is shown for the
// current drag.
func (s *Shell) GridVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragState.active && s.dragState.showGrid
}

func (s *Shell) interactiveEnter(*surface.Event) {
	if !s.dragging() {
		s.setPassthrough(false)
	}
	// Some exits never report mouseleave; the next body entry re-enables
	// pass-through so the desktop stays usable.
	remove := s.doc.Body().AddEventListenerOnce(surface.EventMouseEnter, func(*surface.Event) {
		s.setPassthrough(true)
	})
	s.mu.Lock()
	prev := s.removeRecovery
	s.removeRecovery = remove
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
}

func (s *Shell) interactiveLeave(*surface.Event) {
	if !s.dragging() {
		s.setPassthrough(true)
	}
}

func (s *Shell) dragging() bool {
	return s.drag != nil && s.drag.State().IsDragging
}

func (s *Shell) setPassthrough(ignore bool) {
	s.mu.Lock()
	s.passthrough = ignore
	s.mu.Unlock()
	if err := s.host.SetMousePassthrough(ignore); err != nil {
		log.Printf("Shell: set mouse pass-through %v: %v", ignore, err)
	}
}

// Move, Down, Up and Leave feed host input into the document.
func (s *Shell) Move(x, y float64)             { s.router.Move(x, y) }
func (s *Shell) Down(x, y float64, button int) { s.router.Down(x, y, button) }
func (s *Shell) Up(x, y float64, button int)   { s.router.Up(x, y, button) }
func (s *Shell) Leave()                        { s.router.Leave() }

// ViewportChanged resizes the document; the view re-homes the ball.
func (s *Shell) ViewportChanged(size surface.Size) {
	log.Printf("Shell: viewport changed to %.0fx%.0f", size.Width, size.Height)
	s.doc.SetViewport(size)
}
