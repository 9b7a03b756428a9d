package pointer

import (
	"sync"

	"github.com/1broseidon/orbit/internal/surface"
)

// Router turns raw pointer samples from the host into document events.
// It tracks the hovered chain to synthesize enter/leave pairs the way a
// browser does: leave deepest-first, enter outermost-first.
type Router struct {
	doc *surface.Document

	mu      sync.Mutex
	x, y    float64
	hovered []*surface.Element
}

func NewRouter(doc *surface.Document) *Router {
	return &Router{doc: doc}
}

// Position returns the last reported pointer position.
func (r *Router) Position() (x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x, r.y
}

// Move reports a pointer position in viewport coordinates.
func (r *Router) Move(x, y float64) {
	target := r.doc.HitTest(x, y)
	r.retarget(target, x, y)
	r.doc.Dispatch(target, r.event(surface.EventMouseMove, x, y, 0))
}

// Down reports a button press at the given position.
func (r *Router) Down(x, y float64, button int) {
	target := r.doc.HitTest(x, y)
	r.retarget(target, x, y)
	r.doc.Dispatch(target, r.event(surface.EventMouseDown, x, y, button))
}

// Up reports a button release at the given position.
func (r *Router) Up(x, y float64, button int) {
	target := r.doc.HitTest(x, y)
	r.retarget(target, x, y)
	r.doc.Dispatch(target, r.event(surface.EventMouseUp, x, y, button))
}

// Leave reports that the pointer left the surface entirely.
func (r *Router) Leave() {
	x, y := r.Position()
	r.retarget(nil, x, y)
}

func (r *Router) event(typ string, x, y float64, button int) *surface.Event {
	return &surface.Event{Type: typ, ClientX: x, ClientY: y, Button: button}
}

func (r *Router) retarget(target *surface.Element, x, y float64) {
	next := chain(target)

	r.mu.Lock()
	prev := r.hovered
	r.hovered = next
	r.x, r.y = x, y
	r.mu.Unlock()

	var prevTarget *surface.Element
	if len(prev) > 0 {
		prevTarget = prev[0]
	}
	if prevTarget == target {
		return
	}

	if prevTarget != nil {
		r.doc.Dispatch(prevTarget, r.event(surface.EventMouseOut, x, y, 0))
	}
	for _, el := range prev {
		if !contains(next, el) {
			r.doc.Dispatch(el, r.event(surface.EventMouseLeave, x, y, 0))
		}
	}
	if target != nil {
		r.doc.Dispatch(target, r.event(surface.EventMouseOver, x, y, 0))
	}
	for i := len(next) - 1; i >= 0; i-- {
		if !contains(prev, next[i]) {
			r.doc.Dispatch(next[i], r.event(surface.EventMouseEnter, x, y, 0))
		}
	}
}

// chain returns target followed by its ancestors.
func chain(target *surface.Element) []*surface.Element {
	var out []*surface.Element
	for el := target; el != nil; el = el.Parent() {
		out = append(out, el)
	}
	return out
}

func contains(list []*surface.Element, el *surface.Element) bool {
	for _, cur := range list {
		if cur == el {
			return true
		}
	}
	return false
}
