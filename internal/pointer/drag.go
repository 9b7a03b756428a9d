package pointer

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/surface"
)

// DefaultDragSelector matches elements that opt into dragging through
// their inline style.
const DefaultDragSelector = `[style*="app-region: drag"]`

// DragState is the transient state of one drag session.
type DragState struct {
	IsDragging bool
	// Position is the element's top-left in viewport coordinates.
	Position coord.Point
	// DragStart is the pointer offset from Position captured on mouse-down.
	DragStart     coord.Point
	ContainerSize surface.Size
}

// DragHandlers are the optional callbacks of a drag session.
//
// OnCustomDrag runs on mouse-down; returning false skips capturing the
// element rect and grab offset but the session still starts.
// OnCustomDragMove runs on every move; returning false skips the built-in
// clamp-and-write. OnCustomDragEnd always runs on mouse-up.
type DragHandlers struct {
	OnDragStart func(el *surface.Element)
	OnDrag      func(pos coord.Point, el *surface.Element)
	OnDragEnd   func(el *surface.Element)

	OnCustomDrag     func(ev *surface.Event, el *surface.Element) bool
	OnCustomDragMove func(ev *surface.Event, el *surface.Element) bool
	OnCustomDragEnd  func(ev *surface.Event, el *surface.Element)
}

// DragOptions configures a DragEngine.
type DragOptions struct {
	// Selectors defaults to DefaultDragSelector.
	Selectors []string
	// AutoDetect binds every matching element and follows document mutations.
	// Without it only Element is bound.
	AutoDetect bool
	Element    *surface.Element

	InitialPosition *coord.Point
	ContainerSize   *surface.Size
	// DisableDefaultDrag ignores mouse-downs that OnCustomDrag did not claim.
	DisableDefaultDrag bool

	Handlers DragHandlers
}

// DragEngine turns mouse-down/move/up on a dynamic element set into drag
// sessions. Move and up listeners live on the document only while a session
// is active.
type DragEngine struct {
	doc    *surface.Document
	opts   DragOptions
	binder *binder

	mu         sync.Mutex
	state      DragState
	current    *surface.Element
	removeMove func()
	removeUp   func()
	started    bool
}

// NewDragEngine compiles the selectors and returns an idle engine.
func NewDragEngine(doc *surface.Document, opts DragOptions) (*DragEngine, error) {
	if doc == nil {
		return nil, fmt.Errorf("drag engine requires a document")
	}
	patterns := opts.Selectors
	if len(patterns) == 0 {
		patterns = []string{DefaultDragSelector}
	}
	sel, err := surface.CompileAll(patterns...)
	if err != nil {
		return nil, fmt.Errorf("invalid drag selector: %w", err)
	}

	e := &DragEngine{doc: doc, opts: opts}
	e.state.Position = coord.Point{X: 100, Y: 100}
	if opts.InitialPosition != nil {
		e.state.Position = *opts.InitialPosition
	}
	e.state.ContainerSize = surface.Size{Width: 300, Height: 200}
	if opts.ContainerSize != nil {
		e.state.ContainerSize = *opts.ContainerSize
	}
	e.binder = newBinder(doc, sel, e.bindElement)
	return e, nil
}

// Start binds the engine's element set.
func (e *DragEngine) Start() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	if e.opts.AutoDetect {
		e.binder.observe()
		e.binder.rescan()
		return
	}
	if e.opts.Element != nil {
		e.binder.bindOne(e.opts.Element)
	}
}

// Stop ends any session, stops observing and unbinds everything.
func (e *DragEngine) Stop() {
	e.mu.Lock()
	e.started = false
	e.detachDocumentListenersLocked()
	e.state.IsDragging = false
	e.current = nil
	e.mu.Unlock()

	e.binder.stopObserving()
	e.binder.unbindAll()
}

// Rescan reconciles bindings against the current document.
func (e *DragEngine) Rescan() {
	e.binder.rescan()
}

// Rebind drops every binding and scans again.
func (e *DragEngine) Rebind() {
	e.binder.unbindAll()
	e.binder.rescan()
}

// Bound returns the currently bound elements.
func (e *DragEngine) Bound() []*surface.Element {
	return e.binder.snapshot()
}

// IsBound reports whether el currently has a mouse-down binding.
func (e *DragEngine) IsBound(el *surface.Element) bool {
	return e.binder.isBound(el)
}

// State returns a copy of the drag state.
func (e *DragEngine) State() DragState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns the element being dragged, if any.
func (e *DragEngine) Current() *surface.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// UpdateContainerSize overrides the size used for viewport clamping.
func (e *DragEngine) UpdateContainerSize(s surface.Size) {
	e.mu.Lock()
	e.state.ContainerSize = s
	e.mu.Unlock()
}

// SetPosition overrides the tracked position.
func (e *DragEngine) SetPosition(p coord.Point) {
	e.mu.Lock()
	e.state.Position = p
	e.mu.Unlock()
}

func (e *DragEngine) bindElement(el *surface.Element) func() {
	return el.AddEventListener(surface.EventMouseDown, func(ev *surface.Event) {
		e.StartDrag(ev, el)
	})
}

// StartDrag begins a session on el. A nil or detached element aborts
// without registering document listeners.
func (e *DragEngine) StartDrag(ev *surface.Event, el *surface.Element) {
	if el == nil || !e.doc.Contains(el) {
		log.Printf("Pointer: drag start ignored, element missing or detached")
		return
	}
	h := e.opts.Handlers

	capture := true
	if h.OnCustomDrag != nil {
		allow, ok := callBool("OnCustomDrag", func() bool { return h.OnCustomDrag(ev, el) })
		if !ok {
			return
		}
		capture = allow
	}
	if capture && e.opts.DisableDefaultDrag {
		return
	}

	var rect coord.Rect
	if capture {
		rect = el.Rect()
	}

	e.mu.Lock()
	if e.state.IsDragging {
		e.mu.Unlock()
		return
	}
	if capture {
		e.state.Position = coord.Point{X: rect.X, Y: rect.Y}
		e.state.ContainerSize = surface.Size{Width: rect.Width, Height: rect.Height}
		e.state.DragStart = coord.Point{X: ev.ClientX - rect.X, Y: ev.ClientY - rect.Y}
	}
	e.state.IsDragging = true
	e.current = el
	e.detachDocumentListenersLocked()
	e.mu.Unlock()

	removeMove := e.doc.AddEventListener(surface.EventMouseMove, e.onMove)
	removeUp := e.doc.AddEventListener(surface.EventMouseUp, e.StopDrag)

	e.mu.Lock()
	if e.current != el || !e.state.IsDragging {
		// The session ended while the listeners were being registered.
		e.mu.Unlock()
		removeMove()
		removeUp()
		return
	}
	e.removeMove = removeMove
	e.removeUp = removeUp
	e.mu.Unlock()

	if h.OnDragStart != nil {
		call("OnDragStart", func() { h.OnDragStart(el) })
	}
}

func (e *DragEngine) onMove(ev *surface.Event) {
	e.mu.Lock()
	el := e.current
	dragging := e.state.IsDragging
	e.mu.Unlock()
	if !dragging || el == nil {
		return
	}
	h := e.opts.Handlers

	useDefault := true
	if h.OnCustomDragMove != nil {
		allow, ok := callBool("OnCustomDragMove", func() bool { return h.OnCustomDragMove(ev, el) })
		if !ok {
			return
		}
		useDefault = allow
	}

	if useDefault {
		vp := e.doc.Viewport()
		e.mu.Lock()
		x := ev.ClientX - e.state.DragStart.X
		y := ev.ClientY - e.state.DragStart.Y
		x = math.Max(0, math.Min(vp.Width-e.state.ContainerSize.Width, x))
		y = math.Max(0, math.Min(vp.Height-e.state.ContainerSize.Height, y))
		e.state.Position = coord.Point{X: x, Y: y}
		e.mu.Unlock()

		el.SetStyles(map[string]string{
			"left": surface.FormatPx(x),
			"top":  surface.FormatPx(y),
		})
	}

	if h.OnDrag != nil {
		pos := e.State().Position
		call("OnDrag", func() { h.OnDrag(pos, el) })
	}
}

// StopDrag ends the active session. State is reset before any end handler
// runs, so a failing handler cannot leave the engine dragging.
func (e *DragEngine) StopDrag(ev *surface.Event) {
	e.mu.Lock()
	el := e.current
	e.state.IsDragging = false
	e.state.DragStart = coord.Point{}
	e.current = nil
	e.detachDocumentListenersLocked()
	e.mu.Unlock()

	if el == nil {
		return
	}
	h := e.opts.Handlers
	if h.OnCustomDragEnd != nil && ev != nil {
		call("OnCustomDragEnd", func() { h.OnCustomDragEnd(ev, el) })
	}
	if h.OnDragEnd != nil {
		call("OnDragEnd", func() { h.OnDragEnd(el) })
	}
}

func (e *DragEngine) detachDocumentListenersLocked() {
	if e.removeMove != nil {
		e.removeMove()
		e.removeMove = nil
	}
	if e.removeUp != nil {
		e.removeUp()
		e.removeUp = nil
	}
}

func callBool(name string, fn func() bool) (result bool, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pointer: %s handler panicked: %v", name, r)
			result, ok = false, false
		}
	}()
	return fn(), true
}

func call(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Pointer: %s handler panicked: %v", name, r)
		}
	}()
	fn()
}
