package pointer

import (
	"fmt"
	"sync"

	"github.com/1broseidon/orbit/internal/surface"
)

// DefaultHoverSelector matches elements that opt into hover tracking
// through their inline style.
const DefaultHoverSelector = `[style*="app-region: interactive"]`

// HoverHandlers receive enter, leave and move events of bound elements.
type HoverHandlers struct {
	OnMouseEnter func(ev *surface.Event)
	OnMouseLeave func(ev *surface.Event)
	OnMouseMove  func(ev *surface.Event)
}

// HoverOptions configures a HoverEngine.
type HoverOptions struct {
	Element *surface.Element
	// Disabled starts the engine with delivery switched off.
	Disabled bool
	// Selectors defaults to DefaultHoverSelector.
	Selectors  []string
	AutoDetect bool
	Handlers   HoverHandlers
}

// HoverEngine delivers hover events for a dynamic element set using the
// same binding model as DragEngine.
type HoverEngine struct {
	doc    *surface.Document
	opts   HoverOptions
	binder *binder

	mu       sync.Mutex
	enabled  bool
	handlers HoverHandlers
}

// NewHoverEngine compiles the selectors and returns an unbound engine.
func NewHoverEngine(doc *surface.Document, opts HoverOptions) (*HoverEngine, error) {
	if doc == nil {
		return nil, fmt.Errorf("hover engine requires a document")
	}
	patterns := opts.Selectors
	if len(patterns) == 0 {
		patterns = []string{DefaultHoverSelector}
	}
	sel, err := surface.CompileAll(patterns...)
	if err != nil {
		return nil, fmt.Errorf("invalid hover selector: %w", err)
	}
	h := &HoverEngine{
		doc:      doc,
		opts:     opts,
		enabled:  !opts.Disabled,
		handlers: opts.Handlers,
	}
	h.binder = newBinder(doc, sel, h.bindElement)
	return h, nil
}

// Start binds the element set: every match when auto-detecting, otherwise
// the configured element.
func (h *HoverEngine) Start() {
	if h.opts.AutoDetect {
		h.binder.observe()
		h.binder.rescan()
		return
	}
	if h.opts.Element != nil {
		h.binder.bindOne(h.opts.Element)
	}
}

// Stop stops observing and unbinds everything.
func (h *HoverEngine) Stop() {
	h.binder.stopObserving()
	h.binder.unbindAll()
}

// Rescan reconciles bindings against the current document.
func (h *HoverEngine) Rescan() { h.binder.rescan() }

// Rebind drops every binding and scans again.
func (h *HoverEngine) Rebind() {
	h.binder.unbindAll()
	h.binder.rescan()
}

// Bind attaches the handlers to el regardless of the selector.
func (h *HoverEngine) Bind(el *surface.Element) { h.binder.bindOne(el) }

// Unbind detaches el.
func (h *HoverEngine) Unbind(el *surface.Element) { h.binder.unbindOne(el) }

// UnbindAll detaches every element but keeps observing.
func (h *HoverEngine) UnbindAll() { h.binder.unbindAll() }

// Bound returns the currently bound elements.
func (h *HoverEngine) Bound() []*surface.Element { return h.binder.snapshot() }

// IsBound reports whether el is bound.
func (h *HoverEngine) IsBound(el *surface.Element) bool { return h.binder.isBound(el) }

// SetEnabled switches delivery on or off without touching bindings.
func (h *HoverEngine) SetEnabled(on bool) {
	h.mu.Lock()
	h.enabled = on
	h.mu.Unlock()
}

// Enabled reports whether delivery is on.
func (h *HoverEngine) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

// UpdateHandlers replaces the handlers set in next; nil fields keep the
// current handler.
func (h *HoverEngine) UpdateHandlers(next HoverHandlers) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if next.OnMouseEnter != nil {
		h.handlers.OnMouseEnter = next.OnMouseEnter
	}
	if next.OnMouseLeave != nil {
		h.handlers.OnMouseLeave = next.OnMouseLeave
	}
	if next.OnMouseMove != nil {
		h.handlers.OnMouseMove = next.OnMouseMove
	}
}

func (h *HoverEngine) bindElement(el *surface.Element) func() {
	removers := []func(){
		el.AddEventListener(surface.EventMouseEnter, func(ev *surface.Event) {
			h.deliver("OnMouseEnter", ev, func(hh HoverHandlers) func(*surface.Event) { return hh.OnMouseEnter })
		}),
		el.AddEventListener(surface.EventMouseLeave, func(ev *surface.Event) {
			h.deliver("OnMouseLeave", ev, func(hh HoverHandlers) func(*surface.Event) { return hh.OnMouseLeave })
		}),
		el.AddEventListener(surface.EventMouseMove, func(ev *surface.Event) {
			h.deliver("OnMouseMove", ev, func(hh HoverHandlers) func(*surface.Event) { return hh.OnMouseMove })
		}),
	}
	return func() {
		for _, rm := range removers {
			rm()
		}
	}
}

func (h *HoverEngine) deliver(name string, ev *surface.Event, pick func(HoverHandlers) func(*surface.Event)) {
	h.mu.Lock()
	enabled := h.enabled
	fn := pick(h.handlers)
	h.mu.Unlock()
	if !enabled || fn == nil {
		return
	}
	call(name, func() { fn(ev) })
}
