package surface

import (
	"sort"
	"sync"

	"github.com/1broseidon/orbit/internal/coord"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Document is the element tree the overlay renders into. A single mutex
// guards the whole tree; listeners and observers always run unlocked.
type Document struct {
	mu        sync.Mutex
	body      *Element
	viewport  Size
	listeners listenerSet

	observers  map[int]func([]Mutation)
	observerID int
}

// NewDocument returns an empty document with the given viewport.
func NewDocument(viewport Size) *Document {
	d := &Document{
		viewport:  viewport,
		observers: make(map[int]func([]Mutation)),
	}
	d.body = newElement(d, "body")
	return d
}

// Body returns the root element. It is always connected.
func (d *Document) Body() *Element {
	return d.body
}

// CreateElement returns a detached element owned by d.
func (d *Document) CreateElement(tag string) *Element {
	return newElement(d, tag)
}

// Viewport returns the current viewport size.
func (d *Document) Viewport() Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// SetViewport changes the viewport and dispatches a resize event to the
// document listeners when the size actually changed.
func (d *Document) SetViewport(s Size) {
	d.mu.Lock()
	changed := d.viewport != s
	d.viewport = s
	d.mu.Unlock()
	if changed {
		d.Dispatch(nil, &Event{Type: EventResize})
	}
}

// Observe registers fn for every tree mutation. The returned func unregisters it.
func (d *Document) Observe(fn func([]Mutation)) (cancel func()) {
	d.mu.Lock()
	d.observerID++
	id := d.observerID
	d.observers[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.observers, id)
			d.mu.Unlock()
		})
	}
}

func (d *Document) notify(muts ...Mutation) {
	if len(muts) == 0 {
		return
	}
	d.mu.Lock()
	ids := make([]int, 0, len(d.observers))
	for id := range d.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func([]Mutation), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, d.observers[id])
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(muts)
	}
}

// Contains reports whether el is attached under the body.
func (d *Document) Contains(el *Element) bool {
	if el == nil || el.doc != d {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return el.connectedLocked()
}

// QueryAll returns the connected elements matching sel in document order.
func (d *Document) QueryAll(sel Selector) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Element
	d.body.walkLocked(func(el *Element) {
		if sel.matchLocked(el) {
			out = append(out, el)
		}
	})
	return out
}

// Query returns the first connected element matching sel, or nil.
func (d *Document) Query(sel Selector) *Element {
	found := d.QueryAll(sel)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// ByID returns the connected element with the given id, or nil.
func (d *Document) ByID(id string) *Element {
	if id == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var hit *Element
	d.body.walkLocked(func(el *Element) {
		if hit == nil && el.id == id {
			hit = el
		}
	})
	return hit
}

// HitTest returns the topmost displayed element under the viewport point.
// Later siblings paint above earlier ones. Elements styled
// "pointer-events: none" are transparent to the hit test along with their
// subtree.
func (d *Document) HitTest(x, y float64) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if x < 0 || y < 0 || x >= d.viewport.Width || y >= d.viewport.Height {
		return nil
	}
	return d.body.hitLocked(x, y)
}

// AddEventListener registers fn at document level. Bubbling events reach it
// after every element on the target's ancestor chain.
func (d *Document) AddEventListener(typ string, fn func(*Event)) (remove func()) {
	return d.listeners.add(&d.mu, typ, fn, false)
}

// AddEventListenerOnce is AddEventListener for a single invocation.
func (d *Document) AddEventListenerOnce(typ string, fn func(*Event)) (remove func()) {
	return d.listeners.add(&d.mu, typ, fn, true)
}

// ListenerCount returns the number of document-level listeners for typ.
func (d *Document) ListenerCount(typ string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listeners.count(typ)
}

// Dispatch delivers ev to target and, for bubbling types, to its ancestors
// and finally the document. A nil target delivers to the document only.
func (d *Document) Dispatch(target *Element, ev *Event) {
	ev.Target = target
	path := d.propagationPath(target, ev.Type)

	for _, hop := range path {
		if ev.stopped {
			return
		}
		ev.CurrentTarget = hop.el
		for _, fn := range hop.fns {
			fn(ev)
		}
	}
}

type hop struct {
	el  *Element
	fns []func(*Event)
}

func (d *Document) propagationPath(target *Element, typ string) []hop {
	d.mu.Lock()
	defer d.mu.Unlock()

	var path []hop
	if target != nil {
		for el := target; el != nil; el = el.parent {
			if fns := el.listeners.take(typ); len(fns) > 0 {
				path = append(path, hop{el: el, fns: fns})
			}
			if !bubbles(typ) {
				return path
			}
		}
		if !target.connectedLocked() {
			return path
		}
	}
	if fns := d.listeners.take(typ); len(fns) > 0 {
		path = append(path, hop{fns: fns})
	}
	return path
}

func (d *Document) viewportRectLocked() coord.Rect {
	return coord.Rect{Width: d.viewport.Width, Height: d.viewport.Height}
}
