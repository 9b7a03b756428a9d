package pointer

import (
	"sync"

	"github.com/1broseidon/orbit/internal/surface"
)

// binder keeps a set of elements bound while they match a selector. The set
// is reconciled from the document mutation feed or by an explicit Rescan.
type binder struct {
	doc  *surface.Document
	sel  surface.Selector
	bind func(*surface.Element) (unbind func())

	mu     sync.Mutex
	bound  map[*surface.Element]func()
	order  []*surface.Element
	cancel func()
}

func newBinder(doc *surface.Document, sel surface.Selector, bind func(*surface.Element) func()) *binder {
	return &binder{
		doc:   doc,
		sel:   sel,
		bind:  bind,
		bound: make(map[*surface.Element]func()),
	}
}

// observe subscribes to document mutations. Calling it twice is a no-op.
func (b *binder) observe() {
	b.mu.Lock()
	if b.cancel != nil {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	cancel := b.doc.Observe(b.handleMutations)

	b.mu.Lock()
	if b.cancel != nil {
		b.mu.Unlock()
		cancel()
		return
	}
	b.cancel = cancel
	b.mu.Unlock()
}

// stopObserving drops the mutation subscription but keeps current bindings.
func (b *binder) stopObserving() {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (b *binder) observing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancel != nil
}

// rescan unbinds elements that no longer match or left the document, then
// binds every connected match.
func (b *binder) rescan() {
	for _, el := range b.snapshot() {
		if !b.sel.Match(el) || !b.doc.Contains(el) {
			b.unbindOne(el)
		}
	}
	for _, el := range b.doc.QueryAll(b.sel) {
		b.bindOne(el)
	}
}

func (b *binder) handleMutations(muts []surface.Mutation) {
	for _, m := range muts {
		switch m.Kind {
		case surface.AttributeMutation:
			if b.sel.Match(m.Target) && b.doc.Contains(m.Target) {
				b.bindOne(m.Target)
			} else {
				b.unbindOne(m.Target)
			}
		case surface.ChildListMutation:
			for _, added := range m.Added {
				walk(added, func(el *surface.Element) {
					if b.sel.Match(el) && b.doc.Contains(el) {
						b.bindOne(el)
					}
				})
			}
			for _, removed := range m.Removed {
				walk(removed, func(el *surface.Element) {
					if !b.doc.Contains(el) {
						b.unbindOne(el)
					}
				})
			}
		}
	}
}

func (b *binder) bindOne(el *surface.Element) {
	if el == nil {
		return
	}
	b.mu.Lock()
	if _, ok := b.bound[el]; ok {
		b.mu.Unlock()
		return
	}
	b.bound[el] = nil
	b.order = append(b.order, el)
	b.mu.Unlock()

	unbind := b.bind(el)

	b.mu.Lock()
	if _, ok := b.bound[el]; ok {
		b.bound[el] = unbind
		unbind = nil
	}
	b.mu.Unlock()
	// Unbound while binding.
	if unbind != nil {
		unbind()
	}
}

func (b *binder) unbindOne(el *surface.Element) {
	b.mu.Lock()
	unbind, ok := b.bound[el]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.bound, el)
	for i, cur := range b.order {
		if cur == el {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	if unbind != nil {
		unbind()
	}
}

func (b *binder) unbindAll() {
	for _, el := range b.snapshot() {
		b.unbindOne(el)
	}
}

func (b *binder) isBound(el *surface.Element) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.bound[el]
	return ok
}

func (b *binder) snapshot() []*surface.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*surface.Element(nil), b.order...)
}

func (b *binder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

func walk(el *surface.Element, fn func(*surface.Element)) {
	fn(el)
	for _, c := range el.Children() {
		walk(c, fn)
	}
}
