package pointer

import (
	"sort"
	"sync"

	"github.com/1broseidon/orbit/internal/surface"
)

// Manager owns a keyed set of hover engines on one document.
type Manager struct {
	doc *surface.Document

	mu        sync.Mutex
	listeners map[string]*HoverEngine
}

func NewManager(doc *surface.Document) *Manager {
	return &Manager{
		doc:       doc,
		listeners: make(map[string]*HoverEngine),
	}
}

// AddListener starts a hover engine under id, replacing any previous one.
func (m *Manager) AddListener(id string, opts HoverOptions) (*HoverEngine, error) {
	h, err := NewHoverEngine(m.doc, opts)
	if err != nil {
		return nil, err
	}
	m.RemoveListener(id)

	m.mu.Lock()
	m.listeners[id] = h
	m.mu.Unlock()

	h.Start()
	return h, nil
}

// RemoveListener stops and forgets the engine under id.
func (m *Manager) RemoveListener(id string) {
	m.mu.Lock()
	h := m.listeners[id]
	delete(m.listeners, id)
	m.mu.Unlock()
	if h != nil {
		h.Stop()
	}
}

func (m *Manager) UpdateListener(id string, handlers HoverHandlers) {
	if h := m.Listener(id); h != nil {
		h.UpdateHandlers(handlers)
	}
}

func (m *Manager) EnableListener(id string, enabled bool) {
	if h := m.Listener(id); h != nil {
		h.SetEnabled(enabled)
	}
}

func (m *Manager) RescanListener(id string) {
	if h := m.Listener(id); h != nil {
		h.Rescan()
	}
}

func (m *Manager) RescanAll() {
	for _, h := range m.engines() {
		h.Rescan()
	}
}

// ClearAll stops every engine.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	all := m.listeners
	m.listeners = make(map[string]*HoverEngine)
	m.mu.Unlock()
	for _, h := range all {
		h.Stop()
	}
}

// Listener returns the engine under id, or nil.
func (m *Manager) Listener(id string) *HoverEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listeners[id]
}

// IDs returns the registered ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BoundElementsCount sums the bindings of every engine.
func (m *Manager) BoundElementsCount() int {
	total := 0
	for _, h := range m.engines() {
		total += h.binder.count()
	}
	return total
}

// AllBoundElements concatenates the bindings of every engine in id order.
func (m *Manager) AllBoundElements() []*surface.Element {
	var out []*surface.Element
	for _, h := range m.engines() {
		out = append(out, h.Bound()...)
	}
	return out
}

func (m *Manager) engines() []*HoverEngine {
	ids := m.IDs()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*HoverEngine, 0, len(ids))
	for _, id := range ids {
		if h := m.listeners[id]; h != nil {
			out = append(out, h)
		}
	}
	return out
}
