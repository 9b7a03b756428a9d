package surface

import "sync"

// Event types dispatched by the document.
const (
	EventMouseDown     = "mousedown"
	EventMouseMove     = "mousemove"
	EventMouseUp       = "mouseup"
	EventMouseOver     = "mouseover"
	EventMouseOut      = "mouseout"
	EventMouseEnter    = "mouseenter"
	EventMouseLeave    = "mouseleave"
	EventTransitionEnd = "transitionend"
	EventResize        = "resize"
)

// Event is a dispatched pointer, transition or resize event.
type Event struct {
	Type string
	// Target is the element the event was dispatched to. Nil for
	// document-only events such as resize.
	Target *Element
	// CurrentTarget is the element whose listener is running, nil while
	// document listeners run.
	CurrentTarget *Element

	ClientX float64
	ClientY float64
	Button  int

	// Property names the style property for transitionend.
	Property string

	stopped bool
}

// StopPropagation prevents delivery to further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

func bubbles(typ string) bool {
	switch typ {
	case EventMouseEnter, EventMouseLeave, EventTransitionEnd, EventResize:
		return false
	}
	return true
}

type listener struct {
	fn   func(*Event)
	once bool
}

// listenerSet is guarded by the owning document's mutex.
type listenerSet struct {
	byType map[string][]*listener
}

func (s *listenerSet) add(mu *sync.Mutex, typ string, fn func(*Event), once bool) func() {
	l := &listener{fn: fn, once: once}
	mu.Lock()
	if s.byType == nil {
		s.byType = make(map[string][]*listener)
	}
	s.byType[typ] = append(s.byType[typ], l)
	mu.Unlock()

	return func() {
		mu.Lock()
		defer mu.Unlock()
		s.removeLocked(typ, l)
	}
}

func (s *listenerSet) removeLocked(typ string, l *listener) {
	list := s.byType[typ]
	for i, cur := range list {
		if cur == l {
			s.byType[typ] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(s.byType[typ]) == 0 {
		delete(s.byType, typ)
	}
}

// take snapshots the listeners for typ and drops the once-listeners.
func (s *listenerSet) take(typ string) []func(*Event) {
	list := s.byType[typ]
	if len(list) == 0 {
		return nil
	}
	fns := make([]func(*Event), 0, len(list))
	for _, l := range list {
		fns = append(fns, l.fn)
		if l.once {
			s.removeLocked(typ, l)
		}
	}
	return fns
}

func (s *listenerSet) count(typ string) int {
	return len(s.byType[typ])
}
