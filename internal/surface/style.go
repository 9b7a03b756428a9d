package surface

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// animatable lists the properties that honour the transition style.
var animatable = map[string]bool{
	"left":    true,
	"top":     true,
	"width":   true,
	"height":  true,
	"opacity": true,
}

// styleMap is an inline style declaration that keeps insertion order, so the
// serialized form is stable for "[style*=...]" selectors.
type styleMap struct {
	keys   []string
	values map[string]string
}

func (m *styleMap) get(prop string) string {
	return m.values[prop]
}

func (m *styleMap) set(prop, value string) bool {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	old, had := m.values[prop]
	if had && old == value {
		return false
	}
	if !had {
		m.keys = append(m.keys, prop)
	}
	m.values[prop] = value
	return true
}

func (m *styleMap) remove(prop string) bool {
	if _, had := m.values[prop]; !had {
		return false
	}
	delete(m.values, prop)
	for i, k := range m.keys {
		if k == prop {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *styleMap) String() string {
	parts := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		parts = append(parts, k+": "+m.values[k])
	}
	return strings.Join(parts, "; ")
}

type pendingTransition struct {
	timer *time.Timer
	gen   uint64
}

var transitionGen atomic.Uint64

// SetStyle sets one inline style property. An empty value removes it.
func (e *Element) SetStyle(prop, value string) *Element {
	e.doc.mu.Lock()
	changed := e.setStyleLocked(prop, value)
	e.doc.mu.Unlock()
	if changed {
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: "style"})
	}
	return e
}

// SetStyles applies several properties as one style mutation. A "transition"
// entry is applied first so it governs the other properties of the batch.
func (e *Element) SetStyles(styles map[string]string) *Element {
	keys := make([]string, 0, len(styles))
	for k := range styles {
		if k != "transition" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := styles["transition"]; ok {
		keys = append([]string{"transition"}, keys...)
	}

	e.doc.mu.Lock()
	changed := false
	for _, k := range keys {
		if e.setStyleLocked(k, styles[k]) {
			changed = true
		}
	}
	e.doc.mu.Unlock()
	if changed {
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: "style"})
	}
	return e
}

// SetStyleText replaces the whole inline style with a "prop: value; ..." string.
func (e *Element) SetStyleText(text string) *Element {
	next := parseStyleString(text)
	e.doc.mu.Lock()
	changed := false
	for _, k := range append([]string(nil), e.style.keys...) {
		if _, keep := next[k]; !keep && e.setStyleLocked(k, "") {
			changed = true
		}
	}
	e.doc.mu.Unlock()
	e.SetStyles(next)
	if changed {
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: "style"})
	}
	return e
}

// SetPx sets prop to v pixels.
func (e *Element) SetPx(prop string, v float64) *Element {
	return e.SetStyle(prop, FormatPx(v))
}

// SetTransition sets the transition style for props with duration d. A
// non-positive duration clears the transition.
func (e *Element) SetTransition(d time.Duration, props ...string) *Element {
	if d <= 0 || len(props) == 0 {
		return e.SetStyle("transition", "")
	}
	return e.SetStyle("transition", TransitionValue(d, props...))
}

// TransitionValue formats a transition declaration for props.
func TransitionValue(d time.Duration, props ...string) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, fmt.Sprintf("%s %dms", p, d.Milliseconds()))
	}
	return strings.Join(parts, ", ")
}

// Style returns the inline (specified) value of prop.
func (e *Element) Style(prop string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.style.get(prop)
}

// Computed returns the rendered value of prop. For a property that is
// transitioning it is the value before the transition until it ends.
func (e *Element) Computed(prop string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.computed[prop]
}

// Px returns the rendered value of prop in pixels.
func (e *Element) Px(prop string) float64 {
	v, _ := parsePx(e.Computed(prop))
	return v
}

// StyleString returns the serialized inline style.
func (e *Element) StyleString() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.style.String()
}

// Running reports whether a transition is in flight for any of props, or
// for any property when none are given.
func (e *Element) Running(props ...string) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if len(props) == 0 {
		return len(e.pending) > 0
	}
	for _, p := range props {
		if e.pending[p] != nil {
			return true
		}
	}
	return false
}

func (e *Element) setStyleLocked(prop, value string) bool {
	prop = strings.TrimSpace(strings.ToLower(prop))
	value = strings.TrimSpace(value)
	if prop == "" {
		return false
	}

	var changed bool
	if value == "" {
		changed = e.style.remove(prop)
	} else {
		changed = e.style.set(prop, value)
	}
	if prop == "transition" {
		e.transitions = parseTransition(value)
	}

	if !animatable[prop] {
		if value == "" {
			delete(e.computed, prop)
		} else {
			e.computed[prop] = value
		}
		return changed
	}

	if changed {
		e.startTransitionLocked(prop, value)
	}
	return changed
}

func (e *Element) startTransitionLocked(prop, value string) {
	if p := e.pending[prop]; p != nil {
		p.timer.Stop()
		delete(e.pending, prop)
	}
	if e.computed[prop] == value {
		return
	}
	d := e.transitionFor(prop)
	if d <= 0 || value == "" || e.computed[prop] == "" || !e.connectedLocked() {
		e.commitLocked(prop, value)
		return
	}

	gen := transitionGen.Add(1)
	p := &pendingTransition{gen: gen}
	p.timer = time.AfterFunc(d, func() { e.finishTransition(prop, value, gen) })
	e.pending[prop] = p
}

func (e *Element) commitLocked(prop, value string) {
	if value == "" {
		delete(e.computed, prop)
		return
	}
	e.computed[prop] = value
}

func (e *Element) finishTransition(prop, value string, gen uint64) {
	e.doc.mu.Lock()
	p := e.pending[prop]
	if p == nil || p.gen != gen {
		e.doc.mu.Unlock()
		return
	}
	delete(e.pending, prop)
	e.commitLocked(prop, value)
	e.doc.mu.Unlock()

	e.doc.Dispatch(e, &Event{Type: EventTransitionEnd, Property: prop})
}

func (e *Element) transitionFor(prop string) time.Duration {
	if d, ok := e.transitions[prop]; ok {
		return d
	}
	return e.transitions["all"]
}

// parseTransition reads "width 300ms ease, opacity 0.2s" style declarations.
func parseTransition(value string) map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, part := range strings.Split(value, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		prop := strings.ToLower(fields[0])
		var d time.Duration
		for _, f := range fields[1:] {
			if parsed, err := time.ParseDuration(f); err == nil {
				d = parsed
				break
			}
		}
		out[prop] = d
	}
	return out
}

func parseStyleString(text string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(text, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(strings.ToLower(k))
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func parsePx(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatPx renders v as a CSS pixel length.
func FormatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
