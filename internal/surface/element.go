package surface

import (
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/orbit/internal/coord"
)

// MutationKind distinguishes attribute changes from child list changes.
type MutationKind int

const (
	AttributeMutation MutationKind = iota
	ChildListMutation
)

// Mutation describes one change to the tree.
type Mutation struct {
	Kind      MutationKind
	Target    *Element
	Attribute string
	Added     []*Element
	Removed   []*Element
}

// Element is a node of the document tree. All accessors are safe for
// concurrent use.
type Element struct {
	doc      *Document
	tag      string
	id       string
	classes  []string
	attrs    map[string]string
	parent   *Element
	children []*Element

	style       styleMap
	computed    map[string]string
	transitions map[string]time.Duration
	pending     map[string]*pendingTransition

	listeners listenerSet
}

func newElement(d *Document, tag string) *Element {
	return &Element{
		doc:      d,
		tag:      strings.ToLower(tag),
		attrs:    make(map[string]string),
		computed: make(map[string]string),
		pending:  make(map[string]*pendingTransition),
	}
}

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Tag returns the lower-cased tag name.
func (e *Element) Tag() string { return e.tag }

// ID returns the element id.
func (e *Element) ID() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.id
}

// SetID changes the element id.
func (e *Element) SetID(id string) *Element {
	e.doc.mu.Lock()
	changed := e.id != id
	e.id = id
	e.doc.mu.Unlock()
	if changed {
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: "id"})
	}
	return e
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.hasClassLocked(name)
}

func (e *Element) hasClassLocked(name string) bool {
	for _, c := range e.classes {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends classes that are not present yet.
func (e *Element) AddClass(names ...string) *Element {
	e.doc.mu.Lock()
	changed := false
	for _, n := range names {
		if n == "" || e.hasClassLocked(n) {
			continue
		}
		e.classes = append(e.classes, n)
		changed = true
	}
	e.doc.mu.Unlock()
	if changed {
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: "class"})
	}
	return e
}

// RemoveClass drops the given classes.
func (e *Element) RemoveClass(names ...string) *Element {
	e.doc.mu.Lock()
	changed := false
	for _, n := range names {
		for i, c := range e.classes {
			if c == n {
				e.classes = append(e.classes[:i:i], e.classes[i+1:]...)
				changed = true
				break
			}
		}
	}
	e.doc.mu.Unlock()
	if changed {
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: "class"})
	}
	return e
}

// ToggleClass adds or removes name depending on on.
func (e *Element) ToggleClass(name string, on bool) *Element {
	if on {
		return e.AddClass(name)
	}
	return e.RemoveClass(name)
}

// SetAttribute sets a plain attribute. "id", "class" and "style" are routed
// to their dedicated setters.
func (e *Element) SetAttribute(name, value string) *Element {
	switch name {
	case "id":
		return e.SetID(value)
	case "class":
		e.doc.mu.Lock()
		e.classes = strings.Fields(value)
		e.doc.mu.Unlock()
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: "class"})
		return e
	case "style":
		return e.SetStyleText(value)
	}
	e.doc.mu.Lock()
	old, had := e.attrs[name]
	e.attrs[name] = value
	e.doc.mu.Unlock()
	if !had || old != value {
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: name})
	}
	return e
}

// RemoveAttribute deletes a plain attribute.
func (e *Element) RemoveAttribute(name string) *Element {
	e.doc.mu.Lock()
	_, had := e.attrs[name]
	delete(e.attrs, name)
	e.doc.mu.Unlock()
	if had {
		e.doc.notify(Mutation{Kind: AttributeMutation, Target: e, Attribute: name})
	}
	return e
}

// Attribute returns the value of name and whether it is set.
func (e *Element) Attribute(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.attributeLocked(name)
}

func (e *Element) attributeLocked(name string) (string, bool) {
	switch name {
	case "id":
		return e.id, e.id != ""
	case "class":
		return strings.Join(e.classes, " "), len(e.classes) > 0
	case "style":
		s := e.style.String()
		return s, s != ""
	}
	v, ok := e.attrs[name]
	return v, ok
}

// Parent returns the parent element, or nil when detached or for the body.
func (e *Element) Parent() *Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.parent
}

// Children returns a snapshot of the child list.
func (e *Element) Children() []*Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return append([]*Element(nil), e.children...)
}

// Connected reports whether the element is attached under the body.
func (e *Element) Connected() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.connectedLocked()
}

func (e *Element) connectedLocked() bool {
	for el := e; el != nil; el = el.parent {
		if el == e.doc.body {
			return true
		}
	}
	return false
}

// AppendChild moves child under e, detaching it from any previous parent.
func (e *Element) AppendChild(child *Element) *Element {
	if child == nil || child == e || child.doc != e.doc {
		return e
	}
	e.doc.mu.Lock()
	for p := e; p != nil; p = p.parent {
		if p == child {
			e.doc.mu.Unlock()
			return e
		}
	}
	var muts []Mutation
	if old := child.parent; old != nil {
		old.detachLocked(child)
		muts = append(muts, Mutation{Kind: ChildListMutation, Target: old, Removed: []*Element{child}})
	}
	child.parent = e
	e.children = append(e.children, child)
	muts = append(muts, Mutation{Kind: ChildListMutation, Target: e, Added: []*Element{child}})
	e.doc.mu.Unlock()

	e.doc.notify(muts...)
	return e
}

// RemoveChild detaches child from e.
func (e *Element) RemoveChild(child *Element) {
	e.doc.mu.Lock()
	if child == nil || child.parent != e {
		e.doc.mu.Unlock()
		return
	}
	e.detachLocked(child)
	e.doc.mu.Unlock()
	e.doc.notify(Mutation{Kind: ChildListMutation, Target: e, Removed: []*Element{child}})
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
}

func (e *Element) detachLocked(child *Element) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i:i], e.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

func (e *Element) walkLocked(fn func(*Element)) {
	fn(e)
	for _, c := range e.children {
		c.walkLocked(fn)
	}
}

// Rect returns the element's rendered box in viewport coordinates. Missing
// width or height fill the rest of the parent box.
func (e *Element) Rect() coord.Rect {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.rectLocked()
}

func (e *Element) rectLocked() coord.Rect {
	if e == e.doc.body {
		return e.doc.viewportRectLocked()
	}
	var origin coord.Rect
	switch {
	case e.computed["position"] == "fixed":
		origin = e.doc.viewportRectLocked()
	case e.parent != nil:
		origin = e.parent.rectLocked()
	}
	x, _ := parsePx(e.computed["left"])
	y, _ := parsePx(e.computed["top"])
	w, ok := parsePx(e.computed["width"])
	if !ok {
		w = maxf(origin.Width-x, 0)
	}
	h, ok := parsePx(e.computed["height"])
	if !ok {
		h = maxf(origin.Height-y, 0)
	}
	return coord.Rect{X: origin.X + x, Y: origin.Y + y, Width: w, Height: h}
}

// Displayed reports whether the element and all its ancestors render.
func (e *Element) Displayed() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for el := e; el != nil; el = el.parent {
		if el.computed["display"] == "none" {
			return false
		}
	}
	return e.connectedLocked()
}

func (e *Element) hitLocked(x, y float64) *Element {
	if e.computed["display"] == "none" || e.computed["pointer-events"] == "none" {
		return nil
	}
	for i := len(e.children) - 1; i >= 0; i-- {
		if hit := e.children[i].hitLocked(x, y); hit != nil {
			return hit
		}
	}
	r := e.rectLocked()
	if x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom() {
		return e
	}
	return nil
}

// AddEventListener registers fn for events of typ dispatched to e or, for
// bubbling types, to its descendants.
func (e *Element) AddEventListener(typ string, fn func(*Event)) (remove func()) {
	return e.listeners.add(&e.doc.mu, typ, fn, false)
}

// AddEventListenerOnce is AddEventListener for a single invocation.
func (e *Element) AddEventListenerOnce(typ string, fn func(*Event)) (remove func()) {
	return e.listeners.add(&e.doc.mu, typ, fn, true)
}

// ListenerCount returns the number of listeners for typ on e.
func (e *Element) ListenerCount(typ string) int {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.listeners.count(typ)
}

// Dispatch is a shorthand for e.Document().Dispatch(e, ev).
func (e *Element) Dispatch(ev *Event) {
	e.doc.Dispatch(e, ev)
}

func (e *Element) String() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var b strings.Builder
	b.WriteString(e.tag)
	if e.id != "" {
		b.WriteString("#" + e.id)
	}
	classes := append([]string(nil), e.classes...)
	sort.Strings(classes)
	for _, c := range classes {
		b.WriteString("." + c)
	}
	return b.String()
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
