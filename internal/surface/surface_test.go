package surface

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestDoc() *Document {
	return NewDocument(Size{Width: 800, Height: 600})
}

func TestSelector_CompoundAndLists(t *testing.T) {
	d := newTestDoc()
	el := d.CreateElement("div").SetID("ball").AddClass("mouse-interactive", "round")
	el.SetAttribute("data-role", "ball")
	el.SetStyle("left", "10px")
	d.Body().AppendChild(el)

	tests := []struct {
		sel  string
		want bool
	}{
		{"div", true},
		{"span", false},
		{"#ball", true},
		{".mouse-interactive", true},
		{".mouse-interactive.round", true},
		{".mouse-interactive.square", false},
		{"div#ball.round", true},
		{"[data-role]", true},
		{"[data-role=ball]", true},
		{`[data-role="menu"]`, false},
		{"[style*=left]", true},
		{"[class~=round]", true},
		{".nope, #ball", true},
		{"*", true},
	}
	for _, tt := range tests {
		sel, err := Compile(tt.sel)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tt.sel, err)
		}
		if got := sel.Match(el); got != tt.want {
			t.Fatalf("%q match = %v, want %v", tt.sel, got, tt.want)
		}
	}
}

func TestSelector_RejectsCombinatorsAndGarbage(t *testing.T) {
	for _, src := range []string{"", "div span", "a > b", ".", "[unterminated", "#"} {
		if _, err := Compile(src); err == nil {
			t.Fatalf("expected error for %q", src)
		}
	}
}

func TestDocument_ObserveReportsMutations(t *testing.T) {
	d := newTestDoc()
	var got []Mutation
	cancel := d.Observe(func(muts []Mutation) { got = append(got, muts...) })

	el := d.CreateElement("div")
	d.Body().AppendChild(el)
	el.SetStyle("left", "5px")
	el.SetStyle("left", "5px") // unchanged, no mutation
	el.AddClass("x")
	el.Remove()
	cancel()
	el.AddClass("y")

	if len(got) != 4 {
		t.Fatalf("expected 4 mutations, got %d: %+v", len(got), got)
	}
	if got[0].Kind != ChildListMutation || len(got[0].Added) != 1 {
		t.Fatalf("first mutation should add the element: %+v", got[0])
	}
	if got[1].Attribute != "style" || got[2].Attribute != "class" {
		t.Fatalf("unexpected attribute mutations: %+v %+v", got[1], got[2])
	}
	if got[3].Kind != ChildListMutation || len(got[3].Removed) != 1 {
		t.Fatalf("last mutation should remove the element: %+v", got[3])
	}
}

func TestDocument_DispatchBubblesAndStops(t *testing.T) {
	d := newTestDoc()
	parent := d.CreateElement("div")
	child := d.CreateElement("span")
	parent.AppendChild(child)
	d.Body().AppendChild(parent)

	var order []string
	parent.AddEventListener(EventMouseDown, func(ev *Event) { order = append(order, "parent") })
	child.AddEventListener(EventMouseDown, func(ev *Event) { order = append(order, "child") })
	d.AddEventListener(EventMouseDown, func(ev *Event) { order = append(order, "document") })

	child.Dispatch(&Event{Type: EventMouseDown})
	if len(order) != 3 || order[0] != "child" || order[2] != "document" {
		t.Fatalf("unexpected bubble order %v", order)
	}

	order = nil
	child.AddEventListener(EventMouseUp, func(ev *Event) { ev.StopPropagation() })
	parent.AddEventListener(EventMouseUp, func(ev *Event) { order = append(order, "parent") })
	child.Dispatch(&Event{Type: EventMouseUp})
	if len(order) != 0 {
		t.Fatalf("stopped event reached %v", order)
	}

	// mouseenter does not bubble.
	parent.AddEventListener(EventMouseEnter, func(ev *Event) { order = append(order, "parent-enter") })
	child.Dispatch(&Event{Type: EventMouseEnter})
	if len(order) != 0 {
		t.Fatalf("mouseenter bubbled to %v", order)
	}
}

func TestDocument_OnceListener(t *testing.T) {
	d := newTestDoc()
	calls := 0
	d.Body().AddEventListenerOnce(EventMouseEnter, func(*Event) { calls++ })
	d.Body().Dispatch(&Event{Type: EventMouseEnter})
	d.Body().Dispatch(&Event{Type: EventMouseEnter})
	if calls != 1 {
		t.Fatalf("once listener ran %d times", calls)
	}
	if n := d.Body().ListenerCount(EventMouseEnter); n != 0 {
		t.Fatalf("once listener still registered (%d)", n)
	}
}

func TestElement_RectAndHitTest(t *testing.T) {
	d := newTestDoc()
	root := d.CreateElement("div").SetStyles(map[string]string{
		"position": "fixed", "left": "100px", "top": "50px", "width": "200px", "height": "100px",
	})
	inner := d.CreateElement("div").SetStyles(map[string]string{
		"left": "10px", "top": "10px", "width": "20px", "height": "20px",
	})
	fill := d.CreateElement("div")
	root.AppendChild(fill)
	root.AppendChild(inner)
	d.Body().AppendChild(root)

	r := inner.Rect()
	if r.X != 110 || r.Y != 60 || r.Width != 20 || r.Height != 20 {
		t.Fatalf("inner rect = %+v", r)
	}
	if fr := fill.Rect(); fr.Width != 200 || fr.Height != 100 {
		t.Fatalf("fill rect = %+v", fr)
	}
	if hit := d.HitTest(115, 65); hit != inner {
		t.Fatalf("expected inner hit, got %v", hit)
	}
	if hit := d.HitTest(250, 120); hit != fill {
		t.Fatalf("expected fill hit, got %v", hit)
	}
	if hit := d.HitTest(5, 5); hit != d.Body() {
		t.Fatalf("expected body hit, got %v", hit)
	}
	root.SetStyle("display", "none")
	if hit := d.HitTest(115, 65); hit != d.Body() {
		t.Fatalf("hidden subtree was hit: %v", hit)
	}
	if inner.Displayed() {
		t.Fatalf("inner should not be displayed under a hidden parent")
	}
}

func TestTransition_CommitsOnEndAndFiresOnce(t *testing.T) {
	d := newTestDoc()
	el := d.CreateElement("div").SetPx("width", 40)
	d.Body().AppendChild(el)
	el.SetTransition(10*time.Millisecond, "width", "height")

	ends := make(chan string, 4)
	el.AddEventListener(EventTransitionEnd, func(ev *Event) { ends <- ev.Property })

	aw := AwaitTransition(el, "width")
	el.SetPx("width", 400)
	if el.Px("width") != 40 {
		t.Fatalf("computed width changed before transition end: %v", el.Px("width"))
	}
	if !el.Running("width") {
		t.Fatalf("expected width transition to be running")
	}
	if err := aw.Wait(context.Background(), time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if el.Px("width") != 400 {
		t.Fatalf("computed width = %v, want 400", el.Px("width"))
	}
	if p := <-ends; p != "width" {
		t.Fatalf("transitionend property = %q", p)
	}
	if n := el.ListenerCount(EventTransitionEnd); n != 1 {
		t.Fatalf("awaiter listener not removed, %d listeners", n)
	}
}

func TestTransition_NoChangeResolvesImmediately(t *testing.T) {
	d := newTestDoc()
	el := d.CreateElement("div").SetPx("height", 40)
	d.Body().AppendChild(el)
	el.SetTransition(time.Hour, "height")

	aw := AwaitTransition(el, "height")
	el.SetPx("height", 40)
	start := time.Now()
	if err := aw.Wait(context.Background(), time.Minute); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("wait on an unchanged property blocked")
	}
}

func TestTransition_TimeoutFallback(t *testing.T) {
	d := newTestDoc()
	el := d.CreateElement("div").SetStyle("opacity", "0")
	d.Body().AppendChild(el)
	el.SetTransition(time.Hour, "opacity")

	aw := AwaitTransition(el, "opacity")
	el.SetStyle("opacity", "1")
	err := aw.Wait(context.Background(), 20*time.Millisecond)
	if !errors.Is(err, ErrTransitionTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if n := el.ListenerCount(EventTransitionEnd); n != 0 {
		t.Fatalf("timed out awaiter left %d listeners", n)
	}
}

func TestTransition_InterruptedKeepsLatestTarget(t *testing.T) {
	d := newTestDoc()
	el := d.CreateElement("div").SetPx("left", 0)
	d.Body().AppendChild(el)
	el.SetTransition(15*time.Millisecond, "left")

	aw := AwaitTransition(el, "left")
	el.SetPx("left", 100)
	el.SetPx("left", 200)
	if err := aw.Wait(context.Background(), time.Second); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := el.Px("left"); got != 200 {
		t.Fatalf("left = %v, want 200", got)
	}
}

func TestSetStyleText_ReplacesDeclarations(t *testing.T) {
	d := newTestDoc()
	el := d.CreateElement("div").SetStyles(map[string]string{"left": "1px", "top": "2px"})
	el.SetAttribute("style", "top: 3px; display: none")
	if el.Style("left") != "" {
		t.Fatalf("left should be removed, style=%q", el.StyleString())
	}
	if el.Style("top") != "3px" || el.Style("display") != "none" {
		t.Fatalf("unexpected style %q", el.StyleString())
	}
}

func TestViewportResizeEvent(t *testing.T) {
	d := newTestDoc()
	calls := 0
	d.AddEventListener(EventResize, func(*Event) { calls++ })
	d.SetViewport(Size{Width: 800, Height: 600})
	d.SetViewport(Size{Width: 1024, Height: 768})
	if calls != 1 {
		t.Fatalf("expected one resize event, got %d", calls)
	}
}
