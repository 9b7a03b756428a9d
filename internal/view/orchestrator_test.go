package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/surface"
	"github.com/1broseidon/orbit/internal/window"
)

type memStore struct {
	mu    sync.Mutex
	pos   coord.Point
	found bool
	err   error
	saved []coord.Point
}

func (s *memStore) LoadBallPosition() (coord.Point, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, s.found, s.err
}

func (s *memStore) SaveBallPosition(p coord.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, p)
	return nil
}

type fixture struct {
	doc   *surface.Document
	els   Elements
	o     *Orchestrator
	store *memStore
}

func testConfig() Config {
	return Config{
		BallSize:          40,
		EdgeDistance:      10,
		Margin:            10,
		AnimationDuration: 15 * time.Millisecond,
		TransitionTimeout: 500 * time.Millisecond,
		ShowMenuDelay:     40 * time.Millisecond,
		HideMenuDelay:     20 * time.Millisecond,
		ApplyDelay:        time.Millisecond,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc := surface.NewDocument(surface.Size{Width: 1920, Height: 1080})
	root := doc.CreateElement("div").SetID("root")
	root.SetStyles(map[string]string{
		"position": "fixed",
		"left":     "1850px",
		"top":      "1010px",
		"width":    "40px",
		"height":   "40px",
	})
	ball := doc.CreateElement("div").SetID("ball")
	menu := doc.CreateElement("div").SetID("menu")
	menu.SetStyles(map[string]string{"width": "200px", "height": "240px"})
	win := doc.CreateElement("div").SetID("windows")
	root.AppendChild(ball)
	root.AppendChild(menu)
	root.AppendChild(win)
	doc.Body().AppendChild(root)

	els := Elements{Root: root, Ball: ball, Menu: menu, Window: win}
	store := &memStore{}
	o, err := New(Options{Config: testConfig(), Document: doc, Elements: els, Store: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	o.Start()
	t.Cleanup(o.Stop)
	return &fixture{doc: doc, els: els, o: o, store: store}
}

func (f *fixture) registry() *window.Registry {
	return window.NewRegistry(window.Options{
		Hooks:    f.o.Hooks(),
		Observer: f.o,
		Viewport: f.doc.Viewport,
		Mount: func(w window.Record) *surface.Element {
			el := f.doc.CreateElement("section").SetID("window-" + w.Config.Name)
			f.els.Window.AppendChild(el)
			return el
		},
	})
}

func waitForMode(t *testing.T, o *Orchestrator, want Mode) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.Mode() == want {
			o.Wait()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("mode = %s, want %s", o.Mode(), want)
}

func rootBox(f *fixture) coord.Rect {
	return f.els.Root.Rect()
}

func TestAdjustForBoundaryOverflow(t *testing.T) {
	vp := surface.Size{Width: 1920, Height: 1080}
	got, needed := AdjustForBoundary(coord.Point{X: 1870, Y: 1030}, 800, 600, vp, 40, 10)
	if !needed {
		t.Fatalf("expected repositioning")
	}
	if got != (coord.Point{X: 1110, Y: 470}) {
		t.Fatalf("anchor = %+v", got)
	}
	if got.X < 0 || got.Y < 0 || got.X+800 > vp.Width-10 || got.Y+600 > vp.Height-10 {
		t.Fatalf("adjusted box %+v does not fit with margin", got)
	}
}

func TestAdjustForBoundaryFits(t *testing.T) {
	vp := surface.Size{Width: 1920, Height: 1080}
	anchor := coord.Point{X: 100, Y: 100}
	got, needed := AdjustForBoundary(anchor, 300, 200, vp, 40, 10)
	if needed || got != anchor {
		t.Fatalf("got %+v needed=%v", got, needed)
	}
}

func TestAdjustForBoundaryClampsAnchor(t *testing.T) {
	vp := surface.Size{Width: 800, Height: 600}
	got, needed := AdjustForBoundary(coord.Point{X: -50, Y: 10}, 100, 100, vp, 40, 10)
	if !needed {
		t.Fatalf("expected repositioning for negative anchor")
	}
	if got != (coord.Point{X: 20, Y: 20}) {
		t.Fatalf("anchor = %+v", got)
	}
}

func TestHoverShorterThanDelayNeverOpensMenu(t *testing.T) {
	f := newFixture(t)
	f.o.BallEnter()
	time.Sleep(10 * time.Millisecond)
	f.o.BallLeave()
	time.Sleep(100 * time.Millisecond)
	f.o.Wait()
	if m := f.o.Mode(); m != ModeBall {
		t.Fatalf("mode = %s after short hover", m)
	}
}

func TestHoverOpensMenuAndLeaveCollapses(t *testing.T) {
	f := newFixture(t)
	f.o.BallEnter()
	waitForMode(t, f.o, ModeMenu)

	if got := f.o.InTransform(); len(got) != 0 {
		t.Fatalf("transform set not cleared: %v", got)
	}
	r := rootBox(f)
	if r != (coord.Rect{X: 1710, Y: 830, Width: 200, Height: 240}) {
		t.Fatalf("root after expand = %+v", r)
	}
	if v := f.o.Visibility(); v.Ball || !v.Menu || v.Window {
		t.Fatalf("visibility = %+v", v)
	}
	if f.els.Ball.Style("display") != "none" {
		t.Fatalf("ball view should be hidden in menu mode")
	}

	f.o.MenuLeave()
	waitForMode(t, f.o, ModeBall)
	r = rootBox(f)
	if r != (coord.Rect{X: 1850, Y: 1010, Width: 40, Height: 40}) {
		t.Fatalf("root after collapse = %+v", r)
	}
	if len(f.store.saved) == 0 || f.store.saved[0] != (coord.Point{X: 1850, Y: 1010}) {
		t.Fatalf("ball position not persisted: %v", f.store.saved)
	}
}

func TestMenuReentryCancelsHide(t *testing.T) {
	f := newFixture(t)
	f.o.ShowMenu(context.Background())
	if f.o.Mode() != ModeMenu {
		t.Fatalf("ShowMenu did not open the menu")
	}
	f.o.BallLeave()
	f.o.MenuEnter()
	time.Sleep(60 * time.Millisecond)
	f.o.Wait()
	if m := f.o.Mode(); m != ModeMenu {
		t.Fatalf("mode = %s, re-entry should keep the menu", m)
	}
}

func TestHoverIgnoredWhileDragging(t *testing.T) {
	f := newFixture(t)
	f.o.SetDragging(true)
	f.o.BallEnter()
	time.Sleep(80 * time.Millisecond)
	f.o.Wait()
	if m := f.o.Mode(); m != ModeBall {
		t.Fatalf("mode = %s while dragging", m)
	}
}

func TestRouterHoverDrivesMenu(t *testing.T) {
	f := newFixture(t)
	f.doc.Dispatch(f.els.Ball, &surface.Event{Type: surface.EventMouseOver})
	waitForMode(t, f.o, ModeMenu)
}

func TestWindowRestoreReplaceAndMinimize(t *testing.T) {
	f := newFixture(t)
	reg := f.registry()
	ctx := context.Background()

	chat := window.WindowConfig{Name: "chat", Type: window.AttachWindow, Layout: &window.Layout{Width: 400, Height: 500}}
	chatID, err := reg.CreateOrRestoreWindow(ctx, chat, window.CreateOptions{})
	if err != nil {
		t.Fatalf("open chat: %v", err)
	}
	if m := f.o.Mode(); m != ModeComponent {
		t.Fatalf("mode = %s after restore", m)
	}
	if got := f.o.InTransform(); len(got) != 0 {
		t.Fatalf("transform set = %v after restore", got)
	}
	if r := rootBox(f); r != (coord.Rect{X: 1510, Y: 570, Width: 400, Height: 500}) {
		t.Fatalf("root after restore = %+v", r)
	}
	chatRec, _ := reg.Get(chatID)
	if chatRec.El.Computed("opacity") != "1" {
		t.Fatalf("chat opacity = %q", chatRec.El.Computed("opacity"))
	}

	memo := window.WindowConfig{Name: "memo", Type: window.AttachWindow, Layout: &window.Layout{Width: 300, Height: 300}}
	memoID, err := reg.CreateOrRestoreWindow(ctx, memo, window.CreateOptions{})
	if err != nil {
		t.Fatalf("open memo: %v", err)
	}
	if m := f.o.Mode(); m != ModeComponent {
		t.Fatalf("replace left component mode: %s", m)
	}
	if chatRec.El.Computed("opacity") != "0" {
		t.Fatalf("replaced window should be faded out, opacity %q", chatRec.El.Computed("opacity"))
	}
	if chatRec.El.Displayed() {
		t.Fatalf("replaced window should leave the layout")
	}
	memoRec, _ := reg.Get(memoID)
	if memoRec.El.Computed("opacity") != "1" {
		t.Fatalf("memo opacity = %q", memoRec.El.Computed("opacity"))
	}

	if err := reg.MinimizeWindow(ctx, memoID); err != nil {
		t.Fatalf("minimize: %v", err)
	}
	if m := f.o.Mode(); m != ModeBall {
		t.Fatalf("mode = %s after minimize", m)
	}
	if r := rootBox(f); r != (coord.Rect{X: 1850, Y: 1010, Width: 40, Height: 40}) {
		t.Fatalf("root after minimize = %+v", r)
	}
	if v := f.o.Visibility(); !v.Ball || v.Menu || v.Window {
		t.Fatalf("visibility = %+v", v)
	}
	if memoRec.El.Displayed() {
		t.Fatalf("minimized window should leave the layout")
	}

	if _, err := reg.CreateOrRestoreWindow(ctx, chat, window.CreateOptions{}); err != nil {
		t.Fatalf("reopen chat: %v", err)
	}
	if !chatRec.El.Displayed() || chatRec.El.Computed("opacity") != "1" {
		t.Fatalf("restored chat display %q opacity %q", chatRec.El.Computed("display"), chatRec.El.Computed("opacity"))
	}
}

func TestRestoreFromMenuUsesMenuTransform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.o.ShowMenu(ctx)

	var seen []Mode
	hooks := f.o.Hooks()
	before := hooks.BeforeWindowRestore
	hooks.BeforeWindowRestore = func(ctx context.Context, w window.Record, o window.RestoreOptions) error {
		err := before(ctx, w, o)
		seen = f.o.InTransform()
		return err
	}
	reg := window.NewRegistry(window.Options{
		Hooks:    hooks,
		Viewport: f.doc.Viewport,
		Mount: func(w window.Record) *surface.Element {
			el := f.doc.CreateElement("section")
			f.els.Window.AppendChild(el)
			return el
		},
	})
	if _, err := reg.CreateOrRestoreWindow(ctx, window.WindowConfig{Name: "todo", Type: window.AttachWindow}, window.CreateOptions{}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(seen) != 2 || seen[0] != ModeMenu || seen[1] != ModeComponent {
		t.Fatalf("transform during restore = %v", seen)
	}
}

func TestCloseWindowReturnsToBall(t *testing.T) {
	f := newFixture(t)
	reg := f.registry()
	ctx := context.Background()
	id, _ := reg.CreateOrRestoreWindow(ctx, window.WindowConfig{Name: "chat", Type: window.AttachWindow}, window.CreateOptions{})
	rec, _ := reg.Get(id)
	if err := reg.CloseWindow(ctx, id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f.o.Mode() != ModeBall {
		t.Fatalf("mode = %s after close", f.o.Mode())
	}
	if rec.El.Computed("opacity") != "0" {
		t.Fatalf("closed window opacity = %q", rec.El.Computed("opacity"))
	}
	if r := rootBox(f); r.Width != 40 || r.Height != 40 {
		t.Fatalf("root after close = %+v", r)
	}
}

func TestMaximizeMirrorsOntoRoot(t *testing.T) {
	f := newFixture(t)
	reg := f.registry()
	ctx := context.Background()
	id, _ := reg.CreateOrRestoreWindow(ctx, window.WindowConfig{Name: "chat", Type: window.AttachWindow}, window.CreateOptions{})
	if err := reg.MaximizeWindow(ctx, id); err != nil {
		t.Fatalf("maximize: %v", err)
	}
	if r := rootBox(f); r != (coord.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}) {
		t.Fatalf("root after maximize = %+v", r)
	}
}

func TestResizeOutsideComponentModeIsIgnored(t *testing.T) {
	f := newFixture(t)
	before := rootBox(f)
	f.o.Resize(context.Background(), window.Record{ID: "x"}, window.ResizeOptions{TargetWidth: 500, TargetHeight: 500})
	if after := rootBox(f); after != before {
		t.Fatalf("root changed in ball mode: %+v", after)
	}
}

func TestAttachedOriginFollowsTrackerZone(t *testing.T) {
	f := newFixture(t)
	f.o.SetBallPosition(coord.Point{X: 1850, Y: 1010})
	if got := f.o.attachedOrigin(400, 300); got != (coord.Point{X: 1850, Y: 1010}) {
		t.Fatalf("untracked origin = %+v", got)
	}
	f.o.tracker.SetActiveByLocalPoint(1900, 1070, 1920, 1080)
	if got := f.o.attachedOrigin(400, 300); got != (coord.Point{X: 1490, Y: 750}) {
		t.Fatalf("bottom-right origin = %+v", got)
	}
	f.o.tracker.SetActiveByLocalPoint(10, 10, 1920, 1080)
	if got := f.o.attachedOrigin(400, 300); got != (coord.Point{X: 1850, Y: 1010}) {
		t.Fatalf("top-left origin = %+v", got)
	}
}

func TestRestoreLastBounds(t *testing.T) {
	tests := []struct {
		name  string
		store *memStore
		want  coord.Point
	}{
		{name: "persisted", store: &memStore{pos: coord.Point{X: 300, Y: 200}, found: true}, want: coord.Point{X: 300, Y: 200}},
		{name: "missing", store: &memStore{}, want: coord.Point{X: 1880, Y: 1040}},
		{name: "malformed", store: &memStore{err: errors.New("bad json")}, want: coord.Point{X: 1880, Y: 1040}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.o.store = tt.store
			if err := f.o.RestoreLastBounds(context.Background()); err != nil {
				t.Fatalf("RestoreLastBounds: %v", err)
			}
			r := rootBox(f)
			if r.X != tt.want.X || r.Y != tt.want.Y || r.Width != 40 {
				t.Fatalf("root = %+v, want origin %+v", r, tt.want)
			}
			if got := f.o.LastBallPosition(); got != tt.want {
				t.Fatalf("last ball = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestViewportResizeReappliesDefault(t *testing.T) {
	f := newFixture(t)
	f.o.store = &memStore{pos: coord.Point{X: 300, Y: 200}, found: true}
	if err := f.o.RestoreLastBounds(context.Background()); err != nil {
		t.Fatalf("RestoreLastBounds: %v", err)
	}
	f.doc.SetViewport(surface.Size{Width: 1280, Height: 720})
	f.o.Wait()
	r := rootBox(f)
	if r.X != 1240 || r.Y != 680 {
		t.Fatalf("root after viewport change = %+v", r)
	}
}

func TestStateSnapshot(t *testing.T) {
	var mu sync.Mutex
	var states []State
	f := newFixture(t)
	f.o.onChange = func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}
	f.o.ShowMenu(context.Background())
	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 {
		t.Fatalf("expected change notifications, got %d", len(states))
	}
	first, last := states[0], states[len(states)-1]
	if first.Mode != ModeMenu || len(first.InTransform) != 2 {
		t.Fatalf("first state = %+v", first)
	}
	if last.Mode != ModeMenu || len(last.InTransform) != 0 {
		t.Fatalf("last state = %+v", last)
	}
}
