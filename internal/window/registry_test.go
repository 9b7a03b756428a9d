package window

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/surface"
)

type hookLog struct {
	mu     sync.Mutex
	events []string
}

func (l *hookLog) add(format string, args ...any) {
	l.mu.Lock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *hookLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func recordingHooks(l *hookLog) Hooks {
	return Hooks{
		BeforeWindowRestore: func(_ context.Context, w Record, o RestoreOptions) error {
			replaced := ""
			if o.ReplacedWindow != nil {
				replaced = o.ReplacedWindow.Name()
			}
			l.add("before-restore %s replacing=%v %s", w.Name(), o.IsReplacing, replaced)
			return nil
		},
		AfterWindowRestore: func(_ context.Context, w Record, o RestoreOptions) error {
			l.add("after-restore %s visible=%v", w.Name(), w.Visible)
			return nil
		},
		BeforeWindowMinimize: func(_ context.Context, w Record, o MinimizeOptions) error {
			by := ""
			if o.Replacement != nil {
				by = o.Replacement.Name()
			}
			l.add("before-minimize %s replaced=%v %s", w.Name(), o.IsReplaced, by)
			return nil
		},
		AfterWindowMinimize: func(_ context.Context, w Record, o MinimizeOptions) error {
			l.add("after-minimize %s visible=%v", w.Name(), w.Visible)
			return nil
		},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("w%d", n)
	}
}

func attach(name string) WindowConfig {
	return WindowConfig{Name: name, Title: name, Component: name, Type: AttachWindow}
}

func TestCreateOrRestoreReplacesVisibleAttachWindow(t *testing.T) {
	var l hookLog
	reg := NewRegistry(Options{Hooks: recordingHooks(&l), NewID: sequentialIDs()})
	ctx := context.Background()

	a, err := reg.CreateOrRestoreWindow(ctx, attach("chat"), CreateOptions{})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := reg.CreateOrRestoreWindow(ctx, attach("memo"), CreateOptions{})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	ra, _ := reg.Get(a)
	rb, _ := reg.Get(b)
	if ra.Visible {
		t.Fatalf("expected chat to be hidden after memo opened")
	}
	if !rb.Visible {
		t.Fatalf("expected memo to be visible")
	}

	want := []string{
		"before-restore chat replacing=false ",
		"after-restore chat visible=true",
		"before-restore memo replacing=true chat",
		"after-restore memo visible=true",
		"before-minimize chat replaced=true memo",
		"after-minimize chat visible=false",
	}
	if got := l.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("hook order mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestAtMostOneAttachWindowVisible(t *testing.T) {
	reg := NewRegistry(Options{NewID: sequentialIDs()})
	ctx := context.Background()
	names := []string{"chat", "memo", "todo", "memo", "chat", "tools"}
	for _, name := range names {
		if _, err := reg.CreateOrRestoreWindow(ctx, attach(name), CreateOptions{}); err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		visible := 0
		for _, w := range reg.ByType(AttachWindow) {
			if w.Visible {
				visible++
			}
		}
		if visible != 1 {
			t.Fatalf("after opening %s: %d visible attach windows", name, visible)
		}
		if w, ok := reg.VisibleAttachWindow(); !ok || w.Name() != name {
			t.Fatalf("visible attach window = %q, want %q", w.Name(), name)
		}
	}
	if reg.Len() != 4 {
		t.Fatalf("expected 4 records, got %d", reg.Len())
	}
}

func TestCreateOrRestoreIsIdempotent(t *testing.T) {
	reg := NewRegistry(Options{})
	ctx := context.Background()
	first, err := reg.CreateOrRestoreWindow(ctx, attach("chat"), CreateOptions{})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := reg.CreateOrRestoreWindow(ctx, attach("chat"), CreateOptions{Data: map[string]any{"q": 1}})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same id, got %s and %s", first, second)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected one record, got %d", reg.Len())
	}
	w, _ := reg.Get(first)
	if w.Props["q"] != 1 {
		t.Fatalf("expected props to be replaced on restore, got %v", w.Props)
	}
}

func TestForceCreateAllocatesNewRecord(t *testing.T) {
	reg := NewRegistry(Options{})
	ctx := context.Background()
	cfg := WindowConfig{Name: "message", Type: NotificationWindow}
	a, _ := reg.CreateOrRestoreWindow(ctx, cfg, CreateOptions{ForceCreate: true})
	b, _ := reg.CreateOrRestoreWindow(ctx, cfg, CreateOptions{ForceCreate: true})
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if got := len(reg.Visible()); got != 2 {
		t.Fatalf("expected two visible notifications, got %d", got)
	}
}

func TestNotificationDoesNotReplaceAttachWindow(t *testing.T) {
	reg := NewRegistry(Options{})
	ctx := context.Background()
	a, _ := reg.CreateOrRestoreWindow(ctx, attach("chat"), CreateOptions{})
	if _, err := reg.CreateOrRestoreWindow(ctx, WindowConfig{Name: "msg", Type: NotificationWindow}, CreateOptions{}); err != nil {
		t.Fatalf("notification: %v", err)
	}
	if w, _ := reg.Get(a); !w.Visible {
		t.Fatalf("attach window should stay visible next to a notification")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	reg := NewRegistry(Options{})
	tests := []WindowConfig{
		{Type: AttachWindow},
		{Name: "x", Type: "Sidebar"},
		{Name: "x", Type: AttachWindow, Layout: &Layout{Width: -1}},
		{Name: "x", Type: AttachWindow, Layout: &Layout{MinWidth: 500, MaxWidth: 100}},
	}
	for i, cfg := range tests {
		if _, err := reg.CreateOrRestoreWindow(context.Background(), cfg, CreateOptions{}); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
	if reg.Len() != 0 {
		t.Fatalf("invalid configs must not allocate records")
	}
}

func TestRecordDefaults(t *testing.T) {
	reg := NewRegistry(Options{})
	id, err := reg.CreateWindow(attach("chat"))
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	w, _ := reg.Get(id)
	if w.Visible {
		t.Fatalf("CreateWindow must not show the window")
	}
	if w.Position != (coord.Point{X: 100, Y: 100}) {
		t.Fatalf("position = %+v", w.Position)
	}
	if w.Size.Width != 400 || w.Size.Height != 300 {
		t.Fatalf("size = %+v", w.Size)
	}
	if !w.Resizable || !w.Draggable || w.Modal {
		t.Fatalf("flags = resizable %v draggable %v modal %v", w.Resizable, w.Draggable, w.Modal)
	}
	tb := w.Config.Toolbar
	if !*tb.Show || *tb.HoverShow || !*tb.ShowMinimizeButton || !*tb.ShowMaximizeButton || !*tb.ShowCloseButton {
		t.Fatalf("toolbar defaults wrong: %+v", *tb)
	}
	if w.ZIndex != 1000 {
		t.Fatalf("zindex = %d", w.ZIndex)
	}
}

func TestBringToFrontIsMonotonic(t *testing.T) {
	reg := NewRegistry(Options{})
	a, _ := reg.CreateWindow(attach("a"))
	b, _ := reg.CreateWindow(WindowConfig{Name: "b", Type: FloatingWindow, Behavior: &Behavior{ZIndex: 5000}})

	if err := reg.BringToFront(a); err != nil {
		t.Fatalf("BringToFront: %v", err)
	}
	wa, _ := reg.Get(a)
	wb, _ := reg.Get(b)
	if wa.ZIndex <= wb.ZIndex {
		t.Fatalf("raised window z=%d not above %d", wa.ZIndex, wb.ZIndex)
	}
	if active, ok := reg.Active(); !ok || active.ID != a {
		t.Fatalf("active = %v %v", active.ID, ok)
	}
	reg.BringToFront(b)
	wa2, _ := reg.Get(a)
	wb2, _ := reg.Get(b)
	if wb2.ZIndex <= wa2.ZIndex {
		t.Fatalf("second raise z=%d not above %d", wb2.ZIndex, wa2.ZIndex)
	}
}

func TestHookFailureDoesNotGateTransition(t *testing.T) {
	reg := NewRegistry(Options{Hooks: Hooks{
		BeforeWindowMinimize: func(context.Context, Record, MinimizeOptions) error {
			return errors.New("animation failed")
		},
		AfterWindowMinimize: func(context.Context, Record, MinimizeOptions) error {
			panic("boom")
		},
	}})
	ctx := context.Background()
	id, _ := reg.CreateOrRestoreWindow(ctx, attach("chat"), CreateOptions{})
	if err := reg.MinimizeWindow(ctx, id); err != nil {
		t.Fatalf("MinimizeWindow: %v", err)
	}
	if w, _ := reg.Get(id); w.Visible {
		t.Fatalf("window should be hidden despite failing hooks")
	}
}

func TestMinimizeClaimKeepsVisibility(t *testing.T) {
	reg := NewRegistry(Options{})
	ctx := context.Background()
	claimed := 0
	cfg := attach("chat")
	cfg.Toolbar = &Toolbar{OnMinimize: func(Record) bool { claimed++; return true }}
	id, _ := reg.CreateOrRestoreWindow(ctx, cfg, CreateOptions{})
	reg.MinimizeWindow(ctx, id)
	if claimed != 1 {
		t.Fatalf("OnMinimize called %d times", claimed)
	}
	if w, _ := reg.Get(id); !w.Visible {
		t.Fatalf("claimed minimize must not hide the window")
	}
}

func TestCloseWindow(t *testing.T) {
	var order []string
	reg := NewRegistry(Options{Hooks: Hooks{
		BeforeWindowClose: func(_ context.Context, w Record, _ CloseOptions) error {
			order = append(order, fmt.Sprintf("before visible=%v", w.Visible))
			return nil
		},
		AfterWindowClose: func(_ context.Context, w Record, _ CloseOptions) error {
			order = append(order, fmt.Sprintf("after visible=%v", w.Visible))
			return nil
		},
	}})
	ctx := context.Background()
	id, _ := reg.CreateOrRestoreWindow(ctx, attach("chat"), CreateOptions{})
	if err := reg.CloseWindow(ctx, id); err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	if _, ok := reg.Get(id); ok {
		t.Fatalf("closed window still registered")
	}
	if _, ok := reg.Active(); ok {
		t.Fatalf("closed window still active")
	}
	want := []string{"before visible=true", "after visible=false"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %q", order)
	}
	if err := reg.CloseWindow(ctx, id); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("second close: expected ErrWindowNotFound, got %v", err)
	}
}

func TestCloseClaimKeepsRecord(t *testing.T) {
	reg := NewRegistry(Options{})
	ctx := context.Background()
	cfg := attach("chat")
	cfg.Toolbar = &Toolbar{OnClose: func(Record) bool { return true }}
	id, _ := reg.CreateOrRestoreWindow(ctx, cfg, CreateOptions{})
	reg.CloseWindow(ctx, id)
	w, ok := reg.Get(id)
	if !ok || !w.Visible {
		t.Fatalf("claimed close must keep the record visible, ok=%v visible=%v", ok, w.Visible)
	}
}

func TestMaximizeTogglesAndNotifiesObserver(t *testing.T) {
	var got []ResizeOptions
	reg := NewRegistry(Options{
		Viewport: func() surface.Size { return surface.Size{Width: 1920, Height: 1080} },
		Observer: ResizeObserverFunc(func(_ context.Context, _ Record, o ResizeOptions) {
			got = append(got, o)
		}),
	})
	ctx := context.Background()
	x, y := 50.0, 60.0
	cfg := attach("chat")
	cfg.Layout = &Layout{X: &x, Y: &y, Width: 500, Height: 400}
	id, _ := reg.CreateOrRestoreWindow(ctx, cfg, CreateOptions{})

	if err := reg.MaximizeWindow(ctx, id); err != nil {
		t.Fatalf("maximize: %v", err)
	}
	w, _ := reg.Get(id)
	if w.Size.Width != 1920 || w.Size.Height != 1080 || w.Position != (coord.Point{}) {
		t.Fatalf("after maximize: %+v %+v", w.Size, w.Position)
	}

	if err := reg.MaximizeWindow(ctx, id); err != nil {
		t.Fatalf("restore: %v", err)
	}
	w, _ = reg.Get(id)
	if w.Size.Width != 500 || w.Size.Height != 400 || w.Position != (coord.Point{X: 50, Y: 60}) {
		t.Fatalf("after restore: %+v %+v", w.Size, w.Position)
	}

	if len(got) != 2 {
		t.Fatalf("observer called %d times", len(got))
	}
	if got[0].TargetWidth != 1920 || got[0].Target == nil || *got[0].Target != (coord.Point{}) {
		t.Fatalf("maximize notification = %+v", got[0])
	}
	if got[1].TargetWidth != 500 || got[1].Target == nil || *got[1].Target != (coord.Point{X: 50, Y: 60}) {
		t.Fatalf("restore notification = %+v", got[1])
	}
}

func TestMaximizeWithoutDeclaredPositionLeavesTargetOpen(t *testing.T) {
	var last ResizeOptions
	reg := NewRegistry(Options{
		Viewport: func() surface.Size { return surface.Size{Width: 800, Height: 600} },
	})
	reg.SetResizeObserver(ResizeObserverFunc(func(_ context.Context, _ Record, o ResizeOptions) { last = o }))
	ctx := context.Background()
	id, _ := reg.CreateOrRestoreWindow(ctx, attach("chat"), CreateOptions{})
	reg.MaximizeWindow(ctx, id)
	reg.MaximizeWindow(ctx, id)
	if last.Target != nil {
		t.Fatalf("expected nil target when layout has no position, got %+v", *last.Target)
	}
}

func TestMaximizeErrors(t *testing.T) {
	reg := NewRegistry(Options{})
	ctx := context.Background()
	if err := reg.MaximizeWindow(ctx, "missing"); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
	id, _ := reg.CreateOrRestoreWindow(ctx, WindowConfig{Name: "msg", Type: NotificationWindow}, CreateOptions{})
	if err := reg.MaximizeWindow(ctx, id); !errors.Is(err, ErrNotMaximizable) {
		t.Fatalf("expected ErrNotMaximizable, got %v", err)
	}
}

func TestResizeWindowKeepsPosition(t *testing.T) {
	var before, after ResizeOptions
	reg := NewRegistry(Options{Hooks: Hooks{
		BeforeWindowResize: func(_ context.Context, _ Record, o ResizeOptions) error { before = o; return nil },
		AfterWindowResize: func(_ context.Context, w Record, o ResizeOptions) error {
			after = o
			if w.Size.Width != 640 {
				t.Errorf("after hook sees width %v", w.Size.Width)
			}
			return nil
		},
	}})
	ctx := context.Background()
	id, _ := reg.CreateOrRestoreWindow(ctx, attach("chat"), CreateOptions{})
	reg.SetWindowPosition(id, 30, 40)
	if err := reg.ResizeWindow(ctx, id, 640, 480); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if before.Target == nil || *before.Target != (coord.Point{X: 30, Y: 40}) {
		t.Fatalf("before target = %+v", before.Target)
	}
	if after.TargetWidth != 640 || after.TargetHeight != 480 {
		t.Fatalf("after = %+v", after)
	}
	w, _ := reg.Get(id)
	if w.Position != (coord.Point{X: 30, Y: 40}) {
		t.Fatalf("position moved to %+v", w.Position)
	}
}

func TestShowAndToggleKeepAttachInvariant(t *testing.T) {
	reg := NewRegistry(Options{})
	a, _ := reg.CreateWindow(attach("a"))
	b, _ := reg.CreateWindow(attach("b"))
	reg.ShowWindow(a)
	visible, err := reg.ToggleWindow(b)
	if err != nil || !visible {
		t.Fatalf("toggle b: %v %v", visible, err)
	}
	if w, _ := reg.Get(a); w.Visible {
		t.Fatalf("showing b must hide a")
	}
	visible, _ = reg.ToggleWindow(b)
	if visible {
		t.Fatalf("second toggle should hide b")
	}
	reg.CloseAllWindows()
	if len(reg.Visible()) != 0 {
		t.Fatalf("CloseAllWindows left visible records")
	}
	if _, ok := reg.Active(); ok {
		t.Fatalf("CloseAllWindows left an active window")
	}
}

func TestMountBindsElement(t *testing.T) {
	doc := surface.NewDocument(surface.Size{Width: 800, Height: 600})
	var mounted Record
	reg := NewRegistry(Options{Mount: func(w Record) *surface.Element {
		mounted = w
		el := doc.CreateElement("div").SetID("window-" + w.ID)
		doc.Body().AppendChild(el)
		return el
	}})
	var seen *surface.Element
	reg.hooks.BeforeWindowRestore = func(_ context.Context, w Record, _ RestoreOptions) error {
		seen = w.El
		return nil
	}
	id, _ := reg.CreateOrRestoreWindow(context.Background(), attach("chat"), CreateOptions{})
	if mounted.ID != id {
		t.Fatalf("mount saw %q, want %q", mounted.ID, id)
	}
	if seen == nil || seen.ID() != "window-"+id {
		t.Fatalf("restore hook did not see the mounted element")
	}

	other := doc.CreateElement("div")
	if err := reg.BindWindowElement(id, other); err != nil {
		t.Fatalf("BindWindowElement: %v", err)
	}
	if w, _ := reg.Get(id); w.El != other {
		t.Fatalf("element not rebound")
	}
	if err := reg.BindWindowElement("nope", other); !errors.Is(err, ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
}

func TestRestoreWindowGeometry(t *testing.T) {
	reg := NewRegistry(Options{})
	id, _ := reg.CreateWindow(attach("chat"))
	reg.SetWindowSize(id, 10, 20)
	if err := reg.RestoreWindowGeometry(id, Size{Width: 400, Height: 300}, coord.Point{X: 5, Y: 6}); err != nil {
		t.Fatalf("RestoreWindowGeometry: %v", err)
	}
	w, _ := reg.Get(id)
	if w.Size.Width != 400 || w.Size.Height != 300 || w.Position != (coord.Point{X: 5, Y: 6}) {
		t.Fatalf("geometry = %+v %+v", w.Size, w.Position)
	}
}
