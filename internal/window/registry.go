package window

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/surface"
)

// Options configures a Registry.
type Options struct {
	Hooks Hooks
	// Viewport reports the size used by MaximizeWindow.
	Viewport func() surface.Size
	// Mount creates the backing element of a freshly allocated record. It
	// may return nil; the element can be bound later.
	Mount    func(w Record) *surface.Element
	Observer ResizeObserver
	// NewID defaults to random UUIDs.
	NewID func() string
}

// Registry owns every window record and the transitions between their
// states. Hooks and observers run without the registry lock held, so they
// may call back into the registry.
type Registry struct {
	hooks    Hooks
	viewport func() surface.Size
	mount    func(w Record) *surface.Element
	newID    func() string

	mu       sync.Mutex
	windows  map[string]*Record
	order    []string
	activeID string
	highestZ int
	observer ResizeObserver
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		hooks:    opts.Hooks.withDefaults(),
		viewport: opts.Viewport,
		mount:    opts.Mount,
		newID:    opts.NewID,
		windows:  make(map[string]*Record),
		highestZ: baseZIndex,
		observer: opts.Observer,
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	if r.viewport == nil {
		r.viewport = func() surface.Size { return surface.Size{} }
	}
	return r
}

// SetResizeObserver replaces the observer notified by MaximizeWindow.
func (r *Registry) SetResizeObserver(o ResizeObserver) {
	r.mu.Lock()
	r.observer = o
	r.mu.Unlock()
}

// CreateWindow registers a hidden record for cfg and returns its id.
func (r *Registry) CreateWindow(cfg WindowConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	snap := r.allocate(cfg.normalized(), nil)
	r.mountRecord(snap)
	return snap.ID, nil
}

// CreateOrRestoreWindow shows the window named by cfg, allocating it when
// no record with the same name and type exists or ForceCreate is set. When
// the window is an AttachWindow every other visible AttachWindow is
// minimized as replaced.
func (r *Registry) CreateOrRestoreWindow(ctx context.Context, cfg WindowConfig, opts CreateOptions) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	cfg = cfg.normalized()

	r.mu.Lock()
	var target *Record
	if !opts.ForceCreate {
		target = r.findLocked(cfg.Name, cfg.Type)
	}
	created := false
	var snap Record
	if target == nil {
		r.mu.Unlock()
		snap = r.allocate(cfg, opts.Data)
		created = true
		r.mu.Lock()
	} else {
		snap = *target
	}
	var replaced *Record
	if cfg.Type == AttachWindow {
		for _, id := range r.order {
			w := r.windows[id]
			if id != snap.ID && w.Visible && w.Config.Type == AttachWindow {
				cp := *w
				replaced = &cp
				break
			}
		}
	}
	r.mu.Unlock()

	if created {
		snap = r.mountRecord(snap)
	}

	restoreOpts := RestoreOptions{IsReplacing: replaced != nil, ReplacedWindow: replaced}
	r.runHook("BeforeWindowRestore", snap.ID, func() error {
		return r.hooks.BeforeWindowRestore(ctx, snap, restoreOpts)
	})

	r.mu.Lock()
	w, ok := r.windows[snap.ID]
	if !ok {
		r.mu.Unlock()
		log.Printf("Registry: window %s vanished during restore", snap.ID)
		return snap.ID, nil
	}
	w.Visible = true
	w.Props = opts.Data
	if w.Props == nil {
		w.Props = map[string]any{}
	}
	r.bringToFrontLocked(w)
	snap = *w
	r.mu.Unlock()

	r.runHook("AfterWindowRestore", snap.ID, func() error {
		return r.hooks.AfterWindowRestore(ctx, snap, restoreOpts)
	})

	if snap.Config.Type != AttachWindow {
		return snap.ID, nil
	}
	for _, other := range r.visibleAttachExcept(snap.ID) {
		r.hideReplaced(ctx, other, snap)
	}
	return snap.ID, nil
}

func (r *Registry) hideReplaced(ctx context.Context, w Record, replacement Record) {
	opts := MinimizeOptions{IsReplaced: true, Replacement: &replacement}
	r.runHook("BeforeWindowMinimize", w.ID, func() error {
		return r.hooks.BeforeWindowMinimize(ctx, w, opts)
	})
	w, ok := r.update(w.ID, func(rec *Record) { rec.Visible = false })
	if !ok {
		return
	}
	r.runHook("AfterWindowMinimize", w.ID, func() error {
		return r.hooks.AfterWindowMinimize(ctx, w, opts)
	})
}

// ShowWindow makes the window visible and raises it. Showing an
// AttachWindow hides the other visible AttachWindow.
func (r *Registry) ShowWindow(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	r.setVisibleLocked(w, true)
	r.bringToFrontLocked(w)
	return nil
}

// ToggleWindow flips visibility and returns the new state.
func (r *Registry) ToggleWindow(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	r.setVisibleLocked(w, !w.Visible)
	if w.Visible {
		r.bringToFrontLocked(w)
	}
	return w.Visible, nil
}

func (r *Registry) setVisibleLocked(w *Record, visible bool) {
	w.Visible = visible
	if !visible || w.Config.Type != AttachWindow {
		return
	}
	for _, id := range r.order {
		other := r.windows[id]
		if other != w && other.Config.Type == AttachWindow {
			other.Visible = false
		}
	}
}

// BringToFront gives the window a z-index above every other record and
// marks it active.
func (r *Registry) BringToFront(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	r.bringToFrontLocked(w)
	return nil
}

func (r *Registry) bringToFrontLocked(w *Record) {
	r.highestZ++
	w.ZIndex = r.highestZ
	r.activeID = w.ID
}

// MinimizeWindow hides the window unless its toolbar OnMinimize claims the
// action.
func (r *Registry) MinimizeWindow(ctx context.Context, id string) error {
	w, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	opts := MinimizeOptions{}
	r.runHook("BeforeWindowMinimize", id, func() error {
		return r.hooks.BeforeWindowMinimize(ctx, w, opts)
	})
	if !claim("OnMinimize", w.Config.Toolbar.OnMinimize, w) {
		if next, ok := r.update(id, func(rec *Record) { rec.Visible = false }); ok {
			w = next
		}
	}
	r.runHook("AfterWindowMinimize", id, func() error {
		return r.hooks.AfterWindowMinimize(ctx, w, opts)
	})
	return nil
}

// CloseWindow hides and forgets the window. A claiming OnClose keeps the
// record untouched.
func (r *Registry) CloseWindow(ctx context.Context, id string) error {
	w, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	opts := CloseOptions{}
	r.runHook("BeforeWindowClose", id, func() error {
		return r.hooks.BeforeWindowClose(ctx, w, opts)
	})
	claimed := claim("OnClose", w.Config.Toolbar.OnClose, w)
	if !claimed {
		if next, ok := r.update(id, func(rec *Record) { rec.Visible = false }); ok {
			w = next
		}
	}
	r.runHook("AfterWindowClose", id, func() error {
		return r.hooks.AfterWindowClose(ctx, w, opts)
	})
	if !claimed {
		r.remove(id)
	}
	return nil
}

// MaximizeWindow toggles between the full viewport and the declared layout
// geometry. The current size decides the direction.
func (r *Registry) MaximizeWindow(ctx context.Context, id string) error {
	w, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	if w.Config.Type == NotificationWindow {
		return fmt.Errorf("%w: %s is a %s", ErrNotMaximizable, id, w.Config.Type)
	}
	r.runHook("BeforeWindowMaximize", id, func() error {
		return r.hooks.BeforeWindowMaximize(ctx, w)
	})

	vp := r.viewport()
	var resize ResizeOptions
	next, ok := r.update(id, func(rec *Record) {
		if rec.Size.Width != vp.Width || rec.Size.Height != vp.Height {
			rec.Position = coord.Point{}
			rec.Size.Width, rec.Size.Height = vp.Width, vp.Height
			resize = ResizeOptions{TargetWidth: vp.Width, TargetHeight: vp.Height, Target: &coord.Point{}}
			return
		}
		layout := rec.Config.Layout
		rec.Position = layout.Position()
		rec.Size.Width, rec.Size.Height = layout.Width, layout.Height
		resize = ResizeOptions{TargetWidth: layout.Width, TargetHeight: layout.Height}
		if layout.HasPosition() {
			p := layout.Position()
			resize.Target = &p
		}
	})
	if !ok {
		return nil
	}
	w = next

	r.mu.Lock()
	observer := r.observer
	r.mu.Unlock()
	if observer != nil {
		func() {
			defer recoverLog("resize observer", id)
			observer.Resize(ctx, w, resize)
		}()
	}

	if !claim("OnMaximize", w.Config.Toolbar.OnMaximize, w) {
		if next, ok := r.update(id, func(rec *Record) { rec.Visible = true }); ok {
			w = next
		}
	}
	r.runHook("AfterWindowMaximize", id, func() error {
		return r.hooks.AfterWindowMaximize(ctx, w)
	})
	return nil
}

// ResizeWindow changes the size and keeps the position.
func (r *Registry) ResizeWindow(ctx context.Context, id string, width, height float64) error {
	w, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	pos := w.Position
	opts := ResizeOptions{TargetWidth: width, TargetHeight: height, Target: &pos}
	r.runHook("BeforeWindowResize", id, func() error {
		return r.hooks.BeforeWindowResize(ctx, w, opts)
	})
	if next, ok := r.update(id, func(rec *Record) {
		rec.Size.Width, rec.Size.Height = width, height
	}); ok {
		w = next
	}
	r.runHook("AfterWindowResize", id, func() error {
		return r.hooks.AfterWindowResize(ctx, w, opts)
	})
	return nil
}

func (r *Registry) SetWindowPosition(id string, x, y float64) error {
	if _, ok := r.update(id, func(rec *Record) { rec.Position = coord.Point{X: x, Y: y} }); !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	return nil
}

func (r *Registry) SetWindowSize(id string, width, height float64) error {
	if _, ok := r.update(id, func(rec *Record) { rec.Size.Width, rec.Size.Height = width, height }); !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	return nil
}

// RestoreWindowGeometry puts back a previously saved size and position.
func (r *Registry) RestoreWindowGeometry(id string, size Size, pos coord.Point) error {
	if _, ok := r.update(id, func(rec *Record) {
		rec.Position = pos
		rec.Size.Width, rec.Size.Height = size.Width, size.Height
	}); !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	return nil
}

// BindWindowElement attaches the backing element of a record.
func (r *Registry) BindWindowElement(id string, el *surface.Element) error {
	if _, ok := r.update(id, func(rec *Record) { rec.El = el }); !ok {
		return fmt.Errorf("%w: %s", ErrWindowNotFound, id)
	}
	return nil
}

// CloseAllWindows hides every record without running hooks.
func (r *Registry) CloseAllWindows() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.windows {
		w.Visible = false
	}
	r.activeID = ""
}

func (r *Registry) Get(id string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok {
		return Record{}, false
	}
	return *w, true
}

// All returns every record in creation order.
func (r *Registry) All() []Record {
	return r.filter(func(*Record) bool { return true })
}

func (r *Registry) ByType(t WindowType) []Record {
	return r.filter(func(w *Record) bool { return w.Config.Type == t })
}

// Visible returns the visible records in creation order.
func (r *Registry) Visible() []Record {
	return r.filter(func(w *Record) bool { return w.Visible })
}

// VisibleAttachWindow returns the visible AttachWindow, if any.
func (r *Registry) VisibleAttachWindow() (Record, bool) {
	list := r.filter(func(w *Record) bool { return w.Visible && w.Config.Type == AttachWindow })
	if len(list) == 0 {
		return Record{}, false
	}
	return list[0], true
}

// Active returns the most recently raised record.
func (r *Registry) Active() (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeID == "" {
		return Record{}, false
	}
	w, ok := r.windows[r.activeID]
	if !ok {
		return Record{}, false
	}
	return *w, true
}

// Find returns the first record with the given name and type.
func (r *Registry) Find(name string, t WindowType) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.findLocked(name, t)
	if w == nil {
		return Record{}, false
	}
	return *w, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}

func (r *Registry) allocate(cfg WindowConfig, props map[string]any) Record {
	layout := cfg.Layout
	w := &Record{
		ID:       r.newID(),
		Position: layout.Position(),
		Size: Size{
			Width:     layout.Width,
			Height:    layout.Height,
			MinWidth:  layout.MinWidth,
			MinHeight: layout.MinHeight,
			MaxWidth:  layout.MaxWidth,
			MaxHeight: layout.MaxHeight,
		},
		Resizable: boolValue(layout.Resizable, true),
		Draggable: boolValue(cfg.Behavior.Draggable, true),
		Modal:     cfg.Behavior.Modal,
		Config:    cfg,
		Props:     props,
	}
	if w.Props == nil {
		w.Props = map[string]any{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	w.ZIndex = r.highestZ
	if z := cfg.Behavior.ZIndex; z > 0 {
		w.ZIndex = z
		if z > r.highestZ {
			r.highestZ = z
		}
	}
	r.windows[w.ID] = w
	r.order = append(r.order, w.ID)
	return *w
}

func (r *Registry) mountRecord(w Record) Record {
	if r.mount == nil {
		return w
	}
	var el *surface.Element
	func() {
		defer recoverLog("mount", w.ID)
		el = r.mount(w)
	}()
	if el == nil {
		return w
	}
	if next, ok := r.update(w.ID, func(rec *Record) { rec.El = el }); ok {
		return next
	}
	return w
}

func (r *Registry) update(id string, fn func(*Record)) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[id]
	if !ok {
		return Record{}, false
	}
	fn(w)
	return *w, true
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.windows[id]; !ok {
		return
	}
	delete(r.windows, id)
	for i, cur := range r.order {
		if cur == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.activeID == id {
		r.activeID = ""
	}
}

func (r *Registry) findLocked(name string, t WindowType) *Record {
	for _, id := range r.order {
		w := r.windows[id]
		if w.Config.Name == name && w.Config.Type == t {
			return w
		}
	}
	return nil
}

func (r *Registry) visibleAttachExcept(id string) []Record {
	return r.filter(func(w *Record) bool {
		return w.ID != id && w.Visible && w.Config.Type == AttachWindow
	})
}

func (r *Registry) filter(keep func(*Record) bool) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		if w := r.windows[id]; keep(w) {
			out = append(out, *w)
		}
	}
	return out
}

// runHook calls fn and logs its error or panic. Hooks never gate the
// transition around them.
func (r *Registry) runHook(name, id string, fn func() error) {
	defer recoverLog(name, id)
	if err := fn(); err != nil {
		log.Printf("Registry: %s hook for %s failed: %v", name, id, err)
	}
}

func claim(name string, fn func(Record) bool, w Record) (handled bool) {
	if fn == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Registry: %s for %s panicked: %v", name, w.ID, rec)
			handled = false
		}
	}()
	return fn(w)
}

func recoverLog(name, id string) {
	if rec := recover(); rec != nil {
		log.Printf("Registry: %s for %s panicked: %v", name, id, rec)
	}
}
