package view

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/surface"
	"github.com/1broseidon/orbit/internal/window"
)

// Mode is what the host surface currently shows.
type Mode string

const (
	ModeBall      Mode = "ball"
	ModeMenu      Mode = "menu"
	ModeComponent Mode = "component"
)

// Visibility tells which views must be rendered. During a transition both
// endpoints stay visible.
type Visibility struct {
	Ball   bool `json:"ball"`
	Menu   bool `json:"menu"`
	Window bool `json:"window"`
}

// State is a snapshot of the orchestrator.
type State struct {
	Mode             Mode        `json:"mode"`
	InTransform      []Mode      `json:"in_transform,omitempty"`
	Visibility       Visibility  `json:"visibility"`
	LastBallPosition coord.Point `json:"last_ball_position"`
	Dragging         bool        `json:"dragging"`
	ActiveArea       coord.Area  `json:"active_area"`
}

type Config struct {
	BallSize          float64
	EdgeDistance      float64
	Margin            float64
	AnimationDuration time.Duration
	// TransitionTimeout bounds every wait for a transitionend.
	TransitionTimeout time.Duration
	ShowMenuDelay     time.Duration
	HideMenuDelay     time.Duration
	// ApplyDelay separates installing a transition from changing the
	// properties it animates.
	ApplyDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		BallSize:          40,
		EdgeDistance:      10,
		Margin:            10,
		AnimationDuration: 300 * time.Millisecond,
		TransitionTimeout: time.Second,
		ShowMenuDelay:     500 * time.Millisecond,
		HideMenuDelay:     200 * time.Millisecond,
		ApplyDelay:        50 * time.Millisecond,
	}
}

// PositionStore persists the last ball position.
type PositionStore interface {
	LoadBallPosition() (p coord.Point, found bool, err error)
	SaveBallPosition(p coord.Point) error
}

// Elements are the views the orchestrator drives. Root is the host surface
// whose geometry follows the mode.
type Elements struct {
	Root   *surface.Element
	Ball   *surface.Element
	Menu   *surface.Element
	Window *surface.Element
}

type Options struct {
	Config   Config
	Document *surface.Document
	Elements Elements
	Tracker  *coord.Tracker
	Store    PositionStore
	// OnChange is called after every mode or transform change.
	OnChange func(State)
}

var animatedRootProps = []string{"width", "height", "left", "top"}

// Orchestrator runs the ball, menu and component state machine and the
// animations between them. It is the registry's hook set and resize
// observer.
type Orchestrator struct {
	cfg      Config
	doc      *surface.Document
	els      Elements
	tracker  *coord.Tracker
	store    PositionStore
	onChange func(State)

	mu          sync.Mutex
	mode        Mode
	inTransform []Mode
	transformID uint64
	lastBall    coord.Point
	dragging    bool
	moving      bool
	showTimer   *time.Timer
	hideTimer   *time.Timer
	showGen     uint64
	hideGen     uint64
	removers    []func()
	pending     sync.WaitGroup
	baseCtx     context.Context
	cancel      context.CancelFunc
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Document == nil {
		return nil, fmt.Errorf("view orchestrator requires a document")
	}
	if opts.Elements.Root == nil {
		return nil, fmt.Errorf("view orchestrator requires a root element")
	}
	cfg := opts.Config
	def := DefaultConfig()
	if cfg.BallSize <= 0 {
		cfg.BallSize = def.BallSize
	}
	if cfg.TransitionTimeout <= 0 {
		cfg.TransitionTimeout = cfg.AnimationDuration + def.TransitionTimeout
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = coord.NewTracker()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:      cfg,
		doc:      opts.Document,
		els:      opts.Elements,
		tracker:  tracker,
		store:    opts.Store,
		onChange: opts.OnChange,
		mode:     ModeBall,
		baseCtx:  ctx,
		cancel:   cancel,
	}
	r := o.els.Root.Rect()
	o.lastBall = coord.Point{X: r.X, Y: r.Y}
	return o, nil
}

// Start attaches the hover listeners of the ball and menu views.
func (o *Orchestrator) Start() {
	var removers []func()
	if ball := o.els.Ball; ball != nil {
		removers = append(removers,
			ball.AddEventListener(surface.EventMouseOver, func(*surface.Event) { o.BallEnter() }),
			ball.AddEventListener(surface.EventMouseLeave, func(*surface.Event) { o.BallLeave() }),
		)
	}
	if menu := o.els.Menu; menu != nil {
		removers = append(removers,
			menu.AddEventListener(surface.EventMouseEnter, func(*surface.Event) { o.MenuEnter() }),
			menu.AddEventListener(surface.EventMouseLeave, func(*surface.Event) { o.MenuLeave() }),
		)
	}
	o.mu.Lock()
	o.removers = append(o.removers, removers...)
	o.mu.Unlock()
	o.applyVisibility()
}

// Stop detaches listeners, cancels timers and in-flight background
// animations, and waits for them to return.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	removers := o.removers
	o.removers = nil
	o.stopShowLocked()
	o.stopHideLocked()
	o.mu.Unlock()
	for _, rm := range removers {
		rm()
	}
	o.cancel()
	o.pending.Wait()
}

// Wait blocks until every background transition started by hover timers or
// viewport changes has finished.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

func (o *Orchestrator) InTransform() []Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Mode(nil), o.inTransform...)
}

func (o *Orchestrator) Visibility() Visibility {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visibilityLocked()
}

func (o *Orchestrator) visibilityLocked() Visibility {
	has := func(m Mode) bool {
		if o.mode == m {
			return true
		}
		for _, cur := range o.inTransform {
			if cur == m {
				return true
			}
		}
		return false
	}
	return Visibility{Ball: has(ModeBall), Menu: has(ModeMenu), Window: has(ModeComponent)}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		Mode:             o.mode,
		InTransform:      append([]Mode(nil), o.inTransform...),
		Visibility:       o.visibilityLocked(),
		LastBallPosition: o.lastBall,
		Dragging:         o.dragging,
		ActiveArea:       o.tracker.Active(),
	}
}

// LastBallPosition returns the position the ball returns to.
func (o *Orchestrator) LastBallPosition() coord.Point {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastBall
}

// SetBallPosition records and persists a new resting position, typically
// at the end of a ball drag.
func (o *Orchestrator) SetBallPosition(p coord.Point) {
	o.mu.Lock()
	o.lastBall = p
	o.mu.Unlock()
	o.persist(p)
}

// SetDragging marks the ball as being dragged. Hover intent is ignored
// while set.
func (o *Orchestrator) SetDragging(on bool) {
	o.mu.Lock()
	o.dragging = on
	if on {
		o.stopShowLocked()
	}
	o.mu.Unlock()
	o.changed()
}

// SetMoving marks the ball as being moved programmatically. Leave events
// are ignored while set.
func (o *Orchestrator) SetMoving(on bool) {
	o.mu.Lock()
	o.moving = on
	o.mu.Unlock()
}

// BallEnter schedules the menu after ShowMenuDelay of sustained hover.
func (o *Orchestrator) BallEnter() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dragging {
		return
	}
	o.stopHideLocked()
	if o.mode == ModeMenu {
		return
	}
	o.stopShowLocked()
	gen := o.showGen
	o.showTimer = time.AfterFunc(o.cfg.ShowMenuDelay, func() {
		o.mu.Lock()
		if o.showGen != gen {
			o.mu.Unlock()
			return
		}
		o.showTimer = nil
		o.pending.Add(1)
		o.mu.Unlock()
		defer o.pending.Done()
		o.showMenu(o.baseCtx)
	})
}

// BallLeave cancels a pending menu and, when the menu is open, schedules
// its collapse.
func (o *Orchestrator) BallLeave() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.moving || o.dragging {
		return
	}
	o.stopShowLocked()
	if o.mode == ModeMenu {
		o.scheduleHideLocked()
	}
}

// MenuEnter keeps an open menu open.
func (o *Orchestrator) MenuEnter() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopHideLocked()
}

// MenuLeave schedules the menu collapse.
func (o *Orchestrator) MenuLeave() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.moving {
		return
	}
	o.stopHideLocked()
	if o.mode == ModeMenu {
		o.scheduleHideLocked()
	}
}

func (o *Orchestrator) scheduleHideLocked() {
	o.stopHideLocked()
	gen := o.hideGen
	o.hideTimer = time.AfterFunc(o.cfg.HideMenuDelay, func() {
		o.mu.Lock()
		if o.hideGen != gen {
			o.mu.Unlock()
			return
		}
		o.hideTimer = nil
		o.pending.Add(1)
		o.mu.Unlock()
		defer o.pending.Done()
		o.hideMenu(o.baseCtx)
	})
}

func (o *Orchestrator) stopShowLocked() {
	o.showGen++
	if o.showTimer != nil {
		o.showTimer.Stop()
		o.showTimer = nil
	}
}

func (o *Orchestrator) stopHideLocked() {
	o.hideGen++
	if o.hideTimer != nil {
		o.hideTimer.Stop()
		o.hideTimer = nil
	}
}

func (o *Orchestrator) showMenu(ctx context.Context) {
	o.mu.Lock()
	if o.dragging || o.mode != ModeBall {
		o.mu.Unlock()
		return
	}
	o.recordBallPositionLocked()
	o.mode = ModeMenu
	id := o.beginTransformLocked(ModeBall, ModeMenu)
	anchor := o.lastBall
	o.mu.Unlock()
	o.persist(anchor)
	o.changed()

	var w, h float64
	if menu := o.els.Menu; menu != nil {
		r := menu.Rect()
		w, h = r.Width, r.Height
	} else {
		log.Printf("View: menu element missing, collapsing to ball size")
		w, h = o.cfg.BallSize, o.cfg.BallSize
	}
	if pos, needed := AdjustForBoundary(anchor, w, h, o.doc.Viewport(), o.cfg.BallSize, o.cfg.Margin); needed {
		o.logErr("menu expand", o.resizeRoot(ctx, w, h, &pos))
	} else {
		o.logErr("menu expand", o.resizeRoot(ctx, w, h, nil))
	}
	o.endTransform(id)
}

func (o *Orchestrator) hideMenu(ctx context.Context) {
	o.mu.Lock()
	if o.mode != ModeMenu {
		o.mu.Unlock()
		return
	}
	o.mode = ModeBall
	id := o.beginTransformLocked(ModeBall, ModeMenu)
	target := o.lastBall
	o.mu.Unlock()
	o.changed()

	o.logErr("menu collapse", o.resizeRoot(ctx, o.cfg.BallSize, o.cfg.BallSize, &target))
	o.endTransform(id)
}

// ShowMenu opens the menu immediately.
func (o *Orchestrator) ShowMenu(ctx context.Context) {
	o.mu.Lock()
	o.stopShowLocked()
	o.stopHideLocked()
	o.mu.Unlock()
	o.showMenu(ctx)
}

// HideMenu collapses an open menu immediately.
func (o *Orchestrator) HideMenu(ctx context.Context) {
	o.mu.Lock()
	o.stopShowLocked()
	o.stopHideLocked()
	o.mu.Unlock()
	o.hideMenu(ctx)
}

// Hooks returns the registry hooks that animate window transitions.
func (o *Orchestrator) Hooks() window.Hooks {
	return window.Hooks{
		BeforeWindowRestore:  o.beforeWindowRestore,
		AfterWindowRestore:   o.afterWindowRestore,
		BeforeWindowMinimize: o.beforeWindowMinimize,
		BeforeWindowClose:    o.beforeWindowClose,
		AfterWindowResize:    o.afterWindowResize,
	}
}

func (o *Orchestrator) beforeWindowRestore(ctx context.Context, w window.Record, opts window.RestoreOptions) error {
	if w.Type() != window.AttachWindow {
		return nil
	}
	if w.El == nil {
		log.Printf("View: window %s has no element, skipping restore animation", w.ID)
		return nil
	}

	o.mu.Lock()
	o.stopShowLocked()
	o.stopHideLocked()
	fromBall := o.mode == ModeBall
	switch o.mode {
	case ModeMenu:
		o.beginTransformLocked(ModeMenu, ModeComponent)
	case ModeBall:
		o.recordBallPositionLocked()
		o.beginTransformLocked(ModeBall, ModeComponent)
	default:
		o.beginTransformLocked(ModeComponent)
	}
	o.mode = ModeComponent
	ball := o.lastBall
	o.mu.Unlock()
	if fromBall {
		o.persist(ball)
	}

	w.El.SetStyles(map[string]string{"transition": "", "display": "", "opacity": "0"})
	o.changed()
	return nil
}

func (o *Orchestrator) afterWindowRestore(ctx context.Context, w window.Record, opts window.RestoreOptions) error {
	if w.Type() != window.AttachWindow {
		return nil
	}
	o.mu.Lock()
	id := o.transformID
	anchor := o.lastBall
	o.mu.Unlock()

	var steps []func(context.Context) error
	if opts.IsReplacing && opts.ReplacedWindow != nil && opts.ReplacedWindow.El != nil {
		replaced := opts.ReplacedWindow.El
		steps = append(steps, func(ctx context.Context) error { return o.fade(ctx, replaced, 0, true) })
	}
	if w.El != nil {
		steps = append(steps, func(ctx context.Context) error { return o.fade(ctx, w.El, 1, false) })
	}

	width, height := w.Size.Width, w.Size.Height
	layout := w.Config.Layout
	switch {
	case layout != nil && layout.HasPosition():
		pos := layout.Position()
		steps = append(steps, func(ctx context.Context) error { return o.resizeRoot(ctx, width, height, &pos) })
	default:
		if pos, needed := AdjustForBoundary(anchor, width, height, o.doc.Viewport(), o.cfg.BallSize, o.cfg.Margin); needed {
			steps = append(steps, func(ctx context.Context) error { return o.resizeRoot(ctx, width, height, &pos) })
		} else {
			steps = append(steps, func(ctx context.Context) error { return o.resizeRoot(ctx, width, height, nil) })
		}
	}

	err := runConcurrently(ctx, steps...)
	o.endTransform(id)
	return err
}

func (o *Orchestrator) beforeWindowMinimize(ctx context.Context, w window.Record, opts window.MinimizeOptions) error {
	if w.Type() != window.AttachWindow {
		return nil
	}
	if w.El == nil {
		return fmt.Errorf("window %s has no element", w.ID)
	}
	if opts.IsReplaced {
		return o.fade(ctx, w.El, 0, true)
	}
	el := w.El
	return o.collapseToBall(ctx, func(ctx context.Context) error { return o.fade(ctx, el, 0, true) })
}

func (o *Orchestrator) beforeWindowClose(ctx context.Context, w window.Record, opts window.CloseOptions) error {
	if w.Type() != window.AttachWindow {
		return nil
	}
	if w.El == nil {
		return fmt.Errorf("window %s has no element", w.ID)
	}
	if opts.IsReplaced {
		return o.fade(ctx, w.El, 0, true)
	}
	el := w.El
	return o.collapseToBall(ctx, func(ctx context.Context) error { return o.fade(ctx, el, 0, true) })
}

func (o *Orchestrator) collapseToBall(ctx context.Context, extra func(context.Context) error) error {
	o.mu.Lock()
	o.mode = ModeBall
	id := o.beginTransformLocked(ModeBall, ModeComponent)
	target := o.lastBall
	o.mu.Unlock()
	o.changed()

	steps := []func(context.Context) error{
		func(ctx context.Context) error {
			return o.resizeRoot(ctx, o.cfg.BallSize, o.cfg.BallSize, &target)
		},
	}
	if extra != nil {
		steps = append(steps, extra)
	}
	err := runConcurrently(ctx, steps...)
	o.endTransform(id)
	return err
}

func (o *Orchestrator) afterWindowResize(ctx context.Context, w window.Record, opts window.ResizeOptions) error {
	if w.El == nil {
		return nil
	}
	w.El.SetStyles(map[string]string{
		"width":  surface.FormatPx(opts.TargetWidth),
		"height": surface.FormatPx(opts.TargetHeight),
	})
	if w.Type() != window.AttachWindow || !w.Visible || o.Mode() != ModeComponent {
		return nil
	}
	anchor := o.rootOrigin()
	if pos, needed := AdjustForBoundary(anchor, opts.TargetWidth, opts.TargetHeight, o.doc.Viewport(), o.cfg.BallSize, o.cfg.Margin); needed {
		return o.resizeRoot(ctx, opts.TargetWidth, opts.TargetHeight, &pos)
	}
	return o.resizeRoot(ctx, opts.TargetWidth, opts.TargetHeight, nil)
}

// Resize mirrors a registry maximize onto the host surface while a
// component is shown. Without a target the panel stays attached to the
// ball's last position.
func (o *Orchestrator) Resize(ctx context.Context, w window.Record, opts window.ResizeOptions) {
	if o.Mode() != ModeComponent {
		return
	}
	target := opts.Target
	if target == nil {
		p := o.attachedOrigin(opts.TargetWidth, opts.TargetHeight)
		target = &p
	}
	o.logErr("resize "+w.ID, o.resizeRoot(ctx, opts.TargetWidth, opts.TargetHeight, target))
}

// attachedOrigin places a width x height panel on the ball's last
// position, growing left or up when the ball sits in the right column or
// bottom row of the floating grid.
func (o *Orchestrator) attachedOrigin(width, height float64) coord.Point {
	o.mu.Lock()
	p := o.lastBall
	o.mu.Unlock()
	if !o.tracker.Engaged() {
		return p
	}
	area := o.tracker.Active()
	if area.Col() == 2 {
		p.X = p.X + o.cfg.BallSize - width
	}
	if area.Row() == 2 {
		p.Y = p.Y + o.cfg.BallSize - height
	}
	return p
}

// RestoreLastBounds moves the ball to its persisted position, or to the
// default corner when none is stored or it cannot be read. The default is
// re-applied whenever the viewport changes.
func (o *Orchestrator) RestoreLastBounds(ctx context.Context) error {
	p, ok := o.loadPosition()
	if !ok {
		p = DefaultBallPosition(o.doc.Viewport(), o.cfg.BallSize, o.cfg.EdgeDistance)
	}
	o.mu.Lock()
	o.lastBall = clampToViewport(p, o.cfg.BallSize, o.cfg.BallSize, o.doc.Viewport())
	o.mu.Unlock()

	remove := o.doc.AddEventListener(surface.EventResize, func(*surface.Event) {
		o.pending.Add(1)
		go func() {
			defer o.pending.Done()
			o.moveToDefault(o.baseCtx)
		}()
	})
	o.mu.Lock()
	o.removers = append(o.removers, remove)
	o.mu.Unlock()

	return o.resizeRoot(ctx, o.cfg.BallSize, o.cfg.BallSize, &p)
}

func (o *Orchestrator) moveToDefault(ctx context.Context) {
	vp := o.doc.Viewport()
	p := DefaultBallPosition(vp, o.cfg.BallSize, o.cfg.EdgeDistance)
	o.mu.Lock()
	o.lastBall = clampToViewport(p, o.cfg.BallSize, o.cfg.BallSize, vp)
	o.mu.Unlock()
	o.logErr("viewport resize", o.resizeRoot(ctx, o.cfg.BallSize, o.cfg.BallSize, &p))
}

func (o *Orchestrator) loadPosition() (coord.Point, bool) {
	if o.store == nil {
		return coord.Point{}, false
	}
	p, found, err := o.store.LoadBallPosition()
	if err != nil {
		log.Printf("View: failed to load last ball position, using default: %v", err)
		return coord.Point{}, false
	}
	return p, found
}

func (o *Orchestrator) persist(p coord.Point) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveBallPosition(p); err != nil {
		log.Printf("View: failed to save ball position: %v", err)
	}
}

// recordBallPositionLocked captures the root's current top-left as the
// ball position. Callers persist it once the lock is released.
func (o *Orchestrator) recordBallPositionLocked() {
	r := o.els.Root.Rect()
	o.lastBall = coord.Point{X: r.X, Y: r.Y}
}

func (o *Orchestrator) rootOrigin() coord.Point {
	r := o.els.Root.Rect()
	return coord.Point{X: r.X, Y: r.Y}
}

func (o *Orchestrator) beginTransformLocked(modes ...Mode) uint64 {
	o.transformID++
	o.inTransform = append([]Mode(nil), modes...)
	return o.transformID
}

// endTransform clears the transform set unless a newer transition took
// it over.
func (o *Orchestrator) endTransform(id uint64) {
	o.mu.Lock()
	if o.transformID != id {
		o.mu.Unlock()
		return
	}
	o.inTransform = nil
	o.mu.Unlock()
	o.changed()
}

func (o *Orchestrator) changed() {
	o.applyVisibility()
	if o.onChange != nil {
		o.onChange(o.State())
	}
}

func (o *Orchestrator) applyVisibility() {
	v := o.Visibility()
	show := func(el *surface.Element, on bool) {
		if el == nil {
			return
		}
		if on {
			el.SetStyle("display", "")
		} else {
			el.SetStyle("display", "none")
		}
	}
	show(o.els.Ball, v.Ball)
	show(o.els.Menu, v.Menu)
	show(o.els.Window, v.Window)
}

// resizeRoot animates the root to width x height and, when target is set,
// moves it there clamped to the viewport. It returns once every animated
// property settled.
func (o *Orchestrator) resizeRoot(ctx context.Context, width, height float64, target *coord.Point) error {
	root := o.els.Root
	root.SetTransition(o.cfg.AnimationDuration, animatedRootProps...)
	if err := sleep(ctx, o.cfg.ApplyDelay); err != nil {
		return err
	}

	width, height = math.Round(width), math.Round(height)
	styles := map[string]string{
		"width":  surface.FormatPx(width),
		"height": surface.FormatPx(height),
	}
	if target != nil {
		r := root.Rect()
		if r.X != target.X || r.Y != target.Y {
			p := clampToViewport(*target, width, height, o.doc.Viewport())
			styles["left"] = surface.FormatPx(math.Round(p.X))
			styles["top"] = surface.FormatPx(math.Round(p.Y))
		}
	}

	awaiters := make([]*surface.Awaiter, 0, len(animatedRootProps))
	for _, prop := range animatedRootProps {
		awaiters = append(awaiters, surface.AwaitTransition(root, prop))
	}
	root.SetStyles(styles)
	err := surface.WaitAll(ctx, o.cfg.TransitionTimeout, awaiters...)
	root.SetStyle("transition", "")
	return o.tolerateTimeout("root resize", err)
}

// fade animates el's opacity. With hideOnZero a faded-out element is also
// removed from layout.
func (o *Orchestrator) fade(ctx context.Context, el *surface.Element, opacity float64, hideOnZero bool) error {
	if el == nil {
		log.Printf("View: fade target missing")
		return nil
	}
	el.SetTransition(o.cfg.AnimationDuration, "opacity")
	if err := sleep(ctx, o.cfg.ApplyDelay); err != nil {
		return err
	}
	a := surface.AwaitTransition(el, "opacity")
	el.SetStyle("opacity", strconv.FormatFloat(opacity, 'f', -1, 64))
	err := a.Wait(ctx, o.cfg.TransitionTimeout)
	// A restore that began meanwhile resets opacity; leave that element shown.
	if hideOnZero && opacity == 0 && el.Style("opacity") == "0" {
		el.SetStyle("display", "none")
	}
	return o.tolerateTimeout("fade", err)
}

func (o *Orchestrator) tolerateTimeout(what string, err error) error {
	if errors.Is(err, surface.ErrTransitionTimeout) {
		log.Printf("View: %s did not report transitionend, continuing", what)
		return nil
	}
	return err
}

func (o *Orchestrator) logErr(what string, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("View: %s failed: %v", what, err)
	}
}

func runConcurrently(ctx context.Context, steps ...func(context.Context) error) error {
	errs := make([]error, len(steps))
	var wg sync.WaitGroup
	for i, step := range steps {
		wg.Add(1)
		go func(i int, step func(context.Context) error) {
			defer wg.Done()
			errs[i] = step(ctx)
		}(i, step)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
