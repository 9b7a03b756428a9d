// Package shell assembles the overlay: the element tree, the view state
// machine, the window registry, pointer handling, persistence, the menu and
// notifications, presented through a platform host.
package shell

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/1broseidon/orbit/internal/config"
	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/logging"
	"github.com/1broseidon/orbit/internal/menu"
	"github.com/1broseidon/orbit/internal/notify"
	"github.com/1broseidon/orbit/internal/persist"
	"github.com/1broseidon/orbit/internal/platform"
	"github.com/1broseidon/orbit/internal/pointer"
	"github.com/1broseidon/orbit/internal/surface"
	"github.com/1broseidon/orbit/internal/view"
	"github.com/1broseidon/orbit/internal/window"
)

// DefaultViewport is used when the host cannot report one.
var DefaultViewport = surface.Size{Width: 1920, Height: 1080}

type Options struct {
	Config *config.Config
	// Host defaults to a headless platform.Nop.
	Host platform.Host
	// Store is optional; without it nothing survives a restart.
	Store *persist.Store
	// ApplyDelay overrides the pause between installing a transition and
	// changing the animated properties.
	ApplyDelay time.Duration
}

// Status is a snapshot for status commands.
type Status struct {
	View          view.State            `json:"view"`
	Viewport      surface.Size          `json:"viewport"`
	Passthrough   bool                  `json:"passthrough"`
	Windows       []window.Record       `json:"windows"`
	Menu          []menu.Item           `json:"menu"`
	Notifications []notify.Notification `json:"recent_notifications,omitempty"`
	StateFile     string                `json:"state_file,omitempty"`
}

// Shell is the running overlay.
type Shell struct {
	cfg   *config.Config
	host  platform.Host
	store *persist.Store
	now   func() time.Time

	doc         *surface.Document
	root        *surface.Element
	ball        *surface.Element
	menuEl      *surface.Element
	windowsEl   *surface.Element
	interactive surface.Selector

	tracker *coord.Tracker
	view    *view.Orchestrator
	windows *window.Registry
	menu    *menu.Registry
	notify  *notify.Center
	router  *pointer.Router
	hover   *pointer.Manager
	drag    *pointer.DragEngine

	mu             sync.Mutex
	dragState      ballDrag
	gridDelay      time.Duration
	passthrough    bool
	removeRecovery func()
	cleanup        []func()
	started        bool
	stopped        bool

	bg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the overlay without starting it.
func New(opts Options) (*Shell, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	host := opts.Host
	if host == nil {
		host = platform.NewNop(DefaultViewport)
	}

	vp, err := host.Viewport()
	if err != nil || vp.Width <= 0 || vp.Height <= 0 {
		log.Printf("Shell: host viewport unavailable (%v), using %.0fx%.0f", err, DefaultViewport.Width, DefaultViewport.Height)
		vp = DefaultViewport
	}

	interactive, err := surface.CompileAll(cfg.InteractiveSelectors...)
	if err != nil {
		return nil, fmt.Errorf("interactive selectors: %w", err)
	}
	items, err := menu.NewRegistry(cfg.Menu...)
	if err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Shell{
		cfg:         cfg,
		host:        host,
		store:       opts.Store,
		now:         time.Now,
		doc:         surface.NewDocument(vp),
		interactive: interactive,
		tracker:     coord.NewTracker(),
		menu:        items,
		gridDelay:   cfg.CoordGridDelay(),
		passthrough: true,
		ctx:         ctx,
		cancel:      cancel,
	}
	s.router = pointer.NewRouter(s.doc)
	s.hover = pointer.NewManager(s.doc)
	s.buildTree()

	var positions view.PositionStore
	if s.store != nil {
		positions = s.store
	}
	vcfg := viewConfig(cfg)
	if opts.ApplyDelay > 0 {
		vcfg.ApplyDelay = opts.ApplyDelay
	}
	s.view, err = view.New(view.Options{
		Config:   vcfg,
		Document: s.doc,
		Elements: view.Elements{Root: s.root, Ball: s.ball, Menu: s.menuEl, Window: s.windowsEl},
		Tracker:  s.tracker,
		Store:    positions,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	s.windows = window.NewRegistry(window.Options{
		Hooks:    s.hooks(s.view.Hooks()),
		Viewport: s.doc.Viewport,
		Mount:    s.mountWindow,
		Observer: s.view,
	})

	s.notify = notify.NewCenter(s)
	for _, k := range cfg.Notifications {
		if err := s.notify.Register(k); err != nil {
			cancel()
			return nil, err
		}
	}
	return s, nil
}

func viewConfig(cfg *config.Config) view.Config {
	return view.Config{
		BallSize:          float64(cfg.BallSize),
		EdgeDistance:      float64(cfg.EdgeDistance),
		Margin:            float64(cfg.BoundaryMargin),
		AnimationDuration: cfg.AnimationDuration(),
		TransitionTimeout: cfg.TransitionTimeout(),
		ShowMenuDelay:     cfg.ShowMenuDelay(),
		HideMenuDelay:     cfg.HideMenuDelay(),
		ApplyDelay:        view.DefaultConfig().ApplyDelay,
	}
}

// Start wires the listeners, places the ball at its last position and
// presents the first frame.
func (s *Shell) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.view.Start()
	if err := s.startPointer(); err != nil {
		return err
	}
	s.observeTree()
	if err := s.view.RestoreLastBounds(ctx); err != nil {
		log.Printf("Shell: restore last bounds: %v", err)
	}
	s.setPassthrough(true)
	s.present()
	s.bindMenuHotkey(s.currentConfig().MenuHotkey)
	log.Printf("Shell: started (viewport %.0fx%.0f, %d menu items)", s.doc.Viewport().Width, s.doc.Viewport().Height, len(s.menu.Items()))
	return nil
}

// Run starts the shell and feeds host input to it until ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()
	return s.host.Run(ctx, s)
}

// Stop detaches everything and waits for background work.
func (s *Shell) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cleanup := s.cleanup
	s.cleanup = nil
	recovery := s.removeRecovery
	s.removeRecovery = nil
	s.mu.Unlock()

	s.releaseHotkeys()
	if s.drag != nil {
		s.drag.Stop()
	}
	s.hover.ClearAll()
	for _, fn := range cleanup {
		fn()
	}
	if recovery != nil {
		recovery()
	}
	s.cancel()
	s.view.Stop()
	s.bg.Wait()
}

func (s *Shell) background(fn func(ctx context.Context)) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.bg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.bg.Done()
		fn(s.ctx)
	}()
}

// hooks extends the view hooks with geometry persistence and element
// cleanup.
func (s *Shell) hooks(base window.Hooks) window.Hooks {
	h := base
	afterResize := base.AfterWindowResize
	h.AfterWindowResize = func(ctx context.Context, w window.Record, opts window.ResizeOptions) error {
		s.saveGeometry(w)
		if afterResize != nil {
			return afterResize(ctx, w, opts)
		}
		return nil
	}
	afterClose := base.AfterWindowClose
	h.AfterWindowClose = func(ctx context.Context, w window.Record, opts window.CloseOptions) error {
		s.saveGeometry(w)
		if !w.Visible && w.El != nil {
			w.El.Remove()
		}
		if afterClose != nil {
			return afterClose(ctx, w, opts)
		}
		return nil
	}
	return h
}

func (s *Shell) saveGeometry(w window.Record) {
	if s.store == nil || !w.Resizable {
		return
	}
	r := coord.Rect{X: w.Position.X, Y: w.Position.Y, Width: w.Size.Width, Height: w.Size.Height}
	if err := s.store.SaveWindowGeometry(w.Name(), r); err != nil {
		log.Printf("Shell: %v", err)
	}
}

// withSavedGeometry applies the last saved size of a resizable window to a
// new record. Floating windows get their position back as well.
func (s *Shell) withSavedGeometry(cfg window.WindowConfig, opts window.CreateOptions) window.WindowConfig {
	if s.store == nil {
		return cfg
	}
	if _, exists := s.windows.Find(cfg.Name, cfg.Type); exists && !opts.ForceCreate {
		return cfg
	}
	if cfg.Layout != nil && cfg.Layout.Resizable != nil && !*cfg.Layout.Resizable {
		return cfg
	}
	g, found, err := s.store.LoadWindowGeometry(cfg.Name)
	if err != nil {
		log.Printf("Shell: %v", err)
		return cfg
	}
	if !found || g.Width <= 0 || g.Height <= 0 {
		return cfg
	}

	layout := window.Layout{}
	if cfg.Layout != nil {
		layout = *cfg.Layout
	}
	layout.Width = clampSize(g.Width, layout.MinWidth, layout.MaxWidth)
	layout.Height = clampSize(g.Height, layout.MinHeight, layout.MaxHeight)
	if cfg.Type == window.FloatingWindow {
		x, y := g.X, g.Y
		layout.X, layout.Y = &x, &y
	}
	cfg.Layout = &layout
	return cfg
}

func clampSize(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		v = lo
	}
	if hi > 0 && v > hi {
		v = hi
	}
	return v
}

// CreateOrRestoreWindow implements menu.Opener and notify.Opener.
func (s *Shell) CreateOrRestoreWindow(ctx context.Context, cfg window.WindowConfig, opts window.CreateOptions) (string, error) {
	return s.windows.CreateOrRestoreWindow(ctx, s.withSavedGeometry(cfg, opts), opts)
}

// OpenWindow opens the window behind a menu item id, item type or window
// name.
func (s *Shell) OpenWindow(ctx context.Context, key string, data map[string]any) (string, error) {
	return s.menu.Activate(ctx, s, key, data)
}

func (s *Shell) MinimizeWindow(ctx context.Context, id string) error {
	return s.windows.MinimizeWindow(ctx, id)
}

func (s *Shell) MaximizeWindow(ctx context.Context, id string) error {
	return s.windows.MaximizeWindow(ctx, id)
}

func (s *Shell) CloseWindow(ctx context.Context, id string) error {
	return s.windows.CloseWindow(ctx, id)
}

func (s *Shell) ResizeWindow(ctx context.Context, id string, width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %vx%v", width, height)
	}
	return s.windows.ResizeWindow(ctx, id, width, height)
}

// Notify delivers a notification and returns its id.
func (s *Shell) Notify(ctx context.Context, p notify.Params) (string, error) {
	return s.notify.Notify(ctx, p)
}

// ShowMenu and HideMenu drive the menu without hover.
func (s *Shell) ShowMenu(ctx context.Context) { s.view.ShowMenu(ctx) }
func (s *Shell) HideMenu(ctx context.Context) { s.view.HideMenu(ctx) }

func (s *Shell) Windows() []window.Record { return s.windows.All() }

func (s *Shell) MenuItems() []menu.Item { return s.menu.All() }

// Passthrough reports whether clicks currently reach the desktop.
func (s *Shell) Passthrough() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passthrough
}

func (s *Shell) Status() Status {
	st := Status{
		View:          s.view.State(),
		Viewport:      s.doc.Viewport(),
		Passthrough:   s.Passthrough(),
		Windows:       s.windows.All(),
		Menu:          s.menu.All(),
		Notifications: s.notify.Recent(),
	}
	if s.store != nil {
		st.StateFile = s.store.Path()
	}
	return st
}

// Reload applies a new configuration. Menu, notifications, the menu hotkey,
// the log level and the grid delay change live; geometry and timing settings
// need a restart. A configuration that fails validation changes nothing.
func (s *Shell) Reload(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("reload: nil config")
	}
	if err := menu.ValidateItems(cfg.Menu); err != nil {
		return fmt.Errorf("reload menu: %w", err)
	}
	if err := s.notify.Replace(cfg.Notifications); err != nil {
		return fmt.Errorf("reload notifications: %w", err)
	}
	if err := s.menu.Replace(cfg.Menu); err != nil {
		return fmt.Errorf("reload menu: %w", err)
	}
	logging.SetLevel(logging.ParseLevel(cfg.GetLoggingConfig().Level))

	s.mu.Lock()
	prev := s.cfg
	s.cfg = cfg
	s.gridDelay = cfg.CoordGridDelay()
	s.mu.Unlock()

	s.renderMenu()
	s.bindMenuHotkey(cfg.MenuHotkey)

	if viewConfig(prev) != viewConfig(cfg) {
		log.Printf("Shell: ball geometry and animation timing changes apply after restart")
	}
	log.Printf("Shell: configuration reloaded (%d menu items, %d notification types)", len(cfg.Menu), len(cfg.Notifications))
	return nil
}

func (s *Shell) currentConfig() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Document exposes the element tree, mainly for tests and diagnostics.
func (s *Shell) Document() *surface.Document { return s.doc }
