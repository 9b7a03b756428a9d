package window

import (
	"context"
	"errors"
	"fmt"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/surface"
)

var (
	ErrWindowNotFound = errors.New("window not found")
	ErrNotMaximizable = errors.New("window type cannot be maximized")
	ErrInvalidConfig  = errors.New("invalid window config")
)

// WindowType selects how a window relates to the floating ball.
type WindowType string

const (
	// AttachWindow panels are glued to the ball; at most one is visible.
	AttachWindow WindowType = "AttachWindow"
	// NotificationWindow panels are short-lived and never maximized.
	NotificationWindow WindowType = "NotificationWindow"
	// FloatingWindow panels move freely.
	FloatingWindow WindowType = "FloatingWindow"
)

func (t WindowType) Valid() bool {
	switch t {
	case AttachWindow, NotificationWindow, FloatingWindow:
		return true
	}
	return false
}

const (
	DefaultWidth  = 400
	DefaultHeight = 300
	DefaultX      = 100
	DefaultY      = 100

	baseZIndex = 1000
)

// Layout is the declared geometry of a window.
type Layout struct {
	X         *float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y         *float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Width     float64  `yaml:"width,omitempty" json:"width,omitempty"`
	Height    float64  `yaml:"height,omitempty" json:"height,omitempty"`
	Resizable *bool    `yaml:"resizable,omitempty" json:"resizable,omitempty"`
	MinWidth  float64  `yaml:"min_width,omitempty" json:"min_width,omitempty"`
	MinHeight float64  `yaml:"min_height,omitempty" json:"min_height,omitempty"`
	MaxWidth  float64  `yaml:"max_width,omitempty" json:"max_width,omitempty"`
	MaxHeight float64  `yaml:"max_height,omitempty" json:"max_height,omitempty"`
}

// HasPosition reports whether both coordinates were declared.
func (l Layout) HasPosition() bool {
	return l.X != nil && l.Y != nil
}

// Position returns the declared position with unset axes defaulted.
func (l Layout) Position() coord.Point {
	p := coord.Point{X: DefaultX, Y: DefaultY}
	if l.X != nil {
		p.X = *l.X
	}
	if l.Y != nil {
		p.Y = *l.Y
	}
	return p
}

// Toolbar controls the window chrome. The claim callbacks return true when
// they handled the action themselves.
type Toolbar struct {
	Show               *bool `yaml:"show,omitempty" json:"show,omitempty"`
	HoverShow          *bool `yaml:"hover_show,omitempty" json:"hover_show,omitempty"`
	ShowMinimizeButton *bool `yaml:"show_minimize_button,omitempty" json:"show_minimize_button,omitempty"`
	ShowMaximizeButton *bool `yaml:"show_maximize_button,omitempty" json:"show_maximize_button,omitempty"`
	ShowCloseButton    *bool `yaml:"show_close_button,omitempty" json:"show_close_button,omitempty"`

	OnMinimize func(Record) bool `yaml:"-" json:"-"`
	OnMaximize func(Record) bool `yaml:"-" json:"-"`
	OnClose    func(Record) bool `yaml:"-" json:"-"`
}

type Behavior struct {
	Draggable *bool `yaml:"draggable,omitempty" json:"draggable,omitempty"`
	ZIndex    int   `yaml:"z_index,omitempty" json:"z_index,omitempty"`
	Modal     bool  `yaml:"modal,omitempty" json:"modal,omitempty"`
}

// WindowConfig declares one logical window. Component is a key the host
// resolves to panel content.
type WindowConfig struct {
	Name      string     `yaml:"name" json:"name"`
	Title     string     `yaml:"title,omitempty" json:"title,omitempty"`
	Component string     `yaml:"component,omitempty" json:"component,omitempty"`
	Type      WindowType `yaml:"type" json:"type"`
	Layout    *Layout    `yaml:"layout,omitempty" json:"layout,omitempty"`
	Toolbar   *Toolbar   `yaml:"toolbar,omitempty" json:"toolbar,omitempty"`
	Behavior  *Behavior  `yaml:"behavior,omitempty" json:"behavior,omitempty"`
}

// Validate checks the fields a registry cannot default.
func (c WindowConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidConfig, c.Type)
	}
	if l := c.Layout; l != nil {
		if l.Width < 0 || l.Height < 0 {
			return fmt.Errorf("%w: negative size %vx%v", ErrInvalidConfig, l.Width, l.Height)
		}
		if l.MaxWidth > 0 && l.MinWidth > l.MaxWidth {
			return fmt.Errorf("%w: min_width %v exceeds max_width %v", ErrInvalidConfig, l.MinWidth, l.MaxWidth)
		}
		if l.MaxHeight > 0 && l.MinHeight > l.MaxHeight {
			return fmt.Errorf("%w: min_height %v exceeds max_height %v", ErrInvalidConfig, l.MinHeight, l.MaxHeight)
		}
	}
	return nil
}

// normalized returns a copy with every optional section present and every
// toolbar flag resolved.
func (c WindowConfig) normalized() WindowConfig {
	layout := Layout{Width: DefaultWidth, Height: DefaultHeight}
	if c.Layout != nil {
		layout = *c.Layout
		if layout.Width == 0 {
			layout.Width = DefaultWidth
		}
		if layout.Height == 0 {
			layout.Height = DefaultHeight
		}
	}
	c.Layout = &layout

	tb := Toolbar{}
	if c.Toolbar != nil {
		tb = *c.Toolbar
	}
	tb.Show = orDefault(tb.Show, true)
	tb.HoverShow = orDefault(tb.HoverShow, false)
	tb.ShowMinimizeButton = orDefault(tb.ShowMinimizeButton, true)
	tb.ShowMaximizeButton = orDefault(tb.ShowMaximizeButton, true)
	tb.ShowCloseButton = orDefault(tb.ShowCloseButton, true)
	c.Toolbar = &tb

	b := Behavior{}
	if c.Behavior != nil {
		b = *c.Behavior
	}
	c.Behavior = &b
	return c
}

func orDefault(v *bool, def bool) *bool {
	if v != nil {
		out := *v
		return &out
	}
	return &def
}

func boolValue(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Size is the current size of a window and its declared limits.
type Size struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	MinWidth  float64 `json:"min_width,omitempty"`
	MinHeight float64 `json:"min_height,omitempty"`
	MaxWidth  float64 `json:"max_width,omitempty"`
	MaxHeight float64 `json:"max_height,omitempty"`
}

// Record is a snapshot of one registered window.
type Record struct {
	ID        string           `json:"id"`
	Visible   bool             `json:"visible"`
	Position  coord.Point      `json:"position"`
	Size      Size             `json:"size"`
	ZIndex    int              `json:"z_index"`
	Resizable bool             `json:"resizable"`
	Draggable bool             `json:"draggable"`
	Modal     bool             `json:"modal"`
	Config    WindowConfig     `json:"config"`
	El        *surface.Element `json:"-"`
	Props     map[string]any   `json:"props,omitempty"`
}

func (r Record) Name() string     { return r.Config.Name }
func (r Record) Type() WindowType { return r.Config.Type }

// CreateOptions tune CreateOrRestoreWindow.
type CreateOptions struct {
	// Data becomes the record's Props on (re)activation.
	Data map[string]any
	// ForceCreate allocates a new record even if one with the same name and
	// type exists.
	ForceCreate bool
}

// RestoreOptions tell restore hooks whether another window is being
// replaced.
type RestoreOptions struct {
	IsReplacing    bool
	ReplacedWindow *Record
}

// MinimizeOptions tell minimize hooks whether the window is being hidden
// to make room for Replacement.
type MinimizeOptions struct {
	IsReplaced  bool
	Replacement *Record
}

// CloseOptions mirror MinimizeOptions for close hooks.
type CloseOptions struct {
	IsReplaced  bool
	Replacement *Record
}

// ResizeOptions carry a geometry request. A nil Target leaves the position
// to the observer.
type ResizeOptions struct {
	TargetWidth  float64
	TargetHeight float64
	Target       *coord.Point
}

// ResizeObserver mirrors registry-driven geometry changes onto the host.
type ResizeObserver interface {
	Resize(ctx context.Context, w Record, opts ResizeOptions)
}

// ResizeObserverFunc adapts a function to ResizeObserver.
type ResizeObserverFunc func(ctx context.Context, w Record, opts ResizeOptions)

func (f ResizeObserverFunc) Resize(ctx context.Context, w Record, opts ResizeOptions) {
	f(ctx, w, opts)
}

// Hooks observe lifecycle transitions. Every field is optional. Errors are
// logged and never undo the transition.
type Hooks struct {
	BeforeWindowClose    func(ctx context.Context, w Record, opts CloseOptions) error
	AfterWindowClose     func(ctx context.Context, w Record, opts CloseOptions) error
	BeforeWindowMinimize func(ctx context.Context, w Record, opts MinimizeOptions) error
	AfterWindowMinimize  func(ctx context.Context, w Record, opts MinimizeOptions) error
	BeforeWindowMaximize func(ctx context.Context, w Record) error
	AfterWindowMaximize  func(ctx context.Context, w Record) error
	BeforeWindowRestore  func(ctx context.Context, w Record, opts RestoreOptions) error
	AfterWindowRestore   func(ctx context.Context, w Record, opts RestoreOptions) error
	BeforeWindowResize   func(ctx context.Context, w Record, opts ResizeOptions) error
	AfterWindowResize    func(ctx context.Context, w Record, opts ResizeOptions) error
}

func (h Hooks) withDefaults() Hooks {
	closeNop := func(context.Context, Record, CloseOptions) error { return nil }
	minNop := func(context.Context, Record, MinimizeOptions) error { return nil }
	maxNop := func(context.Context, Record) error { return nil }
	restoreNop := func(context.Context, Record, RestoreOptions) error { return nil }
	resizeNop := func(context.Context, Record, ResizeOptions) error { return nil }

	if h.BeforeWindowClose == nil {
		h.BeforeWindowClose = closeNop
	}
	if h.AfterWindowClose == nil {
		h.AfterWindowClose = closeNop
	}
	if h.BeforeWindowMinimize == nil {
		h.BeforeWindowMinimize = minNop
	}
	if h.AfterWindowMinimize == nil {
		h.AfterWindowMinimize = minNop
	}
	if h.BeforeWindowMaximize == nil {
		h.BeforeWindowMaximize = maxNop
	}
	if h.AfterWindowMaximize == nil {
		h.AfterWindowMaximize = maxNop
	}
	if h.BeforeWindowRestore == nil {
		h.BeforeWindowRestore = restoreNop
	}
	if h.AfterWindowRestore == nil {
		h.AfterWindowRestore = restoreNop
	}
	if h.BeforeWindowResize == nil {
		h.BeforeWindowResize = resizeNop
	}
	if h.AfterWindowResize == nil {
		h.AfterWindowResize = resizeNop
	}
	return h
}
