package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Rect is a region in root window coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) empty() bool { return r.Width <= 0 || r.Height <= 0 }

// PointerHandlers receive overlay input in root coordinates. Buttons use
// DOM numbering (0 = primary).
type PointerHandlers struct {
	Motion      func(x, y int)
	Press       func(x, y, button int)
	Release     func(x, y, button int)
	Leave       func()
	RootResized func(width, height int)
}

const overlayEventMask = xproto.EventMaskPointerMotion |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow

// Overlay is the override-redirect window that hosts the floating surface.
// Its input shape decides which parts receive the pointer; the rest passes
// through to the desktop below.
type Overlay struct {
	conn *Connection
	win  xproto.Window

	mu     sync.Mutex
	bounds Rect
	mapped bool
}

// NewOverlay creates an unmapped override-redirect window named name.
func NewOverlay(c *Connection, name string, background uint32) (*Overlay, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}

	// Value list order follows the bit positions of the mask (low to high).
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		0, 0,
		1, 1,
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{background, 1, overlayEventMask},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("create overlay window: %w", err)
	}

	if err := ewmh.WmNameSet(c.XUtil, wid, name); err != nil {
		return nil, fmt.Errorf("set overlay name: %w", err)
	}
	_ = icccm.WmClassSet(c.XUtil, wid, &icccm.WmClass{Instance: name, Class: name})
	_ = ewmh.WmWindowTypeSet(c.XUtil, wid, []string{"_NET_WM_WINDOW_TYPE_UTILITY"})

	return &Overlay{conn: c, win: wid}, nil
}

// Window returns the X window id.
func (o *Overlay) Window() xproto.Window { return o.win }

// Bounds returns the last placed geometry.
func (o *Overlay) Bounds() Rect {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bounds
}

// Place moves the overlay to r, keeps it on top and maps it. An empty r
// unmaps the overlay.
func (o *Overlay) Place(r Rect) error {
	conn := o.conn.XUtil.Conn()

	o.mu.Lock()
	defer o.mu.Unlock()

	if r.empty() {
		if o.mapped {
			xproto.UnmapWindow(conn, o.win)
			o.mapped = false
		}
		o.bounds = r
		return nil
	}

	err := xproto.ConfigureWindowChecked(
		conn,
		o.win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(r.X),
			uint32(r.Y),
			uint32(r.Width),
			uint32(r.Height),
			xproto.StackModeAbove,
		},
	).Check()
	if err != nil {
		return fmt.Errorf("configure overlay: %w", err)
	}
	o.bounds = r

	if !o.mapped {
		if err := xproto.MapWindowChecked(conn, o.win).Check(); err != nil {
			return fmt.Errorf("map overlay: %w", err)
		}
		o.mapped = true
	}
	return nil
}

// SetInputRegion limits pointer input to rects (root coordinates). With
// full set the whole overlay accepts input and rects are ignored.
func (o *Overlay) SetInputRegion(rects []Rect, full bool) error {
	o.mu.Lock()
	bounds := o.bounds
	o.mu.Unlock()

	var xrects []xproto.Rectangle
	if full {
		xrects = append(xrects, toXRect(Rect{Width: bounds.Width, Height: bounds.Height}))
	} else {
		for _, r := range rects {
			local := Rect{X: r.X - bounds.X, Y: r.Y - bounds.Y, Width: r.Width, Height: r.Height}
			if local.empty() {
				continue
			}
			xrects = append(xrects, toXRect(local))
		}
	}

	err := shape.RectanglesChecked(
		o.conn.XUtil.Conn(),
		shape.SoSet,
		shape.SkInput,
		xproto.ClipOrderingUnsorted,
		o.win,
		0, 0,
		xrects,
	).Check()
	if err != nil {
		return fmt.Errorf("set input shape: %w", err)
	}
	return nil
}

// Listen connects h to the overlay's pointer events and to root resizes.
// Callbacks run on the event loop goroutine.
func (o *Overlay) Listen(h PointerHandlers) error {
	xu := o.conn.XUtil

	if h.Motion != nil {
		xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
			h.Motion(int(ev.RootX), int(ev.RootY))
		}).Connect(xu, o.win)
	}
	if h.Press != nil {
		xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
			h.Press(int(ev.RootX), int(ev.RootY), domButton(ev.Detail))
		}).Connect(xu, o.win)
	}
	if h.Release != nil {
		xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
			h.Release(int(ev.RootX), int(ev.RootY), domButton(ev.Detail))
		}).Connect(xu, o.win)
	}
	if h.Leave != nil {
		xevent.LeaveNotifyFun(func(_ *xgbutil.XUtil, ev xevent.LeaveNotifyEvent) {
			// Grab transitions are not real exits.
			if ev.Mode != xproto.NotifyModeNormal {
				return
			}
			h.Leave()
		}).Connect(xu, o.win)
	}
	if h.RootResized != nil {
		if err := xwindow.New(xu, o.conn.Root).Listen(xproto.EventMaskStructureNotify); err != nil {
			return fmt.Errorf("listen on root: %w", err)
		}
		xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
			h.RootResized(int(ev.Width), int(ev.Height))
		}).Connect(xu, o.conn.Root)
	}
	return nil
}

// Destroy detaches callbacks and destroys the window.
func (o *Overlay) Destroy() {
	xevent.Detach(o.conn.XUtil, o.win)
	xproto.DestroyWindow(o.conn.XUtil.Conn(), o.win)
}

func toXRect(r Rect) xproto.Rectangle {
	return xproto.Rectangle{
		X:      int16(r.X),
		Y:      int16(r.Y),
		Width:  uint16(r.Width),
		Height: uint16(r.Height),
	}
}

func domButton(b xproto.Button) int {
	if b == 0 {
		return 0
	}
	return int(b) - 1
}
