package coord

import (
	"fmt"
	"math"
	"sync"
)

// Area identifies one of the nine zones of a rectangle, numbered row-major
// from the top-left (1) to the bottom-right (9).
type Area int

const (
	TopLeft Area = iota + 1
	TopCenter
	TopRight
	MiddleLeft
	Center
	MiddleRight
	BottomLeft
	BottomCenter
	BottomRight
)

// DefaultArea is the zone a fresh tracker reports before any classification.
const DefaultArea = TopRight

var areaNames = [...]string{
	"",
	"top-left",
	"top-center",
	"top-right",
	"middle-left",
	"center",
	"middle-right",
	"bottom-left",
	"bottom-center",
	"bottom-right",
}

func (a Area) String() string {
	if a.Valid() {
		return areaNames[a]
	}
	return fmt.Sprintf("area(%d)", int(a))
}

// Valid reports whether a is within 1..9.
func (a Area) Valid() bool {
	return a >= TopLeft && a <= BottomRight
}

// Row returns the 0-based row (0 top, 2 bottom).
func (a Area) Row() int {
	if !a.Valid() {
		return 1
	}
	return int(a-1) / 3
}

// Col returns the 0-based column (0 left, 2 right).
func (a Area) Col() int {
	if !a.Valid() {
		return 1
	}
	return int(a-1) % 3
}

// Point is a position in viewport coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Classify maps a point local to a width x height rectangle onto its zone.
// Points outside the rectangle are clamped; a degenerate rectangle yields Center.
func Classify(localX, localY, width, height float64) Area {
	if !(width > 0) || !(height > 0) || math.IsNaN(localX) || math.IsNaN(localY) {
		return Center
	}
	// The far edge clamps to the largest value below it so it stays in the
	// last band at any scale.
	nx := math.Min(math.Max(localX, 0), math.Nextafter(width, 0))
	ny := math.Min(math.Max(localY, 0), math.Nextafter(height, 0))
	col := band(nx, width)
	row := band(ny, height)
	return Area(row*3 + col + 1)
}

func band(v, size float64) int {
	b := int(math.Floor(v / size * 3))
	if b < 0 {
		return 0
	}
	if b > 2 {
		return 2
	}
	return b
}

// ZoneToViewportPoint returns the viewport anchor for a zone: corners, edge
// midpoints or the center. Unknown zones map to the center.
func ZoneToViewportPoint(zone Area, viewportWidth, viewportHeight float64) Point {
	return anchor(zone, Rect{Width: viewportWidth, Height: viewportHeight})
}

// ZoneOrigin returns the anchor of zone on the given element rectangle.
func ZoneOrigin(zone Area, r Rect) Point {
	return anchor(zone, r)
}

func anchor(zone Area, r Rect) Point {
	if !zone.Valid() {
		zone = Center
	}
	var p Point
	switch zone.Col() {
	case 0:
		p.X = r.X
	case 1:
		p.X = r.X + r.Width/2
	default:
		p.X = r.Right()
	}
	switch zone.Row() {
	case 0:
		p.Y = r.Y
	case 1:
		p.Y = r.Y + r.Height/2
	default:
		p.Y = r.Bottom()
	}
	return p
}

// SnapPosition returns the top-left an element of rect's size must move to so
// that its zone anchor lands on the viewport's zone anchor. The result keeps
// the element inside the viewport.
func SnapPosition(zone Area, r Rect, viewportWidth, viewportHeight float64) Point {
	origin := ZoneOrigin(zone, r)
	target := ZoneToViewportPoint(zone, viewportWidth, viewportHeight)
	x := r.X + (target.X - origin.X)
	y := r.Y + (target.Y - origin.Y)
	return Point{
		X: clamp(x, 0, viewportWidth-r.Width),
		Y: clamp(y, 0, viewportHeight-r.Height),
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// Tracker holds the most recently classified zone. It is shared between the
// drag path (which writes it) and the resize observer (which reads it).
type Tracker struct {
	mu      sync.Mutex
	active  Area
	engaged bool
}

// NewTracker returns a tracker reporting DefaultArea.
func NewTracker() *Tracker {
	return &Tracker{active: DefaultArea}
}

// Active returns the last classified zone.
func (t *Tracker) Active() Area {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Engaged reports whether any classification has happened since the last Reset.
func (t *Tracker) Engaged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engaged
}

// SetActiveByLocalPoint classifies a point local to a width x height area.
// Degenerate sizes leave the tracker untouched.
func (t *Tracker) SetActiveByLocalPoint(x, y, width, height float64) Area {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !(width > 0) || !(height > 0) {
		return t.active
	}
	t.active = Classify(x, y, width, height)
	t.engaged = true
	return t.active
}

// SetActiveByClientPoint classifies a viewport point against an element rect.
func (t *Tracker) SetActiveByClientPoint(clientX, clientY float64, r Rect) Area {
	x := clamp(clientX-r.X, 0, r.Width)
	y := clamp(clientY-r.Y, 0, r.Height)
	return t.SetActiveByLocalPoint(x, y, r.Width, r.Height)
}

// Reset restores the default zone and clears the engaged flag.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = DefaultArea
	t.engaged = false
}
