package view

import (
	"math"

	"github.com/1broseidon/orbit/internal/coord"
	"github.com/1broseidon/orbit/internal/surface"
)

// AdjustForBoundary checks whether content of width x height expanding
// right and down from anchor fits the viewport. When it does not, the anchor
// is pulled left and/or up so the overflowing side keeps margin pixels of
// clearance, then clamped so the ball itself stays on screen.
func AdjustForBoundary(anchor coord.Point, width, height float64, vp surface.Size, ballSize, margin float64) (coord.Point, bool) {
	right := anchor.X + width
	bottom := anchor.Y + height
	if anchor.X >= 0 && anchor.Y >= 0 && right <= vp.Width && bottom <= vp.Height {
		return anchor, false
	}

	x, y := anchor.X, anchor.Y
	if right > vp.Width {
		x = vp.Width - width - margin
	}
	if bottom > vp.Height {
		y = vp.Height - height - margin
	}
	half := ballSize / 2
	x = clamp(x, half, vp.Width-half)
	y = clamp(y, half, vp.Height-half)
	return coord.Point{X: x, Y: y}, true
}

// DefaultBallPosition is the resting position used when nothing was
// persisted: the bottom-right corner inset by half a ball plus edge.
func DefaultBallPosition(vp surface.Size, ballSize, edge float64) coord.Point {
	return coord.Point{
		X: vp.Width - ballSize/2 - edge,
		Y: vp.Height - ballSize/2 - edge,
	}
}

// clampToViewport keeps a width x height box with top-left p inside vp.
func clampToViewport(p coord.Point, width, height float64, vp surface.Size) coord.Point {
	return coord.Point{
		X: math.Max(0, math.Min(p.X, vp.Width-width)),
		Y: math.Max(0, math.Min(p.Y, vp.Height-height)),
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}
