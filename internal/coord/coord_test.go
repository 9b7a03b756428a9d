package coord

import (
	"math"
	"testing"
)

func TestClassify_BandsByThirds(t *testing.T) {
	tests := []struct {
		x, y float64
		want Area
	}{
		{0, 0, TopLeft},
		{150, 10, TopCenter},
		{299.9, 0, TopRight},
		{10, 150, MiddleLeft},
		{150, 150, Center},
		{250, 150, MiddleRight},
		{0, 299, BottomLeft},
		{150, 250, BottomCenter},
		{299, 299, BottomRight},
	}
	for _, tt := range tests {
		if got := Classify(tt.x, tt.y, 300, 300); got != tt.want {
			t.Fatalf("Classify(%v,%v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestClassify_ClampsOutOfBounds(t *testing.T) {
	if got := Classify(-50, -50, 90, 60); got != TopLeft {
		t.Fatalf("expected top-left for negative point, got %v", got)
	}
	if got := Classify(1000, 1000, 90, 60); got != BottomRight {
		t.Fatalf("expected bottom-right for far point, got %v", got)
	}
	// A point exactly on the far edge stays in the last band.
	if got := Classify(90, 30, 90, 60); got != MiddleRight {
		t.Fatalf("expected middle-right on right edge, got %v", got)
	}
}

func TestClassify_TinyRect(t *testing.T) {
	const w = 1e-9
	if got := Classify(w, w/2, w, w); got != MiddleRight {
		t.Fatalf("far edge of a tiny rect = %v, want middle-right", got)
	}
	if got := Classify(w/2, w/2, w, w); got != Center {
		t.Fatalf("middle of a tiny rect = %v, want center", got)
	}
	if got := Classify(w*0.9, w*0.9, w, w); got != BottomRight {
		t.Fatalf("inside corner of a tiny rect = %v, want bottom-right", got)
	}
}

func TestClassify_DegenerateRectIsCenter(t *testing.T) {
	cases := [][4]float64{
		{10, 10, 0, 100},
		{10, 10, 100, 0},
		{10, 10, -5, -5},
		{math.NaN(), 10, 100, 100},
	}
	for _, c := range cases {
		if got := Classify(c[0], c[1], c[2], c[3]); got != Center {
			t.Fatalf("Classify(%v) = %v, want center", c, got)
		}
	}
}

func TestZoneToViewportPoint_RoundTrip(t *testing.T) {
	const vw, vh = 1920, 1080
	for z := TopLeft; z <= BottomRight; z++ {
		p := ZoneToViewportPoint(z, vw, vh)
		if got := Classify(p.X, p.Y, vw, vh); got != z {
			t.Fatalf("zone %v anchor %+v classified as %v", z, p, got)
		}
	}
}

func TestZoneToViewportPoint_UnknownIsCenter(t *testing.T) {
	p := ZoneToViewportPoint(Area(42), 800, 600)
	if p.X != 400 || p.Y != 300 {
		t.Fatalf("expected center anchor, got %+v", p)
	}
}

func TestSnapPosition_KeepsElementInsideViewport(t *testing.T) {
	r := Rect{X: 500, Y: 500, Width: 40, Height: 40}
	for z := TopLeft; z <= BottomRight; z++ {
		p := SnapPosition(z, r, 800, 600)
		if p.X < 0 || p.Y < 0 || p.X+r.Width > 800 || p.Y+r.Height > 600 {
			t.Fatalf("zone %v snapped outside viewport: %+v", z, p)
		}
	}
	p := SnapPosition(BottomRight, r, 800, 600)
	if p.X != 760 || p.Y != 560 {
		t.Fatalf("expected bottom-right snap at (760,560), got %+v", p)
	}
	p = SnapPosition(TopCenter, r, 800, 600)
	if p.X != 380 || p.Y != 0 {
		t.Fatalf("expected top-center snap at (380,0), got %+v", p)
	}
}

func TestTracker_DefaultsAndClientPoint(t *testing.T) {
	tr := NewTracker()
	if tr.Active() != DefaultArea || tr.Engaged() {
		t.Fatalf("fresh tracker = %v engaged=%v", tr.Active(), tr.Engaged())
	}

	got := tr.SetActiveByClientPoint(110, 190, Rect{X: 100, Y: 100, Width: 90, Height: 90})
	if got != BottomLeft {
		t.Fatalf("expected bottom-left, got %v", got)
	}
	if !tr.Engaged() {
		t.Fatalf("expected tracker to be engaged")
	}

	// Zero-size areas are ignored.
	if got := tr.SetActiveByLocalPoint(1, 1, 0, 0); got != BottomLeft {
		t.Fatalf("degenerate area changed zone to %v", got)
	}

	tr.Reset()
	if tr.Active() != DefaultArea || tr.Engaged() {
		t.Fatalf("reset tracker = %v engaged=%v", tr.Active(), tr.Engaged())
	}
}
