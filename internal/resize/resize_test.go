package resize

import (
	"math"
	"testing"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
)

func TestBoundsNeverBelowMinimum(t *testing.T) {
	initial := geom.Box{X: 100, Y: 100, W: 50, H: 40}
	drags := []geom.Point{{X: 1e6, Y: 1e6}, {X: -1e6, Y: -1e6}, {X: 125, Y: 120}, {X: 100, Y: 100}}
	for _, c := range []Corner{NW, NE, SW, SE} {
		for _, p := range drags {
			nb := Bounds(c, initial, p)
			if nb.W < MinSize || nb.H < MinSize {
				t.Fatalf("%s drag to %v gave %+v", c, p, nb)
			}
		}
	}
}

func TestBoundsKeepsOppositeEdge(t *testing.T) {
	initial := geom.Box{X: 100, Y: 100, W: 50, H: 40}
	tests := []struct {
		corner Corner
		check  func(geom.Box) bool
	}{
		{NW, func(b geom.Box) bool { return b.Right() == 150 && b.Bottom() == 140 }},
		{NE, func(b geom.Box) bool { return b.X == 100 && b.Bottom() == 140 }},
		{SW, func(b geom.Box) bool { return b.Right() == 150 && b.Y == 100 }},
		{SE, func(b geom.Box) bool { return b.X == 100 && b.Y == 100 }},
	}
	for _, tt := range tests {
		for _, p := range []geom.Point{{X: 0, Y: 0}, {X: 400, Y: 400}, {X: 130, Y: 120}} {
			nb := Bounds(tt.corner, initial, p)
			if !tt.check(nb) {
				t.Errorf("%s drag to %v moved the anchored edges: %+v", tt.corner, p, nb)
			}
		}
	}
}

func TestBoundsSE(t *testing.T) {
	nb := Bounds(SE, geom.Box{X: 10, Y: 10, W: 20, H: 20}, geom.Pt(110, 60))
	if nb != (geom.Box{X: 10, Y: 10, W: 100, H: 50}) {
		t.Fatalf("SE bounds = %+v", nb)
	}
}

func TestApplyBoxShapes(t *testing.T) {
	nb := geom.Box{X: 1, Y: 2, W: 30, H: 40}
	r := Apply(shape.NewRect(geom.Box{W: 10, H: 10}), nb).(*shape.Rect)
	if r.Box != nb {
		t.Fatalf("rect box = %+v", r.Box)
	}
	f := Apply(shape.NewFrame(geom.Box{W: 10, H: 10}, 1), nb).(*shape.Frame)
	if f.Box != nb {
		t.Fatalf("frame box = %+v", f.Box)
	}
}

func TestHorizontalLineStaysHorizontal(t *testing.T) {
	ln := shape.NewLine(geom.Pt(0, 50), geom.Pt(100, 50))
	initial := HandleBox(ln)
	for _, c := range []Corner{NW, NE, SW, SE} {
		nb := Bounds(c, initial, geom.Pt(-40, 300))
		out := Apply(ln, nb).(*shape.Line)
		if out.StartY != out.EndY {
			t.Fatalf("%s: horizontal line tilted: %+v", c, out.Segment)
		}
		if !(out.StartX < out.EndX) {
			t.Fatalf("%s: start/end swapped: %+v", c, out.Segment)
		}
		if isBad(out.StartX, out.StartY, out.EndX, out.EndY) {
			t.Fatalf("%s: NaN in %+v", c, out.Segment)
		}
	}
}

func TestVerticalArrowKeepsDirection(t *testing.T) {
	a := shape.NewArrow(geom.Pt(20, 200), geom.Pt(20, 0))
	out := Apply(a, geom.Box{X: 0, Y: 0, W: 50, H: 100}).(*shape.Arrow)
	if out.StartX != out.EndX {
		t.Fatalf("vertical arrow tilted: %+v", out.Segment)
	}
	if !(out.StartY > out.EndY) {
		t.Fatalf("arrow direction flipped: %+v", out.Segment)
	}
	if out.StartX != 25 || out.StartY != 95 || out.EndY != 5 {
		t.Fatalf("unexpected placement: %+v", out.Segment)
	}
}

func TestDiagonalLineScales(t *testing.T) {
	ln := shape.NewLine(geom.Pt(0, 0), geom.Pt(10, 20))
	out := Apply(ln, geom.Box{X: 0, Y: 0, W: 30, H: 50}).(*shape.Line)
	want := shape.Segment{StartX: 5, StartY: 5, EndX: 25, EndY: 45}
	if out.Segment != want {
		t.Fatalf("segment = %+v, want %+v", out.Segment, want)
	}
}

func TestFreeDrawZeroExtentNoNaN(t *testing.T) {
	flat := shape.NewFreeDraw([]geom.Point{{X: 0, Y: 10}, {X: 50, Y: 10}, {X: 80, Y: 10}})
	out := Apply(flat, geom.Box{X: 0, Y: 0, W: 100, H: 100}).(*shape.FreeDraw)
	for _, p := range out.Points {
		if isBad(p.X, p.Y) {
			t.Fatalf("NaN point in %v", out.Points)
		}
		if p.Y != 5 {
			t.Fatalf("flat stroke y = %v, want 5", p.Y)
		}
	}
	dot := shape.NewFreeDraw([]geom.Point{{X: 3, Y: 3}, {X: 3, Y: 3}})
	out = Apply(dot, geom.Box{X: 10, Y: 10, W: 40, H: 40}).(*shape.FreeDraw)
	for _, p := range out.Points {
		if isBad(p.X, p.Y) || p != geom.Pt(15, 15) {
			t.Fatalf("degenerate stroke point %v", p)
		}
	}
}

func TestFreeDrawFitsInset(t *testing.T) {
	fd := shape.NewFreeDraw([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 10}})
	out := Apply(fd, geom.Box{X: 100, Y: 100, W: 60, H: 30}).(*shape.FreeDraw)
	b := geom.PolylineBounds(out.Points)
	if b.MinX != 105 || b.MinY != 105 || b.Width != 50 || b.Height != 20 {
		t.Fatalf("bounds = %+v", b)
	}
}

func TestApplyLeavesSourceUntouched(t *testing.T) {
	fd := shape.NewFreeDraw([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 10}})
	_ = Apply(fd, geom.Box{W: 100, H: 100})
	if fd.Points[1] != geom.Pt(10, 10) {
		t.Fatalf("source mutated: %v", fd.Points)
	}
}

func TestParseCorner(t *testing.T) {
	if c, err := ParseCorner("NE"); err != nil || c != NE {
		t.Fatalf("ParseCorner(NE) = %v, %v", c, err)
	}
	if _, err := ParseCorner("n"); err == nil {
		t.Fatalf("expected error")
	}
}

func isBad(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
