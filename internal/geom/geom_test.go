package geom

import (
	"math"
	"testing"
)

func TestDistanceToSegment(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		a, b Point
		want float64
	}{
		{"perpendicular", Pt(5, 3), Pt(0, 0), Pt(10, 0), 3},
		{"before start", Pt(-3, 4), Pt(0, 0), Pt(10, 0), 5},
		{"past end", Pt(13, 4), Pt(0, 0), Pt(10, 0), 5},
		{"on segment", Pt(4, 4), Pt(0, 0), Pt(8, 8), 0},
		{"zero length", Pt(3, 4), Pt(0, 0), Pt(0, 0), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceToSegment(tt.p, tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("DistanceToSegment = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceToSegmentDeterministic(t *testing.T) {
	p, a, b := Pt(1.25, -7.5), Pt(-3.3, 2.2), Pt(9.1, 4.4)
	first := DistanceToSegment(p, a, b)
	for i := 0; i < 10; i++ {
		if got := DistanceToSegment(p, a, b); got != first {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

func TestPolylineBounds(t *testing.T) {
	b := PolylineBounds(nil)
	if b != (Bounds{}) {
		t.Fatalf("empty bounds = %+v, want zero", b)
	}
	b = PolylineBounds([]Point{{3, 9}, {-1, 4}, {7, 2}})
	want := Bounds{MinX: -1, MinY: 2, MaxX: 7, MaxY: 9, Width: 8, Height: 7}
	if b != want {
		t.Fatalf("bounds = %+v, want %+v", b, want)
	}
	if got := b.Box(); got != (Box{X: -1, Y: 2, W: 8, H: 7}) {
		t.Fatalf("box = %+v", got)
	}
}

func TestBoxContainsInclusive(t *testing.T) {
	b := Box{X: 0, Y: 0, W: 10, H: 10}
	for _, p := range []Point{{0, 0}, {10, 10}, {5, 10}} {
		if !b.Contains(p) {
			t.Errorf("expected %v inside %v", p, b)
		}
	}
	if b.Contains(Pt(10.01, 5)) {
		t.Errorf("point past right edge reported inside")
	}
}

func TestBoxFromPoints(t *testing.T) {
	got := BoxFromPoints(Pt(110, 60), Pt(10, 10))
	if got != (Box{X: 10, Y: 10, W: 100, H: 50}) {
		t.Fatalf("BoxFromPoints = %+v", got)
	}
}

func TestDistanceToPolyline(t *testing.T) {
	if d := DistanceToPolyline(Pt(0, 0), nil); !math.IsInf(d, 1) {
		t.Fatalf("empty polyline distance = %v", d)
	}
	pts := []Point{{0, 0}, {10, 0}, {10, 10}}
	if d := DistanceToPolyline(Pt(12, 5), pts); math.Abs(d-2) > 1e-9 {
		t.Fatalf("distance = %v, want 2", d)
	}
}
