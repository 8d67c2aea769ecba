package viewport

import (
	"math"
	"testing"

	"github.com/example/s2c/internal/geom"
)

func near(a, b geom.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestScreenWorldRoundTrip(t *testing.T) {
	translates := []geom.Point{{}, {X: 120, Y: -40}, {X: -3000.5, Y: 1e6}}
	scales := []float64{0.1, 0.75, 1, 3.3, 8}
	points := []geom.Point{{}, {X: 5, Y: 5}, {X: -812.25, Y: 99.125}}
	for _, tr := range translates {
		for _, s := range scales {
			for _, p := range points {
				got := ScreenToWorld(WorldToScreen(p, tr, s), tr, s)
				if math.Abs(got.X-p.X) > 1e-6 || math.Abs(got.Y-p.Y) > 1e-6 {
					t.Fatalf("round trip t=%v s=%v p=%v got %v", tr, s, p, got)
				}
			}
		}
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	tests := []struct {
		name   string
		origin geom.Point
		deltaY float64
	}{
		{"zoom in", geom.Pt(300, 200), -120},
		{"zoom out", geom.Pt(10, 900), 240},
		{"clamped", geom.Pt(50, 50), -100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Translate = geom.Pt(33, -12)
			v.Scale = 1.5
			before := v.ScreenToWorld(tt.origin)
			v.ZoomAt(tt.origin, tt.deltaY)
			after := v.ScreenToWorld(tt.origin)
			if !near(before, after) {
				t.Fatalf("world under cursor moved: %v -> %v", before, after)
			}
			if v.Scale < DefaultMinScale || v.Scale > DefaultMaxScale {
				t.Fatalf("scale %v outside clamp", v.Scale)
			}
		})
	}
}

func TestZoomDirection(t *testing.T) {
	v := New()
	v.ZoomAt(geom.Pt(0, 0), -100)
	if v.Scale <= 1 {
		t.Fatalf("negative delta should zoom in, scale=%v", v.Scale)
	}
}

func TestPanMoveUsesScreenDelta(t *testing.T) {
	v := New()
	v.Scale = 4
	v.PanStart(geom.Pt(100, 100), ModePanning)
	v.PanMove(geom.Pt(130, 90))
	if v.Translate != geom.Pt(30, -10) {
		t.Fatalf("translate = %v, want (30,-10)", v.Translate)
	}
	v.PanMove(geom.Pt(140, 90))
	if v.Translate != geom.Pt(40, -10) {
		t.Fatalf("translate = %v, want (40,-10)", v.Translate)
	}
	v.PanEnd()
	v.PanMove(geom.Pt(500, 500))
	if v.Translate != geom.Pt(40, -10) || v.Mode != ModeIdle {
		t.Fatalf("pan after end changed state: %+v", v)
	}
}

func TestRestoreClampsScale(t *testing.T) {
	v := New()
	v.Restore(Data{Scale: 100, Translate: geom.Pt(1, 2)})
	if v.Scale != DefaultMaxScale || v.Translate != geom.Pt(1, 2) {
		t.Fatalf("restore = %+v", v)
	}
	v.Restore(Data{})
	if v.Scale != 1 {
		t.Fatalf("zero scale restored as %v", v.Scale)
	}
}
