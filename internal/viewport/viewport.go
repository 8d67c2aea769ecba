// Package viewport maps between screen pixels and the unbounded world
// coordinate space of the canvas.
package viewport

import (
	"math"

	"github.com/example/s2c/internal/geom"
)

// Mode describes whether a pan gesture is active and what started it.
type Mode string

const (
	ModeIdle         Mode = "idle"
	ModePanning      Mode = "panning"
	ModeShiftPanning Mode = "shiftPanning"
)

// Scale limits and wheel sensitivity.
const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 8.0
	wheelZoomRate   = 0.0015
)

// Viewport is the translate/scale pair mapping world space onto the screen.
type Viewport struct {
	Translate geom.Point `json:"translate"`
	Scale     float64    `json:"scale"`
	Mode      Mode       `json:"mode"`

	MinScale float64 `json:"-"`
	MaxScale float64 `json:"-"`

	panLast  geom.Point
	panValid bool
}

// New returns a viewport at the origin with scale 1.
func New() Viewport {
	return Viewport{Scale: 1, Mode: ModeIdle, MinScale: DefaultMinScale, MaxScale: DefaultMaxScale}
}

// ScreenToWorld converts a screen point using translate t and scale s.
func ScreenToWorld(p, t geom.Point, s float64) geom.Point {
	return geom.Point{X: (p.X - t.X) / s, Y: (p.Y - t.Y) / s}
}

// WorldToScreen is the inverse of ScreenToWorld.
func WorldToScreen(p, t geom.Point, s float64) geom.Point {
	return geom.Point{X: p.X*s + t.X, Y: p.Y*s + t.Y}
}

// ScreenToWorld converts p using the viewport's transform.
func (v *Viewport) ScreenToWorld(p geom.Point) geom.Point {
	return ScreenToWorld(p, v.Translate, v.Scale)
}

// WorldToScreen converts p using the viewport's transform.
func (v *Viewport) WorldToScreen(p geom.Point) geom.Point {
	return WorldToScreen(p, v.Translate, v.Scale)
}

func (v *Viewport) clamp(s float64) float64 {
	lo, hi := v.MinScale, v.MaxScale
	if lo <= 0 {
		lo = DefaultMinScale
	}
	if hi < lo {
		hi = DefaultMaxScale
	}
	return math.Min(math.Max(s, lo), hi)
}

// SetScaleAt changes the scale while keeping the world point under origin
// fixed on screen.
func (v *Viewport) SetScaleAt(origin geom.Point, scale float64) {
	world := v.ScreenToWorld(origin)
	v.Scale = v.clamp(scale)
	v.Translate = geom.Point{X: origin.X - world.X*v.Scale, Y: origin.Y - world.Y*v.Scale}
}

// ZoomAt applies a wheel delta as an exponential zoom anchored at origin.
// Negative deltaY zooms in.
func (v *Viewport) ZoomAt(origin geom.Point, deltaY float64) {
	v.SetScaleAt(origin, v.Scale*math.Exp(-deltaY*wheelZoomRate))
}

// PanBy shifts the translate by a screen-space delta.
func (v *Viewport) PanBy(dx, dy float64) {
	v.Translate.X += dx
	v.Translate.Y += dy
}

// PanStart enters a pan mode anchored at a screen point.
func (v *Viewport) PanStart(screen geom.Point, mode Mode) {
	if mode == ModeIdle {
		mode = ModePanning
	}
	v.Mode = mode
	v.panLast = screen
	v.panValid = true
}

// PanMove applies the screen delta since the previous pan point.
func (v *Viewport) PanMove(screen geom.Point) {
	if !v.Panning() || !v.panValid {
		return
	}
	v.PanBy(screen.X-v.panLast.X, screen.Y-v.panLast.Y)
	v.panLast = screen
}

// PanEnd leaves pan mode.
func (v *Viewport) PanEnd() {
	v.Mode = ModeIdle
	v.panValid = false
}

// Panning reports whether a pan gesture is active.
func (v *Viewport) Panning() bool {
	return v.Mode == ModePanning || v.Mode == ModeShiftPanning
}

// Reset returns to the origin at scale 1, keeping the scale limits.
func (v *Viewport) Reset() {
	v.Translate = geom.Point{}
	v.Scale = 1
	v.Mode = ModeIdle
	v.panValid = false
}

// Data is the persisted part of the viewport.
type Data struct {
	Scale     float64    `json:"scale"`
	Translate geom.Point `json:"translate"`
}

// Data returns the persisted fields.
func (v *Viewport) Data() Data {
	return Data{Scale: v.Scale, Translate: v.Translate}
}

// Restore applies persisted fields, clamping the scale.
func (v *Viewport) Restore(d Data) {
	s := d.Scale
	if s <= 0 {
		s = 1
	}
	v.Scale = v.clamp(s)
	v.Translate = d.Translate
	v.Mode = ModeIdle
	v.panValid = false
}
