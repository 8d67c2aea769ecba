// Package resize computes corner-drag resizes for canvas shapes.
package resize

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
)

// Corner identifies the handle being dragged.
type Corner string

const (
	NW Corner = "nw"
	NE Corner = "ne"
	SW Corner = "sw"
	SE Corner = "se"
)

// ParseCorner accepts nw, ne, sw or se in any case.
func ParseCorner(s string) (Corner, error) {
	switch c := Corner(strings.ToLower(strings.TrimSpace(s))); c {
	case NW, NE, SW, SE:
		return c, nil
	}
	return "", fmt.Errorf("unknown corner %q", s)
}

const (
	// MinSize is the smallest width or height a resize produces.
	MinSize = 10.0
	// Inset is the gap between a handle box and the stroke it wraps.
	Inset = 5.0
)

// Session is the state of one resize drag.
type Session struct {
	ShapeID string
	Corner  Corner
	Initial geom.Box
	Start   geom.Point
}

// Bounds returns the box produced by dragging corner of initial to world.
// The opposite edges stay where they were and neither side drops below
// MinSize.
func Bounds(corner Corner, initial geom.Box, world geom.Point) geom.Box {
	left, top := initial.X, initial.Y
	right, bottom := initial.Right(), initial.Bottom()
	nb := initial
	switch corner {
	case NW:
		nb.W = math.Max(MinSize, right-world.X)
		nb.H = math.Max(MinSize, bottom-world.Y)
		nb.X = right - nb.W
		nb.Y = bottom - nb.H
	case NE:
		nb.W = math.Max(MinSize, world.X-left)
		nb.H = math.Max(MinSize, bottom-world.Y)
		nb.X = left
		nb.Y = bottom - nb.H
	case SW:
		nb.W = math.Max(MinSize, right-world.X)
		nb.H = math.Max(MinSize, world.Y-top)
		nb.X = right - nb.W
		nb.Y = top
	case SE:
		nb.W = math.Max(MinSize, world.X-left)
		nb.H = math.Max(MinSize, world.Y-top)
	}
	return nb
}

// inner maps a handle box to the area the stroke itself should occupy.
func inner(b geom.Box) geom.Box {
	return geom.Box{
		X: b.X + Inset,
		Y: b.Y + Inset,
		W: math.Max(MinSize, b.W-2*Inset),
		H: math.Max(MinSize, b.H-2*Inset),
	}
}

// Apply returns a copy of s fitted to the handle box nb. Text is returned
// unchanged.
func Apply(s shape.Shape, nb geom.Box) shape.Shape {
	c := s.Clone()
	switch v := c.(type) {
	case *shape.Frame:
		v.Box = nb
	case *shape.Rect:
		v.Box = nb
	case *shape.Ellipse:
		v.Box = nb
	case *shape.GeneratedUI:
		v.Box = nb
	case *shape.FreeDraw:
		v.Points = scalePoints(v.Points, inner(nb))
	case *shape.Line:
		v.Segment = fitSegment(v.Segment, inner(nb))
	case *shape.Arrow:
		v.Segment = fitSegment(v.Segment, inner(nb))
	case *shape.Text:
	}
	return c
}

// HandleBox is the box resize handles are drawn around. Strokes get the
// inset added back so Apply(s, HandleBox(s)) leaves them in place.
func HandleBox(s shape.Shape) geom.Box {
	b := shape.Bounds(s)
	switch s.(type) {
	case *shape.FreeDraw, *shape.Line, *shape.Arrow:
		return b.Inset(-Inset)
	}
	return b
}

func scalePoints(points []geom.Point, target geom.Box) []geom.Point {
	src := geom.PolylineBounds(points)
	sx, sy := 1.0, 1.0
	if src.Width > 0 {
		sx = target.W / src.Width
	}
	if src.Height > 0 {
		sy = target.H / src.Height
	}
	out := make([]geom.Point, len(points))
	for i, p := range points {
		out[i] = geom.Point{
			X: (p.X-src.MinX)*sx + target.X,
			Y: (p.Y-src.MinY)*sy + target.Y,
		}
	}
	return out
}

func fitSegment(s shape.Segment, target geom.Box) shape.Segment {
	minX, minY := math.Min(s.StartX, s.EndX), math.Min(s.StartY, s.EndY)
	width := math.Abs(s.EndX - s.StartX)
	height := math.Abs(s.EndY - s.StartY)

	switch {
	case width == 0:
		// Vertical: stay vertical through the middle, keep direction.
		x := target.X + target.W/2
		out := shape.Segment{StartX: x, EndX: x}
		if s.StartY < s.EndY {
			out.StartY, out.EndY = target.Y, target.Y+target.H
		} else {
			out.StartY, out.EndY = target.Y+target.H, target.Y
		}
		return out
	case height == 0:
		y := target.Y + target.H/2
		out := shape.Segment{StartY: y, EndY: y}
		if s.StartX < s.EndX {
			out.StartX, out.EndX = target.X, target.X+target.W
		} else {
			out.StartX, out.EndX = target.X+target.W, target.X
		}
		return out
	}
	sx := target.W / width
	sy := target.H / height
	return shape.Segment{
		StartX: target.X + (s.StartX-minX)*sx,
		StartY: target.Y + (s.StartY-minY)*sy,
		EndX:   target.X + (s.EndX-minX)*sx,
		EndY:   target.Y + (s.EndY-minY)*sy,
	}
}
