// Package geom holds the small amount of plane geometry the canvas needs:
// points, axis-aligned boxes, segment distance and polyline bounds.
package geom

import "math"

// Point is a position in either screen or world space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p*s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Box is an axis-aligned rectangle given by its top-left corner and size.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Center returns the midpoint of the box.
func (b Box) Center() Point { return Point{b.X + b.W/2, b.Y + b.H/2} }

// Contains reports whether p lies inside b, edges included.
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W && p.Y >= b.Y && p.Y <= b.Y+b.H
}

// Inset shrinks the box by d on every side. A negative d grows it.
func (b Box) Inset(d float64) Box {
	return Box{X: b.X + d, Y: b.Y + d, W: b.W - 2*d, H: b.H - 2*d}
}

// BoxFromPoints returns the normalised box spanned by two corners.
func BoxFromPoints(a, b Point) Box {
	return Box{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(a.X - b.X),
		H: math.Abs(a.Y - b.Y),
	}
}

// Bounds describes the extent of a point set.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
	Width      float64
	Height     float64
}

// Box converts the bounds to a Box.
func (b Bounds) Box() Box {
	return Box{X: b.MinX, Y: b.MinY, W: b.Width, H: b.Height}
}

// PolylineBounds returns the bounding box of points. An empty slice yields
// a zero-size box at the origin.
func PolylineBounds(points []Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	b.Width = b.MaxX - b.MinX
	b.Height = b.MaxY - b.MinY
	return b
}

// DistanceToSegment returns the distance from p to the closest point of
// the segment a-b. A zero-length segment is treated as the point a.
func DistanceToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	t := -1.0
	if lenSq != 0 {
		t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	}
	var cx, cy float64
	switch {
	case t < 0:
		cx, cy = a.X, a.Y
	case t > 1:
		cx, cy = b.X, b.Y
	default:
		cx, cy = a.X+t*dx, a.Y+t*dy
	}
	return math.Hypot(p.X-cx, p.Y-cy)
}

// DistanceToPolyline returns the smallest segment distance from p to the
// polyline. A single point polyline degenerates to point distance and an
// empty one returns +Inf.
func DistanceToPolyline(p Point, points []Point) float64 {
	switch len(points) {
	case 0:
		return math.Inf(1)
	case 1:
		return math.Hypot(p.X-points[0].X, p.Y-points[0].Y)
	}
	best := math.Inf(1)
	for i := 0; i < len(points)-1; i++ {
		if d := DistanceToSegment(p, points[i], points[i+1]); d < best {
			best = d
		}
	}
	return best
}
