package shape

import "github.com/example/s2c/internal/geom"

// Translated returns a copy of s moved by d. s itself is not modified.
func Translated(s Shape, d geom.Point) Shape {
	c := s.Clone()
	switch v := c.(type) {
	case *Frame:
		v.X += d.X
		v.Y += d.Y
	case *Rect:
		v.X += d.X
		v.Y += d.Y
	case *Ellipse:
		v.X += d.X
		v.Y += d.Y
	case *GeneratedUI:
		v.X += d.X
		v.Y += d.Y
	case *Text:
		v.X += d.X
		v.Y += d.Y
	case *FreeDraw:
		for i := range v.Points {
			v.Points[i] = v.Points[i].Add(d)
		}
	case *Line:
		v.Segment = v.Segment.translated(d)
	case *Arrow:
		v.Segment = v.Segment.translated(d)
	}
	return c
}

func (s Segment) translated(d geom.Point) Segment {
	return Segment{StartX: s.StartX + d.X, StartY: s.StartY + d.Y, EndX: s.EndX + d.X, EndY: s.EndY + d.Y}
}

// WithGeometry copies the position and extent of from onto cur and returns
// cur. Every other field of cur is kept. Shapes of different kinds are
// returned unchanged.
func WithGeometry(cur, from Shape) Shape {
	switch v := cur.(type) {
	case *Frame:
		if f, ok := from.(*Frame); ok {
			v.Box = f.Box
		}
	case *Rect:
		if f, ok := from.(*Rect); ok {
			v.Box = f.Box
		}
	case *Ellipse:
		if f, ok := from.(*Ellipse); ok {
			v.Box = f.Box
		}
	case *GeneratedUI:
		if f, ok := from.(*GeneratedUI); ok {
			v.Box = f.Box
		}
	case *Text:
		if f, ok := from.(*Text); ok {
			v.X, v.Y = f.X, f.Y
		}
	case *FreeDraw:
		if f, ok := from.(*FreeDraw); ok {
			v.Points = append([]geom.Point(nil), f.Points...)
		}
	case *Line:
		if f, ok := from.(*Line); ok {
			v.Segment = f.Segment
		}
	case *Arrow:
		if f, ok := from.(*Arrow); ok {
			v.Segment = f.Segment
		}
	}
	return cur
}
