package shape

import (
	"math"

	"github.com/example/s2c/internal/geom"
)

// Hit-test tolerances in world units.
const (
	FreeDrawTolerance = 5.0
	LineTolerance     = 8.0
	textPadding       = 8.0
	textSlack         = 2.0
	textMinWidth      = 100.0
)

// textExtent estimates the rendered size of a text shape from its length.
func textExtent(t *Text) (w, h float64) {
	w = math.Max(float64(len([]rune(t.Text)))*t.FontSize*0.6, textMinWidth)
	h = t.FontSize * 1.2
	return w, h
}

// Hits reports whether world point p touches s.
func Hits(s Shape, p geom.Point) bool {
	switch v := s.(type) {
	case *Frame:
		return v.Contains(p)
	case *Rect:
		return v.Contains(p)
	case *Ellipse:
		return v.Contains(p)
	case *GeneratedUI:
		return v.Contains(p)
	case *FreeDraw:
		return len(v.Points) > 1 && geom.DistanceToPolyline(p, v.Points) < FreeDrawTolerance
	case *Line:
		return geom.DistanceToSegment(p, v.Start(), v.End()) <= LineTolerance
	case *Arrow:
		return geom.DistanceToSegment(p, v.Start(), v.End()) <= LineTolerance
	case *Text:
		w, h := textExtent(v)
		box := geom.Box{
			X: v.X - textSlack,
			Y: v.Y - textSlack,
			W: w + textPadding + 2*textSlack,
			H: h + textPadding + 2*textSlack,
		}
		return box.Contains(p)
	}
	return false
}

// HitTest returns the top-most shape under p.
func (m *Map) HitTest(p geom.Point) (Shape, bool) {
	for s := range m.TopDown() {
		if Hits(s, p) {
			return s, true
		}
	}
	return nil, false
}

// InsideFrame reports whether s belongs to frame for export. Box shapes
// test their centre, text its anchor, freedraw any point and lines either
// endpoint. Generated UI blocks are never part of a frame.
func InsideFrame(s Shape, frame *Frame) bool {
	switch v := s.(type) {
	case *Frame:
		return frame.Contains(v.Center())
	case *Rect:
		return frame.Contains(v.Center())
	case *Ellipse:
		return frame.Contains(v.Center())
	case *Text:
		return frame.Contains(geom.Pt(v.X, v.Y))
	case *FreeDraw:
		for _, pt := range v.Points {
			if frame.Contains(pt) {
				return true
			}
		}
		return false
	case *Line:
		return frame.Contains(v.Start()) || frame.Contains(v.End())
	case *Arrow:
		return frame.Contains(v.Start()) || frame.Contains(v.End())
	case *GeneratedUI:
		return false
	}
	return false
}

// ShapesInFrame returns the shapes contained in frame in z-order,
// excluding the frame itself.
func ShapesInFrame(shapes []Shape, frame *Frame) []Shape {
	var out []Shape
	for _, s := range shapes {
		if s.ShapeID() == frame.ID {
			continue
		}
		if InsideFrame(s, frame) {
			out = append(out, s)
		}
	}
	return out
}
