// Package shape defines the canvas entities, the ordered entity map that
// holds them and the per-variant geometry used for hit testing and frame
// containment.
package shape

import (
	"github.com/example/s2c/internal/geom"
)

// Kind is the variant tag of a shape.
type Kind string

const (
	KindFrame       Kind = "frame"
	KindRect        Kind = "rect"
	KindEllipse     Kind = "ellipse"
	KindFreeDraw    Kind = "freedraw"
	KindLine        Kind = "line"
	KindArrow       Kind = "arrow"
	KindText        Kind = "text"
	KindGeneratedUI Kind = "generatedui"
)

// Kinds lists every variant in declaration order.
var Kinds = []Kind{KindFrame, KindRect, KindEllipse, KindFreeDraw, KindLine, KindArrow, KindText, KindGeneratedUI}

// Default stroke settings used when a shape leaves them empty.
const (
	DefaultStroke      = "#ffffff"
	DefaultStrokeWidth = 2.0
)

// Shape is one of *Frame, *Rect, *Ellipse, *FreeDraw, *Line, *Arrow, *Text
// or *GeneratedUI. The set is closed: isShape is unexported.
type Shape interface {
	ShapeID() string
	Kind() Kind
	Clone() Shape
	isShape()
}

// Meta carries the identifier every shape has.
type Meta struct {
	ID string `json:"id"`
}

// ShapeID returns the identifier.
func (m Meta) ShapeID() string { return m.ID }

// Style is the stroke shared by the drawable variants.
type Style struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// StrokeOrDefault returns the stroke colour, falling back to white.
func (s Style) StrokeOrDefault() string {
	if s.Stroke == "" || s.Stroke == "transparent" {
		return DefaultStroke
	}
	return s.Stroke
}

// WidthOrDefault returns the stroke width, falling back to 2.
func (s Style) WidthOrDefault() float64 {
	if s.StrokeWidth <= 0 {
		return DefaultStrokeWidth
	}
	return s.StrokeWidth
}

// Frame is a grouping region used for export. Its contents are whatever
// lies inside it spatially.
type Frame struct {
	Meta
	geom.Box
	FrameNumber int `json:"frameNumber"`
}

type Rect struct {
	Meta
	geom.Box
	Style
}

type Ellipse struct {
	Meta
	geom.Box
	Style
}

// FreeDraw is an open polyline.
type FreeDraw struct {
	Meta
	Points []geom.Point `json:"points"`
	Style
}

// Segment holds the endpoints shared by lines and arrows.
type Segment struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// Start returns the start endpoint.
func (s Segment) Start() geom.Point { return geom.Pt(s.StartX, s.StartY) }

// End returns the end endpoint.
func (s Segment) End() geom.Point { return geom.Pt(s.EndX, s.EndY) }

type Line struct {
	Meta
	Segment
	Style
}

// Arrow hit-tests like a line and renders an extra head at its end.
type Arrow struct {
	Meta
	Segment
	Style
}

// Text is anchored at its top-left point. Its extent is estimated from the
// character count, not measured.
type Text struct {
	Meta
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Text           string  `json:"text"`
	FontFamily     string  `json:"fontFamily"`
	FontSize       float64 `json:"fontSize"`
	FontWeight     string  `json:"fontWeight"`
	FontStyle      string  `json:"fontStyle"`
	TextDecoration string  `json:"textDecoration"`
	TextAlign      string  `json:"textAlign"`
	TextTransform  string  `json:"textTransform"`
	Fill           string  `json:"fill"`
	Style
	LineHeight    float64 `json:"lineHeight"`
	LetterSpacing float64 `json:"letterSpacing"`
}

// GeneratedUI holds markup streamed from the generation service.
// SourceFrameID is a lookup key only; the frame may no longer exist.
type GeneratedUI struct {
	Meta
	geom.Box
	UISpecData     *string `json:"uiSpecData"`
	SourceFrameID  string  `json:"sourceFrameId,omitempty"`
	IsWorkflowPage bool    `json:"isWorkflowPage,omitempty"`
}

// Markup returns the payload or "" while it is still null.
func (g *GeneratedUI) Markup() string {
	if g.UISpecData == nil {
		return ""
	}
	return *g.UISpecData
}

func (*Frame) Kind() Kind       { return KindFrame }
func (*Rect) Kind() Kind        { return KindRect }
func (*Ellipse) Kind() Kind     { return KindEllipse }
func (*FreeDraw) Kind() Kind    { return KindFreeDraw }
func (*Line) Kind() Kind        { return KindLine }
func (*Arrow) Kind() Kind       { return KindArrow }
func (*Text) Kind() Kind        { return KindText }
func (*GeneratedUI) Kind() Kind { return KindGeneratedUI }

func (*Frame) isShape()       {}
func (*Rect) isShape()        {}
func (*Ellipse) isShape()     {}
func (*FreeDraw) isShape()    {}
func (*Line) isShape()        {}
func (*Arrow) isShape()       {}
func (*Text) isShape()        {}
func (*GeneratedUI) isShape() {}

func (f *Frame) Clone() Shape   { c := *f; return &c }
func (r *Rect) Clone() Shape    { c := *r; return &c }
func (e *Ellipse) Clone() Shape { c := *e; return &c }
func (l *Line) Clone() Shape    { c := *l; return &c }
func (a *Arrow) Clone() Shape   { c := *a; return &c }
func (t *Text) Clone() Shape    { c := *t; return &c }

func (f *FreeDraw) Clone() Shape {
	c := *f
	c.Points = append([]geom.Point(nil), f.Points...)
	return &c
}

func (g *GeneratedUI) Clone() Shape {
	c := *g
	if g.UISpecData != nil {
		s := *g.UISpecData
		c.UISpecData = &s
	}
	return &c
}

// Bounds returns the axis-aligned extent of s in world space. Text uses the
// same estimated box as hit testing, without padding.
func Bounds(s Shape) geom.Box {
	switch v := s.(type) {
	case *Frame:
		return v.Box
	case *Rect:
		return v.Box
	case *Ellipse:
		return v.Box
	case *GeneratedUI:
		return v.Box
	case *FreeDraw:
		return geom.PolylineBounds(v.Points).Box()
	case *Line:
		return geom.BoxFromPoints(v.Start(), v.End())
	case *Arrow:
		return geom.BoxFromPoints(v.Start(), v.End())
	case *Text:
		w, h := textExtent(v)
		return geom.Box{X: v.X, Y: v.Y, W: w, H: h}
	}
	return geom.Box{}
}
