package snapshot

import (
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
)

// Arrow head geometry.
const (
	ArrowHeadLength = 10.0
	ArrowHeadSpread = math.Pi / 6
	RectRadius      = 8.0
)

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Transform maps world coordinates onto a drawing surface.
type Transform struct {
	Offset geom.Point
	Scale  float64
}

// Apply maps a world point.
func (t Transform) Apply(p geom.Point) geom.Point {
	s := t.scale()
	return geom.Point{X: p.X*s + t.Offset.X, Y: p.Y*s + t.Offset.Y}
}

func (t Transform) scale() float64 {
	if t.Scale == 0 {
		return 1
	}
	return t.Scale
}

func (t Transform) box(b geom.Box) geom.Box {
	p := t.Apply(geom.Pt(b.X, b.Y))
	s := t.scale()
	return geom.Box{X: p.X, Y: p.Y, W: b.W * s, H: b.H * s}
}

func strokeColor(st shape.Style) color.RGBA {
	return shape.ColorOr(st.StrokeOrDefault(), white)
}

func setStroke(dc *gg.Context, st shape.Style, t Transform) {
	dc.SetColor(strokeColor(st))
	dc.SetLineWidth(st.WidthOrDefault() * t.scale())
}

// DrawShape paints one shape. Generated UI blocks are not painted here.
func DrawShape(dc *gg.Context, s shape.Shape, t Transform) error {
	switch v := s.(type) {
	case *shape.Frame:
		b := t.box(v.Box)
		setStroke(dc, shape.Style{}, t)
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		return dc.Stroke()
	case *shape.Rect:
		b := t.box(v.Box)
		setStroke(dc, v.Style, t)
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, RectRadius*t.scale())
		return dc.Stroke()
	case *shape.Ellipse:
		b := t.box(v.Box)
		setStroke(dc, v.Style, t)
		dc.DrawEllipse(b.X+b.W/2, b.Y+b.H/2, b.W/2, b.H/2)
		return dc.Stroke()
	case *shape.FreeDraw:
		return drawPolyline(dc, v.Points, v.Style, t)
	case *shape.Line:
		setStroke(dc, v.Style, t)
		a, b := t.Apply(v.Start()), t.Apply(v.End())
		dc.MoveTo(a.X, a.Y)
		dc.LineTo(b.X, b.Y)
		return dc.Stroke()
	case *shape.Arrow:
		return drawArrow(dc, v, t)
	case *shape.Text:
		return drawText(dc, v, t)
	}
	return nil
}

func drawPolyline(dc *gg.Context, points []geom.Point, st shape.Style, t Transform) error {
	if len(points) < 2 {
		return nil
	}
	setStroke(dc, st, t)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	p := t.Apply(points[0])
	dc.MoveTo(p.X, p.Y)
	for _, q := range points[1:] {
		p = t.Apply(q)
		dc.LineTo(p.X, p.Y)
	}
	err := dc.Stroke()
	dc.SetLineCap(gg.LineCapButt)
	dc.SetLineJoin(gg.LineJoinMiter)
	return err
}

// ArrowHead returns the two base corners of the head for a segment ending
// at end.
func ArrowHead(start, end geom.Point, length float64) (geom.Point, geom.Point) {
	angle := math.Atan2(end.Y-start.Y, end.X-start.X)
	left := geom.Point{
		X: end.X - length*math.Cos(angle-ArrowHeadSpread),
		Y: end.Y - length*math.Sin(angle-ArrowHeadSpread),
	}
	right := geom.Point{
		X: end.X - length*math.Cos(angle+ArrowHeadSpread),
		Y: end.Y - length*math.Sin(angle+ArrowHeadSpread),
	}
	return left, right
}

func drawArrow(dc *gg.Context, a *shape.Arrow, t Transform) error {
	setStroke(dc, a.Style, t)
	start, end := t.Apply(a.Start()), t.Apply(a.End())
	dc.MoveTo(start.X, start.Y)
	dc.LineTo(end.X, end.Y)
	if err := dc.Stroke(); err != nil {
		return err
	}
	left, right := ArrowHead(start, end, ArrowHeadLength*t.scale())
	dc.MoveTo(end.X, end.Y)
	dc.LineTo(left.X, left.Y)
	dc.LineTo(right.X, right.Y)
	dc.ClosePath()
	return dc.Fill()
}

// TransformText applies a CSS text-transform value.
func TransformText(s, transform string) string {
	switch transform {
	case "uppercase":
		return cases.Upper(language.Und).String(s)
	case "lowercase":
		return cases.Lower(language.Und).String(s)
	case "capitalize":
		return cases.Title(language.Und, cases.NoLower).String(s)
	}
	return s
}

func drawText(dc *gg.Context, v *shape.Text, t Transform) error {
	size := v.FontSize * t.scale()
	face, err := Face(v.FontFamily, v.FontWeight, v.FontStyle, size)
	if err != nil {
		return err
	}
	dc.SetFont(face)
	fill := v.Fill
	if fill == "" {
		fill = "#ffffff"
	}
	dc.SetColor(shape.ColorOr(fill, white))

	lineHeight := v.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1.2
	}
	origin := t.Apply(geom.Pt(v.X, v.Y))
	ascent := face.Metrics().Ascent
	spacing := v.LetterSpacing * t.scale()

	for i, line := range strings.Split(TransformText(v.Text, v.TextTransform), "\n") {
		w := face.Advance(line) + spacing*float64(len([]rune(line)))
		x := origin.X
		switch v.TextAlign {
		case "center":
			x -= w / 2
		case "right":
			x -= w
		}
		top := origin.Y + float64(i)*size*lineHeight
		baseline := top + ascent
		if spacing == 0 {
			dc.DrawString(line, x, baseline)
		} else {
			cx := x
			for _, r := range line {
				ch := string(r)
				dc.DrawString(ch, cx, baseline)
				cx += face.Advance(ch) + spacing
			}
		}
		if err := decorate(dc, v.TextDecoration, x, w, top, baseline, size); err != nil {
			return err
		}
	}
	return nil
}

func decorate(dc *gg.Context, decoration string, x, w, top, baseline, size float64) error {
	var y float64
	switch decoration {
	case "underline":
		y = baseline + size*0.1
	case "line-through":
		y = top + (baseline-top)*0.6
	default:
		return nil
	}
	dc.SetLineWidth(math.Max(1, size/14))
	dc.MoveTo(x, y)
	dc.LineTo(x+w, y)
	return dc.Stroke()
}
