// Package render paints the live canvas for the editor window: grid,
// shapes, generated UI cards, the in-progress draft and the selection.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/gg"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/gesture"
	"github.com/example/s2c/internal/resize"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/snapshot"
	"github.com/example/s2c/internal/theme"
)

// Grid spacing in world units, and the closest dots may get on screen.
const (
	GridSpacing   = 20.0
	minGridPixels = 8.0
	cardLabelSize = 12.0
)

// Scene is everything one paint needs. It is a value so the paint
// goroutine never shares state with the event loop.
type Scene struct {
	Doc      *canvas.Document
	Theme    *theme.Theme
	Draft    *gesture.Draft
	Freehand []geom.Point
	Style    shape.Style
	// Busy marks generated UI shapes with a stream in flight.
	Busy    map[string]bool
	Shadows *ShadowCache
}

func (sc Scene) transform() snapshot.Transform {
	return snapshot.Transform{Offset: sc.Doc.Viewport.Translate, Scale: sc.Doc.Viewport.Scale}
}

// Paint draws sc into area of dst. It stops early, returning ctx.Err(),
// when ctx is cancelled between layers.
func Paint(ctx context.Context, dst *image.RGBA, area image.Rectangle, sc Scene) error {
	th := sc.Theme
	if th == nil {
		th = theme.Default()
	}
	draw.Draw(dst, area, image.NewUniform(th.Background), image.Point{}, draw.Src)
	if th.Grid.A > 0 {
		drawGrid(dst, area, sc, th.Grid)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	drawShadows(dst, area, sc)

	dc := gg.NewContext(area.Dx(), area.Dy())
	defer dc.Close()
	t := sc.transform()
	for s := range sc.Doc.Shapes.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		if g, ok := s.(*shape.GeneratedUI); ok {
			err = drawCard(dc, g, t, th, sc.Busy[g.ID])
		} else {
			err = snapshot.DrawShape(dc, s, t)
		}
		if err != nil {
			return fmt.Errorf("paint %s %s: %w", s.Kind(), s.ShapeID(), err)
		}
	}
	if err := drawDraft(dc, sc, th); err != nil {
		return err
	}
	if err := drawSelection(dc, sc, th); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	draw.Draw(dst, area, dc.Image(), image.Point{}, draw.Over)
	return nil
}

// GridStep is the on-screen distance between grid dots at scale.
func GridStep(scale float64) float64 {
	step := GridSpacing * scale
	for step > 0 && step < minGridPixels {
		step *= 5
	}
	return step
}

func drawGrid(dst *image.RGBA, area image.Rectangle, sc Scene, col color.RGBA) {
	step := GridStep(sc.Doc.Viewport.Scale)
	if step <= 0 {
		return
	}
	tr := sc.Doc.Viewport.Translate
	x0 := math.Mod(tr.X, step)
	if x0 < 0 {
		x0 += step
	}
	y0 := math.Mod(tr.Y, step)
	if y0 < 0 {
		y0 += step
	}
	for y := y0; y < float64(area.Dy()); y += step {
		for x := x0; x < float64(area.Dx()); x += step {
			dst.SetRGBA(area.Min.X+int(x), area.Min.Y+int(y), col)
		}
	}
}

func drawShadows(dst *image.RGBA, area image.Rectangle, sc Scene) {
	if sc.Shadows == nil {
		return
	}
	vp := sc.Doc.Viewport
	opts := DefaultShadowOptions()
	for s := range sc.Doc.Shapes.All() {
		g, ok := s.(*shape.GeneratedUI)
		if !ok {
			continue
		}
		b := ScreenBox(&vp, g.Box)
		sh := sc.Shadows.Get(image.Pt(int(b.W), int(b.H)), opts)
		if sh.Mask == nil {
			continue
		}
		at := area.Min.Add(image.Pt(int(b.X), int(b.Y))).Add(sh.Origin)
		r := sh.Mask.Bounds().Add(at).Intersect(area)
		if r.Empty() {
			continue
		}
		draw.DrawMask(dst, r, shadowColor, image.Point{}, sh.Mask, r.Min.Sub(at), draw.Over)
	}
}

func cardLabel(g *shape.GeneratedUI, busy bool) string {
	kind := "Generated UI"
	if g.IsWorkflowPage {
		kind = "Workflow page"
	}
	switch n := len(g.Markup()); {
	case busy && n == 0:
		return kind + " · generating…"
	case busy:
		return fmt.Sprintf("%s · streaming %d bytes", kind, n)
	case n == 0:
		return kind + " · empty"
	default:
		return fmt.Sprintf("%s · %d bytes", kind, n)
	}
}

func drawCard(dc *gg.Context, g *shape.GeneratedUI, t snapshot.Transform, th *theme.Theme, busy bool) error {
	b := geom.Box{X: g.X*t.Scale + t.Offset.X, Y: g.Y*t.Scale + t.Offset.Y, W: g.W * t.Scale, H: g.H * t.Scale}
	r := snapshot.RectRadius * t.Scale
	dc.SetColor(th.Placeholder)
	dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, r)
	if err := dc.Fill(); err != nil {
		return err
	}
	dc.SetColor(th.ButtonBorder)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, r)
	if err := dc.Stroke(); err != nil {
		return err
	}

	size := cardLabelSize * t.Scale
	if size < 4 {
		return nil
	}
	face, err := snapshot.Face("Inter", "normal", "normal", size)
	if err != nil {
		return err
	}
	dc.SetFont(face)
	dc.SetColor(th.PlaceholderText)
	pad := 8 * t.Scale
	dc.DrawString(cardLabel(g, busy), b.X+pad, b.Y+pad+face.Metrics().Ascent)
	return nil
}

func drawDraft(dc *gg.Context, sc Scene, th *theme.Theme) error {
	t := sc.transform()
	if len(sc.Freehand) > 1 {
		fd := shape.NewFreeDraw(sc.Freehand)
		fd.Style = sc.Style
		if err := snapshot.DrawShape(dc, fd, t); err != nil {
			return err
		}
	}
	if sc.Draft == nil {
		return nil
	}
	d := *sc.Draft
	a, b := t.Apply(d.Start), t.Apply(d.Current)
	dc.SetColor(th.Draft)
	dc.SetLineWidth(sc.Style.WidthOrDefault() * t.Scale)
	switch d.Tool {
	case canvas.ToolLine, canvas.ToolArrow:
		dc.MoveTo(a.X, a.Y)
		dc.LineTo(b.X, b.Y)
	case canvas.ToolEllipse:
		box := geom.BoxFromPoints(a, b)
		dc.DrawEllipse(box.X+box.W/2, box.Y+box.H/2, box.W/2, box.H/2)
	default:
		box := geom.BoxFromPoints(a, b)
		dc.DrawRectangle(box.X, box.Y, box.W, box.H)
	}
	return dc.Stroke()
}

func drawSelection(dc *gg.Context, sc Scene, th *theme.Theme) error {
	vp := sc.Doc.Viewport
	for s := range sc.Doc.Shapes.All() {
		if !sc.Doc.Selected[s.ShapeID()] {
			continue
		}
		b := ScreenBox(&vp, resize.HandleBox(s))
		dc.SetColor(th.Selection)
		dc.SetLineWidth(1.5)
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		if err := dc.Stroke(); err != nil {
			return err
		}
		if !Resizable(s) {
			continue
		}
		rects := HandleRects(&vp, s)
		for _, c := range corners {
			r := rects[c]
			x, y := float64(r.Min.X), float64(r.Min.Y)
			dc.SetColor(th.Handle)
			dc.DrawRectangle(x, y, HandleSize, HandleSize)
			if err := dc.Fill(); err != nil {
				return err
			}
			dc.SetColor(th.HandleBorder)
			dc.SetLineWidth(1)
			dc.DrawRectangle(x, y, HandleSize, HandleSize)
			if err := dc.Stroke(); err != nil {
				return err
			}
		}
	}
	return nil
}
