package render

import (
	"image"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/resize"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/viewport"
)

// HandleSize is the side of a resize handle in screen pixels.
const HandleSize = 8

var corners = []resize.Corner{resize.NW, resize.NE, resize.SW, resize.SE}

// Resizable reports whether s gets resize handles. Text keeps its size
// from the font.
func Resizable(s shape.Shape) bool {
	_, isText := s.(*shape.Text)
	return !isText
}

func cornerPoint(b geom.Box, c resize.Corner) geom.Point {
	switch c {
	case resize.NW:
		return geom.Pt(b.X, b.Y)
	case resize.NE:
		return geom.Pt(b.Right(), b.Y)
	case resize.SW:
		return geom.Pt(b.X, b.Bottom())
	}
	return geom.Pt(b.Right(), b.Bottom())
}

// ScreenBox maps a world box through vp.
func ScreenBox(vp *viewport.Viewport, b geom.Box) geom.Box {
	return geom.BoxFromPoints(vp.WorldToScreen(geom.Pt(b.X, b.Y)), vp.WorldToScreen(geom.Pt(b.Right(), b.Bottom())))
}

// HandleRects returns the screen rectangles of the four handles of s.
func HandleRects(vp *viewport.Viewport, s shape.Shape) map[resize.Corner]image.Rectangle {
	sb := ScreenBox(vp, resize.HandleBox(s))
	out := make(map[resize.Corner]image.Rectangle, len(corners))
	for _, c := range corners {
		p := cornerPoint(sb, c)
		x, y := int(p.X)-HandleSize/2, int(p.Y)-HandleSize/2
		out[c] = image.Rect(x, y, x+HandleSize, y+HandleSize)
	}
	return out
}

// Handle is a resize handle under the pointer.
type Handle struct {
	ShapeID string
	Corner  resize.Corner
	// Bounds is the world box the drag starts from.
	Bounds geom.Box
}

// HandleAt finds the handle of a selected shape at screen point p,
// preferring the top-most shape.
func HandleAt(d *canvas.Document, p image.Point) (Handle, bool) {
	vp := d.Viewport
	for s := range d.Shapes.TopDown() {
		if !d.Selected[s.ShapeID()] || !Resizable(s) {
			continue
		}
		rects := HandleRects(&vp, s)
		for _, c := range corners {
			if p.In(rects[c]) {
				return Handle{ShapeID: s.ShapeID(), Corner: c, Bounds: resize.HandleBox(s)}, true
			}
		}
	}
	return Handle{}, false
}
