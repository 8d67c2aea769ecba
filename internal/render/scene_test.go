package render

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/gesture"
	"github.com/example/s2c/internal/resize"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/theme"
)

func docWith(t *testing.T, shapes ...shape.Shape) *canvas.Document {
	t.Helper()
	d := canvas.NewDocument()
	for _, s := range shapes {
		if err := d.Shapes.Add(s); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	return d
}

func TestPaintBackgroundAndStroke(t *testing.T) {
	r := shape.NewRect(geom.Box{X: 10, Y: 10, W: 100, H: 50})
	d := docWith(t, r)
	th := theme.Default()
	th.Grid.A = 0

	dst := image.NewRGBA(image.Rect(0, 0, 200, 120))
	if err := Paint(context.Background(), dst, dst.Bounds(), Scene{Doc: d, Theme: th}); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if got := dst.RGBAAt(150, 100); got != th.Background {
		t.Errorf("background = %v, want %v", got, th.Background)
	}
	if got := dst.RGBAAt(10, 35); got.R < 200 || got.G < 200 || got.B < 200 {
		t.Errorf("left edge of rect = %v, want white stroke", got)
	}
}

func TestPaintHonoursArea(t *testing.T) {
	d := docWith(t, shape.NewRect(geom.Box{X: 0, Y: 0, W: 40, H: 40}))
	th := theme.Default()
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	area := image.Rect(50, 0, 100, 100)
	if err := Paint(context.Background(), dst, area, Scene{Doc: d, Theme: th}); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if got := dst.RGBAAt(10, 10); got.A != 0 {
		t.Errorf("pixel outside area was painted: %v", got)
	}
	if got := dst.RGBAAt(50, 20); got.R < 200 {
		t.Errorf("rect edge should land at the area origin, got %v", got)
	}
}

func TestPaintCancelled(t *testing.T) {
	d := docWith(t, shape.NewRect(geom.Box{X: 0, Y: 0, W: 40, H: 40}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dst := image.NewRGBA(image.Rect(0, 0, 50, 50))
	if err := Paint(ctx, dst, dst.Bounds(), Scene{Doc: d}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Paint err = %v, want context.Canceled", err)
	}
}

func TestPaintSelectionAndDraft(t *testing.T) {
	r := shape.NewRect(geom.Box{X: 20, Y: 20, W: 60, H: 40})
	d := docWith(t, r)
	d.Selected[r.ID] = true
	th := theme.Default()
	th.Grid.A = 0
	draft := gesture.Draft{Tool: canvas.ToolRect, Start: geom.Pt(100, 100), Current: geom.Pt(140, 130)}

	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	sc := Scene{Doc: d, Theme: th, Draft: &draft}
	if err := Paint(context.Background(), dst, dst.Bounds(), sc); err != nil {
		t.Fatalf("Paint: %v", err)
	}
	// Handle interiors are filled with the handle colour.
	if got := dst.RGBAAt(79, 59); got != th.Handle {
		t.Errorf("SE handle = %v, want %v", got, th.Handle)
	}
	if got := dst.RGBAAt(100, 115); got == th.Background {
		t.Error("draft outline was not painted")
	}
}

func TestCardLabel(t *testing.T) {
	g := shape.NewGeneratedUI(geom.Box{W: 400, H: 300}, "f", false)
	if got := cardLabel(g, true); !strings.Contains(got, "generating") {
		t.Errorf("busy empty label = %q", got)
	}
	m := "<div></div>"
	g.UISpecData = &m
	if got := cardLabel(g, false); got != "Generated UI · 11 bytes" {
		t.Errorf("label = %q", got)
	}
	g.IsWorkflowPage = true
	if got := cardLabel(g, true); !strings.HasPrefix(got, "Workflow page · streaming") {
		t.Errorf("workflow label = %q", got)
	}
}

func TestGridStep(t *testing.T) {
	cases := []struct {
		scale, want float64
	}{
		{1, 20},
		{0.5, 10},
		{0.3, 30},
		{0.1, 10},
	}
	for _, tc := range cases {
		if got := GridStep(tc.scale); got < tc.want-1e-9 || got > tc.want+1e-9 {
			t.Errorf("GridStep(%v) = %v, want %v", tc.scale, got, tc.want)
		}
	}
}

func TestHandleAt(t *testing.T) {
	r := shape.NewRect(geom.Box{X: 10, Y: 10, W: 100, H: 50})
	txt := shape.NewText(geom.Pt(300, 300))
	d := docWith(t, r, txt)

	if _, ok := HandleAt(d, image.Pt(10, 10)); ok {
		t.Fatal("unselected shapes have no handles")
	}
	d.Selected[r.ID] = true
	d.Selected[txt.ID] = true

	h, ok := HandleAt(d, image.Pt(11, 9))
	if !ok || h.ShapeID != r.ID || h.Corner != resize.NW {
		t.Fatalf("HandleAt NW = %+v, %v", h, ok)
	}
	if h.Bounds != r.Box {
		t.Errorf("bounds = %+v, want %+v", h.Bounds, r.Box)
	}
	if h, ok := HandleAt(d, image.Pt(110, 60)); !ok || h.Corner != resize.SE {
		t.Fatalf("HandleAt SE = %+v, %v", h, ok)
	}
	if _, ok := HandleAt(d, image.Pt(300, 300)); ok {
		t.Fatal("text has no resize handles")
	}

	d.Viewport.Scale = 2
	d.Viewport.Translate = geom.Pt(5, 5)
	if h, ok := HandleAt(d, image.Pt(225, 125)); !ok || h.Corner != resize.SE {
		t.Fatalf("zoomed HandleAt SE = %+v, %v", h, ok)
	}
}
