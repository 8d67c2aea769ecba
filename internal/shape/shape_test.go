package shape

import (
	"encoding/json"
	"errors"
	"image/color"
	"testing"

	"github.com/example/s2c/internal/geom"
)

func rectAt(id string, x, y, w, h float64) *Rect {
	r := NewRect(geom.Box{X: x, Y: y, W: w, H: h})
	r.ID = id
	return r
}

func TestHitTestTopMostFirst(t *testing.T) {
	m := NewMap()
	a := rectAt("a", 0, 0, 100, 100)
	b := rectAt("b", 50, 50, 100, 100)
	if err := m.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(b); err != nil {
		t.Fatal(err)
	}
	got, ok := m.HitTest(geom.Pt(75, 75))
	if !ok || got.ShapeID() != "b" {
		t.Fatalf("HitTest overlap = %v, %v; want b", got, ok)
	}
	got, ok = m.HitTest(geom.Pt(10, 10))
	if !ok || got.ShapeID() != "a" {
		t.Fatalf("HitTest a-only = %v, %v; want a", got, ok)
	}
	if _, ok := m.HitTest(geom.Pt(500, 500)); ok {
		t.Fatalf("expected miss on empty canvas")
	}
}

func TestHitThresholds(t *testing.T) {
	line := NewLine(geom.Pt(0, 0), geom.Pt(100, 0))
	if !Hits(line, geom.Pt(50, 8)) {
		t.Errorf("line should hit at distance 8")
	}
	if Hits(line, geom.Pt(50, 8.5)) {
		t.Errorf("line should miss past 8")
	}
	arrow := NewArrow(geom.Pt(0, 0), geom.Pt(0, 100))
	if !Hits(arrow, geom.Pt(7, 50)) {
		t.Errorf("arrow should hit within 8")
	}
	fd := NewFreeDraw([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	if !Hits(fd, geom.Pt(5, 4.9)) {
		t.Errorf("freedraw should hit below 5")
	}
	if Hits(fd, geom.Pt(5, 5)) {
		t.Errorf("freedraw threshold is strict")
	}
	dot := NewFreeDraw([]geom.Point{{X: 0, Y: 0}})
	if Hits(dot, geom.Pt(0, 0)) {
		t.Errorf("single point freedraw has no segment to hit")
	}
}

func TestTextHitBox(t *testing.T) {
	txt := NewText(geom.Pt(10, 10))
	txt.Text = "hi"
	// width max(2*16*0.6, 100) = 100, +8 padding +2 slack => right edge 120
	if !Hits(txt, geom.Pt(120, 20)) {
		t.Errorf("expected hit at right slack edge")
	}
	if Hits(txt, geom.Pt(120.5, 20)) {
		t.Errorf("expected miss beyond slack")
	}
	if !Hits(txt, geom.Pt(8, 8)) {
		t.Errorf("expected hit inside top-left slack")
	}
}

func TestShapesInFrame(t *testing.T) {
	frame := NewFrame(geom.Box{X: 0, Y: 0, W: 200, H: 200}, 1)
	txt := NewText(geom.Pt(50, 50))
	far := NewRect(geom.Box{X: 250, Y: 250, W: 100, H: 100}) // centre (300,300)
	half := NewRect(geom.Box{X: 150, Y: 150, W: 80, H: 80})  // centre (190,190)
	ln := NewLine(geom.Pt(-50, -50), geom.Pt(10, 10))
	gen := NewGeneratedUI(geom.Box{X: 10, Y: 10, W: 50, H: 50}, frame.ID, false)

	all := []Shape{frame, txt, far, half, ln, gen}
	got := ShapesInFrame(all, frame)
	ids := map[string]bool{}
	for _, s := range got {
		ids[s.ShapeID()] = true
	}
	if !ids[txt.ID] || !ids[half.ID] || !ids[ln.ID] {
		t.Fatalf("missing expected shapes: %v", ids)
	}
	if ids[far.ID] || ids[frame.ID] || ids[gen.ID] {
		t.Fatalf("unexpected shapes included: %v", ids)
	}
}

func TestSourceFrameDangling(t *testing.T) {
	m := NewMap()
	frame := NewFrame(geom.Box{W: 100, H: 100}, 1)
	gen := NewGeneratedUI(geom.Box{X: 150, W: 400, H: 300}, frame.ID, false)
	_ = m.Add(frame)
	_ = m.Add(gen)
	if f, ok := m.SourceFrame(gen); !ok || f.ID != frame.ID {
		t.Fatalf("SourceFrame = %v, %v", f, ok)
	}
	m.Remove(frame.ID)
	if f, ok := m.SourceFrame(gen); ok || f != nil {
		t.Fatalf("dangling reference resolved to %v", f)
	}
	if _, ok := m.SourceFrame(nil); ok {
		t.Fatalf("nil generated ui resolved")
	}
}

func TestMapReplaceRejectsKindChange(t *testing.T) {
	m := NewMap()
	r := rectAt("x", 0, 0, 10, 10)
	_ = m.Add(r)
	e := NewEllipse(geom.Box{W: 10, H: 10})
	e.ID = "x"
	if err := m.Replace(e); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("Replace err = %v, want ErrKindMismatch", err)
	}
	if err := m.Add(rectAt("x", 1, 1, 1, 1)); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Add err = %v, want ErrDuplicateID", err)
	}
}

func TestMapJSONKeepsOrderAndVariants(t *testing.T) {
	m := NewMap()
	markup := "<div/>"
	gen := NewGeneratedUI(geom.Box{W: 400, H: 300}, "frame-1", true)
	gen.UISpecData = &markup
	shapes := []Shape{
		NewFrame(geom.Box{W: 200, H: 100}, 3),
		NewFreeDraw([]geom.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}),
		NewArrow(geom.Pt(1, 1), geom.Pt(9, 9)),
		NewText(geom.Pt(5, 5)),
		gen,
	}
	for _, s := range shapes {
		if err := m.Add(s); err != nil {
			t.Fatal(err)
		}
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Map
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, want := back.IDs(), m.IDs(); len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i, s := range back.Shapes() {
		if s.Kind() != shapes[i].Kind() || s.ShapeID() != shapes[i].ShapeID() {
			t.Fatalf("shape %d = %s/%s, want %s/%s", i, s.Kind(), s.ShapeID(), shapes[i].Kind(), shapes[i].ShapeID())
		}
	}
	g := back.Shapes()[4].(*GeneratedUI)
	if g.Markup() != markup || !g.IsWorkflowPage || g.SourceFrameID != "frame-1" {
		t.Fatalf("generated ui fields lost: %+v", g)
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	if _, err := Unmarshal([]byte(`{"type":"star","id":"s"}`)); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestTranslatedDoesNotMutate(t *testing.T) {
	fd := NewFreeDraw([]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	moved := Translated(fd, geom.Pt(10, 20)).(*FreeDraw)
	if fd.Points[0] != (geom.Point{}) {
		t.Fatalf("source mutated: %v", fd.Points)
	}
	if moved.Points[1] != geom.Pt(11, 21) {
		t.Fatalf("moved point = %v", moved.Points[1])
	}
}

func TestWithGeometryKeepsPayload(t *testing.T) {
	markup := "<div>late</div>"
	cur := NewGeneratedUI(geom.Box{X: 0, Y: 0, W: 50, H: 50}, "f1", false)
	cur.UISpecData = &markup
	moved := Translated(NewGeneratedUI(geom.Box{X: 0, Y: 0, W: 50, H: 50}, "f1", false), geom.Pt(5, 6))

	got := WithGeometry(cur.Clone(), moved).(*GeneratedUI)
	if got.Box != (geom.Box{X: 5, Y: 6, W: 50, H: 50}) {
		t.Fatalf("box = %+v", got.Box)
	}
	if got.Markup() != markup {
		t.Fatalf("markup = %q", got.Markup())
	}

	txt := NewText(geom.Pt(1, 2))
	txt.Text = "kept"
	got2 := WithGeometry(txt.Clone(), Translated(NewText(geom.Pt(1, 2)), geom.Pt(3, 3))).(*Text)
	if got2.X != 4 || got2.Y != 5 || got2.Text != "kept" {
		t.Fatalf("text = %+v", got2)
	}
}

func TestNextFrameNumber(t *testing.T) {
	m := NewMap()
	if n := m.NextFrameNumber(); n != 1 {
		t.Fatalf("empty map next = %d", n)
	}
	_ = m.Add(NewFrame(geom.Box{}, 4))
	_ = m.Add(NewFrame(geom.Box{}, 2))
	if n := m.NextFrameNumber(); n != 5 {
		t.Fatalf("next = %d, want 5", n)
	}
	if f, ok := m.FrameByNumber(2); !ok || f.FrameNumber != 2 {
		t.Fatalf("FrameByNumber(2) = %v, %v", f, ok)
	}
}

func TestParseColor(t *testing.T) {
	tests := map[string]color.RGBA{
		"#ffffff":   {255, 255, 255, 255},
		"ffffff":    {255, 255, 255, 255},
		"#f00":      {255, 0, 0, 255},
		"red":       {255, 0, 0, 255},
		"#00ff0080": {0, 255, 0, 128},
	}
	for in, want := range tests {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseColor("#12"); err == nil {
		t.Errorf("expected error for short hex")
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
