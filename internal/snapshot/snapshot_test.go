package snapshot

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
)

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func isBlack(c color.RGBA) bool {
	return c.R < 16 && c.G < 16 && c.B < 16 && c.A == 0xff
}

func TestRenderOpaqueBlackBackground(t *testing.T) {
	frame := shape.NewFrame(geom.Box{X: 40, Y: 40, W: 64, H: 48}, 1)
	img, err := Render(frame, []shape.Shape{frame})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("bounds = %v", b)
	}
	for _, p := range []image.Point{{0, 0}, {63, 0}, {0, 47}, {32, 24}} {
		if c := rgba(img, p.X, p.Y); !isBlack(c) {
			t.Fatalf("pixel %v = %v, want opaque black", p, c)
		}
	}
}

func TestRenderUsesContainmentRule(t *testing.T) {
	frame := shape.NewFrame(geom.Box{X: 0, Y: 0, W: 200, H: 200}, 1)
	txt := shape.NewText(geom.Pt(50, 50))
	txt.Text = "HHHH"
	txt.FontSize = 24
	// Centre at (300,300): outside, although its left edge crosses the frame.
	outside := shape.NewRect(geom.Box{X: 150, Y: 150, W: 300, H: 300})
	inside := shape.NewRect(geom.Box{X: 20, Y: 120, W: 40, H: 40})
	inside.Stroke = "#ff0000"
	inside.StrokeWidth = 4

	img, err := Render(frame, []shape.Shape{frame, txt, outside, inside})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if c := rgba(img, 150, 180); !isBlack(c) {
		t.Fatalf("excluded rect was painted: %v", c)
	}
	if c := rgba(img, 20, 140); c.R < 128 || c.G > 100 {
		t.Fatalf("contained rect missing: %v", c)
	}
	lit := false
	for y := 50; y < 80 && !lit; y++ {
		for x := 50; x < 120; x++ {
			if !isBlack(rgba(img, x, y)) {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Fatalf("text was not painted")
	}
}

func TestRenderTranslatesByFrameOrigin(t *testing.T) {
	frame := shape.NewFrame(geom.Box{X: 1000, Y: -500, W: 100, H: 100}, 3)
	ln := shape.NewLine(geom.Pt(1010, -450), geom.Pt(1090, -450))
	ln.StrokeWidth = 4
	img, err := Render(frame, []shape.Shape{ln})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if c := rgba(img, 50, 50); isBlack(c) {
		t.Fatalf("line not drawn at frame-local (50,50)")
	}
}

func TestRenderEmptyFrame(t *testing.T) {
	frame := shape.NewFrame(geom.Box{W: 0, H: 20}, 1)
	if _, err := Render(frame, nil); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("err = %v, want ErrEmptyFrame", err)
	}
	if err := EncodePNG(frame, nil, &bytes.Buffer{}); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("EncodePNG err = %v", err)
	}
}

func TestEncodePNGDecodes(t *testing.T) {
	frame := shape.NewFrame(geom.Box{W: 30, H: 20}, 1)
	var buf bytes.Buffer
	if err := EncodePNG(frame, nil, &buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	frame := shape.NewFrame(geom.Box{W: 10, H: 10}, 7)
	path, err := WriteFile(dir, frame, nil)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if filepath.Base(path) != "frame-7-snapshot.png" {
		t.Fatalf("path = %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestWriteMarkup(t *testing.T) {
	dir := t.TempDir()
	g := shape.NewGeneratedUI(geom.Box{W: 10, H: 10}, "", false)
	if _, err := WriteMarkup(dir, g); err == nil {
		t.Fatalf("expected error for null markup")
	}
	m := "<div>hi</div>"
	g.UISpecData = &m
	path, err := WriteMarkup(dir, g)
	if err != nil {
		t.Fatalf("WriteMarkup: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != m {
		t.Fatalf("content = %q", b)
	}
	if filepath.Base(path) != "generated-ui-"+g.ID[:8]+".html" {
		t.Fatalf("name = %s", filepath.Base(path))
	}
}

func TestArrowHead(t *testing.T) {
	l, r := ArrowHead(geom.Pt(0, 0), geom.Pt(10, 0), 10)
	wantX := 10 - 10*math.Cos(math.Pi/6)
	if math.Abs(l.X-wantX) > 1e-9 || math.Abs(l.Y-5) > 1e-9 {
		t.Fatalf("left = %v", l)
	}
	if math.Abs(r.X-wantX) > 1e-9 || math.Abs(r.Y+5) > 1e-9 {
		t.Fatalf("right = %v", r)
	}
}

func TestTransformText(t *testing.T) {
	tests := []struct{ in, mode, want string }{
		{"hello world", "uppercase", "HELLO WORLD"},
		{"HeLLo", "lowercase", "hello"},
		{"hello world", "capitalize", "Hello World"},
		{"as is", "none", "as is"},
	}
	for _, tt := range tests {
		if got := TransformText(tt.in, tt.mode); got != tt.want {
			t.Errorf("TransformText(%q, %q) = %q, want %q", tt.in, tt.mode, got, tt.want)
		}
	}
}

func TestFaceVariants(t *testing.T) {
	for _, w := range []string{"normal", "bold", "700"} {
		f, err := Face("Inter, sans-serif", w, "italic", 16)
		if err != nil || f == nil {
			t.Fatalf("Face(%s): %v", w, err)
		}
	}
}
