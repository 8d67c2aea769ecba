// Package snapshot rasterizes the contents of a frame to a PNG image.
package snapshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
)

// ErrEmptyFrame is returned for frames with no drawable area.
var ErrEmptyFrame = errors.New("frame has no area")

// Background is painted under every snapshot.
var Background = gg.RGB(0, 0, 0)

func surface(frame *shape.Frame, shapes []shape.Shape) (*gg.Context, error) {
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	w, h := int(frame.W), int(frame.H)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("frame %d (%.0fx%.0f): %w", frame.FrameNumber, frame.W, frame.H, ErrEmptyFrame)
	}
	dc := gg.NewContext(w, h)
	dc.ClearWithColor(Background)
	t := Transform{Offset: geom.Pt(-frame.X, -frame.Y), Scale: 1}
	for _, s := range shape.ShapesInFrame(shapes, frame) {
		if err := DrawShape(dc, s, t); err != nil {
			_ = dc.Close()
			return nil, fmt.Errorf("draw %s %s: %w", s.Kind(), s.ShapeID(), err)
		}
	}
	return dc, nil
}

// Render rasterizes the shapes contained in frame onto an opaque surface of
// the frame's size. Shapes are painted in slice order.
func Render(frame *shape.Frame, shapes []shape.Shape) (image.Image, error) {
	dc, err := surface(frame, shapes)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// EncodePNG renders frame and writes it to w as PNG.
func EncodePNG(frame *shape.Frame, shapes []shape.Shape, w io.Writer) error {
	dc, err := surface(frame, shapes)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// PNG renders frame to PNG bytes.
func PNG(frame *shape.Frame, shapes []shape.Shape) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(frame, shapes, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Base64 renders frame as a base64 PNG, the form redesign requests carry.
func Base64(frame *shape.Frame, shapes []shape.Shape) (string, error) {
	b, err := PNG(frame, shapes)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// FileName is the download name for a frame snapshot.
func FileName(frame *shape.Frame) string {
	return fmt.Sprintf("frame-%d-snapshot.png", frame.FrameNumber)
}

// WriteFile renders frame into dir and returns the written path.
func WriteFile(dir string, frame *shape.Frame, shapes []shape.Shape) (string, error) {
	b, err := PNG(frame, shapes)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(frame))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// MarkupFileName is the download name for generated markup.
func MarkupFileName(g *shape.GeneratedUI) string {
	id := g.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("generated-ui-%s.html", id)
}

// WriteMarkup writes the markup of g into dir.
func WriteMarkup(dir string, g *shape.GeneratedUI) (string, error) {
	if g.UISpecData == nil {
		return "", fmt.Errorf("generated ui %s has no markup yet", g.ID)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, MarkupFileName(g))
	if err := os.WriteFile(path, []byte(*g.UISpecData), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
