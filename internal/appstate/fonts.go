package appstate

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	messageSize = 20
	promptSize  = 15
)

var (
	goregularFont *opentype.Font
	faces         sync.Map // map[float64]font.Face
)

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	goregularFont = f
}

func faceForSize(size float64) (font.Face, error) {
	if size <= 0 {
		size = promptSize
	}
	if face, ok := faces.Load(size); ok {
		return face.(font.Face), nil
	}
	if goregularFont == nil {
		return nil, fmt.Errorf("text font not initialised")
	}
	face, err := opentype.NewFace(goregularFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	actual, _ := faces.LoadOrStore(size, face)
	return actual.(font.Face), nil
}

// measureText returns the bounding box of text at size and the offset of
// the baseline from its top.
func measureText(text string, size float64) (width, height, baseline int, err error) {
	face, err := faceForSize(size)
	if err != nil {
		return 0, 0, 0, err
	}
	d := &font.Drawer{Face: face}
	width = d.MeasureString(text).Ceil()
	m := face.Metrics()
	baseline = m.Ascent.Ceil()
	height = baseline + m.Descent.Ceil()
	return
}

// drawText renders text with its top-left corner at (x, y).
func drawText(dst *image.RGBA, x, y int, text string, col color.Color, size float64) error {
	face, err := faceForSize(size)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
	return nil
}
