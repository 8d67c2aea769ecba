package shape

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/s2c/internal/geom"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a fresh, lexically time-ordered shape identifier.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func defaultStyle() Style {
	return Style{Stroke: DefaultStroke, StrokeWidth: DefaultStrokeWidth}
}

// NewFrame creates a frame. The frame number is assigned by the caller,
// usually via Map.NextFrameNumber.
func NewFrame(b geom.Box, number int) *Frame {
	return &Frame{Meta: Meta{ID: NewID()}, Box: b, FrameNumber: number}
}

func NewRect(b geom.Box) *Rect {
	return &Rect{Meta: Meta{ID: NewID()}, Box: b, Style: defaultStyle()}
}

func NewEllipse(b geom.Box) *Ellipse {
	return &Ellipse{Meta: Meta{ID: NewID()}, Box: b, Style: defaultStyle()}
}

// NewFreeDraw copies points so later edits to the buffer do not leak in.
func NewFreeDraw(points []geom.Point) *FreeDraw {
	return &FreeDraw{
		Meta:   Meta{ID: NewID()},
		Points: append([]geom.Point(nil), points...),
		Style:  defaultStyle(),
	}
}

func NewLine(start, end geom.Point) *Line {
	return &Line{
		Meta:    Meta{ID: NewID()},
		Segment: Segment{StartX: start.X, StartY: start.Y, EndX: end.X, EndY: end.Y},
		Style:   defaultStyle(),
	}
}

func NewArrow(start, end geom.Point) *Arrow {
	return &Arrow{
		Meta:    Meta{ID: NewID()},
		Segment: Segment{StartX: start.X, StartY: start.Y, EndX: end.X, EndY: end.Y},
		Style:   defaultStyle(),
	}
}

// NewText creates a text shape anchored at p with the editor defaults.
func NewText(p geom.Point) *Text {
	return &Text{
		Meta:           Meta{ID: NewID()},
		X:              p.X,
		Y:              p.Y,
		Text:           "Text",
		FontFamily:     "Inter, sans-serif",
		FontSize:       16,
		FontWeight:     "normal",
		FontStyle:      "normal",
		TextDecoration: "none",
		TextAlign:      "left",
		TextTransform:  "none",
		Fill:           DefaultStroke,
		Style:          Style{Stroke: "transparent", StrokeWidth: 0},
		LineHeight:     1.2,
		LetterSpacing:  0,
	}
}

// NewGeneratedUI creates a placeholder with a null payload.
func NewGeneratedUI(b geom.Box, sourceFrameID string, workflowPage bool) *GeneratedUI {
	return &GeneratedUI{
		Meta:           Meta{ID: NewID()},
		Box:            b,
		SourceFrameID:  sourceFrameID,
		IsWorkflowPage: workflowPage,
	}
}
