package gesture

import (
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/resize"
)

// Button identifies the pointer button of a press.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
	ButtonNone
)

// PointerKind separates mouse input from touch contacts.
type PointerKind int

const (
	PointerMouse PointerKind = iota
	PointerTouch
)

// Modifiers are the keyboard modifiers held during an event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Meta  bool
	Alt   bool
}

// Pointer is a press, move, release or cancel at a screen position.
type Pointer struct {
	ID     int
	Kind   PointerKind
	Screen geom.Point
	Button Button
	Mods   Modifiers
}

// Wheel is a scroll event. DX and DY are in screen pixels.
type Wheel struct {
	Screen geom.Point
	DX, DY float64
	Mods   Modifiers
}

// Key names the keys the engine reacts to.
type Key int

const (
	KeyOther Key = iota
	KeySpace
	KeyShift
)

// KeyEvent is a key press or release. Repeat marks auto-repeat.
type KeyEvent struct {
	Key    Key
	Repeat bool
}

// ResizeEvent comes from the resize handle UI. ClientX and ClientY are
// canvas-local screen coordinates.
type ResizeEvent struct {
	ShapeID string
	Corner  resize.Corner
	ClientX float64
	ClientY float64
	Bounds  geom.Box
}
