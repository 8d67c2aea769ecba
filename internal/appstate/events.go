package appstate

import (
	"fmt"
	"image"
	"strings"
	"unicode"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/touch"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/gesture"
)

// wheelStep is the scroll distance of one wheel notch in screen pixels.
const wheelStep = 40

// zoomStep is the wheel delta that zooms by roughly 25%.
const zoomStep = 150

// ParseHandKey maps the hand_key setting to a gesture key.
func ParseHandKey(s string) (gesture.Key, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "space":
		return gesture.KeySpace, nil
	case "shift":
		return gesture.KeyShift, nil
	}
	return gesture.KeyOther, fmt.Errorf("unknown hand key %q", s)
}

func modifiers(m key.Modifiers) gesture.Modifiers {
	return gesture.Modifiers{
		Shift: m&key.ModShift != 0,
		Ctrl:  m&key.ModControl != 0,
		Alt:   m&key.ModAlt != 0,
		Meta:  m&key.ModMeta != 0,
	}
}

func isWheel(b mouse.Button) bool {
	switch b {
	case mouse.ButtonWheelUp, mouse.ButtonWheelDown, mouse.ButtonWheelLeft, mouse.ButtonWheelRight:
		return true
	}
	return false
}

func pointerButton(b mouse.Button) gesture.Button {
	switch b {
	case mouse.ButtonLeft:
		return gesture.ButtonPrimary
	case mouse.ButtonMiddle:
		return gesture.ButtonMiddle
	case mouse.ButtonRight:
		return gesture.ButtonSecondary
	}
	return gesture.ButtonNone
}

// local converts window coordinates to canvas coordinates.
func local(x, y float32, origin image.Point) geom.Point {
	return geom.Pt(float64(x)-float64(origin.X), float64(y)-float64(origin.Y))
}

func pointerFromMouse(e mouse.Event, origin image.Point) gesture.Pointer {
	return gesture.Pointer{
		Kind:   gesture.PointerMouse,
		Screen: local(e.X, e.Y, origin),
		Button: pointerButton(e.Button),
		Mods:   modifiers(e.Modifiers),
	}
}

// wheelFromMouse turns a wheel notch into a scroll delta. Wheel up scrolls
// the content down, as browsers report it.
func wheelFromMouse(e mouse.Event, origin image.Point) gesture.Wheel {
	w := gesture.Wheel{Screen: local(e.X, e.Y, origin), Mods: modifiers(e.Modifiers)}
	switch e.Button {
	case mouse.ButtonWheelUp:
		w.DY = -wheelStep
	case mouse.ButtonWheelDown:
		w.DY = wheelStep
	case mouse.ButtonWheelLeft:
		w.DX = -wheelStep
	case mouse.ButtonWheelRight:
		w.DX = wheelStep
	}
	return w
}

// pointerFromTouch maps a touch contact to a primary pointer keyed by its
// sequence.
func pointerFromTouch(e touch.Event, origin image.Point) gesture.Pointer {
	return gesture.Pointer{
		ID:     int(e.Sequence),
		Kind:   gesture.PointerTouch,
		Screen: local(e.X, e.Y, origin),
		Button: gesture.ButtonPrimary,
	}
}

// gestureKey maps a key event to what the engine understands. Shiny
// reports auto-repeat with DirNone.
func gestureKey(e key.Event) gesture.KeyEvent {
	k := gesture.KeyOther
	switch e.Code {
	case key.CodeSpacebar:
		k = gesture.KeySpace
	case key.CodeLeftShift, key.CodeRightShift:
		k = gesture.KeyShift
	}
	return gesture.KeyEvent{Key: k, Repeat: e.Direction == key.DirNone}
}

// lookupShortcut finds the action bound to e, matching first by rune and
// then by key code.
func lookupShortcut(bindings map[KeyShortcut]string, e key.Event) (string, bool) {
	mods := e.Modifiers &^ key.ModShift
	if e.Rune > 0 {
		if name, ok := bindings[KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: mods}]; ok {
			return name, true
		}
	}
	if e.Code != key.CodeUnknown {
		if name, ok := bindings[KeyShortcut{Code: e.Code, Modifiers: mods}]; ok {
			return name, true
		}
	}
	return "", false
}
