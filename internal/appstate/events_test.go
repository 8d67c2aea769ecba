package appstate

import (
	"image"
	"testing"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/touch"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/gesture"
)

func TestParseHandKey(t *testing.T) {
	tests := []struct {
		in   string
		want gesture.Key
		err  bool
	}{
		{"", gesture.KeySpace, false},
		{"space", gesture.KeySpace, false},
		{" Shift ", gesture.KeyShift, false},
		{"alt", gesture.KeyOther, true},
	}
	for _, tt := range tests {
		got, err := ParseHandKey(tt.in)
		if (err != nil) != tt.err {
			t.Fatalf("ParseHandKey(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseHandKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModifiers(t *testing.T) {
	got := modifiers(key.ModShift | key.ModMeta)
	want := gesture.Modifiers{Shift: true, Meta: true}
	if got != want {
		t.Fatalf("modifiers = %+v, want %+v", got, want)
	}
}

func TestPointerFromMouseIsCanvasLocal(t *testing.T) {
	e := mouse.Event{X: 110, Y: 40, Button: mouse.ButtonMiddle, Modifiers: key.ModControl}
	p := pointerFromMouse(e, image.Pt(100, 0))
	if p.Screen != geom.Pt(10, 40) {
		t.Errorf("screen = %v, want (10,40)", p.Screen)
	}
	if p.Button != gesture.ButtonMiddle || !p.Mods.Ctrl || p.Kind != gesture.PointerMouse {
		t.Errorf("unexpected pointer %+v", p)
	}
}

func TestWheelFromMouse(t *testing.T) {
	tests := []struct {
		button mouse.Button
		dx, dy float64
	}{
		{mouse.ButtonWheelUp, 0, -wheelStep},
		{mouse.ButtonWheelDown, 0, wheelStep},
		{mouse.ButtonWheelLeft, -wheelStep, 0},
		{mouse.ButtonWheelRight, wheelStep, 0},
	}
	for _, tt := range tests {
		if !isWheel(tt.button) {
			t.Fatalf("isWheel(%v) = false", tt.button)
		}
		w := wheelFromMouse(mouse.Event{X: 50, Y: 60, Button: tt.button}, image.Pt(20, 0))
		if w.DX != tt.dx || w.DY != tt.dy {
			t.Errorf("%v: delta = (%v,%v), want (%v,%v)", tt.button, w.DX, w.DY, tt.dx, tt.dy)
		}
		if w.Screen != geom.Pt(30, 60) {
			t.Errorf("%v: screen = %v", tt.button, w.Screen)
		}
	}
	if isWheel(mouse.ButtonLeft) {
		t.Errorf("left button reported as wheel")
	}
}

func TestPointerFromTouch(t *testing.T) {
	p := pointerFromTouch(touch.Event{X: 15, Y: 25, Sequence: 3, Type: touch.TypeBegin}, image.Pt(5, 5))
	if p.ID != 3 || p.Kind != gesture.PointerTouch || p.Button != gesture.ButtonPrimary {
		t.Fatalf("unexpected pointer %+v", p)
	}
	if p.Screen != geom.Pt(10, 20) {
		t.Errorf("screen = %v", p.Screen)
	}
}

func TestGestureKey(t *testing.T) {
	tests := []struct {
		e    key.Event
		want gesture.KeyEvent
	}{
		{key.Event{Code: key.CodeSpacebar, Direction: key.DirPress}, gesture.KeyEvent{Key: gesture.KeySpace}},
		{key.Event{Code: key.CodeSpacebar, Direction: key.DirNone}, gesture.KeyEvent{Key: gesture.KeySpace, Repeat: true}},
		{key.Event{Code: key.CodeRightShift, Direction: key.DirRelease}, gesture.KeyEvent{Key: gesture.KeyShift}},
		{key.Event{Code: key.CodeA, Rune: 'a', Direction: key.DirPress}, gesture.KeyEvent{Key: gesture.KeyOther}},
	}
	for _, tt := range tests {
		if got := gestureKey(tt.e); got != tt.want {
			t.Errorf("gestureKey(%v) = %+v, want %+v", tt.e, got, tt.want)
		}
	}
}

func TestLookupShortcut(t *testing.T) {
	bindings := map[KeyShortcut]string{}
	bindings[KeyShortcut{Rune: 's', Modifiers: key.ModControl}] = "save"
	bindings[KeyShortcut{Code: key.CodeE, Modifiers: key.ModControl}] = "export"
	bindings[KeyShortcut{Rune: '+'}] = "zoomin"
	bindings[KeyShortcut{Code: key.CodeDeleteForward}] = "delete"
	tests := []struct {
		e    key.Event
		want string
	}{
		{key.Event{Rune: 'S', Code: key.CodeS, Modifiers: key.ModControl}, "save"},
		{key.Event{Rune: -1, Code: key.CodeE, Modifiers: key.ModControl}, "export"},
		{key.Event{Rune: '+', Code: key.CodeEqualSign, Modifiers: key.ModShift}, "zoomin"},
		{key.Event{Rune: -1, Code: key.CodeDeleteForward}, "delete"},
		{key.Event{Rune: 's', Code: key.CodeS}, ""},
	}
	for _, tt := range tests {
		got, ok := lookupShortcut(bindings, tt.e)
		if got != tt.want || ok != (tt.want != "") {
			t.Errorf("lookupShortcut(%v) = %q, %v; want %q", tt.e, got, ok, tt.want)
		}
	}
}
