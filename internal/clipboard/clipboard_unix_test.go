//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"sync"
	"testing"
)

func TestEnsureInitWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	initOnce = sync.Once{}
	initErr = nil

	if err := WriteText("hello world"); !errors.Is(err, errNoDisplay) {
		t.Fatalf("WriteText: expected errNoDisplay, got %v", err)
	}
	if err := WritePNG([]byte{0x89, 'P', 'N', 'G'}); !errors.Is(err, errNoDisplay) {
		t.Fatalf("WritePNG: expected errNoDisplay, got %v", err)
	}
	if _, err := ReadText(); !errors.Is(err, errNoDisplay) {
		t.Fatalf("ReadText: expected errNoDisplay, got %v", err)
	}
}
