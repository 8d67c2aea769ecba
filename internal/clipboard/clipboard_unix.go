//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

// WritePNG publishes encoded PNG data.
func WritePNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

// WriteText writes text data to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// WriteMarkup publishes generated markup. This backend only offers it as
// plain text.
func WriteMarkup(markup string) error { return WriteText(markup) }

// ReadText returns UTF-8 text data from the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return "", fmt.Errorf("clipboard does not contain text data")
	}
	return string(data), nil
}
