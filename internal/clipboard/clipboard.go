// Package clipboard publishes frame snapshots, generated markup and text to
// the system clipboard and reads text back for pasting.
package clipboard

import (
	"errors"
	"os"
)

var errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
