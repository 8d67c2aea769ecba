// Package theme holds the colour palettes of the editor window.
package theme

import (
	"image/color"
)

// Theme defines the color palette for the editor window.
type Theme struct {
	Name string

	// Canvas
	Background color.RGBA // World background behind every shape
	Grid       color.RGBA // Dot grid, drawn when alpha is non-zero
	Foreground color.RGBA // Default text color for chrome

	// Selection
	Selection    color.RGBA
	Handle       color.RGBA
	HandleBorder color.RGBA
	Draft        color.RGBA // Outline of a shape still being dragged

	// Toolbar
	ToolbarBackground     color.RGBA
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonBackgroundPress color.RGBA
	ButtonText            color.RGBA
	ButtonTextPress       color.RGBA
	ButtonBorder          color.RGBA

	// Status line
	StatusText   color.RGBA
	StatusSaving color.RGBA
	StatusSaved  color.RGBA
	StatusError  color.RGBA

	// Generated UI placeholders
	Placeholder     color.RGBA
	PlaceholderText color.RGBA
}

// Default returns the hardcoded dark theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{18, 18, 18, 255},
		Grid:                  color.RGBA{48, 48, 48, 255},
		Foreground:            color.RGBA{230, 230, 230, 255},
		Selection:             color.RGBA{59, 130, 246, 255},
		Handle:                color.RGBA{255, 255, 255, 255},
		HandleBorder:          color.RGBA{59, 130, 246, 255},
		Draft:                 color.RGBA{96, 165, 250, 255},
		ToolbarBackground:     color.RGBA{32, 32, 32, 255},
		ButtonBackground:      color.RGBA{48, 48, 48, 255},
		ButtonBackgroundHover: color.RGBA{64, 64, 64, 255},
		ButtonBackgroundPress: color.RGBA{59, 130, 246, 255},
		ButtonText:            color.RGBA{230, 230, 230, 255},
		ButtonTextPress:       color.RGBA{255, 255, 255, 255},
		ButtonBorder:          color.RGBA{80, 80, 80, 255},
		StatusText:            color.RGBA{160, 160, 160, 255},
		StatusSaving:          color.RGBA{234, 179, 8, 255},
		StatusSaved:           color.RGBA{34, 197, 94, 255},
		StatusError:           color.RGBA{239, 68, 68, 255},
		Placeholder:           color.RGBA{38, 38, 38, 255},
		PlaceholderText:       color.RGBA{140, 140, 140, 255},
	}
}
