package shape

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor accepts CSS colour names, "transparent" and hex values with or
// without a leading '#' (#rgb, #rrggbb, #rrggbbaa).
func ParseColor(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return color.RGBA{}, fmt.Errorf("color cannot be empty")
	}
	if name == "transparent" {
		return color.RGBA{}, nil
	}
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(name, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		return color.RGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	}
	return color.RGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
}

// ColorOr parses s and returns fallback when it is not a valid colour.
func ColorOr(s string, fallback color.RGBA) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}
