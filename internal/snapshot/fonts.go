package snapshot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

type fontKey struct {
	mono   bool
	bold   bool
	italic bool
}

var (
	fontsOnce sync.Once
	fontsErr  error
	sources   map[fontKey]*text.FontSource
)

func loadFonts() {
	files := map[fontKey][]byte{
		{}:                         goregular.TTF,
		{bold: true}:               gobold.TTF,
		{italic: true}:             goitalic.TTF,
		{bold: true, italic: true}: gobolditalic.TTF,
		{mono: true}:               gomono.TTF,
		{mono: true, bold: true}:   gomonobold.TTF,
	}
	sources = make(map[fontKey]*text.FontSource, len(files))
	for k, data := range files {
		src, err := text.NewFontSource(data)
		if err != nil {
			fontsErr = fmt.Errorf("load font %+v: %w", k, err)
			return
		}
		sources[k] = src
	}
}

// Face returns a Go font face approximating the CSS family, weight and
// style of a text shape at the given pixel size.
func Face(family, weight, style string, size float64) (text.Face, error) {
	fontsOnce.Do(loadFonts)
	if fontsErr != nil {
		return nil, fontsErr
	}
	k := fontKey{
		mono:   strings.Contains(strings.ToLower(family), "mono"),
		bold:   isBold(weight),
		italic: style == "italic" || style == "oblique",
	}
	if k.mono {
		k.italic = false
	}
	src, ok := sources[k]
	if !ok {
		src = sources[fontKey{}]
	}
	if size <= 0 {
		size = 16
	}
	return src.Face(size), nil
}

func isBold(weight string) bool {
	switch strings.ToLower(strings.TrimSpace(weight)) {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}
