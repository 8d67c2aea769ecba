// Package appstate runs the editor window: a shiny event loop that feeds
// the gesture engine and paints the canvas from a separate goroutine.
package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/render"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/theme"
)

const (
	titleHeight  = 24
	buttonHeight = 24
	statusHeight = 24
	swatchSize   = 16
	widthRow     = 16
)

var toolbarWidth = 72

// frameDropThreshold is how many consecutive paints may be cancelled by a
// newer one before a frame is allowed to finish.
const frameDropThreshold = 10

// PaletteColor is a stroke colour offered in the toolbar.
type PaletteColor struct {
	Name string
	Hex  string
}

var palette = []PaletteColor{
	{"White", "#ffffff"},
	{"Black", "#000000"},
	{"Red", "#ef4444"},
	{"Orange", "#f97316"},
	{"Yellow", "#eab308"},
	{"Green", "#22c55e"},
	{"Blue", "#3b82f6"},
	{"Purple", "#a855f7"},
}

var widths = []float64{1, 2, 4, 6, 8}

// Palette returns the stroke colours offered in the toolbar.
func Palette() []PaletteColor {
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

// WidthOptions returns the stroke widths offered in the toolbar.
func WidthOptions() []float64 {
	out := make([]float64, len(widths))
	copy(out, widths)
	return out
}

func paletteIndex(hex string) int {
	for i, p := range palette {
		if p.Hex == hex {
			return i
		}
	}
	return -1
}

func widthIndex(w float64) int {
	for i, v := range widths {
		if v == w {
			return i
		}
	}
	return -1
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) Rect() image.Rectangle { return cb.Button.Rect() }

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

func (cb *CacheButton) Activate() { cb.Button.Activate() }

func buttonColors(th *theme.Theme, state ButtonState) (bg, fg color.RGBA) {
	switch state {
	case StateHover:
		return th.ButtonBackgroundHover, th.ButtonText
	case StatePressed:
		return th.ButtonBackgroundPress, th.ButtonTextPress
	}
	return th.ButtonBackground, th.ButtonText
}

// Shortcut is a clickable hint in the status bar.
type Shortcut struct {
	label  string
	action func()
	rect   image.Rectangle
	theme  *theme.Theme
}

func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState) {
	bg, fg := buttonColors(s.theme, state)
	draw.Draw(dst, s.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
	drawRect(dst, s.rect, s.theme.ButtonBorder, 1)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: basicfont.Face7x13,
		Dot: fixed.P(s.rect.Min.X+2, s.rect.Min.Y+14)}
	d.DrawString(s.label)
}

func (s *Shortcut) Rect() image.Rectangle { return s.rect }

func (s *Shortcut) SetRect(r image.Rectangle) {
	if r != s.rect {
		s.rect = r
	}
}

func (s *Shortcut) Activate() {
	if s.action != nil {
		s.action()
	}
}

// ToolButton is a toolbar button that selects a canvas tool.
type ToolButton struct {
	label string
	tool  canvas.Tool
	rect  image.Rectangle
	theme *theme.Theme
	// onSelect is called when the button is activated.
	onSelect func(canvas.Tool)
}

func (tb *ToolButton) Draw(dst *image.RGBA, state ButtonState) {
	bg, fg := buttonColors(tb.theme, state)
	draw.Draw(dst, tb.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: basicfont.Face7x13,
		Dot: fixed.P(tb.rect.Min.X+4, tb.rect.Min.Y+16)}
	d.DrawString(tb.label)
}

func (tb *ToolButton) Rect() image.Rectangle { return tb.rect }

func (tb *ToolButton) SetRect(r image.Rectangle) {
	if r != tb.rect {
		tb.rect = r
	}
}

func (tb *ToolButton) Activate() {
	if tb.onSelect != nil {
		tb.onSelect(tb.tool)
	}
}

var title = cases.Title(language.English)

func toolLabel(t canvas.Tool) string {
	return fmt.Sprintf("%c:%s", unicode.ToUpper(t.Shortcut()), title.String(t.String()))
}

// chrome is the fixed toolbar layout. Its buttons are drawn only by the
// paint goroutine; the event loop reads their rectangles.
type chrome struct {
	tools    []*CacheButton
	swatches []image.Rectangle
	widths   []image.Rectangle
}

func newChrome(th *theme.Theme, onTool func(canvas.Tool)) *chrome {
	d := &font.Drawer{Face: basicfont.Face7x13}
	widest := d.MeasureString("s2c").Ceil() + 8
	for _, t := range canvas.Tools() {
		if w := d.MeasureString(toolLabel(t)).Ceil() + 8; w > widest {
			widest = w
		}
	}
	if widest > toolbarWidth {
		toolbarWidth = widest
	}

	c := &chrome{}
	y := titleHeight
	for _, t := range canvas.Tools() {
		cb := &CacheButton{Button: &ToolButton{label: toolLabel(t), tool: t, theme: th, onSelect: onTool}}
		cb.SetRect(image.Rect(0, y, toolbarWidth, y+buttonHeight))
		c.tools = append(c.tools, cb)
		y += buttonHeight
	}

	y += 4
	x := 4
	for range palette {
		c.swatches = append(c.swatches, image.Rect(x, y, x+swatchSize, y+swatchSize))
		x += swatchSize + 2
		if x+swatchSize > toolbarWidth {
			x = 4
			y += swatchSize + 2
		}
	}
	if x != 4 {
		y += swatchSize + 2
	}

	y += 4
	for range widths {
		c.widths = append(c.widths, image.Rect(0, y, toolbarWidth, y+widthRow))
		y += widthRow
	}
	return c
}

func hitIndex(rects []image.Rectangle, p image.Point) int {
	for i, r := range rects {
		if p.In(r) {
			return i
		}
	}
	return -1
}

func (c *chrome) toolAt(p image.Point) int {
	for i, cb := range c.tools {
		if p.In(cb.Rect()) {
			return i
		}
	}
	return -1
}

// canvasRect is the part of the window showing the canvas.
func canvasRect(width, height int) image.Rectangle {
	return image.Rect(toolbarWidth, 0, width, height-statusHeight)
}

func drawToolbar(dst *image.RGBA, th *theme.Theme, c *chrome, st paintState) {
	draw.Draw(dst, image.Rect(0, 0, toolbarWidth, st.height-statusHeight),
		&image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13,
		Dot: fixed.P(4, 16)}
	d.DrawString("s2c")

	for i, cb := range c.tools {
		tb := cb.Button.(*ToolButton)
		state := StateDefault
		if tb.tool == st.tool {
			state = StatePressed
		} else if i == st.hoverTool {
			state = StateHover
		}
		cb.Draw(dst, state)
	}

	colIdx := paletteIndex(st.style.Stroke)
	for i, r := range c.swatches {
		col := shape.ColorOr(palette[i].Hex, th.Foreground)
		draw.Draw(dst, r, &image.Uniform{col}, image.Point{}, draw.Src)
		if i == st.hoverSwatch {
			draw.Draw(dst, r, &image.Uniform{color.RGBA{255, 255, 255, 80}}, image.Point{}, draw.Over)
		}
		if i == colIdx {
			drawRect(dst, r.Inset(-1), th.Selection, 2)
		}
	}

	stroke := shape.ColorOr(st.style.StrokeOrDefault(), th.Foreground)
	wIdx := widthIndex(st.style.StrokeWidth)
	for i, r := range c.widths {
		state := StateDefault
		if i == wIdx {
			state = StatePressed
		} else if i == st.hoverWidth {
			state = StateHover
		}
		bg, fg := buttonColors(th, state)
		draw.Draw(dst, r, &image.Uniform{bg}, image.Point{}, draw.Src)
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: basicfont.Face7x13,
			Dot: fixed.P(4, r.Min.Y+12)}
		d.DrawString(fmt.Sprintf("%g", widths[i]))
		thick := int(widths[i])
		mid := r.Min.Y + widthRow/2
		line := image.Rect(30, mid-thick/2, r.Max.X-4, mid-thick/2+thick)
		draw.Draw(dst, line, &image.Uniform{stroke}, image.Point{}, draw.Src)
	}
}

// layoutShortcuts places the hints left to right along the status bar.
func layoutShortcuts(shortcuts []Shortcut, width, height int) []Shortcut {
	out := make([]Shortcut, len(shortcuts))
	copy(out, shortcuts)
	x := toolbarWidth + 4
	y := height - statusHeight + 16
	meas := &font.Drawer{Face: basicfont.Face7x13}
	for i := range out {
		w := meas.MeasureString(out[i].label).Ceil()
		out[i].SetRect(image.Rect(x-2, y-14, x+w+2, y+4))
		x = out[i].rect.Max.X + 8
	}
	return out
}

func drawStatusBar(dst *image.RGBA, th *theme.Theme, st paintState) {
	rect := image.Rect(0, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, rect, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	for i := range st.shortcuts {
		sc := st.shortcuts[i]
		state := StateDefault
		if i == st.hoverShortcut {
			state = StateHover
		}
		sc.Draw(dst, state)
	}
	if st.status == "" {
		return
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(st.statusColor), Face: basicfont.Face7x13}
	w := d.MeasureString(st.status).Ceil()
	d.Dot = fixed.P(st.width-w-8, st.height-statusHeight+16)
	d.DrawString(st.status)
}

func drawMessage(dst *image.RGBA, th *theme.Theme, area image.Rectangle, msg string) {
	w, h, _, err := measureText(msg, messageSize)
	if err != nil {
		log.Printf("message: %v", err)
		return
	}
	px := area.Min.X + (area.Dx()-w)/2
	py := area.Min.Y + (area.Dy()-h)/2
	box := image.Rect(px-8, py-8, px+w+8, py+h+8)
	draw.Draw(dst, box, &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Over)
	drawRect(dst, box, th.ButtonBorder, 2)
	if err := drawText(dst, px, py, msg, th.Foreground, messageSize); err != nil {
		log.Printf("message: %v", err)
	}
}

func drawPrompt(dst *image.RGBA, th *theme.Theme, area image.Rectangle, p prompt) {
	text := p.label() + ": " + p.value + "|"
	w, h, _, err := measureText(text, promptSize)
	if err != nil {
		log.Printf("prompt: %v", err)
		return
	}
	if half := area.Dx() / 2; w < half {
		w = half
	}
	px := area.Min.X + (area.Dx()-w)/2
	py := area.Max.Y - h - 24
	box := image.Rect(px-8, py-6, px+w+8, py+h+6)
	draw.Draw(dst, box, &image.Uniform{th.ButtonBackground}, image.Point{}, draw.Src)
	drawRect(dst, box, th.Selection, 1)
	if err := drawText(dst, px, py, text, th.ButtonText, promptSize); err != nil {
		log.Printf("prompt: %v", err)
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{col}
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thick), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-thick, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thick, rect.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-thick, rect.Min.Y, rect.Max.X, rect.Max.Y), u, image.Point{}, draw.Src)
}

type paintState struct {
	width, height int
	theme         *theme.Theme
	chrome        *chrome
	scene         render.Scene
	tool          canvas.Tool
	style         shape.Style
	hoverTool     int
	hoverSwatch   int
	hoverWidth    int
	hoverShortcut int
	shortcuts     []Shortcut
	status        string
	statusColor   color.RGBA
	message       string
	messageUntil  time.Time
	prompt        prompt
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	area := canvasRect(st.width, st.height)
	if err := render.Paint(ctx, b.RGBA(), area, st.scene); err != nil {
		if ctx.Err() == nil {
			log.Printf("paint: %v", err)
		}
		return
	}

	drawToolbar(b.RGBA(), st.theme, st.chrome, st)
	drawStatusBar(b.RGBA(), st.theme, st)
	if ctx.Err() != nil {
		return
	}

	if st.prompt.active() {
		drawPrompt(b.RGBA(), st.theme, area, st.prompt)
	}
	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(b.RGBA(), st.theme, area, st.message)
	}
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
