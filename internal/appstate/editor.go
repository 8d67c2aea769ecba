package appstate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/example/s2c/internal/autosave"
	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/clipboard"
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/snapshot"
)

var (
	// ErrNothingSelected is returned by commands that act on a single
	// selected frame or generated UI.
	ErrNothingSelected = errors.New("select a frame or generated ui first")
	ErrNoGenerator     = errors.New("generation is not configured")
)

// Clipboard hooks, replaced in tests.
var (
	writePNG    = clipboard.WritePNG
	writeMarkup = clipboard.WriteMarkup
	writeText   = clipboard.WriteText
	readText    = clipboard.ReadText
)

const messageDuration = 2 * time.Second

type promptKind int

const (
	promptNone promptKind = iota
	promptText
	promptRedesign
)

// prompt is the single-line input shown over the canvas.
type prompt struct {
	kind   promptKind
	target string
	value  string
}

func (p prompt) active() bool { return p.kind != promptNone }

func (p prompt) label() string {
	if p.kind == promptRedesign {
		return "Redesign"
	}
	return "Text"
}

// flash shows msg over the canvas for a moment and logs it.
func (a *AppState) flash(msg string) {
	a.message = msg
	a.messageUntil = a.now().Add(messageDuration)
	log.Print(msg)
}

func (a *AppState) selectTool(t canvas.Tool) {
	a.dispatch(canvas.SetTool{Tool: t})
}

func (a *AppState) dispatch(actions ...canvas.Action) {
	if err := a.store.Dispatch(actions...); err != nil {
		log.Printf("dispatch: %v", err)
	}
}

func restyle(s shape.Shape, st shape.Style) shape.Shape {
	switch v := s.(type) {
	case *shape.Rect:
		v.Style = st
	case *shape.Ellipse:
		v.Style = st
	case *shape.FreeDraw:
		v.Style = st
	case *shape.Line:
		v.Style = st
	case *shape.Arrow:
		v.Style = st
	default:
		return nil
	}
	return s
}

// setStyle makes st the style of new shapes and of every selected shape
// that has a stroke.
func (a *AppState) setStyle(st shape.Style) {
	a.engine.SetStyle(st)
	doc, _ := a.store.Snapshot()
	var actions []canvas.Action
	for _, id := range doc.SelectedIDs() {
		actions = append(actions, canvas.UpdateShape{ID: id, Patch: func(s shape.Shape) shape.Shape {
			return restyle(s, st)
		}})
	}
	if len(actions) > 0 {
		a.dispatch(actions...)
	}
}

func (a *AppState) setStroke(hex string) {
	st := a.engine.Style()
	st.Stroke = hex
	a.setStyle(st)
}

func (a *AppState) setWidth(w float64) {
	st := a.engine.Style()
	st.StrokeWidth = w
	a.setStyle(st)
}

func (a *AppState) deleteSelection() { a.dispatch(canvas.RemoveSelected{}) }

func (a *AppState) resetViewport() { a.dispatch(canvas.ResetViewport{}) }

func (a *AppState) zoom(origin geom.Point, in bool) {
	dy := float64(zoomStep)
	if in {
		dy = -dy
	}
	a.dispatch(canvas.WheelZoom{Origin: origin, DeltaY: dy})
}

func (a *AppState) nudge(dx, dy float64) { a.dispatch(canvas.WheelPan{DX: dx, DY: dy}) }

// selection returns the single selected shape and a copy of every shape.
func (a *AppState) selection() (shape.Shape, []shape.Shape, error) {
	var (
		sel shape.Shape
		all []shape.Shape
	)
	a.store.Read(func(d *canvas.Document) {
		ids := d.SelectedIDs()
		if len(ids) != 1 {
			return
		}
		s, ok := d.Shapes.Get(ids[0])
		if !ok {
			return
		}
		sel = s.Clone()
		for s := range d.Shapes.All() {
			all = append(all, s.Clone())
		}
	})
	if sel == nil {
		return nil, nil, ErrNothingSelected
	}
	return sel, all, nil
}

// exportSelected writes the selected frame as PNG or the selected generated
// UI as HTML into the export directory.
func (a *AppState) exportSelected() (string, error) {
	sel, all, err := a.selection()
	if err != nil {
		return "", err
	}
	var path string
	switch s := sel.(type) {
	case *shape.Frame:
		path, err = snapshot.WriteFile(a.exportDir, s, all)
	case *shape.GeneratedUI:
		path, err = snapshot.WriteMarkup(a.exportDir, s)
	default:
		return "", ErrNothingSelected
	}
	if err != nil {
		return "", err
	}
	a.notifier.Export(path)
	return path, nil
}

// copySelected puts the selected frame snapshot or generated markup on the
// clipboard and returns what was copied.
func (a *AppState) copySelected() (string, error) {
	sel, all, err := a.selection()
	if err != nil {
		return "", err
	}
	var detail string
	switch s := sel.(type) {
	case *shape.Frame:
		img, err := snapshot.PNG(s, all)
		if err != nil {
			return "", err
		}
		if err := writePNG(img); err != nil {
			return "", fmt.Errorf("copy frame %d: %w", s.FrameNumber, err)
		}
		detail = fmt.Sprintf("frame %d snapshot", s.FrameNumber)
	case *shape.GeneratedUI:
		if s.UISpecData == nil {
			return "", fmt.Errorf("generated ui %s has no markup yet", s.ID)
		}
		if err := writeMarkup(*s.UISpecData); err != nil {
			return "", fmt.Errorf("copy markup: %w", err)
		}
		detail = snapshot.MarkupFileName(s)
	case *shape.Text:
		if err := writeText(s.Text); err != nil {
			return "", fmt.Errorf("copy text: %w", err)
		}
		detail = "text"
	default:
		return "", ErrNothingSelected
	}
	a.notifier.Copy(detail)
	return detail, nil
}

// forceSave starts any pending autosave now.
func (a *AppState) forceSave() error {
	if a.autosave == nil {
		return errors.New("autosave is disabled")
	}
	a.saveRequested = true
	a.autosave.Flush()
	return nil
}

// spawn runs fn on its own goroutine bound to the window's lifetime.
func (a *AppState) spawn(fn func(ctx context.Context)) {
	a.jobs.Add(1)
	go func() {
		defer a.jobs.Done()
		fn(a.ctx)
	}()
}

func (a *AppState) startDesign() error {
	if a.gen == nil {
		return ErrNoGenerator
	}
	sel, _, err := a.selection()
	if err != nil {
		return err
	}
	f, ok := sel.(*shape.Frame)
	if !ok {
		return ErrNothingSelected
	}
	a.spawn(func(ctx context.Context) {
		if _, err := a.gen.Design(ctx, f.ID); err != nil && !errors.Is(err, context.Canceled) {
			a.control(controlEvent{message: fmt.Sprintf("frame %d: %v", f.FrameNumber, err)})
		}
	})
	return nil
}

func (a *AppState) selectedGenerated() (*shape.GeneratedUI, error) {
	sel, _, err := a.selection()
	if err != nil {
		return nil, err
	}
	g, ok := sel.(*shape.GeneratedUI)
	if !ok {
		return nil, ErrNothingSelected
	}
	return g, nil
}

func (a *AppState) startWorkflow() error {
	if a.gen == nil {
		return ErrNoGenerator
	}
	g, err := a.selectedGenerated()
	if err != nil {
		return err
	}
	a.spawn(func(ctx context.Context) {
		ids, err := a.gen.Workflow(ctx, g.ID)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.control(controlEvent{message: fmt.Sprintf("workflow: %d pages, %v", len(ids), err)})
		}
	})
	return nil
}

func (a *AppState) startRedesign(id, message string) {
	a.spawn(func(ctx context.Context) {
		if err := a.gen.Redesign(ctx, id, message); err != nil && !errors.Is(err, context.Canceled) {
			a.control(controlEvent{message: fmt.Sprintf("redesign: %v", err)})
		}
	})
}

// beginTextEdit opens the prompt on the selected text shape.
func (a *AppState) beginTextEdit() bool {
	sel, _, err := a.selection()
	if err != nil {
		return false
	}
	t, ok := sel.(*shape.Text)
	if !ok {
		return false
	}
	a.prompt = prompt{kind: promptText, target: t.ID, value: t.Text}
	return true
}

func (a *AppState) beginRedesign() error {
	if a.gen == nil {
		return ErrNoGenerator
	}
	g, err := a.selectedGenerated()
	if err != nil {
		return err
	}
	a.prompt = prompt{kind: promptRedesign, target: g.ID}
	return nil
}

// commitPrompt applies the prompt. Empty input changes nothing.
func (a *AppState) commitPrompt() {
	p := a.prompt
	a.prompt = prompt{}
	if p.value == "" {
		return
	}
	switch p.kind {
	case promptText:
		a.dispatch(canvas.UpdateShape{ID: p.target, Patch: func(s shape.Shape) shape.Shape {
			t, ok := s.(*shape.Text)
			if !ok {
				return nil
			}
			t.Text = p.value
			return t
		}})
	case promptRedesign:
		a.startRedesign(p.target, p.value)
	}
}

func (a *AppState) cancelPrompt() { a.prompt = prompt{} }

// pastePrompt appends clipboard text to the prompt. Line breaks and tabs
// become spaces; other control characters are dropped.
func (a *AppState) pastePrompt() {
	text, err := readText()
	if err != nil {
		a.flash(fmt.Sprintf("paste: %v", err))
		return
	}
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\n' || r == '\t':
			b.WriteByte(' ')
		case unicode.IsPrint(r):
			b.WriteRune(r)
		}
	}
	a.prompt.value += b.String()
}

// blurText commits an open text edit when the canvas takes focus.
func (a *AppState) blurText() {
	if a.prompt.kind == promptText {
		a.commitPrompt()
	}
}

func (a *AppState) applyStatus(s autosave.Status, err error) {
	a.saveStatus = s
	a.saveErr = err
	switch s {
	case autosave.StatusError:
		a.notifier.AutosaveError(err)
		a.saveRequested = false
	case autosave.StatusSaved:
		if a.saveRequested {
			a.notifier.Save(a.project)
			a.flash("saved " + a.project)
		}
		a.saveRequested = false
	}
}

func (a *AppState) applyBusy(id string, busy bool, err error) {
	if busy {
		a.busy[id] = true
		return
	}
	delete(a.busy, id)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("generation %s: %v", id, err)
	}
}

// statusLine is the right-hand status text and its colour name.
func (a *AppState) statusLine() (string, string) {
	vp := a.store.Viewport()
	text := fmt.Sprintf("%s  %.0f%%", a.store.Tool(), vp.Scale*100)
	if n := len(a.busy); n > 0 {
		text += fmt.Sprintf("  generating %d", n)
	}
	if a.autosave == nil {
		return text, "StatusText"
	}
	switch a.saveStatus {
	case autosave.StatusSaving:
		return text + "  saving…", "StatusSaving"
	case autosave.StatusSaved:
		return text + "  saved", "StatusSaved"
	case autosave.StatusError:
		return text + "  save failed", "StatusError"
	}
	return text, "StatusText"
}
