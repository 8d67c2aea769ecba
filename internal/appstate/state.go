package appstate

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/s2c/internal/autosave"
	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/generate"
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/gesture"
	"github.com/example/s2c/internal/notify"
	"github.com/example/s2c/internal/render"
	"github.com/example/s2c/internal/theme"
)

// Initial window size.
const (
	DefaultWidth  = 1280
	DefaultHeight = 800
)

// AppState is the editor window for one project.
type AppState struct {
	store     *canvas.Store
	theme     *theme.Theme
	project   string
	autosave  *autosave.Coordinator
	gen       *generate.Generator
	notifier  *notify.Notifier
	handKey   gesture.Key
	exportDir string
	now       func() time.Time

	engine *gesture.Engine
	chrome *chrome

	updateCh    chan struct{}
	controlMu   sync.Mutex
	sendControl func(controlEvent)

	onClose   func()
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	jobs   sync.WaitGroup

	// Everything below is owned by the event loop.
	actions       map[string]func()
	bindings      map[KeyShortcut]string
	hints         []hint
	busy          map[string]bool
	message       string
	messageUntil  time.Time
	saveStatus    autosave.Status
	saveErr       error
	saveRequested bool
	prompt        prompt
	quit          bool
	width, height int
	captured      bool
	resizing      bool
	hoverTool     int
	hoverSwatch   int
	hoverWidth    int
	hoverShortcut int
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithStore sets the document the window edits.
func WithStore(s *canvas.Store) Option { return func(a *AppState) { a.store = s } }

// WithTheme sets the window palette.
func WithTheme(th *theme.Theme) Option { return func(a *AppState) { a.theme = th } }

// WithProjectName sets the name shown in the title and notifications.
func WithProjectName(name string) Option { return func(a *AppState) { a.project = name } }

// WithAutosave attaches an autosave coordinator to the document.
func WithAutosave(c *autosave.Coordinator) Option { return func(a *AppState) { a.autosave = c } }

// WithGenerator enables design, workflow and redesign requests.
func WithGenerator(g *generate.Generator) Option { return func(a *AppState) { a.gen = g } }

// WithNotifier sends desktop notifications for saves, exports and copies.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithHandKey sets the key that turns primary drags into pans.
func WithHandKey(k gesture.Key) Option { return func(a *AppState) { a.handKey = k } }

// WithExportDir sets where exported snapshots and markup are written.
func WithExportDir(dir string) Option { return func(a *AppState) { a.exportDir = dir } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// WithClock replaces time.Now for on-screen messages.
func WithClock(now func() time.Time) Option { return func(a *AppState) { a.now = now } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{
		handKey:       gesture.KeySpace,
		exportDir:     ".",
		now:           time.Now,
		updateCh:      make(chan struct{}, 1),
		busy:          make(map[string]bool),
		width:         DefaultWidth,
		height:        DefaultHeight,
		hoverTool:     -1,
		hoverSwatch:   -1,
		hoverWidth:    -1,
		hoverShortcut: -1,
	}
	for _, o := range opts {
		o(a)
	}
	if a.store == nil {
		a.store = canvas.NewStore(nil)
	}
	if a.theme == nil {
		a.theme = theme.Default()
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.engine = gesture.New(a.store,
		gesture.WithHandKey(a.handKey),
		gesture.WithFrameRequest(a.requestPaint),
		gesture.WithRepaint(a.requestPaint),
		gesture.WithTextBlur(a.blurText),
	)
	a.chrome = newChrome(a.theme, a.selectTool)
	a.registerActions()
	return a
}

type statusChange struct {
	status autosave.Status
	err    error
}

type progress struct {
	id   string
	busy bool
	err  error
}

// controlEvent carries updates from other goroutines into the event loop.
type controlEvent struct {
	status   *statusChange
	progress *progress
	message  string
}

// AutosaveStatus feeds autosave state changes to the status bar. It is
// safe to call from any goroutine.
func (a *AppState) AutosaveStatus(s autosave.Status, err error) {
	a.control(controlEvent{status: &statusChange{s, err}})
}

// GenerationProgress marks a generated UI as streaming or finished. It is
// safe to call from any goroutine.
func (a *AppState) GenerationProgress(id string, busy bool, err error) {
	a.control(controlEvent{progress: &progress{id, busy, err}})
}

func (a *AppState) control(ev controlEvent) {
	a.controlMu.Lock()
	sender := a.sendControl
	a.controlMu.Unlock()
	if sender != nil {
		sender(ev)
		return
	}
	a.applyControl(ev)
}

func (a *AppState) applyControl(ev controlEvent) {
	if ev.status != nil {
		a.applyStatus(ev.status.status, ev.status.err)
	}
	if ev.progress != nil {
		a.applyBusy(ev.progress.id, ev.progress.busy, ev.progress.err)
	}
	if ev.message != "" {
		a.flash(ev.message)
	}
}

func (a *AppState) setControlSender(fn func(controlEvent)) {
	a.controlMu.Lock()
	a.sendControl = fn
	a.controlMu.Unlock()
}

// requestPaint asks the event loop for a repaint without blocking.
func (a *AppState) requestPaint() {
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		a.setControlSender(nil)
		a.cancel()
		a.jobs.Wait()
		if a.onClose != nil {
			a.onClose()
		}
	})
}

type hint struct {
	label string
	name  string
}

func (a *AppState) registerActions() {
	a.actions = map[string]func(){}
	a.bindings = map[KeyShortcut]string{}
	a.hints = nil

	register := func(name, label string, keys KeyboardShortcuts, fn func()) {
		a.actions[name] = fn
		if keys != nil {
			for _, sc := range keys.KeyboardShortcuts() {
				a.bindings[sc] = name
			}
		}
		if label != "" {
			a.hints = append(a.hints, hint{label: label, name: name})
		}
	}
	ctrl := func(r rune, c key.Code) shortcutList {
		return shortcutList{{Rune: r, Modifiers: key.ModControl}, {Code: c, Modifiers: key.ModControl}}
	}
	report := func(what string, err error) {
		if err != nil {
			a.flash(fmt.Sprintf("%s: %v", what, err))
		}
	}

	register("save", "^S:save", ctrl('s', key.CodeS), func() {
		report("save", a.forceSave())
	})
	register("export", "^E:export", ctrl('e', key.CodeE), func() {
		path, err := a.exportSelected()
		if err != nil {
			report("export", err)
			return
		}
		a.flash("exported " + path)
	})
	register("copy", "^C:copy", ctrl('c', key.CodeC), func() {
		detail, err := a.copySelected()
		if err != nil {
			report("copy", err)
			return
		}
		a.flash("copied " + detail)
	})
	register("generate", "G:generate", shortcutList{{Rune: 'g'}}, func() {
		report("generate", a.startDesign())
	})
	register("workflow", "W:workflow", shortcutList{{Rune: 'w'}}, func() {
		report("workflow", a.startWorkflow())
	})
	register("redesign", "^R:redesign", ctrl('r', key.CodeR), func() {
		report("redesign", a.beginRedesign())
	})
	register("edit", "Enter:edit text", shortcutList{{Code: key.CodeReturnEnter}}, func() {
		a.beginTextEdit()
	})
	register("delete", "Del:delete", shortcutList{{Code: key.CodeDeleteForward}, {Code: key.CodeDeleteBackspace}}, a.deleteSelection)
	register("reset", "^0:reset view", ctrl('0', key.Code0), a.resetViewport)
	register("zoomin", "", shortcutList{{Rune: '+'}, {Rune: '='}}, func() { a.zoom(a.center(), true) })
	register("zoomout", "", shortcutList{{Rune: '-'}}, func() { a.zoom(a.center(), false) })
	register("left", "", shortcutList{{Code: key.CodeLeftArrow}}, func() { a.nudge(-wheelStep, 0) })
	register("right", "", shortcutList{{Code: key.CodeRightArrow}}, func() { a.nudge(wheelStep, 0) })
	register("up", "", shortcutList{{Code: key.CodeUpArrow}}, func() { a.nudge(0, -wheelStep) })
	register("down", "", shortcutList{{Code: key.CodeDownArrow}}, func() { a.nudge(0, wheelStep) })
	register("quit", "Q:quit", shortcutList{{Rune: 'q'}}, func() { a.quit = true })
	register("apply", "", nil, a.commitPrompt)
	register("cancel", "", nil, a.cancelPrompt)
}

func (a *AppState) trigger(name string) {
	if fn, ok := a.actions[name]; ok {
		fn()
	}
	a.requestPaint()
}

// shortcuts lays out the status bar hints for the current mode.
func (a *AppState) shortcuts() []Shortcut {
	hints := a.hints
	if a.prompt.active() {
		hints = []hint{{"Enter:apply", "apply"}, {"Esc:cancel", "cancel"}}
	}
	out := make([]Shortcut, 0, len(hints))
	for _, h := range hints {
		name := h.name
		out = append(out, Shortcut{label: h.label, theme: a.theme, action: func() { a.trigger(name) }})
	}
	return layoutShortcuts(out, a.width, a.height)
}

// center is the middle of the canvas in canvas coordinates.
func (a *AppState) center() geom.Point {
	area := canvasRect(a.width, a.height)
	return geom.Pt(float64(area.Dx())/2, float64(area.Dy())/2)
}

func (a *AppState) handleKey(e key.Event) {
	if e.Direction == key.DirRelease {
		a.engine.KeyUp(gestureKey(e))
		return
	}
	if a.prompt.active() {
		a.promptKey(e)
		return
	}
	a.engine.KeyDown(gestureKey(e))
	if e.Direction != key.DirPress {
		return
	}
	if name, ok := lookupShortcut(a.bindings, e); ok {
		a.trigger(name)
		return
	}
	if e.Modifiers&(key.ModControl|key.ModMeta|key.ModAlt) != 0 {
		return
	}
	if t, ok := canvas.ToolForShortcut(unicode.ToLower(e.Rune)); ok {
		a.selectTool(t)
	}
}

func (a *AppState) promptKey(e key.Event) {
	if e.Modifiers&(key.ModControl|key.ModMeta) != 0 {
		if e.Code == key.CodeV || unicode.ToLower(e.Rune) == 'v' {
			a.pastePrompt()
		}
		return
	}
	switch e.Code {
	case key.CodeReturnEnter:
		a.commitPrompt()
	case key.CodeEscape:
		a.cancelPrompt()
	case key.CodeDeleteBackspace:
		if v := a.prompt.value; v != "" {
			_, n := utf8.DecodeLastRuneInString(v)
			a.prompt.value = v[:len(v)-n]
		}
	default:
		if e.Rune > 0 && unicode.IsPrint(e.Rune) {
			a.prompt.value += string(e.Rune)
		}
	}
}

func (a *AppState) handleMouse(e mouse.Event) {
	p := image.Pt(int(e.X), int(e.Y))
	area := canvasRect(a.width, a.height)
	if e.Direction == mouse.DirPress && a.now().Before(a.messageUntil) {
		a.messageUntil = time.Time{}
		a.requestPaint()
	}
	if a.captured || (p.In(area) && !a.prompt.active()) {
		a.hoverTool, a.hoverSwatch, a.hoverWidth, a.hoverShortcut = -1, -1, -1, -1
		a.canvasMouse(e, area.Min)
		return
	}

	a.hoverTool, a.hoverSwatch, a.hoverWidth, a.hoverShortcut = -1, -1, -1, -1
	press := e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress
	defer a.requestPaint()
	if p.Y >= a.height-statusHeight {
		for i, sc := range a.shortcuts() {
			if p.In(sc.rect) {
				a.hoverShortcut = i
				if press {
					sc.Activate()
				}
				return
			}
		}
		return
	}
	if i := a.chrome.toolAt(p); i >= 0 {
		a.hoverTool = i
		if press {
			a.chrome.tools[i].Activate()
		}
		return
	}
	if i := hitIndex(a.chrome.swatches, p); i >= 0 {
		a.hoverSwatch = i
		if press {
			a.setStroke(palette[i].Hex)
		}
		return
	}
	if i := hitIndex(a.chrome.widths, p); i >= 0 {
		a.hoverWidth = i
		if press {
			a.setWidth(widths[i])
		}
	}
}

func (a *AppState) canvasMouse(e mouse.Event, origin image.Point) {
	if isWheel(e.Button) {
		if e.Direction == mouse.DirStep || e.Direction == mouse.DirPress {
			a.engine.Wheel(wheelFromMouse(e, origin))
		}
		return
	}
	pt := pointerFromMouse(e, origin)
	switch e.Direction {
	case mouse.DirPress:
		a.captured = true
		if a.startResize(pt) {
			return
		}
		a.engine.PointerDown(pt)
	case mouse.DirRelease:
		a.captured = false
		if a.resizing {
			a.resizing = false
			a.engine.ResizeEnd(gesture.ResizeEvent{ClientX: pt.Screen.X, ClientY: pt.Screen.Y})
			return
		}
		a.engine.PointerUp(pt)
	case mouse.DirNone:
		if a.resizing {
			a.engine.ResizeMove(gesture.ResizeEvent{ClientX: pt.Screen.X, ClientY: pt.Screen.Y})
			return
		}
		a.engine.PointerMove(pt)
	}
}

// startResize begins a resize when a primary press lands on a handle of a
// selected shape.
func (a *AppState) startResize(pt gesture.Pointer) bool {
	if pt.Button != gesture.ButtonPrimary || a.engine.HandToolActive() || a.store.Tool() != canvas.ToolSelect {
		return false
	}
	var (
		h  render.Handle
		ok bool
	)
	a.store.Read(func(d *canvas.Document) {
		h, ok = render.HandleAt(d, image.Pt(int(pt.Screen.X), int(pt.Screen.Y)))
	})
	if !ok {
		return false
	}
	a.resizing = true
	a.engine.ResizeStart(gesture.ResizeEvent{
		ShapeID: h.ShapeID,
		Corner:  h.Corner,
		ClientX: pt.Screen.X,
		ClientY: pt.Screen.Y,
		Bounds:  h.Bounds,
	})
	return true
}

func (a *AppState) handleTouch(e touch.Event) {
	area := canvasRect(a.width, a.height)
	pt := pointerFromTouch(e, area.Min)
	switch e.Type {
	case touch.TypeBegin:
		if !image.Pt(int(e.X), int(e.Y)).In(area) {
			return
		}
		a.engine.PointerDown(pt)
	case touch.TypeMove:
		a.engine.PointerMove(pt)
	case touch.TypeEnd:
		a.engine.PointerUp(pt)
	}
}

func (a *AppState) paintState(shadows *render.ShadowCache) paintState {
	doc, _ := a.store.Snapshot()
	busy := make(map[string]bool, len(a.busy))
	for id := range a.busy {
		busy[id] = true
	}
	sc := render.Scene{
		Doc:      doc,
		Theme:    a.theme,
		Freehand: a.engine.FreehandPoints(),
		Style:    a.engine.Style(),
		Busy:     busy,
		Shadows:  shadows,
	}
	if d, ok := a.engine.Draft(); ok {
		sc.Draft = &d
	}
	status, name := a.statusLine()
	col, _ := a.theme.Color(name)
	return paintState{
		width:         a.width,
		height:        a.height,
		theme:         a.theme,
		chrome:        a.chrome,
		scene:         sc,
		tool:          doc.Tool,
		style:         a.engine.Style(),
		hoverTool:     a.hoverTool,
		hoverSwatch:   a.hoverSwatch,
		hoverWidth:    a.hoverWidth,
		hoverShortcut: a.hoverShortcut,
		shortcuts:     a.shortcuts(),
		status:        status,
		statusColor:   col,
		message:       a.message,
		messageUntil:  a.messageUntil,
		prompt:        a.prompt,
	}
}

func (a *AppState) title() string {
	if a.project == "" {
		return "s2c"
	}
	return "s2c - " + a.project
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

func (a *AppState) Main(s screen.Screen) {
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: a.width, Height: a.height, Title: a.title()})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()

	defer a.notifyClose()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-a.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	a.setControlSender(func(ev controlEvent) { w.Send(ev) })
	unsubscribe := a.store.Subscribe(func(uint64) { a.requestPaint() })
	defer unsubscribe()
	if a.autosave != nil {
		detach := a.autosave.Attach(a.store)
		defer detach()
	}

	shadows := render.NewShadowCache(64)
	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case controlEvent:
			a.applyControl(e)
			a.requestPaint()
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			a.width = e.WidthPx
			a.height = e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			a.engine.Frame()
			paintMu.Lock()
			if paintCancel != nil {
				if dropCount < frameDropThreshold {
					paintCancel()
					dropCount++
				}
			}
			paintMu.Unlock()
			st := a.paintState(shadows)
			select {
			case <-paintCh:
			default:
			}
			paintCh <- st
		case mouse.Event:
			a.handleMouse(e)
		case touch.Event:
			a.handleTouch(e)
		case key.Event:
			a.handleKey(e)
			a.requestPaint()
		}
		if a.quit {
			stopPaint()
			return
		}
	}
}
