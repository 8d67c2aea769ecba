// Package gesture turns pointer, wheel, key and resize-handle input into
// canvas mutations.
package gesture

import (
	"log"
	"time"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/resize"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/viewport"
)

// State is the interaction the engine is currently in.
type State int

const (
	StateIdle State = iota
	StatePanning
	StateDrawing
	StateMoving
	StateResizing
	StateErasing
)

func (s State) String() string {
	switch s {
	case StatePanning:
		return "panning"
	case StateDrawing:
		return "drawing"
	case StateMoving:
		return "moving"
	case StateResizing:
		return "resizing"
	case StateErasing:
		return "erasing"
	}
	return "idle"
}

// FreehandInterval is the minimum time between freehand repaints.
const FreehandInterval = 8 * time.Millisecond

// Draft is a shape being dragged out with a box or line tool.
type Draft struct {
	Tool    canvas.Tool
	Start   geom.Point
	Current geom.Point
}

// Box returns the normalised box spanned by the drag.
func (d Draft) Box() geom.Box { return geom.BoxFromPoints(d.Start, d.Current) }

type moveSession struct {
	start   geom.Point
	initial map[string]shape.Shape
}

type resizeSession struct {
	resize.Session
	original shape.Shape
}

// Option configures an Engine.
type Option func(*Engine)

// WithHandKey selects the key that forces pan mode while held.
func WithHandKey(k Key) Option { return func(e *Engine) { e.handKey = k } }

// WithFrameRequest registers the callback used to ask the host for a
// Frame call on its next animation tick.
func WithFrameRequest(fn func()) Option { return func(e *Engine) { e.requestFrame = fn } }

// WithRepaint registers the callback used when the overlay changes without
// a store mutation (draft and freehand previews).
func WithRepaint(fn func()) Option { return func(e *Engine) { e.repaint = fn } }

// WithTextBlur registers the callback that ends any in-progress text edit.
func WithTextBlur(fn func()) Option { return func(e *Engine) { e.blurText = fn } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithStyle sets the stroke applied to newly drawn shapes.
func WithStyle(s shape.Style) Option { return func(e *Engine) { e.style = s } }

// Engine is the gesture state machine. It is driven from a single event
// loop goroutine; only the store it writes to is shared.
type Engine struct {
	store *canvas.Store

	handKey  Key
	handHeld bool
	style    shape.Style

	state   State
	touches map[int]geom.Point

	// owner is the touch contact that started the gesture.
	owner        int
	touchGesture bool

	draft          *Draft
	freehand       []geom.Point
	freehandDirty  bool
	lastFreehandAt time.Time

	move   *moveSession
	erased map[string]bool
	resize *resizeSession

	pendingPan     geom.Point
	hasPendingPan  bool
	pendingWheel   geom.Point
	hasWheel       bool
	frameRequested bool

	requestFrame func()
	repaint      func()
	blurText     func()
	now          func() time.Time
}

// New creates an engine writing to store.
func New(store *canvas.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		handKey: KeySpace,
		style:   shape.Style{Stroke: shape.DefaultStroke, StrokeWidth: shape.DefaultStrokeWidth},
		touches: make(map[int]geom.Point),
		erased:  make(map[string]bool),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current interaction.
func (e *Engine) State() State { return e.state }

// HandToolActive reports whether the hand key is held.
func (e *Engine) HandToolActive() bool { return e.handHeld }

// SetStyle changes the stroke for shapes drawn from now on.
func (e *Engine) SetStyle(s shape.Style) { e.style = s }

// Style returns the stroke used for new shapes.
func (e *Engine) Style() shape.Style { return e.style }

// Draft returns the in-progress box or line drag.
func (e *Engine) Draft() (Draft, bool) {
	if e.draft == nil {
		return Draft{}, false
	}
	return *e.draft, true
}

// FreehandPoints returns a copy of the in-progress stroke.
func (e *Engine) FreehandPoints() []geom.Point {
	return append([]geom.Point(nil), e.freehand...)
}

// Contacts returns the number of touch contacts down.
func (e *Engine) Contacts() int { return len(e.touches) }

func (e *Engine) dispatch(actions ...canvas.Action) {
	if err := e.store.Dispatch(actions...); err != nil {
		log.Printf("gesture: %v", err)
	}
}

func (e *Engine) schedule() {
	if e.frameRequested {
		return
	}
	e.frameRequested = true
	if e.requestFrame != nil {
		e.requestFrame()
	}
}

func (e *Engine) redraw() {
	if e.repaint != nil {
		e.repaint()
	}
}

func (e *Engine) blur() {
	if e.blurText != nil {
		e.blurText()
	}
}

func (e *Engine) world(screen geom.Point) geom.Point {
	vp := e.store.Viewport()
	return vp.ScreenToWorld(screen)
}

// hit returns a copy of the top-most shape at world and whether it is
// currently selected.
func (e *Engine) hit(world geom.Point) (shape.Shape, map[string]bool) {
	var (
		found    shape.Shape
		selected map[string]bool
	)
	e.store.Read(func(d *canvas.Document) {
		if s, ok := d.Shapes.HitTest(world); ok {
			found = s.Clone()
		}
		selected = make(map[string]bool, len(d.Selected))
		for id := range d.Selected {
			selected[id] = true
		}
	})
	return found, selected
}

// PointerDown starts a gesture.
func (e *Engine) PointerDown(p Pointer) {
	if p.Kind == PointerTouch {
		e.touches[p.ID] = p.Screen
	}
	if len(e.touches) > 1 {
		return
	}
	e.owner, e.touchGesture = p.ID, p.Kind == PointerTouch

	panButton := p.Button == ButtonMiddle || p.Button == ButtonSecondary
	if panButton || (p.Button == ButtonPrimary && e.handHeld) {
		mode := viewport.ModePanning
		if e.handHeld {
			mode = viewport.ModeShiftPanning
		}
		e.dispatch(canvas.PanStart{Screen: p.Screen, Mode: mode})
		e.state = StatePanning
		return
	}
	if p.Button != ButtonPrimary {
		return
	}

	world := e.world(p.Screen)
	switch tool := e.store.Tool(); tool {
	case canvas.ToolSelect:
		e.startSelect(world, p.Mods.Shift)
	case canvas.ToolEraser:
		e.state = StateErasing
		clear(e.erased)
		if s, _ := e.hit(world); s != nil {
			e.dispatch(canvas.RemoveShape{ID: s.ShapeID()})
			e.erased[s.ShapeID()] = true
		} else {
			e.blur()
		}
	case canvas.ToolText:
		e.dispatch(canvas.AddShape{Shape: shape.NewText(world)}, canvas.SetTool{Tool: canvas.ToolSelect})
	case canvas.ToolFreeDraw:
		e.state = StateDrawing
		e.freehand = []geom.Point{world}
		e.freehandDirty = true
		e.lastFreehandAt = e.now()
		e.schedule()
		e.redraw()
	case canvas.ToolFrame, canvas.ToolRect, canvas.ToolEllipse, canvas.ToolLine, canvas.ToolArrow:
		e.state = StateDrawing
		e.draft = &Draft{Tool: tool, Start: world, Current: world}
		e.redraw()
	}
}

func (e *Engine) startSelect(world geom.Point, extend bool) {
	hit, selected := e.hit(world)
	if hit == nil {
		if !extend {
			e.dispatch(canvas.ClearSelection{})
			e.blur()
		}
		return
	}
	id := hit.ShapeID()
	if !selected[id] {
		if !extend {
			clear(selected)
			e.dispatch(canvas.ClearSelection{}, canvas.SelectShape{ID: id})
		} else {
			e.dispatch(canvas.SelectShape{ID: id})
		}
		selected[id] = true
	}

	initial := make(map[string]shape.Shape, len(selected))
	e.store.Read(func(d *canvas.Document) {
		for sid := range selected {
			if s, ok := d.Shapes.Get(sid); ok {
				initial[sid] = s.Clone()
			}
		}
	})
	initial[id] = hit
	e.move = &moveSession{start: world, initial: initial}
	e.state = StateMoving
}

// PointerMove continues the active gesture.
func (e *Engine) PointerMove(p Pointer) {
	if p.Kind == PointerTouch {
		if _, ok := e.touches[p.ID]; ok {
			e.touches[p.ID] = p.Screen
		}
	}
	if len(e.touches) > 1 {
		return
	}

	if vp := e.store.Viewport(); vp.Panning() {
		e.pendingPan = p.Screen
		e.hasPendingPan = true
		e.schedule()
		return
	}

	world := e.world(p.Screen)
	switch e.state {
	case StateErasing:
		if s, _ := e.hit(world); s != nil && !e.erased[s.ShapeID()] {
			e.dispatch(canvas.RemoveShape{ID: s.ShapeID()})
			e.erased[s.ShapeID()] = true
		}
	case StateMoving:
		if e.move == nil {
			return
		}
		delta := world.Sub(e.move.start)
		actions := make([]canvas.Action, 0, len(e.move.initial))
		for id, s := range e.move.initial {
			actions = append(actions, geometryUpdate(id, shape.Translated(s, delta)))
		}
		e.dispatch(actions...)
	case StateDrawing:
		if e.draft != nil {
			e.draft.Current = world
			e.redraw()
		} else if e.freehand != nil {
			e.freehand = append(e.freehand, world)
			e.freehandDirty = true
			e.schedule()
		}
	}
}

// PointerUp finishes the active gesture.
func (e *Engine) PointerUp(p Pointer) {
	if p.Kind == PointerTouch {
		delete(e.touches, p.ID)
		if e.touchGesture && p.ID != e.owner && len(e.touches) > 0 {
			return
		}
	}
	e.touchGesture = false

	if vp := e.store.Viewport(); vp.Panning() {
		actions := []canvas.Action{}
		if e.hasPendingPan {
			actions = append(actions, canvas.PanMove{Screen: e.pendingPan})
			e.hasPendingPan = false
		}
		e.dispatch(append(actions, canvas.PanEnd{})...)
	}
	e.move = nil
	clear(e.erased)
	e.finishDrawing()
	if e.resize == nil {
		e.state = StateIdle
	}
}

// PointerCancel aborts like a release.
func (e *Engine) PointerCancel(p Pointer) { e.PointerUp(p) }

func (e *Engine) finishDrawing() {
	if e.state != StateDrawing {
		return
	}
	switch {
	case e.draft != nil:
		d := *e.draft
		e.draft = nil
		if s := e.commitDraft(d); s != nil {
			e.dispatch(canvas.AddShape{Shape: s})
		}
	case e.freehand != nil:
		pts := e.freehand
		e.freehand = nil
		e.freehandDirty = false
		if len(pts) > 1 {
			fd := shape.NewFreeDraw(pts)
			fd.Style = e.style
			e.dispatch(canvas.AddShape{Shape: fd})
		}
	}
	e.redraw()
}

func (e *Engine) commitDraft(d Draft) shape.Shape {
	b := d.Box()
	if !(b.W > 1 && b.H > 1) {
		return nil
	}
	switch d.Tool {
	case canvas.ToolFrame:
		return shape.NewFrame(b, 0)
	case canvas.ToolRect:
		r := shape.NewRect(b)
		r.Style = e.style
		return r
	case canvas.ToolEllipse:
		el := shape.NewEllipse(b)
		el.Style = e.style
		return el
	case canvas.ToolLine:
		l := shape.NewLine(d.Start, d.Current)
		l.Style = e.style
		return l
	case canvas.ToolArrow:
		a := shape.NewArrow(d.Start, d.Current)
		a.Style = e.style
		return a
	}
	return nil
}

// Wheel zooms with ctrl/meta held and pans otherwise. Pans are collected
// and applied on the next Frame.
func (e *Engine) Wheel(w Wheel) {
	if w.Mods.Ctrl || w.Mods.Meta {
		e.dispatch(canvas.WheelZoom{Origin: w.Screen, DeltaY: w.DY})
		return
	}
	dx, dy := w.DX, w.DY
	if w.Mods.Shift {
		dx, dy = w.DY, w.DX
	}
	e.pendingWheel = e.pendingWheel.Add(geom.Pt(-dx, -dy))
	e.hasWheel = true
	e.schedule()
}

// KeyDown handles the hand key. Auto-repeat is ignored.
func (e *Engine) KeyDown(k KeyEvent) {
	if k.Repeat || k.Key != e.handKey || k.Key == KeyOther {
		return
	}
	e.handHeld = true
}

// KeyUp releases the hand key.
func (e *Engine) KeyUp(k KeyEvent) {
	if k.Repeat || k.Key != e.handKey || k.Key == KeyOther {
		return
	}
	e.handHeld = false
}

// Frame runs the work coalesced since the last tick: one viewport update
// for all pending pans, and a freehand repaint when new points arrived at
// least FreehandInterval after the previous one. It reports whether the
// host should repaint.
func (e *Engine) Frame() bool {
	e.frameRequested = false
	repaint := false

	var actions []canvas.Action
	if e.hasPendingPan {
		actions = append(actions, canvas.PanMove{Screen: e.pendingPan})
		e.hasPendingPan = false
	}
	if e.hasWheel {
		actions = append(actions, canvas.WheelPan{DX: e.pendingWheel.X, DY: e.pendingWheel.Y})
		e.pendingWheel = geom.Point{}
		e.hasWheel = false
	}
	if len(actions) > 0 {
		e.dispatch(actions...)
		repaint = true
	}

	if e.state == StateDrawing && e.freehand != nil {
		now := e.now()
		if e.freehandDirty && now.Sub(e.lastFreehandAt) >= FreehandInterval {
			e.freehandDirty = false
			e.lastFreehandAt = now
			repaint = true
		}
		if e.freehandDirty {
			e.schedule()
		}
	}
	return repaint
}

// ResizeStart opens a resize session for an existing shape.
func (e *Engine) ResizeStart(ev ResizeEvent) {
	s, ok := e.store.Shape(ev.ShapeID)
	if !ok {
		return
	}
	e.resize = &resizeSession{
		Session: resize.Session{
			ShapeID: ev.ShapeID,
			Corner:  ev.Corner,
			Initial: ev.Bounds,
			Start:   geom.Pt(ev.ClientX, ev.ClientY),
		},
		original: s,
	}
	e.state = StateResizing
}

// ResizeMove refits the shape to the dragged corner.
func (e *Engine) ResizeMove(ev ResizeEvent) {
	if e.resize == nil {
		return
	}
	if _, ok := e.store.Shape(e.resize.ShapeID); !ok {
		return
	}
	world := e.world(geom.Pt(ev.ClientX, ev.ClientY))
	nb := resize.Bounds(e.resize.Corner, e.resize.Initial, world)
	e.dispatch(geometryUpdate(e.resize.ShapeID, resize.Apply(e.resize.original, nb)))
}

// geometryUpdate moves the live shape to the geometry of target. Fields
// written by other goroutines in the meantime, such as streamed markup,
// are kept.
func geometryUpdate(id string, target shape.Shape) canvas.Action {
	return canvas.UpdateShape{ID: id, Patch: func(cur shape.Shape) shape.Shape {
		return shape.WithGeometry(cur, target)
	}}
}

// ResizeEnd closes the resize session.
func (e *Engine) ResizeEnd(ResizeEvent) {
	e.resize = nil
	if e.state == StateResizing {
		e.state = StateIdle
	}
}

// Resizing returns the active resize session.
func (e *Engine) Resizing() (resize.Session, bool) {
	if e.resize == nil {
		return resize.Session{}, false
	}
	return e.resize.Session, true
}
