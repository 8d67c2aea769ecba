package canvas

import (
	"errors"
	"fmt"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/viewport"
)

// Action is a mutation request understood by Store.Dispatch.
type Action interface {
	apply(d *Document) error
}

// AddShape puts a new shape on top of the z-order.
type AddShape struct{ Shape shape.Shape }

func (a AddShape) apply(d *Document) error {
	if a.Shape == nil {
		return errors.New("add shape: nil shape")
	}
	if f, ok := a.Shape.(*shape.Frame); ok && f.FrameNumber == 0 {
		f.FrameNumber = d.Shapes.NextFrameNumber()
	}
	return d.Shapes.Add(a.Shape)
}

// UpdateShape replaces a shape with Patch applied to a copy of it. A
// missing ID is ignored so late updates to deleted shapes are harmless.
type UpdateShape struct {
	ID    string
	Patch func(shape.Shape) shape.Shape
}

func (a UpdateShape) apply(d *Document) error {
	cur, ok := d.Shapes.Get(a.ID)
	if !ok || a.Patch == nil {
		return nil
	}
	next := a.Patch(cur.Clone())
	if next == nil {
		return nil
	}
	if next.ShapeID() != a.ID {
		return fmt.Errorf("update %s: patch changed id to %s", a.ID, next.ShapeID())
	}
	return d.Shapes.Replace(next)
}

// RemoveShape deletes a shape and drops it from the selection.
type RemoveShape struct{ ID string }

func (a RemoveShape) apply(d *Document) error {
	d.Shapes.Remove(a.ID)
	delete(d.Selected, a.ID)
	return nil
}

// RemoveSelected deletes every selected shape.
type RemoveSelected struct{}

func (RemoveSelected) apply(d *Document) error {
	for id := range d.Selected {
		d.Shapes.Remove(id)
	}
	clear(d.Selected)
	return nil
}

// SelectShape adds a live shape to the selection.
type SelectShape struct{ ID string }

func (a SelectShape) apply(d *Document) error {
	if d.Shapes.Has(a.ID) {
		d.Selected[a.ID] = true
	}
	return nil
}

// ClearSelection empties the selection.
type ClearSelection struct{}

func (ClearSelection) apply(d *Document) error {
	clear(d.Selected)
	return nil
}

// SetTool changes the active tool.
type SetTool struct{ Tool Tool }

func (a SetTool) apply(d *Document) error {
	d.Tool = a.Tool
	return nil
}

// PanStart enters a pan gesture at a screen point.
type PanStart struct {
	Screen geom.Point
	Mode   viewport.Mode
}

func (a PanStart) apply(d *Document) error {
	d.Viewport.PanStart(a.Screen, a.Mode)
	return nil
}

// PanMove moves the active pan to a new screen point.
type PanMove struct{ Screen geom.Point }

func (a PanMove) apply(d *Document) error {
	d.Viewport.PanMove(a.Screen)
	return nil
}

// PanEnd leaves the pan gesture.
type PanEnd struct{}

func (PanEnd) apply(d *Document) error {
	d.Viewport.PanEnd()
	return nil
}

// WheelPan shifts the viewport by a screen delta.
type WheelPan struct{ DX, DY float64 }

func (a WheelPan) apply(d *Document) error {
	d.Viewport.PanBy(a.DX, a.DY)
	return nil
}

// WheelZoom zooms around a screen origin.
type WheelZoom struct {
	Origin geom.Point
	DeltaY float64
}

func (a WheelZoom) apply(d *Document) error {
	d.Viewport.ZoomAt(a.Origin, a.DeltaY)
	return nil
}

// ResetViewport returns to the origin at scale 1.
type ResetViewport struct{}

func (ResetViewport) apply(d *Document) error {
	d.Viewport.Reset()
	return nil
}

// Load replaces the shapes and viewport with persisted state.
type Load struct {
	Shapes   *shape.Map
	Viewport viewport.Data
}

func (a Load) apply(d *Document) error {
	if a.Shapes == nil {
		d.Shapes = shape.NewMap()
	} else {
		d.Shapes = a.Shapes.Clone()
	}
	clear(d.Selected)
	d.Viewport.Restore(a.Viewport)
	return nil
}

// Clear removes every shape and the selection.
type Clear struct{}

func (Clear) apply(d *Document) error {
	d.Shapes.Clear()
	clear(d.Selected)
	return nil
}
