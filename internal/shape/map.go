package shape

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

var (
	// ErrNotFound is returned when an ID is not in the map.
	ErrNotFound = errors.New("shape not found")
	// ErrDuplicateID is returned when adding an ID that already exists.
	ErrDuplicateID = errors.New("duplicate shape id")
	// ErrKindMismatch is returned when a replacement changes a shape's variant.
	ErrKindMismatch = errors.New("shape kind cannot change")
)

// Map is an insertion-ordered collection of shapes keyed by ID. Order is
// z-order: later shapes draw on top and are hit first.
type Map struct {
	ids  []string
	byID map[string]Shape
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{byID: make(map[string]Shape)}
}

// Len returns the number of shapes.
func (m *Map) Len() int { return len(m.ids) }

// Get returns the shape with the given ID.
func (m *Map) Get(id string) (Shape, bool) {
	s, ok := m.byID[id]
	return s, ok
}

// Has reports whether id is present.
func (m *Map) Has(id string) bool {
	_, ok := m.byID[id]
	return ok
}

// Add appends s on top of the z-order.
func (m *Map) Add(s Shape) error {
	id := s.ShapeID()
	if id == "" {
		return fmt.Errorf("add %s: empty id", s.Kind())
	}
	if _, ok := m.byID[id]; ok {
		return fmt.Errorf("add %s %s: %w", s.Kind(), id, ErrDuplicateID)
	}
	if m.byID == nil {
		m.byID = make(map[string]Shape)
	}
	m.ids = append(m.ids, id)
	m.byID[id] = s
	return nil
}

// Replace swaps the stored shape for s, keeping its z position.
func (m *Map) Replace(s Shape) error {
	id := s.ShapeID()
	old, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("replace %s: %w", id, ErrNotFound)
	}
	if old.Kind() != s.Kind() {
		return fmt.Errorf("replace %s (%s -> %s): %w", id, old.Kind(), s.Kind(), ErrKindMismatch)
	}
	m.byID[id] = s
	return nil
}

// Remove deletes id and reports whether it was present.
func (m *Map) Remove(id string) bool {
	if _, ok := m.byID[id]; !ok {
		return false
	}
	delete(m.byID, id)
	if i := slices.Index(m.ids, id); i >= 0 {
		m.ids = slices.Delete(m.ids, i, i+1)
	}
	return true
}

// Clear removes every shape.
func (m *Map) Clear() {
	m.ids = nil
	m.byID = make(map[string]Shape)
}

// IDs returns the identifiers in z-order.
func (m *Map) IDs() []string {
	return slices.Clone(m.ids)
}

// All yields shapes bottom to top.
func (m *Map) All() iter.Seq[Shape] {
	return func(yield func(Shape) bool) {
		for _, id := range m.ids {
			if !yield(m.byID[id]) {
				return
			}
		}
	}
}

// TopDown yields shapes top to bottom.
func (m *Map) TopDown() iter.Seq[Shape] {
	return func(yield func(Shape) bool) {
		for i := len(m.ids) - 1; i >= 0; i-- {
			if !yield(m.byID[m.ids[i]]) {
				return
			}
		}
	}
}

// Shapes returns the shapes bottom to top.
func (m *Map) Shapes() []Shape {
	out := make([]Shape, 0, len(m.ids))
	for s := range m.All() {
		out = append(out, s)
	}
	return out
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	c := &Map{ids: slices.Clone(m.ids), byID: make(map[string]Shape, len(m.byID))}
	for id, s := range m.byID {
		c.byID[id] = s.Clone()
	}
	return c
}

// Frames returns the frames bottom to top.
func (m *Map) Frames() []*Frame {
	var out []*Frame
	for s := range m.All() {
		if f, ok := s.(*Frame); ok {
			out = append(out, f)
		}
	}
	return out
}

// FrameByNumber finds a frame by its display number.
func (m *Map) FrameByNumber(n int) (*Frame, bool) {
	for _, f := range m.Frames() {
		if f.FrameNumber == n {
			return f, true
		}
	}
	return nil, false
}

// NextFrameNumber returns one more than the highest frame number in use.
func (m *Map) NextFrameNumber() int {
	next := 1
	for _, f := range m.Frames() {
		if f.FrameNumber >= next {
			next = f.FrameNumber + 1
		}
	}
	return next
}

// SourceFrame resolves the weak back-reference of a generated UI block.
// It reports false when the ID is empty, missing or no longer a frame.
func (m *Map) SourceFrame(g *GeneratedUI) (*Frame, bool) {
	if g == nil || g.SourceFrameID == "" {
		return nil, false
	}
	s, ok := m.byID[g.SourceFrameID]
	if !ok {
		return nil, false
	}
	f, ok := s.(*Frame)
	return f, ok
}
