// Package canvas owns the editor document: the entity map, the selection,
// the active tool and the viewport. All changes go through Store.Dispatch.
package canvas

import (
	"slices"
	"sync"

	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/viewport"
)

// Document is the complete editor state of one open project.
type Document struct {
	Shapes   *shape.Map
	Selected map[string]bool
	Tool     Tool
	Viewport viewport.Viewport
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Shapes:   shape.NewMap(),
		Selected: make(map[string]bool),
		Tool:     ToolSelect,
		Viewport: viewport.New(),
	}
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := &Document{
		Shapes:   d.Shapes.Clone(),
		Selected: make(map[string]bool, len(d.Selected)),
		Tool:     d.Tool,
		Viewport: d.Viewport,
	}
	for id := range d.Selected {
		c.Selected[id] = true
	}
	return c
}

// SelectedIDs returns the selection in z-order.
func (d *Document) SelectedIDs() []string {
	var out []string
	for _, id := range d.Shapes.IDs() {
		if d.Selected[id] {
			out = append(out, id)
		}
	}
	return out
}

// Listener is called after every dispatch with the new revision.
type Listener func(rev uint64)

// Store serialises access to a Document.
type Store struct {
	mu        sync.Mutex
	doc       *Document
	rev       uint64
	nextID    int
	listeners map[int]Listener
}

// NewStore wraps doc, or a fresh document when doc is nil.
func NewStore(doc *Document) *Store {
	if doc == nil {
		doc = NewDocument()
	}
	return &Store{doc: doc, listeners: make(map[int]Listener)}
}

// Dispatch applies the actions in order as one change. Actions that fail
// stop the batch; earlier actions in the batch stay applied.
func (s *Store) Dispatch(actions ...Action) error {
	s.mu.Lock()
	var err error
	applied := 0
	for _, a := range actions {
		if err = a.apply(s.doc); err != nil {
			break
		}
		applied++
	}
	if applied > 0 {
		s.rev++
	}
	rev := s.rev
	ls := s.snapshotListeners()
	s.mu.Unlock()

	if applied > 0 {
		for _, l := range ls {
			l(rev)
		}
	}
	return err
}

func (s *Store) snapshotListeners() []Listener {
	keys := make([]int, 0, len(s.listeners))
	for k := range s.listeners {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]Listener, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.listeners[k])
	}
	return out
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Read runs fn with the live document under the store lock. fn must not
// retain the document or dispatch.
func (s *Store) Read(fn func(d *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Snapshot returns a deep copy of the document and its revision.
func (s *Store) Snapshot() (*Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), s.rev
}

// Revision returns the number of applied dispatches.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// Shape returns a copy of one shape.
func (s *Store) Shape(id string) (shape.Shape, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.doc.Shapes.Get(id)
	if !ok {
		return nil, false
	}
	return sh.Clone(), true
}

// Tool returns the active tool.
func (s *Store) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Tool
}

// Viewport returns a copy of the viewport.
func (s *Store) Viewport() viewport.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Viewport
}
