// Package autosave persists the open document after it has been quiet for
// a while, keeping at most one save in flight.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/viewport"
)

// Defaults for the quiet period and how long a result stays on screen.
const (
	DefaultDebounce  = 3 * time.Second
	DefaultSavedHold = 2 * time.Second
	DefaultErrorHold = 3 * time.Second
)

// Status is the coordinator state shown to the user.
type Status int

const (
	StatusIdle Status = iota
	StatusSaving
	StatusSaved
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	}
	return "idle"
}

// Saver writes a project's shapes and viewport somewhere durable.
type Saver interface {
	Save(ctx context.Context, projectID string, shapes json.RawMessage, vp viewport.Data) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, projectID string, shapes json.RawMessage, vp viewport.Data) error

func (f SaverFunc) Save(ctx context.Context, projectID string, shapes json.RawMessage, vp viewport.Data) error {
	return f(ctx, projectID, shapes, vp)
}

// Timer is the part of *time.Timer the coordinator uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce sets the quiet period before a save.
func WithDebounce(d time.Duration) Option { return func(c *Coordinator) { c.debounce = d } }

// WithHolds sets how long saved and error stay visible before idle.
func WithHolds(saved, failed time.Duration) Option {
	return func(c *Coordinator) { c.savedHold, c.errorHold = saved, failed }
}

// WithAfterFunc replaces time.AfterFunc.
func WithAfterFunc(f AfterFunc) Option { return func(c *Coordinator) { c.afterFunc = f } }

// WithStatusFunc registers a callback for status changes. err is set for
// StatusError.
func WithStatusFunc(f func(Status, error)) Option { return func(c *Coordinator) { c.onStatus = f } }

type pending struct {
	fingerprint string
	shapes      json.RawMessage
	viewport    viewport.Data
}

type change struct {
	status Status
	err    error
}

// Coordinator debounces document changes into saves.
type Coordinator struct {
	projectID string
	saver     Saver

	debounce  time.Duration
	savedHold time.Duration
	errorHold time.Duration
	afterFunc AfterFunc
	onStatus  func(Status, error)

	mu        sync.Mutex
	status    Status
	lastSaved string
	next      *pending
	timer     Timer
	holdTimer Timer
	cancel    context.CancelFunc
	seq       uint64
	closed    bool
	wg        sync.WaitGroup
}

// New creates a coordinator for one project.
func New(projectID string, saver Saver, opts ...Option) *Coordinator {
	c := &Coordinator{
		projectID: projectID,
		saver:     saver,
		debounce:  DefaultDebounce,
		savedHold: DefaultSavedHold,
		errorHold: DefaultErrorHold,
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fingerprint is the structural serialization compared between saves.
func Fingerprint(shapes *shape.Map, vp viewport.Data) (string, json.RawMessage, error) {
	raw, err := json.Marshal(shapes)
	if err != nil {
		return "", nil, fmt.Errorf("marshal shapes: %w", err)
	}
	fp, err := json.Marshal(struct {
		Shapes   json.RawMessage `json:"shapes"`
		Viewport viewport.Data   `json:"viewport"`
	}{raw, vp})
	if err != nil {
		return "", nil, fmt.Errorf("marshal fingerprint: %w", err)
	}
	return string(fp), raw, nil
}

// MarkSaved records state that is already persisted, such as the document
// just loaded, so it does not trigger a save.
func (c *Coordinator) MarkSaved(doc *canvas.Document) {
	fp, _, err := Fingerprint(doc.Shapes, doc.Viewport.Data())
	if err != nil {
		return
	}
	c.mu.Lock()
	c.lastSaved = fp
	c.mu.Unlock()
}

// Observe schedules a save of doc unless it matches the last save.
func (c *Coordinator) Observe(doc *canvas.Document) {
	vp := doc.Viewport.Data()
	fp, raw, err := Fingerprint(doc.Shapes, vp)
	if err != nil {
		log.Printf("autosave: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if fp == c.lastSaved {
		c.next = nil
		return
	}
	c.next = &pending{fingerprint: fp, shapes: raw, viewport: vp}
	c.timer = c.afterFunc(c.debounce, c.fire)
}

// Attach observes every dispatch on store and returns the unsubscribe
// function.
func (c *Coordinator) Attach(store *canvas.Store) func() {
	return store.Subscribe(func(uint64) {
		doc, _ := store.Snapshot()
		c.Observe(doc)
	})
}

// Flush starts any pending save immediately.
func (c *Coordinator) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.fire()
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	if c.closed || c.next == nil {
		c.mu.Unlock()
		return
	}
	p := c.next
	c.next = nil
	c.timer = nil
	c.lastSaved = p.fingerprint
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.seq++
	seq := c.seq
	changes := c.setStatus(StatusSaving, nil)
	c.wg.Add(1)
	c.mu.Unlock()
	c.emit(changes)

	go func() {
		defer c.wg.Done()
		err := c.saver.Save(ctx, c.projectID, p.shapes, p.viewport)
		c.finish(seq, err)
	}()
}

func (c *Coordinator) finish(seq uint64, err error) {
	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.cancel = nil
	var changes []change
	switch {
	case errors.Is(err, context.Canceled):
		changes = c.setStatus(StatusIdle, nil)
	case err != nil:
		log.Printf("autosave: project %s: %v", c.projectID, err)
		changes = c.setStatus(StatusError, err)
		c.hold(seq, c.errorHold)
	default:
		changes = c.setStatus(StatusSaved, nil)
		c.hold(seq, c.savedHold)
	}
	c.mu.Unlock()
	c.emit(changes)
}

// hold reverts to idle after d unless a newer save started. Caller holds mu.
func (c *Coordinator) hold(seq uint64, d time.Duration) {
	if c.holdTimer != nil {
		c.holdTimer.Stop()
	}
	c.holdTimer = c.afterFunc(d, func() {
		c.mu.Lock()
		if c.closed || seq != c.seq || c.status == StatusSaving {
			c.mu.Unlock()
			return
		}
		changes := c.setStatus(StatusIdle, nil)
		c.mu.Unlock()
		c.emit(changes)
	})
}

// setStatus records s and returns the change to emit. Caller holds mu.
func (c *Coordinator) setStatus(s Status, err error) []change {
	if c.status == s && err == nil {
		return nil
	}
	c.status = s
	return []change{{s, err}}
}

func (c *Coordinator) emit(changes []change) {
	if c.onStatus == nil {
		return
	}
	for _, ch := range changes {
		c.onStatus(ch.status, ch.err)
	}
}

// Status returns the current state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close stops pending timers, cancels the in-flight save and waits for it
// to return.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.holdTimer != nil {
		c.holdTimer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}
