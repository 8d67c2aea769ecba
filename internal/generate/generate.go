package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/snapshot"
)

// Layout and streaming constants.
const (
	DefaultThrottle = 200 * time.Millisecond
	WorkflowPages   = 4

	designGap      = 50.0
	designMinW     = 400.0
	designMinH     = 300.0
	workflowGap    = 100.0
	workflowMinW   = 450.0
	workflowMinH   = 300.0
	workflowMargin = 50.0
)

var (
	ErrNotFrame       = errors.New("shape is not a frame")
	ErrNotGeneratedUI = errors.New("shape is not a generated ui")
)

// Option configures a Generator.
type Option func(*Generator)

// WithProjectID tags requests with the open project.
func WithProjectID(id string) Option { return func(g *Generator) { g.projectID = id } }

// WithThrottle sets the minimum gap between throttled payload updates.
func WithThrottle(d time.Duration) Option { return func(g *Generator) { g.throttle = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

// WithProgress reports when a generated UI starts and stops receiving a
// stream. err is the failure that ended it, if any.
func WithProgress(fn func(id string, busy bool, err error)) Option {
	return func(g *Generator) { g.progress = fn }
}

// Generator runs generation requests against one canvas.
type Generator struct {
	client    *Client
	store     *canvas.Store
	projectID string
	throttle  time.Duration
	now       func() time.Time
	progress  func(id string, busy bool, err error)
}

func (g *Generator) report(id string, busy bool, err error) {
	if g.progress != nil {
		g.progress(id, busy, err)
	}
}

// New returns a generator writing into store.
func New(client *Client, store *canvas.Store, opts ...Option) *Generator {
	g := &Generator{client: client, store: store, throttle: DefaultThrottle, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) frame(id string) (*shape.Frame, []shape.Shape, error) {
	var (
		f      *shape.Frame
		shapes []shape.Shape
		err    error
	)
	g.store.Read(func(d *canvas.Document) {
		s, ok := d.Shapes.Get(id)
		if !ok {
			err = fmt.Errorf("%s: %w", id, shape.ErrNotFound)
			return
		}
		fr, ok := s.(*shape.Frame)
		if !ok {
			err = fmt.Errorf("%s: %w", id, ErrNotFrame)
			return
		}
		f = fr.Clone().(*shape.Frame)
		shapes = cloneAll(d.Shapes)
	})
	return f, shapes, err
}

func (g *Generator) generated(id string) (*shape.GeneratedUI, error) {
	s, ok := g.store.Shape(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, shape.ErrNotFound)
	}
	ui, ok := s.(*shape.GeneratedUI)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotGeneratedUI)
	}
	return ui, nil
}

func cloneAll(m *shape.Map) []shape.Shape {
	out := make([]shape.Shape, 0, m.Len())
	for s := range m.All() {
		out = append(out, s.Clone())
	}
	return out
}

// DesignBox is where the result for frame f is placed.
func DesignBox(f *shape.Frame) geom.Box {
	return geom.Box{
		X: f.X + f.W + designGap,
		Y: f.Y,
		W: math.Max(designMinW, f.W),
		H: math.Max(designMinH, f.H),
	}
}

// WorkflowBox is where workflow page i for ui is placed.
func WorkflowBox(ui *shape.GeneratedUI, i int) geom.Box {
	spacing := math.Max(workflowMinW, ui.W+workflowMargin)
	return geom.Box{
		X: ui.X + ui.W + workflowGap + spacing*float64(i),
		Y: ui.Y,
		W: math.Max(workflowMinW, ui.W),
		H: math.Max(workflowMinH, ui.H),
	}
}

// Design snapshots a frame, sends it for generation and streams the
// result into a new generated UI shape beside the frame. It returns the
// new shape's id.
func (g *Generator) Design(ctx context.Context, frameID string) (string, error) {
	f, shapes, err := g.frame(frameID)
	if err != nil {
		return "", err
	}
	img, err := snapshot.PNG(f, shapes)
	if err != nil {
		return "", fmt.Errorf("snapshot frame %d: %w", f.FrameNumber, err)
	}

	ui := shape.NewGeneratedUI(DesignBox(f), f.ID, false)
	if err := g.store.Dispatch(canvas.AddShape{Shape: ui}); err != nil {
		return "", err
	}
	g.report(ui.ID, true, nil)
	body, err := g.client.Design(ctx, DesignRequest{
		Image:       img,
		FileName:    snapshot.FileName(f),
		FrameNumber: f.FrameNumber,
		ProjectID:   g.projectID,
	})
	if err != nil {
		_ = g.store.Dispatch(canvas.RemoveShape{ID: ui.ID})
		g.report(ui.ID, false, err)
		return "", err
	}
	defer body.Close()
	if err := stream(ctx, g.store, ui.ID, body, g.throttle, g.now); err != nil {
		err = fmt.Errorf("design stream: %w", err)
		g.report(ui.ID, false, err)
		return ui.ID, err
	}
	g.report(ui.ID, false, nil)
	return ui.ID, nil
}

// Workflow generates WorkflowPages follow-up pages for a generated UI
// concurrently. It returns the ids of the pages that completed and the
// joined errors of those that did not.
func (g *Generator) Workflow(ctx context.Context, generatedID string) ([]string, error) {
	src, err := g.generated(generatedID)
	if err != nil {
		return nil, err
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  = make([]string, WorkflowPages)
		errs []error
	)
	for i := 0; i < WorkflowPages; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := g.workflowPage(ctx, src, i)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("workflow page %d: %v", i, err)
				errs = append(errs, fmt.Errorf("page %d: %w", i, err))
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	done := ids[:0]
	for _, id := range ids {
		if id != "" {
			done = append(done, id)
		}
	}
	return done, errors.Join(errs...)
}

func (g *Generator) workflowPage(ctx context.Context, src *shape.GeneratedUI, i int) (string, error) {
	page := shape.NewGeneratedUI(WorkflowBox(src, i), src.SourceFrameID, true)
	if err := g.store.Dispatch(canvas.AddShape{Shape: page}); err != nil {
		return "", err
	}
	g.report(page.ID, true, nil)
	body, err := g.client.Workflow(ctx, WorkflowRequest{
		GeneratedUUID: src.ID,
		CurrentHTML:   src.UISpecData,
		ProjectID:     g.projectID,
		PageIndex:     i,
	})
	if err != nil {
		_ = g.store.Dispatch(canvas.RemoveShape{ID: page.ID})
		g.report(page.ID, false, err)
		return "", err
	}
	defer body.Close()
	err = stream(ctx, g.store, page.ID, body, g.throttle, g.now)
	g.report(page.ID, false, err)
	if err != nil {
		return "", err
	}
	return page.ID, nil
}

// Redesign asks for a revision of a generated UI following message and
// streams it over the existing payload, updating on every chunk. Shapes
// that are not workflow pages attach a snapshot of their source frame
// when it still exists.
func (g *Generator) Redesign(ctx context.Context, generatedID, message string) error {
	ui, err := g.generated(generatedID)
	if err != nil {
		return err
	}
	req := RedesignRequest{
		UserMessage:   message,
		GeneratedUUID: ui.ID,
		CurrentHTML:   ui.UISpecData,
		ProjectID:     g.projectID,
	}
	if !ui.IsWorkflowPage {
		var (
			f      *shape.Frame
			shapes []shape.Shape
		)
		g.store.Read(func(d *canvas.Document) {
			if fr, ok := d.Shapes.SourceFrame(ui); ok {
				f = fr.Clone().(*shape.Frame)
				shapes = cloneAll(d.Shapes)
			}
		})
		if f == nil {
			log.Printf("redesign %s: source frame not found", ui.ID)
		} else if b64, err := snapshot.Base64(f, shapes); err != nil {
			log.Printf("redesign %s: snapshot: %v", ui.ID, err)
		} else {
			req.WireframeSnapshot = &b64
		}
	}

	g.report(ui.ID, true, nil)
	body, err := g.client.Redesign(ctx, req, ui.IsWorkflowPage)
	if err != nil {
		g.report(ui.ID, false, err)
		return err
	}
	defer body.Close()
	if err := stream(ctx, g.store, ui.ID, body, 0, g.now); err != nil {
		err = fmt.Errorf("redesign stream: %w", err)
		g.report(ui.ID, false, err)
		return err
	}
	g.report(ui.ID, false, nil)
	return nil
}
