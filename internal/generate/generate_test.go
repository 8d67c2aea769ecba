package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/s2c/internal/canvas"
	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
)

type chunkReader struct{ chunks []string }

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(1000, 0)
	return func() time.Time {
		now := t
		t = t.Add(step)
		return now
	}
}

func storeWithUI(t *testing.T) (*canvas.Store, *shape.GeneratedUI) {
	t.Helper()
	s := canvas.NewStore(nil)
	ui := shape.NewGeneratedUI(geom.Box{W: 10, H: 10}, "", false)
	require.NoError(t, s.Dispatch(canvas.AddShape{Shape: ui}))
	return s, ui
}

func markup(t *testing.T, s *canvas.Store, id string) string {
	t.Helper()
	sh, ok := s.Shape(id)
	require.True(t, ok, "shape %s missing", id)
	return sh.(*shape.GeneratedUI).Markup()
}

func TestStreamThrottles(t *testing.T) {
	s, ui := storeWithUI(t)
	updates := 0
	s.Subscribe(func(uint64) { updates++ })

	r := &chunkReader{chunks: []string{"a", "b", "c", "d", "e", "f"}}
	err := stream(context.Background(), s, ui.ID, r, 200*time.Millisecond, steppingClock(50*time.Millisecond))
	require.NoError(t, err)
	// Chunks at 0ms and 200ms plus the final write.
	assert.Equal(t, 3, updates)
	assert.Equal(t, "abcdef", markup(t, s, ui.ID))
}

func TestStreamUnthrottledUpdatesEveryChunk(t *testing.T) {
	s, ui := storeWithUI(t)
	updates := 0
	s.Subscribe(func(uint64) { updates++ })

	r := &chunkReader{chunks: []string{"<a>", "b", "</a>"}}
	require.NoError(t, stream(context.Background(), s, ui.ID, r, 0, time.Now))
	assert.Equal(t, 4, updates)
	assert.Equal(t, "<a>b</a>", markup(t, s, ui.ID))
}

func TestStreamIntoRemovedShapeIsHarmless(t *testing.T) {
	s, ui := storeWithUI(t)
	require.NoError(t, s.Dispatch(canvas.RemoveShape{ID: ui.ID}))
	r := &chunkReader{chunks: []string{"x"}}
	require.NoError(t, stream(context.Background(), s, ui.ID, r, 0, time.Now))
	doc, _ := s.Snapshot()
	assert.Equal(t, 0, doc.Shapes.Len())
}

func TestCompleteRunes(t *testing.T) {
	assert.Equal(t, "a", string(completeRunes([]byte("a\xe2\x82"))))
	assert.Equal(t, "a€", string(completeRunes([]byte("a€"))))
	assert.Equal(t, "", string(completeRunes([]byte("\xe2"))))
	assert.Equal(t, "plain", string(completeRunes([]byte("plain"))))
}

func frameStore(t *testing.T) (*canvas.Store, *shape.Frame) {
	t.Helper()
	s := canvas.NewStore(nil)
	f := shape.NewFrame(geom.Box{X: 10, Y: 20, W: 300, H: 200}, 0)
	require.NoError(t, s.Dispatch(
		canvas.AddShape{Shape: f},
		canvas.AddShape{Shape: shape.NewRect(geom.Box{X: 30, Y: 40, W: 50, H: 50})},
	))
	return s, f
}

func TestDesign(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathDesign, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "1", r.FormValue("frameNumber"))
		assert.Equal(t, "p1", r.FormValue("projectId"))
		file, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "frame-1-snapshot.png", hdr.Filename)
		img, err := png.Decode(file)
		require.NoError(t, err)
		assert.Equal(t, 300, img.Bounds().Dx())

		io.WriteString(w, "<div>")
		w.(http.Flusher).Flush()
		io.WriteString(w, "hello</div>")
	}))
	defer srv.Close()

	s, f := frameStore(t)
	g := New(NewClient(srv.URL, srv.Client()), s, WithProjectID("p1"))
	id, err := g.Design(context.Background(), f.ID)
	require.NoError(t, err)

	sh, ok := s.Shape(id)
	require.True(t, ok)
	ui := sh.(*shape.GeneratedUI)
	assert.Equal(t, "<div>hello</div>", ui.Markup())
	assert.Equal(t, f.ID, ui.SourceFrameID)
	assert.False(t, ui.IsWorkflowPage)
	assert.Equal(t, geom.Box{X: 360, Y: 20, W: 400, H: 300}, ui.Box)
}

func TestDesignFailureRemovesPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s, f := frameStore(t)
	g := New(NewClient(srv.URL, nil), s)
	_, err := g.Design(context.Background(), f.ID)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.Contains(t, se.Error(), "quota exceeded")

	doc, _ := s.Snapshot()
	assert.Equal(t, 2, doc.Shapes.Len())
}

func TestDesignReportsProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<p>ok</p>")
	}))
	defer srv.Close()

	type event struct {
		id   string
		busy bool
		err  error
	}
	var events []event
	s, f := frameStore(t)
	g := New(NewClient(srv.URL, nil), s, WithProgress(func(id string, busy bool, err error) {
		events = append(events, event{id, busy, err})
	}))
	id, err := g.Design(context.Background(), f.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, event{id, true, nil}, events[0])
	assert.Equal(t, event{id, false, nil}, events[1])
}

func TestDesignRejectsNonFrame(t *testing.T) {
	s, ui := storeWithUI(t)
	g := New(NewClient("http://127.0.0.1:0", nil), s)
	_, err := g.Design(context.Background(), ui.ID)
	require.ErrorIs(t, err, ErrNotFrame)
	_, err = g.Design(context.Background(), "missing")
	require.ErrorIs(t, err, shape.ErrNotFound)
}

func TestWorkflow(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []WorkflowRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathWorkflow, r.URL.Path)
		var req WorkflowRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		if req.PageIndex == 2 {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "page-"+string(rune('0'+req.PageIndex)))
	}))
	defer srv.Close()

	s := canvas.NewStore(nil)
	html := "<main/>"
	src := shape.NewGeneratedUI(geom.Box{X: 0, Y: 5, W: 500, H: 100}, "frame-1", false)
	src.UISpecData = &html
	require.NoError(t, s.Dispatch(canvas.AddShape{Shape: src}))

	g := New(NewClient(srv.URL, nil), s, WithProjectID("p1"))
	ids, err := g.Workflow(context.Background(), src.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
	require.Len(t, ids, 3)

	doc, _ := s.Snapshot()
	assert.Equal(t, 4, doc.Shapes.Len(), "failed page placeholder should be gone")
	for _, id := range ids {
		sh, _ := doc.Shapes.Get(id)
		page := sh.(*shape.GeneratedUI)
		assert.True(t, page.IsWorkflowPage)
		assert.Equal(t, "frame-1", page.SourceFrameID)
		assert.Equal(t, 5.0, page.Y)
		assert.Equal(t, 500.0, page.W)
		assert.Equal(t, 300.0, page.H)
		assert.True(t, strings.HasPrefix(page.Markup(), "page-"))
	}

	require.Len(t, seen, WorkflowPages)
	for _, req := range seen {
		assert.Equal(t, src.ID, req.GeneratedUUID)
		assert.Equal(t, "p1", req.ProjectID)
		require.NotNil(t, req.CurrentHTML)
		assert.Equal(t, html, *req.CurrentHTML)
	}
}

func TestWorkflowBoxSpacing(t *testing.T) {
	ui := shape.NewGeneratedUI(geom.Box{X: 100, Y: 0, W: 300, H: 400}, "", false)
	assert.Equal(t, geom.Box{X: 500, Y: 0, W: 450, H: 400}, WorkflowBox(ui, 0))
	assert.Equal(t, 950.0, WorkflowBox(ui, 1).X)
	wide := shape.NewGeneratedUI(geom.Box{W: 600, H: 100}, "", false)
	assert.Equal(t, 700.0+650, WorkflowBox(wide, 1).X)
}

func TestRedesignAttachesSourceSnapshot(t *testing.T) {
	var got RedesignRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathRedesign, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, "<new/>")
	}))
	defer srv.Close()

	s, f := frameStore(t)
	old := "<old/>"
	ui := shape.NewGeneratedUI(DesignBox(f), f.ID, false)
	ui.UISpecData = &old
	require.NoError(t, s.Dispatch(canvas.AddShape{Shape: ui}))

	g := New(NewClient(srv.URL, nil), s, WithProjectID("p1"))
	require.NoError(t, g.Redesign(context.Background(), ui.ID, "make it blue"))

	assert.Equal(t, "<new/>", markup(t, s, ui.ID))
	assert.Equal(t, "make it blue", got.UserMessage)
	require.NotNil(t, got.CurrentHTML)
	assert.Equal(t, old, *got.CurrentHTML)
	require.NotNil(t, got.WireframeSnapshot)
	raw, err := base64.StdEncoding.DecodeString(*got.WireframeSnapshot)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
}

func TestRedesignWorkflowPage(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathWorkflowRedesign, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	s, f := frameStore(t)
	page := shape.NewGeneratedUI(geom.Box{W: 10, H: 10}, f.ID, true)
	require.NoError(t, s.Dispatch(canvas.AddShape{Shape: page}))

	g := New(NewClient(srv.URL, nil), s)
	require.NoError(t, g.Redesign(context.Background(), page.ID, "tweak"))
	_, has := body["wireframeSnapshot"]
	assert.False(t, has)
	assert.Equal(t, "ok", markup(t, s, page.ID))
}

func TestRedesignDanglingSourceStillSends(t *testing.T) {
	var got RedesignRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, "x")
	}))
	defer srv.Close()

	s := canvas.NewStore(nil)
	ui := shape.NewGeneratedUI(geom.Box{W: 10, H: 10}, "gone", false)
	require.NoError(t, s.Dispatch(canvas.AddShape{Shape: ui}))
	g := New(NewClient(srv.URL, nil), s)
	require.NoError(t, g.Redesign(context.Background(), ui.ID, "hi"))
	assert.Nil(t, got.WireframeSnapshot)
}

func TestCancelStopsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<partial>")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	s, ui := storeWithUI(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var once sync.Once
	updates := 0
	s.Subscribe(func(uint64) {
		updates++
		once.Do(cancel)
	})

	g := New(NewClient(srv.URL, nil), s)
	err := g.Redesign(ctx, ui.ID, "go")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, updates)
	assert.Equal(t, "<partial>", markup(t, s, ui.ID))
}
