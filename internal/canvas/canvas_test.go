package canvas

import (
	"testing"

	"github.com/example/s2c/internal/geom"
	"github.com/example/s2c/internal/shape"
)

func TestDispatchNotifiesOncePerBatch(t *testing.T) {
	s := NewStore(nil)
	var calls []uint64
	unsub := s.Subscribe(func(rev uint64) { calls = append(calls, rev) })
	r := shape.NewRect(geom.Box{W: 10, H: 10})
	if err := s.Dispatch(AddShape{r}, SelectShape{r.ID}); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0] != 1 {
		t.Fatalf("listener calls = %v, want [1]", calls)
	}
	unsub()
	_ = s.Dispatch(ClearSelection{})
	if len(calls) != 1 {
		t.Fatalf("listener called after unsubscribe")
	}
}

func TestRemoveDropsSelection(t *testing.T) {
	s := NewStore(nil)
	r := shape.NewRect(geom.Box{W: 10, H: 10})
	_ = s.Dispatch(AddShape{r}, SelectShape{r.ID})
	_ = s.Dispatch(RemoveShape{r.ID})
	doc, _ := s.Snapshot()
	if len(doc.Selected) != 0 || doc.Shapes.Len() != 0 {
		t.Fatalf("selection %v, shapes %d after remove", doc.Selected, doc.Shapes.Len())
	}
}

func TestSelectIgnoresUnknownID(t *testing.T) {
	s := NewStore(nil)
	_ = s.Dispatch(SelectShape{"missing"})
	doc, _ := s.Snapshot()
	if len(doc.Selected) != 0 {
		t.Fatalf("selected unknown id: %v", doc.Selected)
	}
}

func TestUpdateMissingShapeIsNoop(t *testing.T) {
	s := NewStore(nil)
	err := s.Dispatch(UpdateShape{ID: "gone", Patch: func(sh shape.Shape) shape.Shape { return sh }})
	if err != nil {
		t.Fatalf("update of missing shape: %v", err)
	}
}

func TestUpdateWorksOnCopy(t *testing.T) {
	s := NewStore(nil)
	r := shape.NewRect(geom.Box{W: 10, H: 10})
	_ = s.Dispatch(AddShape{r})
	before, _ := s.Shape(r.ID)
	_ = s.Dispatch(UpdateShape{ID: r.ID, Patch: func(sh shape.Shape) shape.Shape {
		sh.(*shape.Rect).X = 99
		return sh
	}})
	if before.(*shape.Rect).X != 0 {
		t.Fatalf("earlier copy mutated")
	}
	after, _ := s.Shape(r.ID)
	if after.(*shape.Rect).X != 99 {
		t.Fatalf("update not applied")
	}
}

func TestAddFrameAssignsNumber(t *testing.T) {
	s := NewStore(nil)
	a := shape.NewFrame(geom.Box{W: 10, H: 10}, 0)
	b := shape.NewFrame(geom.Box{W: 10, H: 10}, 0)
	_ = s.Dispatch(AddShape{a}, AddShape{b})
	if a.FrameNumber != 1 || b.FrameNumber != 2 {
		t.Fatalf("frame numbers = %d, %d", a.FrameNumber, b.FrameNumber)
	}
}

func TestParseToolAndShortcuts(t *testing.T) {
	for _, tool := range Tools() {
		got, err := ParseTool(tool.String())
		if err != nil || got != tool {
			t.Fatalf("ParseTool(%s) = %v, %v", tool, got, err)
		}
		r, ok := ToolForShortcut(tool.Shortcut())
		if !ok || r != tool {
			t.Fatalf("shortcut %q maps to %v", tool.Shortcut(), r)
		}
	}
	if _, err := ParseTool("lasso"); err == nil {
		t.Fatalf("expected error for unknown tool")
	}
}
