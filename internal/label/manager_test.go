package label

import (
	"errors"
	"io"
	"log"
	"math"
	"testing"

	"geometree/internal/field"

	"github.com/rs/xid"
)

// syncSource answers immediately from the live evaluator.
type syncSource struct{ ev *field.Evaluator }

func (s syncSource) ElevationAtFunc(pos field.Vec3, fn func(field.Result)) {
	fn(field.Result{Query: pos, Value: s.ev.Elevation(pos)})
}

// heldSource keeps callbacks until released, to deliver results out of order.
type heldSource struct {
	pending []func()
}

func (h *heldSource) ElevationAtFunc(pos field.Vec3, fn func(field.Result)) {
	h.pending = append(h.pending, func() { fn(field.Result{Query: pos, Value: pos.X}) })
}

func newTestManager(t *testing.T) (*Manager, *field.Evaluator) {
	t.Helper()
	cfg := field.DefaultConfig()
	cfg.Capacity = 8
	cfg.WarpAmplitude = 0
	ev := field.New(cfg)
	ev.SetLogger(log.New(io.Discard, "", 0))
	m := NewManager(DefaultConfig(), ev, syncSource{ev: ev})
	m.SetLogger(log.New(io.Discard, "", 0))
	return m, ev
}

func TestAddIdeaCreatesPoint(t *testing.T) {
	m, ev := newTestManager(t)
	idea, err := m.AddIdea("", field.Vec3{X: 0.2, Y: -0.1, Z: 9})
	if err != nil {
		t.Fatal(err)
	}
	if idea.Index != 0 || ev.Len() != 1 {
		t.Fatalf("idea index %d, evaluator len %d", idea.Index, ev.Len())
	}
	if idea.Text != "New Point" || !idea.Editing || idea.ID.IsNil() {
		t.Fatalf("idea = %+v", idea)
	}
	p, _ := ev.Point(0)
	if p.Radius != 0.25 || p.Position != (field.Vec3{X: 0.2, Y: -0.1}) {
		t.Fatalf("point = %+v, want radius 0.25 at z=0", p)
	}
}

func TestHeightFollowsElevation(t *testing.T) {
	m, _ := newTestManager(t)
	a, _ := m.AddIdea("a", field.Vec3{X: 1, Y: 1})
	b, _ := m.AddIdea("b", field.Vec3{})

	// Stack both points so the elevation under them is -2.
	if err := m.MoveTo(a.ID, field.Vec3{}); err != nil {
		t.Fatal(err)
	}
	m.Update(DefaultCamera())
	got, _ := m.Get(a.ID)
	if math.Abs(got.Height-0.30) > 1e-12 {
		t.Fatalf("height after move = %v, want 0.30", got.Height)
	}

	// The recalculation queued by the first Update lands on the next one.
	m.Update(DefaultCamera())
	got, _ = m.Get(b.ID)
	if math.Abs(got.Height-0.45) > 1e-12 || got.Elevation != -2 {
		t.Fatalf("height after recalc = %v (elevation %v), want 0.45", got.Height, got.Elevation)
	}
}

func TestVisibilityAndOpacity(t *testing.T) {
	m, _ := newTestManager(t)
	a, _ := m.AddIdea("a", field.Vec3{})
	m.AddIdea("b", field.Vec3{})

	far := Camera{Scale: 0.5, Position: field.Vec3{X: 2, Y: 2, Z: 2}}
	m.Update(far)
	m.Update(far)
	got, _ := m.Get(a.ID)
	if got.Visible {
		t.Fatal("deep label visible at scale 0.5")
	}

	// Camera 2 units above the anchor: fully opaque.
	near := Camera{Scale: 1, Position: field.Vec3{Y: 0.45 + 2}}
	m.Update(near)
	got, _ = m.Get(a.ID)
	if !got.Visible || math.Abs(got.Opacity-1) > 1e-9 {
		t.Fatalf("near label visible=%v opacity=%v", got.Visible, got.Opacity)
	}

	// 3.5 units away at scale 1: halfway through the fade.
	mid := Camera{Scale: 1, Position: field.Vec3{Y: 0.45 + 3.5}}
	m.Update(mid)
	got, _ = m.Get(a.ID)
	if math.Abs(got.Opacity-0.5) > 1e-9 {
		t.Fatalf("mid opacity = %v, want 0.5", got.Opacity)
	}
}

func TestAdjustRadiusClamps(t *testing.T) {
	m, ev := newTestManager(t)
	idea, _ := m.AddIdea("a", field.Vec3{})
	if err := m.AdjustRadius(idea.ID, 100); err != nil {
		t.Fatal(err)
	}
	if r, _ := ev.Radius(idea.Index); math.Abs(r-0.15) > 1e-12 {
		t.Fatalf("radius after wheel = %v, want 0.15", r)
	}
	if err := m.AdjustRadius(idea.ID, 1e6); err != nil {
		t.Fatal(err)
	}
	if r, _ := ev.Radius(idea.Index); r != m.Config().MinRadius {
		t.Fatalf("radius = %v, want clamp to %v", r, m.Config().MinRadius)
	}
}

func TestRenameAndFinish(t *testing.T) {
	m, _ := newTestManager(t)
	idea, _ := m.AddIdea("draft", field.Vec3{})
	if err := m.Rename(idea.ID, "Mountain"); err != nil {
		t.Fatal(err)
	}
	if err := m.Finish(idea.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := m.Get(idea.ID)
	if got.Text != "Mountain" || got.Editing {
		t.Fatalf("idea = %+v", got)
	}
}

func TestUnknownIdea(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.MoveTo(xid.New(), field.Vec3{}); !errors.Is(err, ErrUnknownIdea) {
		t.Fatalf("err = %v", err)
	}
}

func TestCapacityErrorSurfaces(t *testing.T) {
	cfg := field.DefaultConfig()
	cfg.Capacity = 1
	ev := field.New(cfg)
	ev.SetLogger(log.New(io.Discard, "", 0))
	m := NewManager(DefaultConfig(), ev, nil)
	if _, err := m.AddIdea("a", field.Vec3{}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddIdea("b", field.Vec3{}); !errors.Is(err, field.ErrCapacityExceeded) {
		t.Fatalf("err = %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d", m.Len())
	}
}

func TestLastArrivingResultWins(t *testing.T) {
	cfg := field.DefaultConfig()
	cfg.WarpAmplitude = 0
	ev := field.New(cfg)
	src := &heldSource{}
	m := NewManager(DefaultConfig(), ev, src)
	idea, _ := m.AddIdea("a", field.Vec3{X: -1})
	m.MoveTo(idea.ID, field.Vec3{X: -2})
	m.MoveTo(idea.ID, field.Vec3{X: -3})

	// Deliver newest first; the oldest query arrives last and sticks.
	for i := len(src.pending) - 1; i >= 0; i-- {
		src.pending[i]()
	}
	m.Update(DefaultCamera())
	got, _ := m.Get(idea.ID)
	if got.Elevation != -1 {
		t.Fatalf("elevation = %v, want the last delivered value -1", got.Elevation)
	}
}

func TestRestoreAdoptsIdeas(t *testing.T) {
	m, ev := newTestManager(t)
	ev.CreatePoint(field.Vec3{X: 0.5}, 0.3)
	id := xid.New()
	m.Restore([]Idea{{ID: id, Index: 0, Text: "saved", Position: field.Vec3{X: 0.5}, Radius: 0.3, Editing: true}})
	got, ok := m.Get(id)
	if !ok || got.Editing || got.Text != "saved" {
		t.Fatalf("restored idea = %+v, %v", got, ok)
	}
	if _, err := m.AddIdea("next", field.Vec3{}); err != nil {
		t.Fatal(err)
	}
	if ideas := m.Ideas(); len(ideas) != 2 || ideas[1].Index != 1 {
		t.Fatalf("ideas = %+v", ideas)
	}
}

func TestTruncateDropsCutIdeas(t *testing.T) {
	m, ev := newTestManager(t)
	a, _ := m.AddIdea("a", field.Vec3{})
	b, _ := m.AddIdea("b", field.Vec3{X: 1})
	if err := ev.SetActiveLength(1); err != nil {
		t.Fatal(err)
	}
	m.Truncate(1)
	if _, ok := m.Get(b.ID); ok {
		t.Fatal("idea past the cut survived")
	}
	if _, ok := m.Get(a.ID); !ok || m.Len() != 1 {
		t.Fatalf("Len = %d after truncate", m.Len())
	}
}
