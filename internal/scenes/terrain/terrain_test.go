package terrain

import (
	"io"
	"log"
	"math"
	"strings"
	"testing"

	"geometree/internal/core"
	"geometree/internal/field"
	"geometree/internal/store"
)

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 32, 32
	cfg.Workers = 2
	cfg.Field.WarpAmplitude = 0
	s := New(cfg)
	s.SetLogger(log.New(io.Discard, "", 0))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRegistered(t *testing.T) {
	factory, ok := core.Scenes()[Name]
	if !ok {
		t.Fatalf("%q not registered", Name)
	}
	sc := factory(map[string]string{"w": "16", "h": "8", "warp_amplitude": "0"})
	defer sc.(*Scene).Close()
	if sc.Size() != (core.Size{W: 16, H: 8}) {
		t.Fatalf("size = %+v", sc.Size())
	}
	if _, ok := sc.(core.Interactive); !ok {
		t.Fatal("terrain does not accept input")
	}
	if _, ok := sc.(core.LabelProvider); !ok {
		t.Fatal("terrain does not provide labels")
	}
}

func TestPlaceIdeaWithPointer(t *testing.T) {
	s := newTestScene(t)
	s.PointerDown(16, 16)
	if !s.Creating() || s.ev.Len() != 1 {
		t.Fatalf("creating=%v len=%d after press", s.Creating(), s.ev.Len())
	}
	s.PointerDown(2, 2)
	if s.ev.Len() != 1 {
		t.Fatal("second press while placing created a point")
	}
	p, _ := s.ev.Point(0)
	if p.Position != (field.Vec3{}) {
		t.Fatalf("point at %+v, want origin", p.Position)
	}

	s.PointerMove(8, 16)
	p, _ = s.ev.Point(0)
	if math.Abs(p.Position.X+0.875) > 1e-12 || p.Position.Y != 0 {
		t.Fatalf("moved point at %+v", p.Position)
	}

	s.Wheel(100)
	if r, _ := s.ev.Radius(0); math.Abs(r-0.15) > 1e-12 {
		t.Fatalf("radius after wheel = %v, want 0.15", r)
	}
	if s.zoom != 1 {
		t.Fatalf("wheel zoomed while placing: %v", s.zoom)
	}

	s.Enter()
	if s.Creating() {
		t.Fatal("still placing after Enter")
	}
	s.Wheel(100)
	if math.Abs(s.zoom-0.9) > 1e-12 {
		t.Fatalf("zoom = %v, want 0.9", s.zoom)
	}
}

func TestTypingEditsLabel(t *testing.T) {
	s := newTestScene(t)
	s.PointerDown(16, 16)
	s.TypeText([]rune("Peäk"))
	s.Backspace()
	s.TypeText([]rune("k!"))
	s.Enter()
	ideas := s.ideas.Ideas()
	if len(ideas) != 1 || ideas[0].Text != "Peäk!" || ideas[0].Editing {
		t.Fatalf("ideas = %+v", ideas)
	}
	s.TypeText([]rune("x"))
	if got := s.ideas.Ideas()[0].Text; got != "Peäk!" {
		t.Fatalf("typing after Enter changed the label to %q", got)
	}
}

func TestStepRendersFrame(t *testing.T) {
	s := newTestScene(t)
	s.PointerDown(16, 16)
	s.Enter()
	s.Step()

	if s.frame.Version != s.ev.Version() {
		t.Fatalf("frame version %d, evaluator %d", s.frame.Version, s.ev.Version())
	}
	if s.ev.Time() <= 0 {
		t.Fatal("Step did not advance the warp clock")
	}
	if got := s.frame.Field.At(16, 16); got >= 0 {
		t.Fatalf("field under the point = %v, want negative", got)
	}
	if got := s.frame.Field.At(0, 0); got != 0 {
		t.Fatalf("field at the corner = %v, want 0", got)
	}
	var lit bool
	for _, b := range s.Pixels() {
		if b != 0 {
			lit = true
			break
		}
	}
	if !lit {
		t.Fatal("pixels are all zero")
	}
}

func TestLabelsFollowIdeas(t *testing.T) {
	s := newTestScene(t)
	s.PointerDown(16, 16)
	s.TypeText([]rune("Hill"))
	labels := s.Labels()
	if len(labels) != 1 {
		t.Fatalf("labels = %+v", labels)
	}
	l := labels[0]
	if l.Text != "Hill" || !l.Editing || !l.Visible || math.Abs(l.X-16) > 1e-9 || math.Abs(l.Y-16) > 1e-9 {
		t.Fatalf("label = %+v", l)
	}
	if l.Lift <= 0 {
		t.Fatalf("lift = %v, want above the surface", l.Lift)
	}
}

func TestParametersRetuneEvaluator(t *testing.T) {
	s := newTestScene(t)
	if !s.SetFloatParameter("warp_amplitude", 0.3) {
		t.Fatal("warp_amplitude rejected")
	}
	if got := s.ev.Config().WarpAmplitude; got != 0.3 {
		t.Fatalf("warp amplitude = %v", got)
	}
	if s.SetFloatParameter("threshold", -1) {
		t.Fatal("negative threshold accepted")
	}
	if s.SetFloatParameter("nope", 1) {
		t.Fatal("unknown key accepted")
	}
	if !s.SetFloatParameter("zoom", 100) || s.zoom != s.cfg.MaxZoom {
		t.Fatalf("zoom = %v, want clamp to %v", s.zoom, s.cfg.MaxZoom)
	}

	var found bool
	for _, g := range s.Parameters().Groups {
		for _, p := range g.Params {
			if p.Key == "warp_amplitude" && p.Value == "0.3" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("snapshot does not report the new amplitude")
	}
}

func TestTruncateDropsIdeas(t *testing.T) {
	s := newTestScene(t)
	s.PointerDown(16, 16)
	s.Enter()
	s.PointerDown(4, 4)
	if s.SetIntParameter("points", 5) {
		t.Fatal("growing through the HUD accepted")
	}
	if !s.SetIntParameter("points", 1) {
		t.Fatal("truncate rejected")
	}
	if s.ev.Len() != 1 || s.ideas.Len() != 1 || s.Creating() {
		t.Fatalf("len=%d ideas=%d creating=%v", s.ev.Len(), s.ideas.Len(), s.Creating())
	}
}

func TestRecordRestore(t *testing.T) {
	s := newTestScene(t)
	s.PointerDown(16, 16)
	s.TypeText([]rune("Ridge"))
	s.Enter()
	s.PointerDown(8, 8)
	s.Enter()
	s.Step()

	rec := s.Record()
	if rec.Kind != Name || len(rec.Points) != 2 || rec.Points[0].Text != "Ridge" || rec.Points[0].IdeaID == "" {
		t.Fatalf("record = %+v", rec)
	}

	other := newTestScene(t)
	if err := other.Restore(rec); err != nil {
		t.Fatal(err)
	}
	if other.ev.Len() != 2 || other.ev.Time() != s.ev.Time() {
		t.Fatalf("restored len=%d time=%v", other.ev.Len(), other.ev.Time())
	}
	ideas := other.ideas.Ideas()
	if len(ideas) != 2 || ideas[0].Text != "Ridge" || ideas[0].ID.String() != rec.Points[0].IdeaID {
		t.Fatalf("restored ideas = %+v", ideas)
	}
	if other.frame.Field.At(16, 16) != s.frame.Field.At(16, 16) {
		t.Fatal("restored field differs")
	}
}

func TestRestoreRejectsForeignKind(t *testing.T) {
	s := newTestScene(t)
	err := s.Restore(store.SceneRecord{Kind: "metaball"})
	if err == nil || !strings.Contains(err.Error(), "metaball") {
		t.Fatalf("err = %v", err)
	}
}

func TestRestoreKeepsEmptySlots(t *testing.T) {
	s := newTestScene(t)
	s.PointerDown(16, 16)
	s.TypeText([]rune("Ridge"))
	s.Enter()
	if err := s.SetActiveLength(3); err != nil {
		t.Fatal(err)
	}
	if idx, err := s.ev.CreatePoint(field.Vec3{X: 1}, 0.4); err != nil || idx != 3 {
		t.Fatalf("CreatePoint = %d, %v", idx, err)
	}
	if err := s.SetActiveLength(5); err != nil {
		t.Fatal(err)
	}
	want := s.ev.Points()

	if err := s.Restore(s.Record()); err != nil {
		t.Fatalf("Restore of own record failed: %v", err)
	}
	got := s.ev.Points()
	if len(got) != len(want) {
		t.Fatalf("restored len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if r, _ := s.ev.Radius(1); r != 0 {
		t.Fatalf("empty slot radius = %v", r)
	}
	if ideas := s.ideas.Ideas(); len(ideas) != 1 || ideas[0].Text != "Ridge" {
		t.Fatalf("ideas = %+v", ideas)
	}
}

func TestResetReseedsWarp(t *testing.T) {
	s := newTestScene(t)
	s.Reset(9)
	if got := s.ev.Config().WarpSeed; got != 9 {
		t.Fatalf("warp seed after Reset(9) = %d", got)
	}
	s.Reset(0)
	if got := s.ev.Config().WarpSeed; got != 9 {
		t.Fatalf("Reset(0) changed the warp seed to %d", got)
	}
	if cfg := FromMap(map[string]string{"seed": "4"}); cfg.Field.WarpSeed != 4 {
		t.Fatalf("seed key warp seed = %d", cfg.Field.WarpSeed)
	}
}
