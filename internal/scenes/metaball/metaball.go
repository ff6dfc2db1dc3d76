// Package metaball is the metaball scene: coloured balls in UV space blend
// into blobs with a white outline band.
package metaball

import (
	"context"
	"fmt"
	"log"
	"os"

	"geometree/internal/core"
	"geometree/internal/field"
	"geometree/internal/raster"
	"geometree/internal/render"
	"geometree/internal/store"
)

// Name is the registry key of the scene.
const Name = "metaball"

// Scene renders metaballs over the unit square.
type Scene struct {
	cfg Config

	ev     *field.Evaluator
	vp     raster.Viewport
	frame  *raster.MetaballFrame
	shader *render.Metaball
	pixels []byte

	rng      *core.RNG
	stale    bool
	seed     int64
	dragging int

	logger *log.Logger
}

// New builds a metaball scene from cfg.
func New(cfg Config) *Scene {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		d := DefaultConfig()
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	return &Scene{
		cfg:      cfg,
		ev:       field.New(cfg.Field),
		vp:       raster.Viewport{W: cfg.Width, H: cfg.Height, MaxX: 1, MaxY: 1},
		frame:    raster.NewMetaballFrame(cfg.Width, cfg.Height),
		shader:   render.NewMetaball(),
		pixels:   make([]byte, 4*cfg.Width*cfg.Height),
		rng:      core.NewRNG(cfg.Seed),
		stale:    true,
		seed:     cfg.Seed,
		dragging: -1,
		logger:   log.New(os.Stderr, "(metaball) > ", log.LstdFlags),
	}
}

// SetLogger routes scene and evaluator logs to l.
func (s *Scene) SetLogger(l *log.Logger) {
	if l == nil {
		return
	}
	s.logger = l
	s.ev.SetLogger(l)
}

// Name returns the scene identifier.
func (s *Scene) Name() string { return Name }

// Size reports the grid dimensions.
func (s *Scene) Size() core.Size { return core.Size{W: s.cfg.Width, H: s.cfg.Height} }

// Pixels exposes the RGBA buffer of the last Step.
func (s *Scene) Pixels() []byte { return s.pixels }

// Evaluator exposes the field evaluator. Mutate it only from the goroutine
// that steps the scene.
func (s *Scene) Evaluator() *field.Evaluator { return s.ev }

// Frame exposes the last raster frame.
func (s *Scene) Frame() *raster.MetaballFrame { return s.frame }

// Viewport returns the UV viewport.
func (s *Scene) Viewport() raster.Viewport { return s.vp }

// Reset clears the balls and drops one randomly placed, randomly coloured
// ball.
func (s *Scene) Reset(seed int64) {
	if seed != 0 {
		s.seed = seed
	}
	s.rng = core.NewRNG(s.seed)
	s.ev.Clear()
	s.dragging = -1
	pos := field.Vec3{X: s.rng.Range(0.2, 0.8), Y: s.rng.Range(0.2, 0.8)}
	if _, err := s.ev.CreateColoredPoint(pos, s.cfg.SeedRadius, s.randomColor()); err != nil {
		s.logger.Printf("seed ball: %v", err)
	}
	s.render()
}

// Step publishes the current balls and rasterizes them.
func (s *Scene) Step() { s.render() }

func (s *Scene) render() {
	snap := s.ev.Commit()
	if !s.stale && snap.Version == s.frame.Version {
		return
	}
	if err := raster.Metaball(context.Background(), s.cfg.Workers, snap, s.vp, s.frame); err != nil {
		s.logger.Printf("raster failed: %v", err)
		return
	}
	s.shader.Shade(s.pixels, s.frame)
	s.stale = false
}

// AddBall drops a ball at a UV position with a random colour.
func (s *Scene) AddBall(uv field.Vec3, radius float64) (int, error) {
	return s.ev.CreateColoredPoint(uv, radius, s.randomColor())
}

func (s *Scene) randomColor() field.Color {
	return field.Color{R: s.rng.Float64(), G: s.rng.Float64(), B: s.rng.Float64()}
}

// PointerDown adds a ball under the pointer and starts dragging it.
func (s *Scene) PointerDown(x, y float64) {
	idx, err := s.AddBall(s.vp.At(x, y), s.cfg.BallRadius)
	if err != nil {
		return
	}
	s.dragging = idx
}

// PointerMove drags the ball added by the last press.
func (s *Scene) PointerMove(x, y float64) {
	if s.dragging < 0 {
		return
	}
	_ = s.ev.UpdatePoint(s.dragging, s.vp.At(x, y))
}

// PointerUp ends dragging.
func (s *Scene) PointerUp(x, y float64) { s.dragging = -1 }

// Wheel grows or shrinks the newest ball. Positive dy scrolls down and
// shrinks it.
func (s *Scene) Wheel(dy float64) {
	if s.ev.Len() == 0 {
		return
	}
	_ = s.ev.AddRadiusToPoint(s.ev.Len()-1, -dy*s.cfg.WheelFactor)
}

// TypeText is unused by the metaball scene.
func (s *Scene) TypeText([]rune) {}

// Backspace removes the newest ball.
func (s *Scene) Backspace() {
	if n := s.ev.Len(); n > 0 {
		_ = s.ev.SetActiveLength(n - 1)
		if s.dragging >= n-1 {
			s.dragging = -1
		}
	}
}

// Enter is unused by the metaball scene.
func (s *Scene) Enter() {}

// SetActiveLength cuts or grows the ball list.
func (s *Scene) SetActiveLength(n int) error {
	if err := s.ev.SetActiveLength(n); err != nil {
		return err
	}
	if s.dragging >= n {
		s.dragging = -1
	}
	return nil
}

// Close is a no-op; the metaball scene holds no workers.
func (s *Scene) Close() error { return nil }

// Record captures the scene for persistence.
func (s *Scene) Record() store.SceneRecord {
	return store.SceneRecord{Kind: Name, Capacity: s.ev.Cap(), Time: s.ev.Time(), Points: store.PointRecords(s.ev)}
}

// Restore replaces the balls with rec.
func (s *Scene) Restore(rec store.SceneRecord) error {
	if rec.Kind != "" && rec.Kind != Name {
		return fmt.Errorf("metaball: cannot restore a %q scene", rec.Kind)
	}
	if len(rec.Points) > s.ev.Cap() {
		return fmt.Errorf("%w: %d balls saved, capacity %d", field.ErrCapacityExceeded, len(rec.Points), s.ev.Cap())
	}
	s.ev.Clear()
	s.dragging = -1
	if err := store.RestorePoints(s.ev, rec.Points); err != nil {
		s.ev.Clear()
		return err
	}
	s.ev.SetTime(rec.Time)
	s.render()
	return nil
}

func init() {
	core.Register(Name, func(cfg map[string]string) core.Scene {
		return New(FromMap(cfg))
	})
}
