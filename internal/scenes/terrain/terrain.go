// Package terrain is the stepped-terrain scene: labelled control points
// carve a warped influence field that is shaded as banded elevation.
package terrain

import (
	"context"
	"io"
	"log"
	"os"

	"geometree/internal/core"
	"geometree/internal/field"
	"geometree/internal/label"
	"geometree/internal/raster"
	"geometree/internal/render"

	"github.com/rs/xid"
)

// Name is the registry key of the scene.
const Name = "terrain"

// Scene renders the influence field of its ideas as terrain.
type Scene struct {
	cfg Config

	ev      *field.Evaluator
	queries *field.Querier
	ideas   *label.Manager

	backend raster.Backend
	cpu     raster.CPU
	frame   *raster.Frame
	shader  *render.Terrain
	pixels  []byte

	zoom     float64
	creating xid.ID

	logger *log.Logger
}

// New builds a terrain scene from cfg.
func New(cfg Config) *Scene {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		d := DefaultConfig()
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	ev := field.New(cfg.Field)
	queries := field.NewQuerier(ev, cfg.QueryWorkers)
	s := &Scene{
		cfg:     cfg,
		ev:      ev,
		queries: queries,
		ideas:   label.NewManager(cfg.Label, ev, queries),
		cpu:     raster.CPU{Workers: cfg.Workers},
		frame:   raster.NewFrame(cfg.Width, cfg.Height),
		shader:  render.NewTerrain(),
		pixels:  make([]byte, 4*cfg.Width*cfg.Height),
		zoom:    cfg.Zoom,
		logger:  log.New(os.Stderr, "(terrain) > ", log.LstdFlags),
	}
	s.backend = s.cpu
	return s
}

// SetLogger routes scene, evaluator and label logs to l.
func (s *Scene) SetLogger(l *log.Logger) {
	if l == nil {
		return
	}
	s.logger = l
	s.ev.SetLogger(l)
	s.ideas.SetLogger(l)
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

// Querier exposes the asynchronous query pool.
func (s *Scene) Querier() *field.Querier { return s.queries }

// Ideas exposes the label manager.
func (s *Scene) Ideas() *label.Manager { return s.ideas }

// Frame exposes the last raster frame.
func (s *Scene) Frame() *raster.Frame { return s.frame }

// Viewport returns the world rectangle currently on screen.
func (s *Scene) Viewport() raster.Viewport {
	return raster.Square(s.cfg.Width, s.cfg.Height, s.cfg.Extent/s.zoom)
}

// Camera returns the label camera for the current zoom.
func (s *Scene) Camera() label.Camera {
	cam := label.DefaultCamera()
	cam.Scale = s.zoom
	return cam
}

// SetBackend switches the raster backend. A nil backend restores the CPU.
func (s *Scene) SetBackend(b raster.Backend) {
	if b == nil {
		b = s.cpu
	}
	s.closeBackend()
	s.backend = b
	s.frame.Invalidate()
	s.logger.Printf("raster backend: %s", b.Name())
}

// Backend returns the active raster backend.
func (s *Scene) Backend() raster.Backend { return s.backend }

// Reset drops every idea and point and rewinds the warp clock. A non-zero
// seed reseeds the warp noise; zero keeps the current noise.
func (s *Scene) Reset(seed int64) {
	if fc := s.ev.Config(); seed != 0 && seed != fc.WarpSeed {
		fc.WarpSeed = seed
		s.ev.Retune(fc)
		s.frame.Invalidate()
	}
	s.ideas.Reset()
	s.ev.Clear()
	s.creating = xid.NilID()
	s.render()
}

// Step advances the warp clock, publishes a snapshot, rasterizes it and
// refreshes the labels.
func (s *Scene) Step() {
	s.ev.Advance(s.cfg.TimeStep)
	s.render()
	s.ideas.Update(s.Camera())
}

func (s *Scene) render() {
	snap := s.ev.Commit()
	vp := s.Viewport()
	if err := raster.Influence(context.Background(), s.backend, snap, vp, s.frame); err != nil {
		if s.backend.Name() == s.cpu.Name() {
			s.logger.Printf("raster failed: %v", err)
			return
		}
		s.logger.Printf("%s raster failed, falling back to cpu: %v", s.backend.Name(), err)
		s.SetBackend(nil)
		if err := raster.Influence(context.Background(), s.backend, snap, vp, s.frame); err != nil {
			s.logger.Printf("raster failed: %v", err)
			return
		}
	}
	s.shader.Shade(s.pixels, s.frame, vp)
}

// Labels implements core.LabelProvider.
func (s *Scene) Labels() []core.Label {
	vp := s.Viewport()
	_, dy := vp.CellSize()
	ideas := s.ideas.Ideas()
	out := make([]core.Label, 0, len(ideas))
	for _, idea := range ideas {
		x, y := vp.ToCell(idea.Position)
		out = append(out, core.Label{
			Text:    idea.String(),
			X:       x,
			Y:       y,
			Lift:    idea.Height / dy,
			Opacity: idea.Opacity,
			Visible: idea.Visible || idea.Editing,
			Editing: idea.Editing,
		})
	}
	return out
}

// Close stops the query workers and releases the raster backend.
func (s *Scene) Close() error {
	s.queries.Close()
	return s.closeBackend()
}

func (s *Scene) closeBackend() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func init() {
	core.Register(Name, func(cfg map[string]string) core.Scene {
		return New(FromMap(cfg))
	})
}
