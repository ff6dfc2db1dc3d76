package raster

import (
	"context"
	"errors"
	"runtime"

	"geometree/internal/core"
	"geometree/internal/field"

	"golang.org/x/sync/errgroup"
)

// ErrSize is returned when a frame does not match the viewport.
var ErrSize = errors.New("raster: frame size does not match viewport")

// Frame holds the per-cell influence field and classification for one
// snapshot.
type Frame struct {
	Version uint64
	Field   *core.Grid[float32]
	Class   *core.Grid[field.Color]
	// Index of the classifying point per cell, -1 for the fallback colour.
	Index *core.Grid[int32]

	warp      []float32
	warpTime  float64
	warpVP    Viewport
	warpAmp   float64
	warpValid bool
}

// NewFrame allocates a frame for a w×h viewport.
func NewFrame(w, h int) *Frame {
	return &Frame{
		Field: core.NewGrid[float32](w, h),
		Class: core.NewGrid[field.Color](w, h),
		Index: core.NewGrid[int32](w, h),
		warp:  make([]float32, 2*w*h),
	}
}

// Warp returns the per-cell planar warp offsets (dx, dy pairs) used for the
// last evaluation.
func (f *Frame) Warp() []float32 { return f.warp }

// Invalidate forces the next evaluation to recompute warp offsets.
func (f *Frame) Invalidate() { f.warpValid = false }

func (f *Frame) fits(vp Viewport) bool {
	return f.Field.W == vp.W && f.Field.H == vp.H
}

// Backend evaluates the influence kernel for every cell of a viewport. The
// per-cell warp offsets are computed by the caller so every backend sees the
// same displaced queries.
type Backend interface {
	Name() string
	Influence(ctx context.Context, snap *field.Snapshot, vp Viewport, warp []float32, out *Frame) error
}

// Influence fills out with the field and classification of snap over vp
// using backend b. Warp offsets are recomputed only when the snapshot time or
// the viewport changed.
func Influence(ctx context.Context, b Backend, snap *field.Snapshot, vp Viewport, out *Frame) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !out.fits(vp) {
		return ErrSize
	}
	if !out.warpValid || out.warpTime != snap.Time || out.warpVP != vp || out.warpAmp != snap.WarpAmplitude() {
		if err := forEachRow(ctx, 0, vp.H, func(y int) {
			for x := 0; x < vp.W; x++ {
				off := snap.WarpOffset(vp.Cell(x, y))
				i := 2 * (y*vp.W + x)
				out.warp[i] = float32(off.X)
				out.warp[i+1] = float32(off.Y)
			}
		}); err != nil {
			return err
		}
		out.warpTime, out.warpVP, out.warpAmp, out.warpValid = snap.Time, vp, snap.WarpAmplitude(), true
	}
	if err := b.Influence(ctx, snap, vp, out.warp, out); err != nil {
		return err
	}
	out.Version = snap.Version
	return nil
}

// CPU evaluates frames on goroutines, splitting rows into chunks.
type CPU struct {
	// Workers caps concurrent chunks; zero uses GOMAXPROCS.
	Workers int
}

// Name identifies the backend.
func (CPU) Name() string { return "cpu" }

// Influence implements Backend.
func (c CPU) Influence(ctx context.Context, snap *field.Snapshot, vp Viewport, warp []float32, out *Frame) error {
	if !out.fits(vp) || len(warp) < 2*vp.W*vp.H {
		return ErrSize
	}
	return forEachRow(ctx, c.Workers, vp.H, func(y int) {
		fieldRow := out.Field.Row(y)
		classRow := out.Class.Row(y)
		indexRow := out.Index.Row(y)
		for x := 0; x < vp.W; x++ {
			i := 2 * (y*vp.W + x)
			w := vp.Cell(x, y)
			w.X += float64(warp[i])
			w.Y += float64(warp[i+1])
			fieldRow[x] = float32(snap.FieldWarped(w))
			cls := snap.ClassifyWarped(w)
			classRow[x] = cls.Color
			indexRow[x] = int32(cls.Index)
		}
	})
}

// MetaballFrame holds the per-cell metaball field and blended colour.
type MetaballFrame struct {
	Version uint64
	Field   *core.Grid[float32]
	Color   *core.Grid[field.Color]
}

// NewMetaballFrame allocates a metaball frame for a w×h viewport.
func NewMetaballFrame(w, h int) *MetaballFrame {
	return &MetaballFrame{
		Field: core.NewGrid[float32](w, h),
		Color: core.NewGrid[field.Color](w, h),
	}
}

// Metaball fills out with the metaball field of snap. The X distance is
// scaled by the viewport aspect.
func Metaball(ctx context.Context, workers int, snap *field.Snapshot, vp Viewport, out *MetaballFrame) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out.Field.W != vp.W || out.Field.H != vp.H {
		return ErrSize
	}
	aspect := vp.Aspect()
	err := forEachRow(ctx, workers, vp.H, func(y int) {
		fieldRow := out.Field.Row(y)
		colorRow := out.Color.Row(y)
		for x := 0; x < vp.W; x++ {
			p := vp.Cell(x, y)
			fieldRow[x] = float32(snap.Metaball(p, aspect))
			colorRow[x] = snap.MetaballColor(p, aspect)
		}
	})
	if err != nil {
		return err
	}
	out.Version = snap.Version
	return nil
}

// forEachRow runs fn for every row in [0, h) on up to workers goroutines.
// Rows are grouped into chunks; ctx is checked between chunks.
func forEachRow(ctx context.Context, workers, h int, fn func(y int)) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := h / (workers * 4)
	if chunk < 1 {
		chunk = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < h; start += chunk {
		start := start
		end := min(start+chunk, h)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for y := start; y < end; y++ {
				fn(y)
			}
			return nil
		})
	}
	return g.Wait()
}
