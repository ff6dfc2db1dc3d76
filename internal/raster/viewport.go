package raster

import "geometree/internal/field"

// Viewport maps a W×H cell grid onto a world-space rectangle. Row 0 is the
// top edge (MaxY); column 0 is the left edge (MinX).
type Viewport struct {
	W, H       int
	MinX, MinY float64
	MaxX, MaxY float64
}

// Square returns a viewport of w×h cells centred on the origin covering
// extent world units on each axis.
func Square(w, h int, extent float64) Viewport {
	half := extent / 2
	return Viewport{W: w, H: h, MinX: -half, MinY: -half, MaxX: half, MaxY: half}
}

// CellSize returns the world size of one cell.
func (v Viewport) CellSize() (dx, dy float64) {
	return (v.MaxX - v.MinX) / float64(v.W), (v.MaxY - v.MinY) / float64(v.H)
}

// Cell returns the world position of the centre of cell (x, y).
func (v Viewport) Cell(x, y int) field.Vec3 {
	return v.At(float64(x)+0.5, float64(y)+0.5)
}

// At converts fractional cell coordinates to a world position.
func (v Viewport) At(fx, fy float64) field.Vec3 {
	dx, dy := v.CellSize()
	return field.Vec3{X: v.MinX + fx*dx, Y: v.MaxY - fy*dy}
}

// ToCell converts a world position to fractional cell coordinates.
func (v Viewport) ToCell(p field.Vec3) (fx, fy float64) {
	dx, dy := v.CellSize()
	return (p.X - v.MinX) / dx, (v.MaxY - p.Y) / dy
}

// UV returns the [0, 1] coordinates of the centre of cell (x, y) with v
// growing upwards.
func (v Viewport) UV(x, y int) (float64, float64) {
	return (float64(x) + 0.5) / float64(v.W), 1 - (float64(y)+0.5)/float64(v.H)
}

// Aspect returns the world width/height ratio.
func (v Viewport) Aspect() float64 {
	h := v.MaxY - v.MinY
	if h == 0 {
		return 1
	}
	return (v.MaxX - v.MinX) / h
}

// Params flattens the viewport for device upload:
// (W, H, MinX, MaxY, dx, dy).
func (v Viewport) Params() []float32 {
	dx, dy := v.CellSize()
	return []float32{float32(v.W), float32(v.H), float32(v.MinX), float32(v.MaxY), float32(dx), float32(dy)}
}
