package field

import (
	"image/color"
	"math"
)

// Vec3 is a position in field space. Only X and Y take part in distance
// calculations; Z is carried through unchanged.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Scale multiplies every component by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s} }

// PlanarDist returns the XY distance between v and o.
func (v Vec3) PlanarDist(o Vec3) float64 { return math.Hypot(v.X-o.X, v.Y-o.Y) }

// Dist returns the full 3D distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Color is a linear RGB triple. Components are not clamped and may exceed 1.
type Color struct {
	R, G, B float64
}

// RGB8 builds a Color from 0-255 components divided by div.
func RGB8(r, g, b uint8, div float64) Color {
	if div == 0 {
		div = 255
	}
	return Color{R: float64(r) / div, G: float64(g) / div, B: float64(b) / div}
}

// Scale multiplies every channel by s.
func (c Color) Scale(s float64) Color { return Color{R: c.R * s, G: c.G * s, B: c.B * s} }

// Add returns the channel-wise sum of c and o.
func (c Color) Add(o Color) Color { return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B} }

// RGBA converts the colour to 8-bit RGBA, clamping each channel to [0, 1].
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: unit8(c.R), G: unit8(c.G), B: unit8(c.B), A: 255}
}

func unit8(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// ControlPoint is one influence source: a position, a radius of influence and
// a classification colour.
type ControlPoint struct {
	Position Vec3
	Radius   float64
	Color    Color
}

// active reports whether the point takes part in evaluation. Slots exposed by
// growing the active length past never-written entries carry a zero radius.
func (p ControlPoint) active() bool { return p.Radius > 0 }

// Classification is the outcome of a nearest-point lookup.
type Classification struct {
	// Index of the matching point, -1 when nothing was within the threshold.
	Index int
	Color Color
	Found bool
}
