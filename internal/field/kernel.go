package field

import "math"

// minMetaballDist2 keeps the inverse-square metaball kernel finite at a ball centre.
const minMetaballDist2 = 1e-12

// influence sums the linear falloff of every point at the (already warped)
// query w. Each point contributes -(1 - min(d/r, 1)), so the field is 0 past
// every radius and -1 at a point centre.
func influence(points []ControlPoint, w Vec3) float64 {
	var f float64
	for _, p := range points {
		if !p.active() {
			continue
		}
		d := p.Position.PlanarDist(w)
		f -= 1 - math.Min(d/p.Radius, 1)
	}
	return f
}

// classify returns the lowest-indexed point whose planar distance to w is
// strictly below threshold. A later point does not win even if it is closer.
func classify(points []ControlPoint, w Vec3, threshold float64, fallback Color) Classification {
	for i, p := range points {
		if !p.active() {
			continue
		}
		if p.Position.PlanarDist(w) < threshold {
			return Classification{Index: i, Color: p.Color, Found: true}
		}
	}
	return Classification{Index: -1, Color: fallback}
}

// metaball sums r²/d² with the X axis scaled by aspect.
func metaball(points []ControlPoint, uv Vec3, aspect float64) float64 {
	var f float64
	for _, p := range points {
		if !p.active() {
			continue
		}
		f += p.Radius * p.Radius / metaballDist2(p.Position, uv, aspect)
	}
	return f
}

// metaballColor blends point colours weighted by their clamped influence.
// Influence saturates to 1 once r²/d² exceeds 0.99; the sum is normalised
// when the total influence exceeds 0.1 and is black otherwise.
func metaballColor(points []ControlPoint, uv Vec3, aspect float64) Color {
	var c Color
	var total float64
	for _, p := range points {
		if !p.active() {
			continue
		}
		w := p.Radius * p.Radius / metaballDist2(p.Position, uv, aspect)
		if w > 0.99 {
			w = 1
		}
		c = c.Add(p.Color.Scale(w))
		total += w
	}
	if total > 0.1 {
		return c.Scale(1 / total)
	}
	return Color{}
}

func metaballDist2(p, uv Vec3, aspect float64) float64 {
	dx := (uv.X - p.X) * aspect
	dy := uv.Y - p.Y
	d2 := dx*dx + dy*dy
	if d2 < minMetaballDist2 {
		return minMetaballDist2
	}
	return d2
}
