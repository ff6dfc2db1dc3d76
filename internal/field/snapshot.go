package field

// Snapshot is an immutable copy of the evaluator state at one version. It is
// safe to share between goroutines.
type Snapshot struct {
	Version uint64
	Time    float64

	capacity  int
	points    []ControlPoint
	warp      Warp
	threshold float64
	fallback  Color
}

// Len returns the number of active points.
func (s *Snapshot) Len() int { return len(s.points) }

// Cap returns the slot capacity of the evaluator that produced the snapshot.
func (s *Snapshot) Cap() int { return s.capacity }

// Points returns a copy of the active points.
func (s *Snapshot) Points() []ControlPoint {
	return append([]ControlPoint(nil), s.points...)
}

// Threshold returns the classification distance.
func (s *Snapshot) Threshold() float64 { return s.threshold }

// Fallback returns the colour used when no point matches.
func (s *Snapshot) Fallback() Color { return s.fallback }

// WarpOffset returns the displacement applied to q at the snapshot time.
func (s *Snapshot) WarpOffset(q Vec3) Vec3 { return s.warp.Offset(q, s.Time) }

// WarpAmplitude returns the maximum planar warp displacement.
func (s *Snapshot) WarpAmplitude() float64 { return s.warp.Amplitude() }

// Field returns the warped field value at q.
func (s *Snapshot) Field(q Vec3) float64 {
	return influence(s.points, q.Add(s.WarpOffset(q)))
}

// FieldWarped evaluates the kernel at an already displaced query.
func (s *Snapshot) FieldWarped(w Vec3) float64 { return influence(s.points, w) }

// Classify returns the first point within the threshold of the warped query.
func (s *Snapshot) Classify(q Vec3) Classification {
	return s.ClassifyWarped(q.Add(s.WarpOffset(q)))
}

// ClassifyWarped classifies an already displaced query.
func (s *Snapshot) ClassifyWarped(w Vec3) Classification {
	return classify(s.points, w, s.threshold, s.fallback)
}

// Elevation returns the unwarped field value at q.
func (s *Snapshot) Elevation(q Vec3) float64 { return influence(s.points, q) }

// Metaball returns the inverse-square metaball field at uv with the X axis
// scaled by aspect.
func (s *Snapshot) Metaball(uv Vec3, aspect float64) float64 {
	return metaball(s.points, uv, aspect)
}

// MetaballColor returns the influence-weighted colour blend at uv.
func (s *Snapshot) MetaballColor(uv Vec3, aspect float64) Color {
	return metaballColor(s.points, uv, aspect)
}

// Buffer flattens the snapshot into fixed-capacity vec4 arrays for device
// upload: points as (x, y, z, radius) and colours as (r, g, b, 1). Slots past
// count are zero.
func (s *Snapshot) Buffer() (points, colors []float32, count int) {
	points = make([]float32, s.capacity*4)
	colors = make([]float32, s.capacity*4)
	for i, p := range s.points {
		base := i * 4
		points[base+0] = float32(p.Position.X)
		points[base+1] = float32(p.Position.Y)
		points[base+2] = float32(p.Position.Z)
		points[base+3] = float32(p.Radius)
		colors[base+0] = float32(p.Color.R)
		colors[base+1] = float32(p.Color.G)
		colors[base+2] = float32(p.Color.B)
		colors[base+3] = 1
	}
	return points, colors, len(s.points)
}
