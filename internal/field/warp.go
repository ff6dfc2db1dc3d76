package field

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Warp displaces a query position before the field kernel runs. The planar
// length of every offset is bounded by Amplitude.
type Warp interface {
	Offset(q Vec3, t float64) Vec3
	Amplitude() float64
}

// NewWarp builds the warp described by cfg. A zero amplitude yields a warp
// that never moves the query.
func NewWarp(cfg Config) Warp {
	if cfg.WarpAmplitude <= 0 {
		return flatWarp{}
	}
	octaves := cfg.WarpOctaves
	if octaves <= 0 {
		octaves = 1
	}
	freq := cfg.WarpFrequency
	if freq <= 0 {
		freq = 1
	}
	w := &NoiseWarp{
		amplitude: cfg.WarpAmplitude,
		timeScale: cfg.WarpTimeScale,
		frequency: freq,
	}
	for i := range w.channels {
		w.channels[i] = newOctaveNoise(octaves, cfg.WarpPersistence, cfg.WarpSeed+int64(i))
	}
	return w
}

type flatWarp struct{}

func (flatWarp) Offset(Vec3, float64) Vec3 { return Vec3{} }
func (flatWarp) Amplitude() float64        { return 0 }

// NoiseWarp is a time-varying 3-channel simplex displacement. The noise is
// sampled at (q + (t*timeScale, 0, 0)) * frequency, each channel mapped to
// [-1, 1] and scaled by the amplitude.
type NoiseWarp struct {
	amplitude float64
	timeScale float64
	frequency float64
	channels  [3]*octaveNoise
}

// Amplitude returns the maximum planar displacement.
func (w *NoiseWarp) Amplitude() float64 { return w.amplitude }

// Offset returns the displacement to add to q at time t.
func (w *NoiseWarp) Offset(q Vec3, t float64) Vec3 {
	x := (q.X + t*w.timeScale) * w.frequency
	y := q.Y * w.frequency
	z := q.Z * w.frequency
	off := Vec3{
		X: (w.channels[0].Eval3(x, y, z)*2 - 1) * w.amplitude,
		Y: (w.channels[1].Eval3(x, y, z)*2 - 1) * w.amplitude,
		Z: (w.channels[2].Eval3(x, y, z)*2 - 1) * w.amplitude,
	}
	if l := math.Hypot(off.X, off.Y); l > w.amplitude {
		s := w.amplitude / l
		off.X *= s
		off.Y *= s
	}
	return off
}

// octaveNoise sums octaves of normalized simplex noise with geometric
// amplitudes, keeping the result in [0, 1).
type octaveNoise struct {
	amplitudes []float64
	total      float64
	os         opensimplex.Noise
}

func newOctaveNoise(octaves int, persistence float64, seed int64) *octaveNoise {
	if persistence <= 0 {
		persistence = 0.5
	}
	n := &octaveNoise{
		amplitudes: make([]float64, octaves),
		os:         opensimplex.NewNormalized(seed),
	}
	for i := range n.amplitudes {
		n.amplitudes[i] = math.Pow(persistence, float64(i))
		n.total += n.amplitudes[i]
	}
	return n
}

func (n *octaveNoise) Eval3(x, y, z float64) float64 {
	var sum float64
	for octave, amp := range n.amplitudes {
		f := float64(int(1) << octave)
		sum += amp * n.os.Eval3(x*f, y*f, z*f)
	}
	return sum / n.total
}
