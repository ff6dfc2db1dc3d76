package render

import (
	"image/color"
	"math"

	"geometree/internal/field"
	"geometree/internal/raster"
)

// Terrain turns an influence frame into stepped, edge-darkened terrain
// colours.
type Terrain struct {
	// Steps is the number of elevation bands per field unit.
	Steps float64
	// HeightScale multiplies the banded elevation.
	HeightScale float64
	// EdgeThreshold is the UV distance from the border under which the
	// surface dissolves to flat.
	EdgeThreshold float64
	// IntensityScale is the depth that maps to full intensity.
	IntensityScale float64
	BaseColor      field.Color

	intensity []float64
}

// NewTerrain returns a shader with the standard look.
func NewTerrain() *Terrain {
	return &Terrain{
		Steps:          0.15 * 25,
		HeightScale:    0.15,
		EdgeThreshold:  0.02,
		IntensityScale: 0.1,
		BaseColor:      field.RGB8(36, 15, 140, 200),
	}
}

// Depth returns the banded depth of a field value at the given UV.
func (t *Terrain) Depth(e, u, v float64) float64 {
	if math.Min(math.Min(u, 1-u), math.Min(v, 1-v)) < t.EdgeThreshold {
		return 0
	}
	steps := t.Steps
	if steps <= 0 {
		steps = 1
	}
	return -math.Floor(e*steps) / steps * t.HeightScale
}

// Shade writes RGBA pixels for frame into buf.
func (t *Terrain) Shade(buf []byte, frame *raster.Frame, vp raster.Viewport) {
	w, h := frame.Field.W, frame.Field.H
	if len(buf) < 4*w*h {
		return
	}
	if len(t.intensity) != w*h {
		t.intensity = make([]float64, w*h)
	}
	scale := t.IntensityScale
	if scale <= 0 {
		scale = 0.1
	}
	cells := frame.Field.Cells()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u, v := vp.UV(x, y)
			i := y*w + x
			t.intensity[i] = t.Depth(float64(cells[i]), u, v) / scale
		}
	}

	classes := frame.Class.Cells()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			in := t.intensity[i]
			var d float64
			switch {
			case y > 0:
				d = in - t.intensity[i-w]
			case h > 1:
				d = t.intensity[i+w] - in
			}
			edge := math.Pow(math.Abs(d), 0.3)
			fi := (1 - smoothstep(0.02, 0.65, edge)) * in
			c := mixColor(t.BaseColor, classes[i], clamp01(fi)).Scale(fi)
			putRGBA(buf, i, c.RGBA())
		}
	}
}

// Metaball colours a metaball frame: cells whose field lies inside
// (InsideMin, InsideMax) take the blended colour, the outline band
// [OutlineMin, OutlineMax) and everything else use the outline and background
// colours.
type Metaball struct {
	InsideMin, InsideMax   float64
	OutlineMin, OutlineMax float64
	Outline                color.RGBA
	Background             color.RGBA
}

// NewMetaball returns a shader with the standard thresholds.
func NewMetaball() *Metaball {
	return &Metaball{
		InsideMin:  0,
		InsideMax:  0.7,
		OutlineMin: 0.9,
		OutlineMax: 1.0,
		Outline:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Shade writes RGBA pixels for frame into buf.
func (m *Metaball) Shade(buf []byte, frame *raster.MetaballFrame) {
	cells := frame.Field.Cells()
	colors := frame.Color.Cells()
	if len(buf) < 4*len(cells) {
		return
	}
	for i, f := range cells {
		v := float64(f)
		switch {
		case v > m.InsideMin && v < m.InsideMax:
			putRGBA(buf, i, colors[i].RGBA())
		case v >= m.OutlineMin && v < m.OutlineMax:
			putRGBA(buf, i, m.Outline)
		default:
			putRGBA(buf, i, m.Background)
		}
	}
}

func putRGBA(buf []byte, i int, c color.RGBA) {
	base := i * 4
	buf[base+0] = c.R
	buf[base+1] = c.G
	buf[base+2] = c.B
	buf[base+3] = c.A
}

func mixColor(a, b field.Color, t float64) field.Color {
	return a.Scale(1 - t).Add(b.Scale(t))
}

func smoothstep(e0, e1, x float64) float64 {
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
