//go:build ebiten

package render

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Painter uploads scene pixels into a single RGBA image and draws it scaled.
type Painter struct {
	w, h int
	img  *ebiten.Image
}

// NewPainter allocates a painter for a raster of size w*h.
func NewPainter(w, h int) *Painter {
	return &Painter{w: w, h: h, img: ebiten.NewImage(w, h)}
}

// Blit uploads the provided RGBA pixels and draws them onto dst.
func (p *Painter) Blit(dst *ebiten.Image, pixels []byte, scale int) {
	if len(pixels) != 4*p.w*p.h {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	p.img.WritePixels(pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(p.img, op)
}

// Size returns the dimensions of the underlying image.
func (p *Painter) Size() (int, int) { return p.w, p.h }
