//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"geometree/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// Overlay draws scene labels and their anchors on top of the base raster.
type Overlay struct {
	scene       core.Scene
	scale       int
	showLabels  bool
	showAnchors bool
	showStems   bool

	pixel *ebiten.Image
	blink int
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(scene core.Scene, scale int) *Overlay {
	o := &Overlay{scene: scene, scale: scale, showLabels: true, showStems: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update toggles the overlay layers.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showLabels = !o.showLabels
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showAnchors = !o.showAnchors
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showStems = !o.showStems
	}
	o.blink++
}

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	provider, ok := o.scene.(core.LabelProvider)
	if !ok {
		return
	}
	scale := float64(o.scale)
	if scale <= 0 {
		scale = 1
	}
	for _, l := range provider.Labels() {
		if !l.Visible {
			continue
		}
		alpha := clamp01(l.Opacity)
		if l.Editing {
			alpha = 1
		}
		ax, ay := l.X*scale, l.Y*scale
		lx, ly := ax, (l.Y-l.Lift)*scale
		if o.showStems && l.Lift > 0 {
			o.drawLine(screen, ax, ay, lx, ly, 1, color.RGBA{R: 230, G: 230, B: 230, A: uint8(math.Round(160 * alpha))})
		}
		if o.showAnchors {
			o.drawPoint(screen, ax, ay, math.Max(3, scale), color.RGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(220 * alpha))})
		}
		if o.showLabels {
			o.drawLabel(screen, l, lx, ly, alpha)
		}
	}
}

func (o *Overlay) drawLabel(screen *ebiten.Image, l core.Label, x, y, alpha float64) {
	face := basicfont.Face7x13
	msg := l.Text
	if l.Editing && (o.blink/30)%2 == 0 {
		msg += "_"
	}
	if msg == "" {
		return
	}
	bounds := text.BoundString(face, msg)
	const pad = 4
	w := float64(bounds.Dx() + 2*pad)
	h := float64(bounds.Dy() + 2*pad)
	left := x - w/2
	top := y - h

	bg := color.RGBA{R: 60, G: 60, B: 60, A: uint8(math.Round(128 * alpha))}
	if l.Editing {
		bg = color.RGBA{R: 40, G: 70, B: 120, A: 200}
	}
	o.drawRect(screen, left, top, w, h, bg)
	fg := color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(255 * alpha))}
	text.Draw(screen, msg, face, int(math.Round(left))+pad-bounds.Min.X, int(math.Round(top))+pad-bounds.Min.Y, fg)
}

func (o *Overlay) drawRect(screen *ebiten.Image, x, y, w, h float64, col color.RGBA) {
	if o.pixel == nil || w <= 0 || h <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	o.drawRect(screen, x-size*0.5, y-size*0.5, size, size, col)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
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
