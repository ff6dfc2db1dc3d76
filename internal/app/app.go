//go:build ebiten

package app

import (
	"context"
	"log"
	"os"
	"time"

	"geometree/internal/core"
	"geometree/internal/render"
	"geometree/internal/store"
	"geometree/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	hudWidth = 220
	// wheelDelta converts one ebiten wheel notch into a browser-style deltaY.
	wheelDelta = 100
)

// Game adapts a scene to the ebiten.Game interface.
type Game struct {
	scene   core.Scene
	input   core.Interactive
	painter *render.Painter
	overlay *ui.Overlay
	hud     *ui.HUD
	clock   *core.FixedStep

	store    *store.Store
	saveName string
	logger   *log.Logger

	scale    int
	paused   bool
	tickOnce bool
	seed     int64

	pressed      bool
	lastX, lastY float64
}

// New constructs a Game for the provided scene.
func New(scene core.Scene, cfg *Config) *Game {
	if cfg == nil {
		cfg = NewConfig()
	}
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	size := scene.Size()
	g := &Game{
		scene:    scene,
		painter:  render.NewPainter(size.W, size.H),
		overlay:  ui.NewOverlay(scene, scale),
		hud:      ui.NewHUD(scene, hudWidth),
		clock:    core.NewFixedStep(cfg.TPS),
		saveName: cfg.Load,
		logger:   log.New(os.Stderr, "(app) > ", log.LstdFlags),
		scale:    scale,
		seed:     cfg.Seed,
	}
	if in, ok := scene.(core.Interactive); ok {
		g.input = in
	}
	return g
}

// SetStore enables F5/F9 saving and loading under the configured name.
func (g *Game) SetStore(st *store.Store) { g.store = st }

// Reset reinitializes the scene state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.scene.Reset(seed)
	g.tickOnce = false
}

// Update handles per-frame logic and advances the scene.
func (g *Game) Update() error {
	editing := Editing(g.scene)
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if !editing {
		if err := g.handleKeys(); err != nil {
			return err
		}
	}

	g.handlePointer()
	g.handleText(editing)

	if !editing {
		g.overlay.Update()
	}
	g.hud.Update(g.viewWidth())

	if g.clock.ShouldStep() && (!g.paused || g.tickOnce) {
		g.scene.Step()
		g.tickOnce = false
	}
	return nil
}

func (g *Game) handleKeys() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.save()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		g.load()
	}
	return nil
}

func (g *Game) handlePointer() {
	if g.input == nil {
		return
	}
	mx, my := ebiten.CursorPosition()
	inView := mx < g.viewWidth()
	x := float64(mx) / float64(g.scale)
	y := float64(my) / float64(g.scale)

	if inView && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.pressed = true
		g.input.PointerDown(x, y)
	}
	if x != g.lastX || y != g.lastY {
		if inView {
			g.input.PointerMove(x, y)
		}
		g.lastX, g.lastY = x, y
	}
	if g.pressed && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.pressed = false
		g.input.PointerUp(x, y)
	}
	if _, yoff := ebiten.Wheel(); yoff != 0 && inView {
		g.input.Wheel(-yoff * wheelDelta)
	}
}

func (g *Game) handleText(editing bool) {
	if g.input == nil {
		return
	}
	if editing {
		if runes := ebiten.AppendInputChars(nil); len(runes) > 0 {
			g.input.TypeText(runes)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.input.Backspace()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.input.Enter()
	}
}

func (g *Game) save() {
	p, ok := g.scene.(Persistent)
	if !ok || g.store == nil {
		return
	}
	n, err := SaveScene(context.Background(), g.store, p, g.saveName)
	if err != nil {
		g.logger.Printf("save %q: %v", g.saveName, err)
		return
	}
	g.logger.Printf("saved %q (%d points)", g.saveName, n)
}

func (g *Game) load() {
	p, ok := g.scene.(Persistent)
	if !ok || g.store == nil {
		return
	}
	found, err := LoadScene(context.Background(), g.store, p, g.saveName)
	switch {
	case err != nil:
		g.logger.Printf("load %q: %v", g.saveName, err)
	case !found:
		g.logger.Printf("no saved scene %q", g.saveName)
	}
}

// Draw renders the current scene state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.scene.Pixels(), g.scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.viewWidth(), g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.scene.Size()
	return g.viewWidth() + hudWidth, s.H * g.scale
}

func (g *Game) viewWidth() int { return g.scene.Size().W * g.scale }
