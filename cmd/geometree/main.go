//go:build ebiten

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"geometree/internal/app"
	_ "geometree/internal/scenes/metaball"
	_ "geometree/internal/scenes/terrain"
	"geometree/internal/store"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	logger := log.New(os.Stderr, "(geometree) > ", log.LstdFlags)
	scene, err := app.BuildScene(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	if c, ok := scene.(io.Closer); ok {
		defer c.Close()
	}

	game := app.New(scene, cfg)
	if cfg.DB != "" {
		st, err := store.Open(cfg.DB)
		if err != nil {
			logger.Fatalf("open %s: %v", cfg.DB, err)
		}
		defer st.Close()
		game.SetStore(st)
		if p, ok := scene.(app.Persistent); ok {
			if found, err := app.LoadScene(context.Background(), st, p, cfg.Load); err != nil {
				logger.Printf("load %q: %v", cfg.Load, err)
			} else if found {
				logger.Printf("restored %q", cfg.Load)
			}
		}
	}

	ebiten.SetWindowTitle("geometree - " + scene.Name())
	ebiten.SetWindowSize(game.Layout(0, 0))

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal(err)
	}
}
