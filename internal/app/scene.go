package app

import (
	"fmt"
	"log"
	"sort"

	"geometree/internal/core"
	"geometree/internal/gpu"
	"geometree/internal/raster"
)

type editor interface {
	Creating() bool
}

// Editing reports whether scene is capturing typed text. While it is, the
// viewer's key bindings and overlay toggles stay off.
func Editing(scene core.Scene) bool {
	e, ok := scene.(editor)
	return ok && e.Creating()
}

type backendSetter interface {
	SetBackend(b raster.Backend)
}

// SceneNames lists the registered scenes in order.
func SceneNames() []string {
	names := make([]string, 0, len(core.Scenes()))
	for name := range core.Scenes() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildScene constructs and resets the configured scene. With GPU set the
// scene is moved onto the GPU backend when one is available; otherwise it
// stays on the CPU and the reason is logged.
func BuildScene(cfg *Config, logger *log.Logger) (core.Scene, error) {
	factory, ok := core.Scenes()[cfg.Scene]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q (have %v)", cfg.Scene, SceneNames())
	}
	scene := factory(cfg.Params)
	if cfg.GPU {
		if bs, ok := scene.(backendSetter); ok {
			b, err := gpu.NewBackend()
			if err != nil {
				logger.Printf("gpu backend unavailable, using cpu: %v", err)
			} else {
				bs.SetBackend(b)
			}
		} else {
			logger.Printf("scene %q has no gpu path", cfg.Scene)
		}
	}
	scene.Reset(cfg.Seed)
	return scene, nil
}
