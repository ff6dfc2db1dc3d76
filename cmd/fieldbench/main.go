// Command fieldbench renders a scene headlessly: it scatters random points,
// times a number of steps and optionally writes the last frame as a PNG.
package main

import (
	"context"
	"flag"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"geometree/internal/app"
	"geometree/internal/core"
	"geometree/internal/field"
	"geometree/internal/raster"
	_ "geometree/internal/scenes/metaball"
	_ "geometree/internal/scenes/terrain"
)

type benchScene interface {
	core.Scene
	Evaluator() *field.Evaluator
	Viewport() raster.Viewport
}

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	points := flag.Int("points", 200, "random points to scatter")
	radius := flag.Float64("radius", 0.3, "radius of each point, in field units")
	steps := flag.Int("steps", 120, "steps to time")
	queries := flag.Int("queries", 10000, "elevation queries to time (0 disables)")
	out := flag.String("png", "", "write the final frame to this file")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	logger := log.New(os.Stderr, "(fieldbench) > ", log.LstdFlags)
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logger.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	sc, err := app.BuildScene(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	if c, ok := sc.(io.Closer); ok {
		defer c.Close()
	}
	scene, ok := sc.(benchScene)
	if !ok {
		logger.Fatalf("scene %q cannot be benchmarked", sc.Name())
	}

	added := scatter(scene, cfg.Seed, *points, *radius)
	logger.Printf("%s: %d points (capacity %d)", scene.Name(), added, scene.Evaluator().Cap())

	start := time.Now()
	for i := 0; i < *steps; i++ {
		scene.Step()
	}
	if *steps > 0 {
		elapsed := time.Since(start)
		logger.Printf("%d steps in %v (%v/step)", *steps, elapsed, elapsed/time.Duration(*steps))
	}

	if *queries > 0 {
		benchQueries(logger, scene, cfg.Seed, *queries)
	}

	if *out != "" {
		if err := writePNG(*out, scene); err != nil {
			logger.Fatal(err)
		}
		logger.Printf("wrote %s", *out)
	}
}

func scatter(scene benchScene, seed int64, n int, radius float64) int {
	rng := core.NewRNG(seed)
	ev := scene.Evaluator()
	vp := scene.Viewport()
	size := scene.Size()
	added := 0
	for i := 0; i < n; i++ {
		pos := vp.At(rng.Range(0, float64(size.W)), rng.Range(0, float64(size.H)))
		c := field.Color{R: rng.Float64(), G: rng.Float64(), B: rng.Float64()}
		if _, err := ev.CreateColoredPoint(pos, radius, c); err != nil {
			break
		}
		added++
	}
	ev.Commit()
	return added
}

func benchQueries(logger *log.Logger, scene benchScene, seed int64, n int) {
	q := field.NewQuerier(scene.Evaluator(), 0)
	defer q.Close()
	rng := core.NewRNG(seed + 1)
	vp := scene.Viewport()
	size := scene.Size()

	start := time.Now()
	pending := make([]*field.Pending, n)
	for i := range pending {
		pending[i] = q.ElevationAt(vp.At(rng.Range(0, float64(size.W)), rng.Range(0, float64(size.H))))
	}
	ctx := context.Background()
	for _, p := range pending {
		if _, err := p.Wait(ctx); err != nil {
			logger.Printf("query: %v", err)
			return
		}
	}
	elapsed := time.Since(start)
	logger.Printf("%d queries in %v (%v/query)", n, elapsed, elapsed/time.Duration(n))
}

func writePNG(path string, scene core.Scene) error {
	size := scene.Size()
	img := image.NewRGBA(image.Rect(0, 0, size.W, size.H))
	copy(img.Pix, scene.Pixels())
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
