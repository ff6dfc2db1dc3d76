package terrain

import (
	"strconv"

	"geometree/internal/field"
	"geometree/internal/label"
)

// Config controls the terrain scene.
type Config struct {
	Width  int
	Height int
	// Extent is the world size covered by the grid on each axis.
	Extent float64

	// Seed seeds the warp noise; it overrides Field.WarpSeed when given.
	Seed int64
	// TimeStep is the warp time added per Step, in seconds.
	TimeStep float64
	// Workers caps raster goroutines; zero uses GOMAXPROCS.
	Workers      int
	QueryWorkers int

	Zoom    float64
	MinZoom float64
	MaxZoom float64
	// ZoomFactor converts wheel deltas into zoom changes.
	ZoomFactor float64

	Field field.Config
	Label label.Config
}

// DefaultConfig returns the standard terrain setup.
func DefaultConfig() Config {
	return Config{
		Width:        256,
		Height:       256,
		Extent:       3.5,
		Seed:         1,
		TimeStep:     1.0 / 60,
		QueryWorkers: 2,
		Zoom:         1,
		MinZoom:      0.25,
		MaxZoom:      4,
		ZoomFactor:   0.001,
		Field:        field.DefaultConfig(),
		Label:        label.DefaultConfig(),
	}
}

// FromMap populates the config from a string map (flag-style key/value
// pairs). Field keys are parsed by field.FromMap.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.Field = field.FromMap(cfg)
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["extent"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.Extent = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed != 0 {
			c.Seed = parsed
			c.Field.WarpSeed = parsed
		}
	}
	if v, ok := cfg["time_step"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.TimeStep = parsed
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Workers = parsed
		}
	}
	if v, ok := cfg["query_workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.QueryWorkers = parsed
		}
	}
	if v, ok := cfg["zoom"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.Zoom = parsed
		}
	}
	if v, ok := cfg["radius"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.Label.DefaultRadius = parsed
		}
	}
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	if c.Zoom > c.MaxZoom {
		c.Zoom = c.MaxZoom
	}
	return c
}
