package metaball

import (
	"strconv"

	"geometree/internal/field"
)

// Config controls the metaball scene.
type Config struct {
	Width  int
	Height int
	Seed   int64
	// Workers caps raster goroutines; zero uses GOMAXPROCS.
	Workers int

	// SeedRadius is the radius of the ball placed on reset.
	SeedRadius float64
	// BallRadius is the radius of balls added with the pointer.
	BallRadius float64
	// WheelFactor converts wheel deltas into radius changes of the last
	// ball.
	WheelFactor float64

	Field field.Config
}

// DefaultConfig returns the standard metaball setup.
func DefaultConfig() Config {
	fc := field.DefaultConfig()
	fc.Capacity = 1000
	fc.WarpAmplitude = 0
	return Config{
		Width:       256,
		Height:      256,
		Seed:        1,
		SeedRadius:  0.02,
		BallRadius:  0.01,
		WheelFactor: 0.0001,
		Field:       fc,
	}
}

// FromMap populates the config from a string map (flag-style key/value
// pairs). Field keys are parsed by field.FromMap; capacity and warp keep the
// metaball defaults unless given.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	fc := field.FromMap(cfg)
	if _, ok := cfg["capacity"]; !ok {
		fc.Capacity = c.Field.Capacity
	}
	if _, ok := cfg["warp_amplitude"]; !ok {
		fc.WarpAmplitude = c.Field.WarpAmplitude
	}
	c.Field = fc
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
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Workers = parsed
		}
	}
	if v, ok := cfg["seed_radius"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.SeedRadius = parsed
		}
	}
	if v, ok := cfg["radius"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.BallRadius = parsed
		}
	}
	return c
}
