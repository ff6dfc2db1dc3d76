package field

import (
	"strconv"
	"strings"
)

// ShrinkPolicy controls what happens to slots past the active length when it
// is reduced.
type ShrinkPolicy int

const (
	// ShrinkZero clears truncated slots.
	ShrinkZero ShrinkPolicy = iota
	// ShrinkPreserve keeps truncated slots intact so growing the active
	// length again re-exposes them.
	ShrinkPreserve
)

// String returns the flag-style name of the policy.
func (p ShrinkPolicy) String() string {
	if p == ShrinkPreserve {
		return "preserve"
	}
	return "zero"
}

// ParseShrinkPolicy maps "zero" or "preserve" to a policy.
func ParseShrinkPolicy(s string) (ShrinkPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero":
		return ShrinkZero, true
	case "preserve":
		return ShrinkPreserve, true
	}
	return ShrinkZero, false
}

// Config holds the evaluator tunables.
type Config struct {
	Capacity int

	// Threshold is the planar distance under which ClassifyNearest matches a point.
	Threshold float64

	WarpAmplitude   float64
	WarpTimeScale   float64
	WarpFrequency   float64
	WarpOctaves     int
	WarpPersistence float64
	WarpSeed        int64

	PointColor    Color
	FallbackColor Color

	Shrink ShrinkPolicy
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:        100,
		Threshold:       0.03,
		WarpAmplitude:   0.2,
		WarpTimeScale:   0.4,
		WarpFrequency:   1,
		WarpOctaves:     1,
		WarpPersistence: 0.5,
		WarpSeed:        1,
		PointColor:      RGB8(3, 161, 252, 50),
		FallbackColor:   RGB8(244, 44, 4, 255),
		Shrink:          ShrinkZero,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["capacity"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Capacity = parsed
		}
	}
	if v, ok := cfg["threshold"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.Threshold = parsed
		}
	}
	if v, ok := cfg["warp_amplitude"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.WarpAmplitude = parsed
		}
	}
	if v, ok := cfg["warp_time_scale"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.WarpTimeScale = parsed
		}
	}
	if v, ok := cfg["warp_frequency"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.WarpFrequency = parsed
		}
	}
	if v, ok := cfg["warp_octaves"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.WarpOctaves = parsed
		}
	}
	if v, ok := cfg["warp_persistence"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.WarpPersistence = parsed
		}
	}
	if v, ok := cfg["warp_seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.WarpSeed = parsed
		}
	}
	if v, ok := cfg["shrink"]; ok {
		if parsed, ok := ParseShrinkPolicy(v); ok {
			c.Shrink = parsed
		}
	}
	return c
}
