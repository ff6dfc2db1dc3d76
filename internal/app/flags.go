package app

import (
	"flag"
	"fmt"
	"sort"
	"strings"
)

// SceneParams collects repeated -set key=value flags into the map handed to
// a scene factory.
type SceneParams map[string]string

// String implements flag.Value.
func (p SceneParams) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + p[k]
	}
	return strings.Join(parts, ",")
}

// Set implements flag.Value.
func (p SceneParams) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	p[strings.TrimSpace(key)] = strings.TrimSpace(value)
	return nil
}

// Config represents the command-line parameters for the viewer.
type Config struct {
	Scene string
	Scale int
	TPS   int
	Seed  int64
	GPU   bool
	// DB is the SQLite DSN for saved scenes; empty disables saving.
	DB string
	// Load names a saved scene to restore at startup and on F9.
	Load   string
	Params SceneParams
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Scene: "terrain", Scale: 3, TPS: 60, Seed: 42, Load: "default", Params: SceneParams{}}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Scene, "scene", c.Scene, "scene to run (terrain, metaball)")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "scene steps per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for scene reset")
	fs.BoolVar(&c.GPU, "gpu", c.GPU, "rasterize on the GPU when available")
	fs.StringVar(&c.DB, "db", c.DB, "SQLite database for saved scenes")
	fs.StringVar(&c.Load, "load", c.Load, "saved scene name for F5/F9")
	fs.Var(c.Params, "set", "scene parameter key=value (may be repeated)")
}
