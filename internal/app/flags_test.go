package app

import (
	"bytes"
	"flag"
	"io"
	"log"
	"strings"
	"testing"

	"geometree/internal/core"
	_ "geometree/internal/scenes/metaball"
	_ "geometree/internal/scenes/terrain"
)

func TestBindParsesFlags(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("geometree", flag.ContinueOnError)
	cfg.Bind(fs)
	err := fs.Parse([]string{"-scene", "metaball", "-scale", "2", "-gpu", "-set", "capacity=50", "-set", " radius = 0.02 "})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scene != "metaball" || cfg.Scale != 2 || !cfg.GPU {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Params["capacity"] != "50" || cfg.Params["radius"] != "0.02" {
		t.Fatalf("params = %v", cfg.Params)
	}
	if got := cfg.Params.String(); got != "capacity=50,radius=0.02" {
		t.Fatalf("String = %q", got)
	}
}

func TestSceneParamsRejectsBareKey(t *testing.T) {
	p := SceneParams{}
	if err := p.Set("capacity"); err == nil {
		t.Fatal("Set accepted a value without '='")
	}
}

func TestBuildScene(t *testing.T) {
	cfg := NewConfig()
	cfg.Scene = "metaball"
	cfg.GPU = true
	cfg.Params["w"] = "8"
	cfg.Params["h"] = "8"
	var logs bytes.Buffer
	scene, err := BuildScene(cfg, log.New(&logs, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if scene.Name() != "metaball" || scene.Size().W != 8 {
		t.Fatalf("scene = %s %v", scene.Name(), scene.Size())
	}
	if !strings.Contains(logs.String(), "no gpu path") {
		t.Fatalf("logs = %q", logs.String())
	}

	cfg.Scene = "nope"
	if _, err := BuildScene(cfg, log.New(&logs, "", 0)); err == nil || !strings.Contains(err.Error(), "terrain") {
		t.Fatalf("unknown scene err = %v", err)
	}
}

func TestEditingFollowsIdeaPlacement(t *testing.T) {
	cfg := NewConfig()
	cfg.Params["w"] = "16"
	cfg.Params["h"] = "16"
	cfg.Params["warp_amplitude"] = "0"
	scene, err := BuildScene(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := scene.(io.Closer); ok {
		defer c.Close()
	}
	in := scene.(core.Interactive)
	if Editing(scene) {
		t.Fatal("editing before any press")
	}
	in.PointerDown(8, 8)
	if !Editing(scene) {
		t.Fatal("placing an idea did not capture text")
	}
	in.Enter()
	if Editing(scene) {
		t.Fatal("editing after Enter")
	}

	cfg.Scene = "metaball"
	balls, err := BuildScene(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	balls.(core.Interactive).PointerDown(4, 4)
	if Editing(balls) {
		t.Fatal("metaball scene captured text")
	}
}
