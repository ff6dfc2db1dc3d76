package app

import (
	"context"
	"io"
	"log"
	"testing"

	"geometree/internal/field"
	"geometree/internal/scenes/metaball"
	"geometree/internal/store"
)

func TestSaveAndLoadScene(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	defer st.Close()
	ctx := context.Background()

	cfg := metaball.DefaultConfig()
	cfg.Width, cfg.Height = 8, 8
	sc := metaball.New(cfg)
	sc.SetLogger(log.New(io.Discard, "", 0))
	sc.Reset(1)
	if _, err := sc.AddBall(field.Vec3{X: 0.25, Y: 0.75}, 0.05); err != nil {
		t.Fatal(err)
	}

	n, err := SaveScene(ctx, st, sc, "pair")
	if err != nil || n != 2 {
		t.Fatalf("SaveScene = %d, %v", n, err)
	}

	sc.Reset(2)
	found, err := LoadScene(ctx, st, sc, "pair")
	if err != nil || !found {
		t.Fatalf("LoadScene = %v, %v", found, err)
	}
	if got := sc.Evaluator().Len(); got != 2 {
		t.Fatalf("points after load = %d", got)
	}

	found, err = LoadScene(ctx, st, sc, "missing")
	if err != nil || found {
		t.Fatalf("missing scene = %v, %v", found, err)
	}
}
