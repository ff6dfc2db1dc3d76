package core

import (
	"slices"
	"testing"
)

func TestGridRowsAliasCells(t *testing.T) {
	g := NewGrid[float32](3, 2)
	g.Set(2, 1, 4)
	if g.At(2, 1) != 4 || g.Cells()[g.Index(2, 1)] != 4 {
		t.Fatal("Set/At disagree with Cells")
	}
	g.Row(0)[1] = 7
	if !slices.Equal(g.Cells(), []float32{0, 7, 0, 0, 0, 4}) {
		t.Fatalf("cells = %v", g.Cells())
	}
	if g.In(3, 0) || g.In(0, -1) || !g.In(2, 1) {
		t.Fatal("In bounds check wrong")
	}
	g.Clear()
	if slices.ContainsFunc(g.Cells(), func(v float32) bool { return v != 0 }) {
		t.Fatal("Clear left values behind")
	}
}

func TestNewGridClampsDimensions(t *testing.T) {
	g := NewGrid[bool](0, -3)
	if g.W != 1 || g.H != 1 || len(g.Cells()) != 1 {
		t.Fatalf("grid = %dx%d len %d", g.W, g.H, len(g.Cells()))
	}
}

func TestRNGDeterministic(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for i := 0; i < 16; i++ {
		x, y := a.Range(0.1, 0.45), b.Range(0.1, 0.45)
		if x != y {
			t.Fatalf("draw %d: %v vs %v", i, x, y)
		}
		if x < 0.1 || x >= 0.45 {
			t.Fatalf("Range out of bounds: %v", x)
		}
	}
}

func TestFixedStepDefaultsTPS(t *testing.T) {
	fs := NewFixedStep(0)
	if !fs.ShouldStep() {
		t.Fatal("first ShouldStep should fire from the primed accumulator")
	}
}
