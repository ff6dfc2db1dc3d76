package field

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCommitPublishesOnlyOnChange(t *testing.T) {
	e := newQuiet(flatConfig(4))
	first := e.Latest()
	if first == nil || first.Len() != 0 {
		t.Fatalf("initial snapshot = %+v", first)
	}
	if again := e.Commit(); again != first {
		t.Fatal("Commit without changes published a new snapshot")
	}

	e.CreatePoint(Vec3{X: 1}, 0.5)
	second := e.Commit()
	if second == first || second.Version <= first.Version {
		t.Fatalf("Commit after change: versions %d -> %d", first.Version, second.Version)
	}
	if e.Latest() != second {
		t.Fatal("Latest does not return the committed snapshot")
	}

	// Uncommitted changes are invisible to readers.
	e.UpdatePoint(0, Vec3{X: 5})
	if got := e.Latest().Points()[0].Position.X; got != 1 {
		t.Fatalf("snapshot saw uncommitted position %v", got)
	}
	e.Advance(0.5)
	third := e.Commit()
	if third.Time != 0.5 || third.Points()[0].Position.X != 5 {
		t.Fatalf("third snapshot = time %v points %+v", third.Time, third.Points())
	}
}

func TestSnapshotMatchesEvaluator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 6
	e := newQuiet(cfg)
	e.CreateColoredPoint(Vec3{X: -0.3}, 0.4, red)
	e.CreateColoredPoint(Vec3{X: 0.4, Y: 0.1}, 0.25, blue)
	e.SetTime(1.25)
	snap := e.Commit()

	for _, q := range []Vec3{{}, {X: -0.3}, {X: 0.38, Y: 0.12}, {X: 0.9, Y: -0.9}} {
		if got, want := snap.Field(q), e.EvaluateField(q); got != want {
			t.Fatalf("Field(%+v) = %v, evaluator %v", q, got, want)
		}
		if got, want := snap.Classify(q), e.Classify(q); got != want {
			t.Fatalf("Classify(%+v) = %+v, evaluator %+v", q, got, want)
		}
		if got, want := snap.Elevation(q), e.Elevation(q); got != want {
			t.Fatalf("Elevation(%+v) = %v, evaluator %v", q, got, want)
		}
		w := q.Add(snap.WarpOffset(q))
		if got := snap.FieldWarped(w); got != snap.Field(q) {
			t.Fatalf("FieldWarped disagrees with Field at %+v", q)
		}
	}
}

func TestSnapshotBufferLayout(t *testing.T) {
	e := newQuiet(flatConfig(3))
	e.CreateColoredPoint(Vec3{X: 1, Y: 2, Z: 3}, 0.5, Color{R: 0.25, G: 0.5, B: 0.75})
	points, colors, count := e.Commit().Buffer()
	if count != 1 {
		t.Fatalf("count = %d", count)
	}
	if len(points) != 12 || len(colors) != 12 {
		t.Fatalf("buffer lengths = %d, %d; want capacity*4", len(points), len(colors))
	}
	want := []float32{1, 2, 3, 0.5}
	for i, v := range want {
		if points[i] != v {
			t.Fatalf("points[%d] = %v, want %v", i, points[i], v)
		}
	}
	if colors[0] != 0.25 || colors[1] != 0.5 || colors[2] != 0.75 || colors[3] != 1 {
		t.Fatalf("colors = %v", colors[:4])
	}
	for i := 4; i < len(points); i++ {
		if points[i] != 0 {
			t.Fatalf("inactive slot data at %d = %v", i, points[i])
		}
	}
}

func TestMetaballKernel(t *testing.T) {
	e := newQuiet(flatConfig(4))
	e.CreateColoredPoint(Vec3{X: 0.5, Y: 0.5}, 0.1, red)
	snap := e.Commit()

	if got := snap.Metaball(Vec3{X: 0.6, Y: 0.5}, 1); !approx(got, 1, 1e-9) {
		t.Fatalf("metaball at one radius = %v, want 1", got)
	}
	// Aspect scales the X distance.
	if got := snap.Metaball(Vec3{X: 0.55, Y: 0.5}, 2); !approx(got, 1, 1e-9) {
		t.Fatalf("metaball with aspect 2 = %v, want 1", got)
	}
	if got := snap.MetaballColor(Vec3{X: 0.5, Y: 0.5}, 1); got != red {
		t.Fatalf("metaball colour at centre = %+v", got)
	}
	if got := snap.MetaballColor(Vec3{X: 5, Y: 5}, 1); got != (Color{}) {
		t.Fatalf("metaball colour far away = %+v, want black", got)
	}
}

func TestQuerierAnswersFromLatestSnapshot(t *testing.T) {
	e := newQuiet(flatConfig(4))
	e.CreatePoint(Vec3{}, 0.5)
	snap := e.Commit()

	q := NewQuerier(e, 3)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := q.ElevationAt(Vec3{}).Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(res.Value, -1, 1e-12) || res.Version != snap.Version {
		t.Fatalf("elevation result = %+v", res)
	}
	res, err = q.FieldAt(Vec3{X: 0.25}).Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(res.Value, -0.5, 1e-12) {
		t.Fatalf("field result = %+v", res)
	}
}

func TestQuerierCallbacksUnordered(t *testing.T) {
	e := newQuiet(flatConfig(4))
	e.CreatePoint(Vec3{}, 1)
	e.Commit()
	q := NewQuerier(e, 4)
	defer q.Close()

	const n = 64
	var (
		mu   sync.Mutex
		seen = map[float64]float64{}
		wg   sync.WaitGroup
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		x := float64(i) / n
		q.ElevationAtFunc(Vec3{X: x}, func(r Result) {
			defer wg.Done()
			mu.Lock()
			seen[r.Query.X] = r.Value
			mu.Unlock()
		})
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("got %d results, want %d", len(seen), n)
	}
	for x, v := range seen {
		if !approx(v, -(1 - x), 1e-12) {
			t.Fatalf("elevation at x=%v = %v", x, v)
		}
	}
}

func TestQuerierClosed(t *testing.T) {
	e := newQuiet(flatConfig(1))
	q := NewQuerier(e, 1)
	q.Close()
	q.Close()

	p := q.ElevationAt(Vec3{})
	res, ok := p.Result()
	if !ok || !errors.Is(res.Err, ErrClosed) {
		t.Fatalf("query after Close = %+v, %v", res, ok)
	}
	called := false
	q.ElevationAtFunc(Vec3{}, func(r Result) { called = errors.Is(r.Err, ErrClosed) })
	if !called {
		t.Fatal("callback after Close did not report ErrClosed")
	}
}
