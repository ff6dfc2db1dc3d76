package host

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"geometree/internal/core"
)

type countingScene struct {
	steps int
	pix   []byte
}

func (s *countingScene) Name() string    { return "count" }
func (s *countingScene) Size() core.Size { return core.Size{W: 1, H: 1} }
func (s *countingScene) Reset(int64)     { s.steps = 0 }
func (s *countingScene) Step() {
	s.steps++
	s.pix[0] = byte(s.steps)
}
func (s *countingScene) Pixels() []byte { return s.pix }

func startLoop(t *testing.T, tps int) (*Loop, *countingScene, context.CancelFunc) {
	t.Helper()
	sc := &countingScene{pix: make([]byte, 4)}
	l := New(sc, tps)
	l.SetLogger(log.New(io.Discard, "", 0))
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l, sc, cancel
}

func TestDoSerialisesMutations(t *testing.T) {
	l, sc, _ := startLoop(t, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.StepNow(ctx); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	var steps int
	if err := l.Do(ctx, func(core.Scene) { steps = sc.steps }); err != nil {
		t.Fatal(err)
	}
	if steps != 50 {
		t.Fatalf("steps = %d, want 50", steps)
	}
}

func TestPixelsAreCopied(t *testing.T) {
	l, _, _ := startLoop(t, 0)
	ctx := context.Background()
	l.StepNow(ctx)
	pix, size, err := l.Pixels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if size != (core.Size{W: 1, H: 1}) || pix[0] != 1 {
		t.Fatalf("pixels = %v size %+v", pix, size)
	}
	l.StepNow(ctx)
	if pix[0] != 1 {
		t.Fatal("returned pixels alias the scene buffer")
	}
}

func TestTickerSteps(t *testing.T) {
	l, _, _ := startLoop(t, 200)
	ctx := context.Background()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var n uint64
		l.Do(ctx, func(core.Scene) { n = l.Steps() })
		if n >= 3 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("ticker never stepped the scene")
}

func TestPausedLoopDoesNotTick(t *testing.T) {
	l, _, _ := startLoop(t, 500)
	ctx := context.Background()
	if err := l.SetPaused(ctx, true); err != nil {
		t.Fatal(err)
	}
	var before, after uint64
	l.Do(ctx, func(core.Scene) { before = l.Steps() })
	time.Sleep(30 * time.Millisecond)
	l.Do(ctx, func(core.Scene) { after = l.Steps() })
	if before != after {
		t.Fatalf("paused loop stepped from %d to %d", before, after)
	}
}

func TestDoAfterStop(t *testing.T) {
	l, _, _ := startLoop(t, 0)
	l.Stop()
	l.Stop()
	<-l.done
	if err := l.Do(context.Background(), func(core.Scene) {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
}
