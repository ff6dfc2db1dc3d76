// Package host runs a scene on a single owner goroutine. Every mutation of
// the scene and its evaluator is funnelled through that goroutine; readers on
// other goroutines use published snapshots.
package host

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"geometree/internal/core"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("host: loop stopped")

// Loop owns a scene and steps it at a fixed rate.
type Loop struct {
	scene   core.Scene
	actions chan func()
	quit    chan struct{}
	done    chan struct{}
	tps     int
	paused  bool
	steps   uint64
	logger  *log.Logger
}

// New builds a loop for scene stepping tps times per second. A tps of zero
// or less disables stepping; actions still run.
func New(scene core.Scene, tps int) *Loop {
	return &Loop{
		scene:   scene,
		actions: make(chan func()),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		tps:     tps,
		logger:  log.New(os.Stderr, "(host) > ", log.LstdFlags),
	}
}

// SetLogger replaces the loop logger. Call before Run.
func (l *Loop) SetLogger(lg *log.Logger) {
	if lg != nil {
		l.logger = lg
	}
}

// Scene returns the hosted scene. Only touch it from inside Do.
func (l *Loop) Scene() core.Scene { return l.scene }

// Run processes actions and ticks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	var tick <-chan time.Time
	if l.tps > 0 {
		t := time.NewTicker(time.Second / time.Duration(l.tps))
		defer t.Stop()
		tick = t.C
	}
	l.logger.Printf("hosting %s at %d tps", l.scene.Name(), l.tps)

	for {
		select {
		case f := <-l.actions:
			f()
		case <-tick:
			if !l.paused {
				l.scene.Step()
				l.steps++
			}
		case <-l.quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (l *Loop) Stop() {
	select {
	case <-l.quit:
	default:
		close(l.quit)
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func(core.Scene)) error {
	c := make(chan struct{})
	action := func() {
		defer close(c)
		fn(l.scene)
	}
	select {
	case l.actions <- action:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c:
		return nil
	case <-ctx.Done():
		// fn still completes on the loop; the caller just stops waiting.
		return ctx.Err()
	}
}

// StepNow advances the scene once regardless of the ticker.
func (l *Loop) StepNow(ctx context.Context) error {
	return l.Do(ctx, func(s core.Scene) {
		s.Step()
		l.steps++
	})
}

// SetPaused stops or resumes ticking.
func (l *Loop) SetPaused(ctx context.Context, paused bool) error {
	return l.Do(ctx, func(core.Scene) { l.paused = paused })
}

// Steps reports how many steps the loop has taken. Run it through Do when
// the loop is live.
func (l *Loop) Steps() uint64 { return l.steps }

// Pixels returns a copy of the scene pixels taken on the loop goroutine.
func (l *Loop) Pixels(ctx context.Context) ([]byte, core.Size, error) {
	var (
		out  []byte
		size core.Size
	)
	err := l.Do(ctx, func(s core.Scene) {
		size = s.Size()
		out = append([]byte(nil), s.Pixels()...)
	})
	return out, size, err
}
