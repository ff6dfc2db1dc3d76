package field

import (
	"fmt"
	"log"
	"math"
	"os"
	"sync/atomic"
)

// Evaluator owns an ordered, capacity-bounded set of control points and
// evaluates the influence field they produce.
//
// All mutating methods must be called from a single goroutine. Other
// goroutines read the state through snapshots published by Commit.
type Evaluator struct {
	cfg  Config
	warp Warp

	slots  []ControlPoint
	active int
	time   float64

	version uint64
	latest  atomic.Pointer[Snapshot]

	logger *log.Logger
}

// New allocates an evaluator with cfg.Capacity pre-allocated slots and
// publishes an initial empty snapshot.
func New(cfg Config) *Evaluator {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	e := &Evaluator{
		cfg:    cfg,
		warp:   NewWarp(cfg),
		slots:  make([]ControlPoint, cfg.Capacity),
		logger: log.New(os.Stderr, "(field) > ", log.LstdFlags),
	}
	e.Commit()
	return e
}

// SetLogger replaces the logger used for rejected operations. A nil logger
// restores the default.
func (e *Evaluator) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(os.Stderr, "(field) > ", log.LstdFlags)
	}
	e.logger = l
}

// Config returns the configuration the evaluator was built with.
func (e *Evaluator) Config() Config { return e.cfg }

// Retune replaces every setting except the capacity, which is fixed at
// construction. Stored point colours are kept.
func (e *Evaluator) Retune(cfg Config) {
	cfg.Capacity = len(e.slots)
	e.cfg = cfg
	e.warp = NewWarp(cfg)
	e.touch()
}

// Len returns the number of active points.
func (e *Evaluator) Len() int { return e.active }

// Cap returns the fixed slot capacity.
func (e *Evaluator) Cap() int { return len(e.slots) }

// Version increments on every change that affects evaluation.
func (e *Evaluator) Version() uint64 { return e.version }

// Time returns the current warp time.
func (e *Evaluator) Time() float64 { return e.time }

// SetTime sets the warp time.
func (e *Evaluator) SetTime(t float64) {
	if t == e.time {
		return
	}
	e.time = t
	e.touch()
}

// Advance moves the warp time forward by dt.
func (e *Evaluator) Advance(dt float64) {
	if dt == 0 {
		return
	}
	e.time += dt
	e.touch()
}

// CreatePoint appends a point with the configured point colour and returns
// its index.
func (e *Evaluator) CreatePoint(pos Vec3, radius float64) (int, error) {
	return e.CreateColoredPoint(pos, radius, e.cfg.PointColor)
}

// CreateColoredPoint appends a point with an explicit colour. The point lands
// in slot Len(), which may hold stale data after SetActiveLength; it is
// overwritten.
func (e *Evaluator) CreateColoredPoint(pos Vec3, radius float64, c Color) (int, error) {
	if e.active >= len(e.slots) {
		return -1, e.reject(fmt.Errorf("%w: %d points", ErrCapacityExceeded, len(e.slots)))
	}
	if !validRadius(radius) {
		return -1, e.reject(fmt.Errorf("%w: got %v", ErrInvalidRadius, radius))
	}
	idx := e.active
	e.slots[idx] = ControlPoint{Position: pos, Radius: radius, Color: c}
	e.active++
	e.touch()
	return idx, nil
}

// UpdatePoint replaces the position of point i.
func (e *Evaluator) UpdatePoint(i int, pos Vec3) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	e.slots[i].Position = pos
	e.touch()
	return nil
}

// SetRadius replaces the radius of point i.
func (e *Evaluator) SetRadius(i int, r float64) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	if !validRadius(r) {
		return e.reject(fmt.Errorf("%w: got %v for point %d", ErrInvalidRadius, r, i))
	}
	e.slots[i].Radius = r
	e.touch()
	return nil
}

// AddRadiusToPoint adds delta to the radius of point i. The result must stay
// positive.
func (e *Evaluator) AddRadiusToPoint(i int, delta float64) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	r := e.slots[i].Radius + delta
	if !validRadius(r) {
		return e.reject(fmt.Errorf("%w: %v%+v for point %d", ErrInvalidRadius, e.slots[i].Radius, delta, i))
	}
	e.slots[i].Radius = r
	e.touch()
	return nil
}

// Radius returns the radius of point i, or 0 with ErrIndexOutOfRange.
func (e *Evaluator) Radius(i int) (float64, error) {
	if err := e.checkIndex(i); err != nil {
		return 0, err
	}
	return e.slots[i].Radius, nil
}

// SetColor replaces the classification colour of point i.
func (e *Evaluator) SetColor(i int, c Color) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	e.slots[i].Color = c
	e.touch()
	return nil
}

// Point returns a copy of point i.
func (e *Evaluator) Point(i int) (ControlPoint, error) {
	if err := e.checkIndex(i); err != nil {
		return ControlPoint{}, err
	}
	return e.slots[i], nil
}

// Points returns a copy of the active points in index order.
func (e *Evaluator) Points() []ControlPoint {
	return append([]ControlPoint(nil), e.slots[:e.active]...)
}

// SetActiveLength truncates or grows the active range to n points. Slots past
// the new length are cleared or kept according to the shrink policy. Growing
// exposes whatever the slots hold; never-written slots have a zero radius and
// contribute nothing.
func (e *Evaluator) SetActiveLength(n int) error {
	if n < 0 || n > len(e.slots) {
		return e.reject(fmt.Errorf("%w: length %d not in [0, %d]", ErrIndexOutOfRange, n, len(e.slots)))
	}
	if n < e.active && e.cfg.Shrink == ShrinkZero {
		clear(e.slots[n:e.active])
	}
	if n != e.active {
		e.active = n
		e.touch()
	}
	return nil
}

// Clear drops every point, zeroes all slots and rewinds the warp time.
func (e *Evaluator) Clear() {
	clear(e.slots)
	e.active = 0
	e.time = 0
	e.touch()
}

// EvaluateField returns the warped field value at q for the current state.
func (e *Evaluator) EvaluateField(q Vec3) float64 {
	return influence(e.slots[:e.active], q.Add(e.warp.Offset(q, e.time)))
}

// ClassifyNearest returns the colour of the first point within the
// classification threshold of the warped query, or the fallback colour.
func (e *Evaluator) ClassifyNearest(q Vec3) Color {
	return e.Classify(q).Color
}

// Classify is ClassifyNearest with the matching index.
func (e *Evaluator) Classify(q Vec3) Classification {
	return classify(e.slots[:e.active], q.Add(e.warp.Offset(q, e.time)), e.cfg.Threshold, e.cfg.FallbackColor)
}

// Elevation is the host-side field approximation: the same kernel without
// the warp. It can differ from the rendered surface by up to the warp
// amplitude near point boundaries.
func (e *Evaluator) Elevation(q Vec3) float64 {
	return influence(e.slots[:e.active], q)
}

// Commit publishes an immutable snapshot of the current state. When nothing
// changed since the last commit the previous snapshot is returned.
func (e *Evaluator) Commit() *Snapshot {
	if cur := e.latest.Load(); cur != nil && cur.Version == e.version {
		return cur
	}
	s := &Snapshot{
		Version:   e.version,
		Time:      e.time,
		capacity:  len(e.slots),
		points:    append([]ControlPoint(nil), e.slots[:e.active]...),
		warp:      e.warp,
		threshold: e.cfg.Threshold,
		fallback:  e.cfg.FallbackColor,
	}
	e.latest.Store(s)
	return s
}

// Latest returns the most recently committed snapshot. It is safe for
// concurrent use.
func (e *Evaluator) Latest() *Snapshot { return e.latest.Load() }

func (e *Evaluator) touch() { e.version++ }

func (e *Evaluator) checkIndex(i int) error {
	if i < 0 || i >= e.active {
		return e.reject(fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, e.active))
	}
	return nil
}

func (e *Evaluator) reject(err error) error {
	e.logger.Printf("ignored: %v", err)
	return err
}

func validRadius(r float64) bool {
	return r > 0 && !math.IsInf(r, 1)
}
