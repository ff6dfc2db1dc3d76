package field

import (
	"context"
	"runtime"
	"sync"
)

// SnapshotSource hands out the most recently published snapshot.
type SnapshotSource interface {
	Latest() *Snapshot
}

type queryKind int

const (
	queryElevation queryKind = iota
	queryField
)

// Result is the outcome of an asynchronous query.
type Result struct {
	Query Vec3
	Value float64
	// Version of the snapshot the value was computed from.
	Version uint64
	Err     error
}

// Pending is a query in flight. It completes exactly once.
type Pending struct {
	done chan struct{}
	res  Result
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns the result without blocking. ok is false while the query is
// still running.
func (p *Pending) Result() (res Result, ok bool) {
	select {
	case <-p.done:
		return p.res, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the result is available or ctx ends. Ending ctx does not
// cancel the query itself.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.done:
		return p.res, p.res.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

type queryJob struct {
	kind    queryKind
	q       Vec3
	pending *Pending
	fn      func(Result)
}

// Querier answers field queries off the host goroutine against the latest
// published snapshot. Outstanding queries complete in no particular order;
// callers that issue several queries for the same target should keep the
// last result they receive.
type Querier struct {
	src  SnapshotSource
	jobs chan queryJob
	quit chan struct{}
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQuerier starts workers goroutines reading from src. A non-positive
// worker count uses GOMAXPROCS.
func NewQuerier(src SnapshotSource, workers int) *Querier {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	q := &Querier{
		src:  src,
		jobs: make(chan queryJob, workers*64),
		quit: make(chan struct{}),
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

// ElevationAt queries the unwarped host elevation at pos.
func (q *Querier) ElevationAt(pos Vec3) *Pending {
	return q.submit(queryJob{kind: queryElevation, q: pos})
}

// FieldAt queries the warped field value at pos.
func (q *Querier) FieldAt(pos Vec3) *Pending {
	return q.submit(queryJob{kind: queryField, q: pos})
}

// ElevationAtFunc queries the host elevation at pos and reports the result
// through fn, which runs on a worker goroutine (or on the caller's goroutine
// when the querier is closed).
func (q *Querier) ElevationAtFunc(pos Vec3, fn func(Result)) {
	q.submit(queryJob{kind: queryElevation, q: pos, fn: fn})
}

// Close stops the workers. Queries still queued complete with ErrClosed.
func (q *Querier) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.quit)
	q.wg.Wait()
	for {
		select {
		case job := <-q.jobs:
			finish(job, Result{Query: job.q, Err: ErrClosed})
		default:
			return
		}
	}
}

func (q *Querier) submit(job queryJob) *Pending {
	job.pending = &Pending{done: make(chan struct{})}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		finish(job, Result{Query: job.q, Err: ErrClosed})
		return job.pending
	}
	q.jobs <- job
	return job.pending
}

func (q *Querier) worker() {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			finish(job, q.run(job))
		case <-q.quit:
			return
		}
	}
}

func (q *Querier) run(job queryJob) Result {
	snap := q.src.Latest()
	if snap == nil {
		return Result{Query: job.q}
	}
	res := Result{Query: job.q, Version: snap.Version}
	switch job.kind {
	case queryField:
		res.Value = snap.Field(job.q)
	default:
		res.Value = snap.Elevation(job.q)
	}
	return res
}

func finish(job queryJob, res Result) {
	job.pending.res = res
	close(job.pending.done)
	if job.fn != nil {
		job.fn(res)
	}
}
