package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is the lifecycle state of a polled source.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

// FetchFunc loads one fresh value for a source.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is the type-erased part of a poller snapshot, for callers that
// aggregate pollers of different value types.
type State struct {
	Status        Status
	HasValue      bool
	Err           string
	LastFetchedAt time.Time
}

// FirstLoad reports whether the source has never settled: it is still idle or
// in its very first fetch. Transient errors after a value exists are not a
// first load.
func (s State) FirstLoad() bool {
	if s.Status == Idle {
		return true
	}
	return s.Status == Loading && !s.HasValue && s.Err == ""
}

// Snapshot is an atomic view of a poller. Value keeps the last successfully
// fetched result even while Status is Error, so a transient failure never
// blanks an already-populated view.
type Snapshot[T any] struct {
	Value T
	State
}

// Poller owns the fetch/refresh lifecycle of one data source. It fetches once
// on Start and then on every interval tick; at most one fetch is ever in
// flight, and refresh requests arriving mid-fetch are coalesced into the
// in-flight one instead of issuing a duplicate call.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	log      *zap.Logger
	onUpdate func()

	mu        sync.Mutex
	snap      Snapshot[T]
	inFlight  bool
	fetchDone chan struct{}
	ctx       context.Context
	stop      context.CancelFunc
	done      chan struct{}
	started   bool
}

// New creates a poller named name that refetches every interval.
func New[T any](name string, interval time.Duration, fetch FetchFunc[T], log *zap.Logger) *Poller[T] {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		log:      log.With(zap.String("source", name)),
	}
}

// OnUpdate registers fn to run after every state transition. Must be set
// before Start.
func (p *Poller[T]) OnUpdate(fn func()) { p.onUpdate = fn }

func (p *Poller[T]) Name() string { return p.name }

// Snapshot returns the current value and state atomically.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// State returns the snapshot without the typed value.
func (p *Poller[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap.State
}

// Start activates the poller: an immediate fetch, then one per interval,
// until ctx is cancelled or Stop is called. Subsequent calls are no-ops.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.ctx, p.stop = context.WithCancel(ctx)
	p.done = make(chan struct{})
	ctx = p.ctx
	p.mu.Unlock()

	go p.loop(ctx)
}

// Stop deactivates the poller and waits for its loop to exit. A fetch caught
// mid-flight may still complete on the wire; its result is discarded.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	stop, done := p.stop, p.done
	p.mu.Unlock()

	stop()
	<-done
}

// Refresh forces an out-of-cadence fetch. If one is already in flight the
// request is absorbed by it.
func (p *Poller[T]) Refresh() {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	go p.runFetch(ctx)
}

// RefreshWait forces a fetch and blocks until it settles, success or failure.
// A fetch already in flight satisfies the request.
func (p *Poller[T]) RefreshWait(ctx context.Context) {
	p.mu.Lock()
	pctx := p.ctx
	p.mu.Unlock()
	if pctx == nil || pctx.Err() != nil {
		return
	}

	done, started := p.begin()
	if !started {
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	p.notify()
	p.doFetch(pctx, done)
}

func (p *Poller[T]) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runFetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runFetch(ctx)
		}
	}
}

// begin claims the in-flight slot. When a fetch is already running it returns
// that fetch's completion channel and false.
func (p *Poller[T]) begin() (chan struct{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return p.fetchDone, false
	}
	p.inFlight = true
	p.fetchDone = make(chan struct{})
	p.snap.Status = Loading
	return p.fetchDone, true
}

func (p *Poller[T]) runFetch(ctx context.Context) {
	done, started := p.begin()
	if !started {
		<-done // coalesced into the in-flight fetch
		return
	}
	p.notify()
	p.doFetch(ctx, done)
}

func (p *Poller[T]) doFetch(ctx context.Context, done chan struct{}) {
	value, err := p.fetch(ctx)

	p.mu.Lock()
	p.inFlight = false
	close(done)
	if ctx.Err() != nil {
		// Deactivated while the fetch was on the wire: drop the result.
		p.mu.Unlock()
		return
	}
	if err != nil {
		// Keep the previous value so the view is stale, not blank.
		p.snap.Status = Error
		p.snap.Err = err.Error()
		p.mu.Unlock()
		p.log.Warn("fetch failed", zap.Error(err))
		p.notify()
		return
	}
	p.snap.Value = value
	p.snap.HasValue = true
	p.snap.Status = Ready
	p.snap.Err = ""
	p.snap.LastFetchedAt = time.Now()
	p.mu.Unlock()
	p.log.Debug("fetch ok")
	p.notify()
}

func (p *Poller[T]) notify() {
	if p.onUpdate != nil {
		p.onUpdate()
	}
}
