package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"tradedash/pkg/source"
)

// Source is the common poller surface, independent of the polled value's
// type. Satisfied by *source.Poller[T] for any T.
type Source interface {
	Name() string
	Start(ctx context.Context)
	Stop()
	Refresh()
	RefreshWait(ctx context.Context)
	State() source.State
}

// Aggregator composes independent sources into one screen. Sources fail and
// recover on their own: a broken feed only ever shows up in its own slot of
// Errors() and never prevents the healthy feeds from rendering.
type Aggregator struct {
	sources []Source
	log     *zap.Logger

	mu         sync.Mutex
	refreshing bool
}

// NewAggregator builds an aggregator over the given sources.
func NewAggregator(log *zap.Logger, sources ...Source) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{sources: sources, log: log}
}

// Start activates every source.
func (a *Aggregator) Start(ctx context.Context) {
	for _, s := range a.sources {
		s.Start(ctx)
	}
	a.log.Info("dashboard sources started", zap.Int("count", len(a.sources)))
}

// Stop deactivates every source.
func (a *Aggregator) Stop() {
	for _, s := range a.sources {
		s.Stop()
	}
}

// Loading reports whether any source is still in its first load.
func (a *Aggregator) Loading() bool {
	for _, s := range a.sources {
		if s.State().FirstLoad() {
			return true
		}
	}
	return false
}

// Errors returns one message per failed source, keyed by source name.
// Messages are never merged into a single error.
func (a *Aggregator) Errors() map[string]string {
	errs := make(map[string]string)
	for _, s := range a.sources {
		if st := s.State(); st.Status == source.Error && st.Err != "" {
			errs[s.Name()] = st.Err
		}
	}
	return errs
}

// Refreshing reports whether a RefreshAll cycle is still settling.
func (a *Aggregator) Refreshing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshing
}

// RefreshAll forces every source to refetch concurrently and blocks until
// all of them settle, success or failure, in whatever order they complete.
// A cycle already in progress absorbs the request.
func (a *Aggregator) RefreshAll(ctx context.Context) {
	a.mu.Lock()
	if a.refreshing {
		a.mu.Unlock()
		return
	}
	a.refreshing = true
	a.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range a.sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			s.RefreshWait(ctx)
		}(s)
	}
	wg.Wait()

	a.mu.Lock()
	a.refreshing = false
	a.mu.Unlock()
}
