package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tradedash/pkg/source"
)

type fakeFeed struct {
	mu    sync.Mutex
	value int
	err   error

	calls   atomic.Int64
	gate    chan struct{} // when set, every call past the first blocks on it
	gateNow atomic.Bool
}

func (f *fakeFeed) set(value int, err error) {
	f.mu.Lock()
	f.value, f.err = value, err
	f.mu.Unlock()
}

func (f *fakeFeed) fetch(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if f.gateNow.Load() {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.value, nil
}

func newPoller(name string, feed *fakeFeed) *source.Poller[int] {
	return source.New(name, time.Hour, feed.fetch, nil)
}

func settled(agg *Aggregator) func() bool {
	return func() bool { return !agg.Loading() }
}

func TestSourceFailureIsIsolated(t *testing.T) {
	balanceFeed := &fakeFeed{}
	balanceFeed.set(0, errors.New("Could not validate credentials"))
	btcFeed := &fakeFeed{}
	btcFeed.set(60000, nil)

	balance := newPoller("balance", balanceFeed)
	btc := newPoller("btc_price", btcFeed)
	agg := NewAggregator(nil, balance, btc)

	agg.Start(context.Background())
	defer agg.Stop()

	require.Eventually(t, func() bool {
		return balance.State().Status == source.Error && btc.State().Status == source.Ready
	}, 2*time.Second, 10*time.Millisecond)

	errs := agg.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, "Could not validate credentials", errs["balance"])

	// The healthy feed keeps its data regardless of the broken one.
	require.Equal(t, 60000, btc.Snapshot().Value)
	require.False(t, agg.Loading())
}

func TestSourceRecoveryClearsItsErrorSlot(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(0, errors.New("backend down"))
	p := newPoller("stocks", feed)
	agg := NewAggregator(nil, p)

	agg.Start(context.Background())
	defer agg.Stop()

	require.Eventually(t, func() bool {
		return len(agg.Errors()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	feed.set(42, nil)
	p.RefreshWait(context.Background())
	require.Empty(t, agg.Errors())
}

func TestLoadingReflectsFirstLoadOnly(t *testing.T) {
	slow := &fakeFeed{gate: make(chan struct{})}
	slow.gateNow.Store(true)
	fast := &fakeFeed{}
	fast.set(1, nil)

	agg := NewAggregator(nil, newPoller("trades", slow), newPoller("pairs", fast))
	require.True(t, agg.Loading(), "idle sources are loading")

	agg.Start(context.Background())
	defer agg.Stop()

	time.Sleep(30 * time.Millisecond)
	require.True(t, agg.Loading(), "one source still in its first fetch")

	slow.gateNow.Store(false)
	close(slow.gate)
	require.Eventually(t, settled(agg), 2*time.Second, 10*time.Millisecond)
}

func TestRefreshAllBlocksUntilEverySourceSettles(t *testing.T) {
	feeds := []*fakeFeed{{}, {}, {}}
	sources := make([]Source, len(feeds))
	for i, f := range feeds {
		f.set(i, nil)
		sources[i] = newPoller("feed", f)
	}
	agg := NewAggregator(nil, sources...)

	agg.Start(context.Background())
	defer agg.Stop()
	require.Eventually(t, settled(agg), 2*time.Second, 10*time.Millisecond)

	// Block every subsequent fetch, then refresh all sources at once.
	gate := make(chan struct{})
	for _, f := range feeds {
		f.gate = gate
		f.gateNow.Store(true)
	}

	done := make(chan struct{})
	go func() {
		agg.RefreshAll(context.Background())
		close(done)
	}()

	require.Eventually(t, agg.Refreshing, 2*time.Second, 5*time.Millisecond)
	select {
	case <-done:
		t.Fatal("RefreshAll returned while fetches were still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	for _, f := range feeds {
		f.gateNow.Store(false)
	}
	close(gate)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RefreshAll never returned")
	}
	require.False(t, agg.Refreshing())
}

func TestRefreshAllInProgressAbsorbsSecondCall(t *testing.T) {
	feed := &fakeFeed{}
	feed.set(1, nil)
	p := newPoller("stats", feed)
	agg := NewAggregator(nil, p)

	agg.Start(context.Background())
	defer agg.Stop()
	require.Eventually(t, settled(agg), 2*time.Second, 10*time.Millisecond)

	gate := make(chan struct{})
	feed.gate = gate
	feed.gateNow.Store(true)
	before := feed.calls.Load()

	done := make(chan struct{})
	go func() {
		agg.RefreshAll(context.Background())
		close(done)
	}()
	require.Eventually(t, agg.Refreshing, 2*time.Second, 5*time.Millisecond)

	// A second call during the cycle is absorbed: it returns immediately
	// while the first one is still blocked on its fetch.
	agg.RefreshAll(context.Background())
	require.True(t, agg.Refreshing())

	feed.gateNow.Store(false)
	close(gate)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RefreshAll never returned")
	}

	require.EqualValues(t, before+1, feed.calls.Load())
	require.False(t, agg.Refreshing())
}
