package source

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// blockingFetch counts calls and blocks each one until release is signalled.
type blockingFetch struct {
	calls   atomic.Int64
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	value int
	err   error
}

func newBlockingFetch() *blockingFetch {
	return &blockingFetch{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (f *blockingFetch) set(value int, err error) {
	f.mu.Lock()
	f.value, f.err = value, err
	f.mu.Unlock()
}

func (f *blockingFetch) fetch(ctx context.Context) (int, error) {
	f.calls.Add(1)
	f.entered <- struct{}{}
	<-f.release
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.value, nil
}

func waitEntered(t *testing.T, f *blockingFetch) {
	t.Helper()
	select {
	case <-f.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch was never entered")
	}
}

func TestRefreshCoalescesIntoInFlightFetch(t *testing.T) {
	f := newBlockingFetch()
	f.set(42, nil)
	p := New("balance", time.Hour, f.fetch, nil)

	p.Start(context.Background())
	defer p.Stop()
	waitEntered(t, f)

	// The initial fetch is still on the wire; these must not start a second one.
	p.Refresh()
	p.Refresh()
	waited := make(chan struct{})
	go func() {
		p.RefreshWait(context.Background())
		close(waited)
	}()

	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 1, f.calls.Load())
	require.Equal(t, Loading, p.State().Status)

	close(f.release)
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("RefreshWait did not return after the fetch settled")
	}

	snap := p.Snapshot()
	require.Equal(t, Ready, snap.Status)
	require.Equal(t, 42, snap.Value)
	require.EqualValues(t, 1, f.calls.Load())
}

func TestErrorKeepsPreviousValue(t *testing.T) {
	f := newBlockingFetch()
	f.set(7, nil)
	close(f.release) // no blocking for this test
	p := New("btc_price", time.Hour, f.fetch, nil)

	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		return p.State().Status == Ready
	}, 2*time.Second, 10*time.Millisecond)

	f.set(7, errors.New("backend down"))
	p.RefreshWait(context.Background())

	snap := p.Snapshot()
	require.Equal(t, Error, snap.Status)
	require.Equal(t, "backend down", snap.Err)
	require.True(t, snap.HasValue)
	require.Equal(t, 7, snap.Value)

	// The next success clears the error again.
	f.set(9, nil)
	p.RefreshWait(context.Background())

	snap = p.Snapshot()
	require.Equal(t, Ready, snap.Status)
	require.Empty(t, snap.Err)
	require.Equal(t, 9, snap.Value)
}

func TestStopDiscardsInFlightResult(t *testing.T) {
	f := newBlockingFetch()
	f.set(99, nil)
	p := New("stocks", time.Hour, f.fetch, nil)

	p.Start(context.Background())
	waitEntered(t, f)

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	close(f.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	snap := p.Snapshot()
	require.False(t, snap.HasValue)
	require.NotEqual(t, 99, snap.Value)
}

func TestFirstLoadSemantics(t *testing.T) {
	f := newBlockingFetch()
	p := New("trades", time.Hour, f.fetch, nil)

	require.True(t, p.State().FirstLoad(), "idle source is a first load")

	p.Start(context.Background())
	defer p.Stop()
	waitEntered(t, f)
	require.True(t, p.State().FirstLoad(), "first fetch in flight is still a first load")

	close(f.release)
	require.Eventually(t, func() bool {
		return p.State().Status == Ready
	}, 2*time.Second, 10*time.Millisecond)
	require.False(t, p.State().FirstLoad())

	// A refresh of an already-populated source is not a first load.
	f.set(0, errors.New("flaky"))
	p.RefreshWait(context.Background())
	require.False(t, p.State().FirstLoad())
}

func TestOnUpdateFiresOnTransitions(t *testing.T) {
	f := newBlockingFetch()
	f.set(1, nil)
	close(f.release)
	p := New("pairs", time.Hour, f.fetch, nil)

	var updates atomic.Int64
	p.OnUpdate(func() { updates.Add(1) })

	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		return p.State().Status == Ready
	}, 2*time.Second, 10*time.Millisecond)
	// At least Loading and Ready transitions.
	require.GreaterOrEqual(t, updates.Load(), int64(2))
}

func TestRefreshAfterStopIsNoOp(t *testing.T) {
	f := newBlockingFetch()
	close(f.release)
	p := New("stats", time.Hour, f.fetch, nil)

	p.Start(context.Background())
	require.Eventually(t, func() bool {
		return p.State().Status == Ready
	}, 2*time.Second, 10*time.Millisecond)
	p.Stop()

	before := f.calls.Load()
	p.Refresh()
	p.RefreshWait(context.Background())
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, before, f.calls.Load())
}
