package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spektr-org/plwdash/engine"
	"github.com/spektr-org/plwdash/loader"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingLoader returns a fresh dataset per call and counts calls.
type countingLoader struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (l *countingLoader) load(ctx context.Context) (*loader.Dataset, error) {
	n := l.calls.Add(1)
	if l.fail.Load() {
		return nil, errors.New("sheet unavailable")
	}
	return &loader.Dataset{
		Records:  []engine.Record{{BeneficiaryID: "1001"}},
		Source:   "test",
		LoadedAt: time.Unix(int64(n), 0),
	}, nil
}

func TestGetCachesWithinTTL(t *testing.T) {
	l := &countingLoader{}
	c := New(time.Hour, l.load)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	second, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, l.calls.Load())

	at, ok := c.LoadedAt()
	assert.True(t, ok)
	assert.Equal(t, time.Unix(1, 0), at)
}

func TestGetReloadsAfterTTL(t *testing.T) {
	l := &countingLoader{}
	c := New(20*time.Millisecond, l.load)

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := c.LoadedAt()
		return !ok
	}, time.Second, 5*time.Millisecond)

	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, l.calls.Load())
}

func TestErrorsAreNotCached(t *testing.T) {
	l := &countingLoader{}
	l.fail.Store(true)
	c := New(time.Hour, l.load)

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet unavailable")
	_, ok := c.LoadedAt()
	assert.False(t, ok)

	l.fail.Store(false)
	ds, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Records, 1)
	assert.EqualValues(t, 2, l.calls.Load())
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := New(time.Hour, func(ctx context.Context) (*loader.Dataset, error) {
		calls.Add(1)
		<-release
		return &loader.Dataset{}, nil
	})

	const n = 16
	var wg sync.WaitGroup
	results := make([]*loader.Dataset, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := c.Get(context.Background())
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, ds := range results {
		assert.Same(t, results[0], ds)
	}
}

func TestRefreshReloads(t *testing.T) {
	l := &countingLoader{}
	c := New(time.Hour, l.load)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	refreshed, err := c.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, refreshed)
	assert.EqualValues(t, 2, l.calls.Load())

	c.Invalidate()
	_, ok := c.LoadedAt()
	assert.False(t, ok)
}

func TestRefreshDiscardsInFlightLoad(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(time.Hour, func(ctx context.Context) (*loader.Dataset, error) {
		n := calls.Add(1)
		if n == 1 {
			close(started)
			<-release
		}
		return &loader.Dataset{Source: "test", LoadedAt: time.Unix(int64(n), 0)}, nil
	})

	stale := make(chan *loader.Dataset, 1)
	go func() {
		ds, err := c.Get(context.Background())
		assert.NoError(t, err)
		stale <- ds
	}()
	<-started

	refreshed, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Unix(2, 0), refreshed.LoadedAt)

	close(release)
	old := <-stale
	require.NotNil(t, old)
	assert.Equal(t, time.Unix(1, 0), old.LoadedAt)

	current, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, refreshed, current)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetHonorsCancelledContext(t *testing.T) {
	release := make(chan struct{})
	c := New(time.Hour, func(ctx context.Context) (*loader.Dataset, error) {
		<-release
		return &loader.Dataset{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The shared load still completes and is stored for the next caller.
	close(release)
	require.Eventually(t, func() bool {
		_, ok := c.LoadedAt()
		return ok
	}, time.Second, time.Millisecond)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	l := &countingLoader{}
	c := New(0, l.load)
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, l.calls.Load())
	assert.Zero(t, c.TTL())
}
