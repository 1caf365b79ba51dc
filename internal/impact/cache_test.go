package impact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_ComputesOncePerKey(t *testing.T) {
	t.Parallel()
	c := NewCache()
	var calls atomic.Int32
	compute := func(context.Context) (*Prediction, error) {
		calls.Add(1)
		return &Prediction{SymbolID: 1}, nil
	}
	key := Key{SymbolID: 1, Kind: ChangeType}

	a, err := c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	b, err := c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_ConcurrentSameKeyBlocksOnOneFlight(t *testing.T) {
	t.Parallel()
	c := NewCache()
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	compute := func(context.Context) (*Prediction, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return &Prediction{SymbolID: 9}, nil
	}
	key := Key{SymbolID: 9, Kind: ChangeRemoval}

	const callers = 16
	results := make([]*Prediction, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.GetOrCompute(context.Background(), key, compute)
			if assert.NoError(t, err) {
				results[i] = p
			}
		}()
	}
	<-started
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, c.Len())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()
	c := NewCache()
	key := Key{SymbolID: 2, Kind: ChangeValue}
	boom := errors.New("boom")

	_, err := c.GetOrCompute(context.Background(), key, func(context.Context) (*Prediction, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	p, err := c.GetOrCompute(context.Background(), key, func(context.Context) (*Prediction, error) {
		return &Prediction{SymbolID: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.SymbolID)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Errors)
	assert.Equal(t, int64(1), stats.Computes)
}

func TestCache_KeysAreDistinctPerChangeKind(t *testing.T) {
	t.Parallel()
	c := NewCache()
	for _, kind := range ChangeKinds {
		_, err := c.GetOrCompute(context.Background(), Key{SymbolID: 1, Kind: kind}, func(context.Context) (*Prediction, error) {
			return &Prediction{ChangeKind: kind}, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, len(ChangeKinds), c.Len())

	p, ok := c.Get(Key{SymbolID: 1, Kind: ChangeDependency})
	require.True(t, ok)
	assert.Equal(t, ChangeDependency, p.ChangeKind)
}

func TestCache_CancelledCallerDoesNotCompute(t *testing.T) {
	t.Parallel()
	c := NewCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := c.GetOrCompute(ctx, Key{SymbolID: 3, Kind: ChangeType}, func(context.Context) (*Prediction, error) {
		calls.Add(1)
		return &Prediction{SymbolID: 3}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
	assert.Zero(t, c.Len())
}

func TestCache_CallerCancelMidFlightLeavesComputationIntact(t *testing.T) {
	t.Parallel()
	c := NewCache()
	key := Key{SymbolID: 4, Kind: ChangeSignature}
	started := make(chan struct{})
	release := make(chan struct{})
	var computeErr atomic.Value
	compute := func(ctx context.Context) (*Prediction, error) {
		close(started)
		<-release
		computeErr.Store(fmt.Sprint(ctx.Err()))
		return &Prediction{SymbolID: 4, Found: true}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(ctx, key, compute)
		done <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "<nil>", computeErr.Load())

	p, err := c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.True(t, p.Found)
	assert.Equal(t, int64(1), c.Stats().Computes)
}
