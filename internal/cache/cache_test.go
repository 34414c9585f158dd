package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	c, err := New(DefaultConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func countingLoader(calls *atomic.Int32, value string) func() (string, error) {
	return func() (string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestReadMemoizesUntilInvalidated(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		v, err := Read(c, "vaults", countingLoader(&calls, "v1"))
		require.NoError(t, err)
		assert.Equal(t, "v1", v)
	}
	assert.Equal(t, int32(1), calls.Load())

	c.Invalidate("vaults")
	v, err := Read(c, "vaults", countingLoader(&calls, "v2"))
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, int32(2), calls.Load())

	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestLoaderErrorsAreNotCached(t *testing.T) {
	c := newTestCache(t)
	boom := errors.New("boom")

	_, err := Read(c, "k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Read(c, "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestReadTypeMismatch(t *testing.T) {
	c := newTestCache(t)
	_, err := Read(c, "k", func() (int, error) { return 1, nil })
	require.NoError(t, err)

	_, err = Read(c, "k", func() (string, error) { return "x", nil })
	assert.Error(t, err)
}

func TestInvalidatePrefix(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int32

	for _, key := range []string{"transactions:alice:", "transactions:alice:deep-sui", "transactions:bob:", "vaults"} {
		_, err := Read(c, key, countingLoader(&calls, key))
		require.NoError(t, err)
	}
	require.Equal(t, int32(4), calls.Load())

	c.InvalidatePrefix("transactions:alice:")

	for _, key := range []string{"transactions:alice:", "transactions:alice:deep-sui", "transactions:bob:", "vaults"} {
		_, err := Read(c, key, countingLoader(&calls, key))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(6), calls.Load())
}

func TestInvalidateAll(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int32

	_, _ = Read(c, "a", countingLoader(&calls, "a"))
	_, _ = Read(c, "b", countingLoader(&calls, "b"))
	c.InvalidateAll()
	_, _ = Read(c, "a", countingLoader(&calls, "a"))
	_, _ = Read(c, "b", countingLoader(&calls, "b"))

	assert.Equal(t, int32(4), calls.Load())
}

func TestLoadRacingInvalidationIsNotPublished(t *testing.T) {
	c := newTestCache(t)

	v, err := Read(c, "positions:alice", func() (string, error) {
		// A write lands while the stale snapshot is being computed.
		c.Invalidate("positions:alice")
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", v)

	v, err = Read(c, "positions:alice", func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)

	c.InvalidateAll()
	_, err = Read(c, "positions:alice", func() (string, error) {
		c.InvalidateAll()
		return "stale", nil
	})
	require.NoError(t, err)
	v, err = Read(c, "positions:alice", func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	c := newTestCache(t)
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	loader := func() (string, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = Read(c, "k", loader)
	}()
	<-started
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Read(c, "k", loader)
		}(i)
	}
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "v", r)
	}
	assert.LessOrEqual(t, calls.Load(), int32(len(results)))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestObserver(t *testing.T) {
	var hits, misses int
	c := newTestCache(t, WithObserver(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}))

	_, _ = Read(c, "k", func() (int, error) { return 1, nil })
	_, _ = Read(c, "k", func() (int, error) { return 1, nil })
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}
