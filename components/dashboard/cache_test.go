package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(10 * time.Minute)
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	val1, err := cache.GetOrLoad("key", render)
	require.NoError(t, err)
	val2, err := cache.GetOrLoad("key", render)
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 1, calls)
}

func TestTTLCacheExpires(t *testing.T) {
	cache := NewTTLCache[int](time.Minute)
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	calls := 0
	load := func() (int, error) {
		calls++
		return calls, nil
	}

	_, err := cache.GetOrLoad("key", load)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	val, err := cache.GetOrLoad("key", load)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, val)
}

func TestTTLCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewTTLCache[string](time.Minute)
	_, err := cache.GetOrLoad("key", func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestTTLCacheZeroTTLDisablesCaching(t *testing.T) {
	cache := NewTTLCache[string](0)
	calls := 0
	for i := 0; i < 3; i++ {
		_, err := cache.GetOrLoad("key", func() (string, error) {
			calls++
			return "v", nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestTTLCacheInvalidate(t *testing.T) {
	cache := NewTTLCache[string](time.Minute)
	_, err := cache.GetOrLoad("a", func() (string, error) { return "1", nil })
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())
	cache.Invalidate()
	assert.Equal(t, 0, cache.Len())
}

func TestConfigHashIsStable(t *testing.T) {
	a := configHash(map[string]any{"b": 2, "a": 1})
	b := configHash(map[string]any{"a": 1, "b": 2})
	assert.Equal(t, a, b)
	assert.Equal(t, "empty", configHash(nil))
}
