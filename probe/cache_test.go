package probe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semalign/enginetest"
	"github.com/c360/semalign/errors"
)

func newCachedProber(t *testing.T, eng *enginetest.Engine, ttl time.Duration) *Cache {
	t.Helper()

	prober, err := New(eng)
	require.NoError(t, err)
	cached, err := NewCache(prober, ttl)
	require.NoError(t, err)
	return cached
}

func TestCache_ServesRepeatProbesFromCache(t *testing.T) {
	eng := enginetest.New()
	ref := eng.NewObject("is-magma", "is-associative")
	cached := newCachedProber(t, eng, time.Minute)

	first, err := cached.Probe(context.Background(), ref)
	require.NoError(t, err)
	second, err := cached.Probe(context.Background(), ref)
	require.NoError(t, err)

	assert.Len(t, eng.Describes(), 1, "second probe should hit the cache")
	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, 1, cached.Len())
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	eng := enginetest.New()
	ref := eng.NewObject("is-magma")
	eng.FailDescribe(ref, "Error, connection reset")
	cached := newCachedProber(t, eng, time.Minute)

	_, err := cached.Probe(context.Background(), ref)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrExternalCall)
	assert.Equal(t, 0, cached.Len())

	// Once the engine recovers the next probe goes through
	eng.ClearFailures()
	result, err := cached.Probe(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, result.Has("is-magma"))
	assert.Len(t, eng.Describes(), 2)
}

func TestCache_Invalidate(t *testing.T) {
	eng := enginetest.New()
	ref := eng.NewObject("is-magma")
	cached := newCachedProber(t, eng, time.Minute)

	_, err := cached.Probe(context.Background(), ref)
	require.NoError(t, err)

	// The object gained an identifier; stale evidence must go
	eng.AddObject(ref, "is-magma", "is-associative")
	cached.Invalidate(ref)

	result, err := cached.Probe(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, result.Has("is-associative"))
	assert.Len(t, eng.Describes(), 2)
}

func TestCache_EntriesExpire(t *testing.T) {
	eng := enginetest.New()
	ref := eng.NewObject("is-magma")
	cached := newCachedProber(t, eng, 50*time.Millisecond)

	_, err := cached.Probe(context.Background(), ref)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)

	_, err = cached.Probe(context.Background(), ref)
	require.NoError(t, err)
	assert.Len(t, eng.Describes(), 2, "expired entry should trigger a fresh probe")
}

func TestCache_Flush(t *testing.T) {
	eng := enginetest.New()
	refA := eng.NewObject("is-magma")
	refB := eng.NewObject("is-finite")
	cached := newCachedProber(t, eng, time.Minute)

	_, err := cached.Probe(context.Background(), refA)
	require.NoError(t, err)
	_, err = cached.Probe(context.Background(), refB)
	require.NoError(t, err)
	require.Equal(t, 2, cached.Len())

	cached.Flush()
	assert.Equal(t, 0, cached.Len())
}

func TestCache_RequiresSource(t *testing.T) {
	_, err := NewCache(nil, time.Minute)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestCache_DefaultTTL(t *testing.T) {
	eng := enginetest.New()
	prober, err := New(eng)
	require.NoError(t, err)

	cached, err := NewCache(prober, 0)
	require.NoError(t, err)
	assert.NotNil(t, cached)
}
