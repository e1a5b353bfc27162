package probe

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/c360/semalign/engine"
	"github.com/c360/semalign/errors"
	"github.com/c360/semalign/metric"
)

// DefaultTTL is how long cached probe results stay valid when no TTL is
// given. Engine objects can gain identifiers over time (a system may
// discover finiteness lazily), so cached evidence goes stale rather
// than wrong.
const DefaultTTL = 5 * time.Minute

// Cache decorates a Source with a per-ref TTL cache. Failed probes are
// never cached.
type Cache struct {
	source  Source
	store   *gocache.Cache
	logger  *slog.Logger
	metrics *metric.Metrics
}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithCacheLogger sets the logger for cache operations
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheMetrics enables cache hit and miss instrumentation
func WithCacheMetrics(metrics *metric.Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

// NewCache wraps a Source with a TTL cache. A non-positive ttl selects
// DefaultTTL.
func NewCache(source Source, ttl time.Duration, opts ...CacheOption) (*Cache, error) {
	if source == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig,
			"Cache", "NewCache", "probe source is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{
		source: source,
		store:  gocache.New(ttl, 2*ttl),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Probe returns cached evidence when present, otherwise delegates to the
// underlying source and caches the result
func (c *Cache) Probe(ctx context.Context, ref engine.Ref) (Result, error) {
	if v, ok := c.store.Get(string(ref)); ok {
		if c.metrics != nil {
			c.metrics.RecordProbeCacheHit()
		}
		return v.(Result), nil
	}

	if c.metrics != nil {
		c.metrics.RecordProbeCacheMiss()
	}

	result, err := c.source.Probe(ctx, ref)
	if err != nil {
		return Result{}, err
	}

	c.store.Set(string(ref), result, gocache.DefaultExpiration)
	c.logger.Debug("probe result cached",
		"ref", string(ref),
		"identifiers", result.Len())
	return result, nil
}

// Invalidate drops the cached evidence for one ref
func (c *Cache) Invalidate(ref engine.Ref) {
	c.store.Delete(string(ref))
}

// Flush drops all cached evidence
func (c *Cache) Flush() {
	c.store.Flush()
}

// Len returns the number of cached entries, including not yet evicted
// expired ones
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
