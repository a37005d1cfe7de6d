package querycache

import (
	"context"
	"time"

	"github.com/de-tools/test-atlas/pkg/adapters"
	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/de-tools/test-atlas/pkg/models/store"
	"github.com/de-tools/test-atlas/pkg/store/activedata"
	cachestore "github.com/de-tools/test-atlas/pkg/store/duckdb/querycache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
)

const DefaultTTL = time.Hour

// Cache executes queries against the remote service and memoizes results by exact query
// text for a fixed time-to-live.
type Cache interface {
	// Execute returns the result for query, fetching it when no fresh entry exists.
	// The returned result is a private copy.
	Execute(ctx context.Context, query string) (*domain.QueryResult, error)
	// Purge drops expired entries from memory and from the persistent store.
	Purge(ctx context.Context) error
}

type Options struct {
	TTL        time.Duration
	Store      cachestore.Store
	Registerer prometheus.Registerer
	Now        func() time.Time
}

type entry struct {
	result     *domain.QueryResult
	insertedAt time.Time
}

type queryCache struct {
	client  activedata.Client
	store   cachestore.Store
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics

	// xsync.MapOf locks per bucket, so lookups of unrelated queries never contend.
	entries *xsync.MapOf[string, entry]
}

func NewCache(client activedata.Client, opts Options) Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &queryCache{
		client:  client,
		store:   opts.Store,
		ttl:     opts.TTL,
		now:     opts.Now,
		metrics: newMetrics(opts.Registerer),
		entries: xsync.NewMapOf[string, entry](),
	}
}

func (c *queryCache) Execute(ctx context.Context, query string) (*domain.QueryResult, error) {
	logger := zerolog.Ctx(ctx)
	now := c.now()

	if e, ok := c.entries.Load(query); ok {
		if c.fresh(e, now) {
			c.metrics.requests.WithLabelValues(resultHit).Inc()
			return e.result.Clone(), nil
		}
		c.metrics.requests.WithLabelValues(resultExpired).Inc()
		c.evict(query, now)
	}

	if e, ok := c.loadStored(ctx, query, now); ok {
		c.metrics.requests.WithLabelValues(resultStoreHit).Inc()
		c.entries.Store(query, e)
		return e.result.Clone(), nil
	}

	c.metrics.requests.WithLabelValues(resultMiss).Inc()
	resp, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	cached := store.CachedQuery{
		Query:      query,
		Meta:       resp.Meta,
		Header:     resp.Header,
		Data:       resp.Data,
		InsertedAt: c.now(),
	}
	e := entry{
		result:     adapters.MapStoreCachedQueryToDomain(cached),
		insertedAt: cached.InsertedAt,
	}
	c.entries.Store(query, e)

	if c.store != nil {
		if err := c.store.Put(ctx, cached); err != nil {
			logger.Warn().Err(err).Msg("failed to persist query result")
		}
	}

	logger.Debug().
		Int("rows", len(resp.Data)).
		Time("timestamp", cached.InsertedAt).
		Msg("query result cached")

	return e.result.Clone(), nil
}

func (c *queryCache) Purge(ctx context.Context) error {
	now := c.now()
	c.entries.Range(func(query string, e entry) bool {
		if !c.fresh(e, now) {
			c.evict(query, now)
		}
		return true
	})

	if c.store == nil {
		return nil
	}
	n, err := c.store.DeleteExpired(ctx, now.Add(-c.ttl))
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Int64("deleted", n).Msg("purged expired query results")
	return nil
}

func (c *queryCache) fresh(e entry, now time.Time) bool {
	return now.Sub(e.insertedAt) < c.ttl
}

// evict removes query unless a concurrent caller already replaced it with a fresh entry.
func (c *queryCache) evict(query string, now time.Time) {
	c.entries.Compute(query, func(old entry, loaded bool) (entry, bool) {
		return old, !loaded || !c.fresh(old, now)
	})
}

func (c *queryCache) loadStored(ctx context.Context, query string, now time.Time) (entry, bool) {
	if c.store == nil {
		return entry{}, false
	}

	stored, err := c.store.Get(ctx, query)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to read persisted query result")
		return entry{}, false
	}
	if stored == nil {
		return entry{}, false
	}

	e := entry{insertedAt: stored.InsertedAt}
	if !c.fresh(e, now) {
		return entry{}, false
	}
	e.result = adapters.MapStoreCachedQueryToDomain(*stored)
	return e, true
}

func (c *queryCache) fetch(ctx context.Context, query string) (*activedata.Response, error) {
	timer := prometheus.NewTimer(c.metrics.fetchDuration)
	defer timer.ObserveDuration()

	resp, err := c.client.Query(ctx, query)
	if err != nil {
		c.metrics.fetchErrors.Inc()
		return nil, err
	}
	return resp, nil
}
