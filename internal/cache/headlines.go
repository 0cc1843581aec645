// Package cache decorates the headline source with Redis caching so the
// upstream quota is not burned on every page load.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newzify/newzify/internal/newsapi"
)

type HeadlineSource interface {
	TopHeadlines(ctx context.Context, query newsapi.Query) (newsapi.Headlines, error)
}

type CachingHeadlineSource struct {
	inner HeadlineSource
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachingHeadlineSource(rdb *redis.Client, ttl time.Duration, inner HeadlineSource) *CachingHeadlineSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &CachingHeadlineSource{
		inner: inner,
		rdb:   rdb,
		ttl:   ttl,
	}
}

func (c *CachingHeadlineSource) TopHeadlines(ctx context.Context, query newsapi.Query) (newsapi.Headlines, error) {
	// bypass cache if redis is not configured
	if c.rdb == nil {
		return c.inner.TopHeadlines(ctx, query)
	}

	key := cacheKey(query)

	// 1) check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out newsapi.Headlines
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) fall back to the upstream
	out, err := c.inner.TopHeadlines(ctx, query)

	if err != nil {
		return newsapi.Headlines{}, err
	}

	// best effort: a cache write failure never fails the request
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

func cacheKey(q newsapi.Query) string {
	return fmt.Sprintf("news:headlines:%s:%s:%d:%d", q.Country, q.Category, q.Page, q.PageSize)
}
