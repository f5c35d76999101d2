package raster

import (
	"context"

	"github.com/matzehuels/cfgdot/pkg/cache"
	"github.com/matzehuels/cfgdot/pkg/observability"
)

// Cached memoizes a Rasterizer by DOT text and render options.
// Failed renders are never stored.
type Cached struct {
	inner Rasterizer
	store cache.Cache
	opts  cache.ImageKeyOpts
}

// NewCached wraps inner. opts must describe everything besides the DOT text
// that changes the output.
func NewCached(inner Rasterizer, store cache.Cache, opts cache.ImageKeyOpts) *Cached {
	return &Cached{inner: inner, store: store, opts: opts}
}

// Rasterize serves from the cache when possible. Cache errors are treated as
// misses so a broken cache never blocks a render.
func (c *Cached) Rasterize(ctx context.Context, dot string) ([]byte, error) {
	key := cache.ImageKey(dot, c.opts)

	if data, hit, err := c.store.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "image")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "image")

	img, err := c.inner.Rasterize(ctx, dot)
	if err != nil {
		return nil, err
	}
	if len(img) > 0 {
		if c.store.Set(ctx, key, img, cache.DefaultTTL) == nil {
			observability.Cache().OnCacheSet(ctx, "image", len(img))
		}
	}
	return img, nil
}

var _ Rasterizer = (*Cached)(nil)
