package background

import (
	"context"
	"time"

	"bannerserver/internal/cache"
	"bannerserver/internal/domain/banner"
	"bannerserver/internal/imageutil"

	"github.com/rs/zerolog"
)

// Cached memoizes backgrounds by theme, palette and size. Cache failures are
// logged and otherwise ignored.
type Cached struct {
	next    Generator
	fetcher *Fetcher
	cache   cache.Cache
	ttl     time.Duration
	log     zerolog.Logger
}

func NewCached(next Generator, fetcher *Fetcher, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{next: next, fetcher: fetcher, cache: c, ttl: ttl, log: logger}
}

func (c *Cached) Generate(ctx context.Context, req banner.BackgroundRequest) (banner.Asset, error) {
	key := cache.Key("background", req.Theme, req.Palette, req.Width, req.Height)
	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Msg("background cache read failed")
	} else if ok && len(data) > 0 {
		c.log.Debug().Str("key", key).Msg("background cache hit")
		return banner.Asset{Ref: key, MIME: imageutil.SniffMIME(data), Data: data}, nil
	}

	asset, err := c.next.Generate(ctx, req)
	if err != nil {
		return banner.Asset{}, err
	}
	if len(asset.Data) == 0 && c.fetcher != nil {
		if asset, err = c.fetcher.Fetch(ctx, asset.Ref); err != nil {
			return banner.Asset{}, err
		}
	}
	if len(asset.Data) > 0 {
		if err := c.cache.Set(ctx, key, asset.Data, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("background cache write failed")
		}
	}
	return asset, nil
}
