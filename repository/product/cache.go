package productrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/6431503106/brselab/model"
	"github.com/redis/go-redis/v9"
)

// Cached is a cache-aside decorator over Repo. Read misses fall through
// to Postgres; writes invalidate. State-machine stock changes bypass
// this repo, so the transition service calls Invalidate after commit.
type Cached struct {
	real Repo
	rdb  *redis.Client
	log  *slog.Logger
	ttl  time.Duration
}

func NewCached(real Repo, rdb *redis.Client, log *slog.Logger) *Cached {
	return &Cached{real: real, rdb: rdb, log: log, ttl: 5 * time.Minute}
}

func productKey(id int64) string { return fmt.Sprintf("product:%d", id) }

const allKey = "products:all"

func (c *Cached) ByID(ctx context.Context, id int64) (*model.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	switch {
	case err == nil:
		var p model.Product
		if uerr := json.Unmarshal(data, &p); uerr == nil {
			return &p, nil
		}
		c.log.Warn("cache: bad product payload, falling through", "id", id)
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("cache: redis get failed, falling through", "err", err)
	}

	p, err := c.real.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, merr := json.Marshal(p); merr == nil {
		if serr := c.rdb.Set(ctx, productKey(id), b, c.ttl).Err(); serr != nil {
			c.log.Warn("cache: set failed", "err", serr)
		}
	}
	return p, nil
}

func (c *Cached) List(ctx context.Context, f Filter) ([]model.Product, error) {
	// Only the unfiltered listing is cached.
	if f.Keyword != "" || f.CategoryID != 0 {
		return c.real.List(ctx, f)
	}

	data, err := c.rdb.Get(ctx, allKey).Bytes()
	if err == nil {
		var out []model.Product
		if uerr := json.Unmarshal(data, &out); uerr == nil {
			return out, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("cache: redis get failed, falling through", "err", err)
	}

	out, err := c.real.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if b, merr := json.Marshal(out); merr == nil {
		if serr := c.rdb.Set(ctx, allKey, b, c.ttl).Err(); serr != nil {
			c.log.Warn("cache: set failed", "err", serr)
		}
	}
	return out, nil
}

// Invalidate drops the cached entry for one product and the listing.
func (c *Cached) Invalidate(ctx context.Context, id int64) {
	if err := c.rdb.Del(ctx, productKey(id), allKey).Err(); err != nil {
		c.log.Warn("cache: invalidate failed", "id", id, "err", err)
	}
}

func (c *Cached) Create(ctx context.Context, p *model.Product) error {
	if err := c.real.Create(ctx, p); err != nil {
		return err
	}
	c.Invalidate(ctx, p.ID)
	return nil
}

func (c *Cached) Update(ctx context.Context, p *model.Product) error {
	if err := c.real.Update(ctx, p); err != nil {
		return err
	}
	c.Invalidate(ctx, p.ID)
	return nil
}

func (c *Cached) Delete(ctx context.Context, id int64) error {
	if err := c.real.Delete(ctx, id); err != nil {
		return err
	}
	c.Invalidate(ctx, id)
	return nil
}

func (c *Cached) AddReview(ctx context.Context, rv *model.ProductReview) error {
	if err := c.real.AddReview(ctx, rv); err != nil {
		return err
	}
	c.Invalidate(ctx, rv.ProductID)
	return nil
}
