package cache

import (
	"context"
	"time"

	"github.com/calindra/moviegraph/internal/tmdb"
)

// expiringCache is a tier that knows when its entries expire.
type expiringCache interface {
	GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, bool)
	SetUntil(ctx context.Context, key string, value []byte, expiresAt time.Time)
}

// Tiered reads through the caches in order, fastest first.
// A hit in a slower tier is copied to the faster ones, keeping the expiry of
// the slower entry when both tiers track it.
type Tiered struct {
	tiers []tmdb.Cache
}

func NewTiered(tiers ...tmdb.Cache) *Tiered {
	return &Tiered{tiers: tiers}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, tier := range t.tiers {
		value, expiresAt, ok := getWithExpiry(ctx, tier, key)
		if !ok {
			continue
		}
		for _, faster := range t.tiers[:i] {
			setUntil(ctx, faster, key, value, expiresAt)
		}
		return value, true
	}
	return nil, false
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte) {
	for _, tier := range t.tiers {
		tier.Set(ctx, key, value)
	}
}

// getWithExpiry returns a zero expiry when the tier does not track it.
func getWithExpiry(ctx context.Context, tier tmdb.Cache, key string) ([]byte, time.Time, bool) {
	if c, ok := tier.(expiringCache); ok {
		return c.GetWithExpiry(ctx, key)
	}
	value, ok := tier.Get(ctx, key)
	return value, time.Time{}, ok
}

func setUntil(ctx context.Context, tier tmdb.Cache, key string, value []byte, expiresAt time.Time) {
	if c, ok := tier.(expiringCache); ok && !expiresAt.IsZero() {
		c.SetUntil(ctx, key, value, expiresAt)
		return
	}
	tier.Set(ctx, key, value)
}
