package cache

import (
	"context"
	"errors"
	"time"
)

// Tiered reads from a front cache first and falls back to a back cache,
// promoting back hits to the front. Writes go to both.
type Tiered struct {
	front, back Cache
	// frontTTL caps how long promoted entries live in the front cache.
	frontTTL time.Duration
}

// NewTiered combines front and back. Promoted entries stay in front for at
// most frontTTL; zero keeps them until evicted.
func NewTiered(front, back Cache, frontTTL time.Duration) *Tiered {
	return &Tiered{front: front, back: back, frontTTL: frontTTL}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if data, ok, err := t.front.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}
	data, ok, err := t.back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.front.Set(ctx, key, data, t.frontTTL)
	return data, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	frontTTL := ttl
	if t.frontTTL > 0 && (frontTTL <= 0 || frontTTL > t.frontTTL) {
		frontTTL = t.frontTTL
	}
	return errors.Join(
		t.front.Set(ctx, key, data, frontTTL),
		t.back.Set(ctx, key, data, ttl),
	)
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	return errors.Join(t.front.Delete(ctx, key), t.back.Delete(ctx, key))
}

func (t *Tiered) Close() error {
	return errors.Join(t.front.Close(), t.back.Close())
}

var _ Cache = (*Tiered)(nil)
