package cache

import (
	"context"
	"errors"
	"time"
)

// Tiered reads through a local cache into a remote one. Local entries live
// for a fraction of the remote ttl so peers converge after invalidation.
type Tiered struct {
	local    Cache
	remote   Cache
	localTTL time.Duration
}

// NewTiered builds a two-level cache. localTTL caps how long an entry is
// served locally; zero uses the remote ttl.
func NewTiered(local, remote Cache, localTTL time.Duration) *Tiered {
	return &Tiered{local: local, remote: remote, localTTL: localTTL}
}

func (t *Tiered) Get(ctx context.Context, key string) (string, error) {
	if value, err := t.local.Get(ctx, key); err == nil {
		return value, nil
	}
	value, err := t.remote.Get(ctx, key)
	if err != nil {
		return "", err
	}
	_ = t.local.Set(ctx, key, value, t.localTTL)
	return value, nil
}

func (t *Tiered) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := t.remote.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return t.local.Set(ctx, key, value, t.localFor(ttl))
}

func (t *Tiered) Del(ctx context.Context, keys ...string) error {
	return errors.Join(t.local.Del(ctx, keys...), t.remote.Del(ctx, keys...))
}

func (t *Tiered) localFor(ttl time.Duration) time.Duration {
	if t.localTTL > 0 && (ttl <= 0 || t.localTTL < ttl) {
		return t.localTTL
	}
	return ttl
}
