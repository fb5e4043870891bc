package cache

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

const expiryHeader = 8

// LocalCache is an in-process Cache on fastcache. Each value carries its
// expiry as a unix-nano header.
type LocalCache struct {
	cache *fastcache.Cache
	now   func() time.Time
}

// NewLocalCache allocates maxBytes of cache; values <= 0 use 16MB.
func NewLocalCache(maxBytes int) *LocalCache {
	if maxBytes <= 0 {
		maxBytes = 16 * 1024 * 1024
	}
	return &LocalCache{cache: fastcache.New(maxBytes), now: time.Now}
}

func (l *LocalCache) Get(_ context.Context, key string) (string, error) {
	raw, ok := l.cache.HasGet(nil, []byte(key))
	if !ok || len(raw) < expiryHeader {
		return "", ErrMiss
	}
	expires := int64(binary.BigEndian.Uint64(raw[:expiryHeader]))
	if expires != 0 && l.now().UnixNano() >= expires {
		l.cache.Del([]byte(key))
		return "", ErrMiss
	}
	return string(raw[expiryHeader:]), nil
}

func (l *LocalCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = l.now().Add(ttl).UnixNano()
	}
	buf := make([]byte, expiryHeader+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expires))
	copy(buf[expiryHeader:], value)
	l.cache.Set([]byte(key), buf)
	return nil
}

func (l *LocalCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		l.cache.Del([]byte(k))
	}
	return nil
}

// Reset drops every entry.
func (l *LocalCache) Reset() {
	l.cache.Reset()
}
