package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local Cache backed by go-cache.
type Memory struct {
	inner *gocache.Cache
}

// NewMemory builds a memory cache with the given TTL for every entry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{inner: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	value, ok := m.inner.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := value.([]byte)
	return data, ok
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.inner.SetDefault(key, value)
}

func (m *Memory) Invalidate(_ context.Context, keys ...string) {
	for _, key := range keys {
		m.inner.Delete(key)
	}
}
