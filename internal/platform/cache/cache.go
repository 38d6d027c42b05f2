// Package cache provides the read-through cache injected by the composition
// root. Read paths consult it with a resource key; every mutation invalidates
// the affected keys explicitly. There is no process-wide singleton.
package cache

import (
	"context"
	"time"
)

// Cache stores serialized responses for a bounded TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Invalidate(ctx context.Context, keys ...string)
}

// Noop satisfies Cache and caches nothing. Used when caching is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte)        {}
func (Noop) Invalidate(context.Context, ...string)      {}

// TTL bounds how long a cached read may be served.
type TTL = time.Duration
