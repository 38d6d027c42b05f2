package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration so main stays lean.
type Server struct {
	Addr        string
	PostgresDSN string
	Redis       RedisConfig
	CacheTTL    time.Duration
}

// RedisConfig holds connection tuning for the optional Redis-backed cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("FEDEVENTS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	cacheTTL := 30 * time.Second
	if raw := os.Getenv("FEDEVENTS_CACHE_TTL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cacheTTL = time.Duration(secs) * time.Second
		}
	}

	return Server{
		Addr:        addr,
		PostgresDSN: os.Getenv("FEDEVENTS_POSTGRES_DSN"),
		CacheTTL:    cacheTTL,
		Redis: RedisConfig{
			URL:          os.Getenv("FEDEVENTS_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}
