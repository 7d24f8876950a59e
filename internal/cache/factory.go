// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options select and configure a backend.
type Options struct {
	Backend string
	Redis   RedisConfig
	// Cleanup is the janitor interval of the memory backend.
	Cleanup time.Duration
}

// New builds the configured backend. When Redis cannot be reached the memory
// backend is used instead and the failure is logged.
func New(ctx context.Context, opts Options, logger zerolog.Logger) (Cache, error) {
	if opts.Cleanup <= 0 {
		opts.Cleanup = time.Minute
	}
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(opts.Cleanup), nil
	case BackendRedis:
		rc, err := NewRedis(ctx, opts.Redis, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("event", "cache.redis_fallback").
				Msg("redis unavailable, using in-memory cache")
			return NewMemory(opts.Cleanup), nil
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
