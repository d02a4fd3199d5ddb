package limiter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a client may make another request
type Limiter interface {
	// Allow reports whether a request from key is within its quota
	Allow(ctx context.Context, key string) bool

	// Close releases resources owned by the limiter
	Close() error
}

// Config holds configuration for creating a rate limiter
type Config struct {
	Type   string        // "memory" or "redis"
	Limit  int           // requests allowed per window
	Window time.Duration // length of one window

	// Redis is required for the "redis" type. The limiter does not own it.
	Redis *redis.Client
}

// New creates a rate limiter based on the configuration
func New(cfg Config) (Limiter, error) {
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d per %s", cfg.Limit, cfg.Window)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "memory", "":
		return NewMemoryLimiter(cfg.Limit, cfg.Window), nil

	case "redis":
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis rate limiter needs a Redis client")
		}
		return NewRedisLimiter(cfg.Redis, cfg.Limit, cfg.Window), nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: 'memory', 'redis')", cfg.Type)
	}
}
