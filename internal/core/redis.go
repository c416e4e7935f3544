// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/config"
)

const redisProbeTimeout = 3 * time.Second

// Redis backs the rate limiters and the readiness probe. Nothing in the
// session or lifecycle path depends on it.
type Redis struct {
	Client *redis.Client
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 10 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute
	opts.ClientName = "marketplace-backend"

	r := &Redis{Client: redis.NewClient(opts)}
	if err := r.Ping(ctx); err != nil {
		_ = r.Client.Close() //nolint:errcheck // cleanup on connection failure
		return nil, err
	}

	return r, nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, redisProbeTimeout)
	defer cancel()

	if err := r.Client.Ping(probeCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Limiter returns a GCRA limiter sharing this client's pool.
func (r *Redis) Limiter() *redis_rate.Limiter {
	return redis_rate.NewLimiter(r.Client)
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}
