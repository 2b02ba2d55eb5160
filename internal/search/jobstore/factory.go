package jobstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-search-core/internal/pkg/logger"
)

// Options configures New.
type Options struct {
	RedisAddr              string
	RedisDB                int
	KeyPrefix              string
	TTL                    time.Duration
	IdempotencyFreshWindow time.Duration
}

// New builds a Redis-backed Store when RedisAddr is set and reachable,
// falling back to an in-memory store otherwise — single-instance
// deployments and local development never need Redis configured.
func New(ctx context.Context, opts Options) Store {
	if opts.RedisAddr == "" {
		logger.Log.Info("job store: no redis address configured, using in-memory store")
		return NewMemoryStore(opts.TTL, opts.IdempotencyFreshWindow)
	}

	client := redis.NewClient(&redis.Options{
		Addr: opts.RedisAddr,
		DB:   opts.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Log.Warn("job store: redis unreachable, falling back to in-memory store",
			zap.String("addr", opts.RedisAddr), zap.Error(err))
		_ = client.Close()
		return NewMemoryStore(opts.TTL, opts.IdempotencyFreshWindow)
	}

	cfg := DefaultRedisStoreConfig()
	if opts.KeyPrefix != "" {
		cfg.KeyPrefix = opts.KeyPrefix
	}
	if opts.TTL > 0 {
		cfg.TTL = opts.TTL
	}
	if opts.IdempotencyFreshWindow > 0 {
		cfg.IdempotencyFreshWindow = opts.IdempotencyFreshWindow
	}
	logger.Log.Info("job store: connected to redis", zap.String("addr", opts.RedisAddr))
	return NewRedisStore(client, cfg)
}
