package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/msgchain/internal/observability"
	"github.com/danmuck/msgchain/internal/wire"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisSettings configures the retrieval cache.
type RedisSettings struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
	Timeout  time.Duration
}

// RedisCache stores retrieved bodies in redis using the wire codec.
// Cache failures degrade to a direct fetch; they never fail the request.
type RedisCache struct {
	cfg  RedisSettings
	cli  *redis.Client
	next Fetcher
}

func NewRedisCache(cfg RedisSettings, next Fetcher) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: missing addr")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "msgchain:fetch"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	cli := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	return &RedisCache{cfg: cfg, cli: cli, next: next}, nil
}

func (c *RedisCache) Close() error { return c.cli.Close() }

func (c *RedisCache) key(req Request) string {
	return fmt.Sprintf("%s:%s:%s", c.cfg.Prefix, req.Resource, req.ResID)
}

func (c *RedisCache) Fetch(ctx context.Context, req Request) ([]wire.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	key := c.key(req)
	raw, err := c.cli.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		msgs, decErr := wire.DecodeMessages(raw)
		if decErr == nil {
			observability.RecordCache(string(req.Resource), true)
			return msgs, nil
		}
		log.Warn().Str("key", key).Err(decErr).Msg("fetch cache entry unreadable")
	case errors.Is(err, redis.Nil):
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().Str("key", key).Err(err).Msg("fetch cache get failed")
	}
	observability.RecordCache(string(req.Resource), false)

	msgs, err := c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.cli.Set(ctx, key, wire.EncodeMessages(msgs), c.cfg.TTL).Err(); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("fetch cache set failed")
	}
	return msgs, nil
}
