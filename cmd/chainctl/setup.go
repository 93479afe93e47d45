package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/msgchain/internal/config"
	"github.com/danmuck/msgchain/internal/fetch"
	"github.com/danmuck/msgchain/internal/observability"
	"github.com/danmuck/msgchain/internal/protocol"
	"github.com/danmuck/msgchain/internal/protocol/units"
)

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

// buildFetcher stacks the body directory, optional redis cache, rate
// limit and timeout. No bodies directory means no fetcher.
func buildFetcher(cfg config.Config, bodies string) (fetch.Fetcher, func() error, error) {
	noop := func() error { return nil }
	if bodies == "" {
		return nil, noop, nil
	}

	var f fetch.Fetcher = fetch.NewDir(bodies)
	closer := noop
	if cfg.Fetch.Redis.Addr != "" {
		cache, err := fetch.NewRedisCache(fetch.RedisSettings{
			Addr:     cfg.Fetch.Redis.Addr,
			Password: cfg.Fetch.Redis.Password,
			DB:       cfg.Fetch.Redis.DB,
			Prefix:   cfg.Fetch.Redis.Prefix,
			TTL:      cfg.Fetch.Redis.TTL,
		}, f)
		if err != nil {
			return nil, noop, err
		}
		f = cache
		closer = cache.Close
	}
	if cfg.Fetch.RatePerSecond > 0 {
		f = fetch.NewRateLimited(f, cfg.Fetch.RatePerSecond, cfg.Fetch.Burst)
	}
	return fetch.WithTimeout(f, cfg.Fetch.Timeout), closer, nil
}

func buildFacade(cfg config.Config, fetcher fetch.Fetcher) (*protocol.Facade, error) {
	list := units.Default()
	if len(cfg.Units) > 0 {
		selected, err := units.Select(cfg.Units)
		if err != nil {
			return nil, err
		}
		list = selected
	}

	if cfg.TraceDecode || cfg.TraceEncode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	tracer := log.Logger.With().Str("component", "protocol").Logger()
	observability.RegisterMetrics()

	return protocol.New(protocol.Config{
		TraceDecode:     cfg.TraceDecode,
		TraceEncode:     cfg.TraceEncode,
		Tracer:          &tracer,
		Fetcher:         fetcher,
		MaxForwardDepth: cfg.MaxForwardDepth,
	}, list...)
}
