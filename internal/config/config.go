// Package config loads chainctl and facade settings from TOML or YAML.
//
// Ownership boundary:
// - file format and defaults
// - validation of loaded settings
// - starter templates
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the resolved configuration.
type Config struct {
	// Units lists protocol units in dispatch order; empty installs all.
	Units           []string
	TraceDecode     bool
	TraceEncode     bool
	MaxForwardDepth int
	Fetch           FetchConfig
}

type FetchConfig struct {
	// RatePerSecond of zero disables throttling.
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
	Redis         RedisConfig
}

// RedisConfig enables the retrieval cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxForwardDepth: 4,
		Fetch: FetchConfig{
			Burst:   1,
			Timeout: 10 * time.Second,
			Redis: RedisConfig{
				Prefix: "msgchain:fetch",
				TTL:    10 * time.Minute,
			},
		},
	}
}

type fileConfig struct {
	Units           []string        `toml:"units" yaml:"units"`
	TraceDecode     bool            `toml:"trace_decode" yaml:"trace_decode"`
	TraceEncode     bool            `toml:"trace_encode" yaml:"trace_encode"`
	MaxForwardDepth int             `toml:"max_forward_depth" yaml:"max_forward_depth"`
	Fetch           fileFetchConfig `toml:"fetch" yaml:"fetch"`
}

type fileFetchConfig struct {
	RatePerSecond float64         `toml:"rate_per_second" yaml:"rate_per_second"`
	Burst         int             `toml:"burst" yaml:"burst"`
	Timeout       string          `toml:"timeout" yaml:"timeout"`
	Redis         fileRedisConfig `toml:"redis" yaml:"redis"`
}

type fileRedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr"`
	Password string `toml:"password" yaml:"password"`
	DB       int    `toml:"db" yaml:"db"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
	TTL      string `toml:"ttl" yaml:"ttl"`
}

// Load reads path on top of DefaultConfig. Files ending in .yaml or .yml
// are parsed as YAML, anything else as TOML. Only keys present in the
// file override defaults.
func Load(path string) (Config, error) {
	var (
		raw     fileConfig
		defined func(keys ...string) bool
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		defined, err = decodeYAML(path, &raw)
	default:
		defined, err = decodeTOML(path, &raw)
	}
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if err := apply(&cfg, raw, defined); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeTOML(path string, raw *fileConfig) (func(keys ...string) bool, error) {
	meta, err := toml.DecodeFile(path, raw)
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return meta.IsDefined, nil
}

func decodeYAML(path string, raw *fileConfig) (func(keys ...string) bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := yaml.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return func(keys ...string) bool {
		var node any = tree
		for _, k := range keys {
			m, ok := node.(map[string]any)
			if !ok {
				return false
			}
			if node, ok = m[k]; !ok {
				return false
			}
		}
		return true
	}, nil
}

func apply(cfg *Config, raw fileConfig, defined func(keys ...string) bool) error {
	if defined("units") {
		cfg.Units = normalizeUnits(raw.Units)
	}
	if defined("trace_decode") {
		cfg.TraceDecode = raw.TraceDecode
	}
	if defined("trace_encode") {
		cfg.TraceEncode = raw.TraceEncode
	}
	if defined("max_forward_depth") {
		cfg.MaxForwardDepth = raw.MaxForwardDepth
	}

	if defined("fetch", "rate_per_second") {
		cfg.Fetch.RatePerSecond = raw.Fetch.RatePerSecond
	}
	if defined("fetch", "burst") {
		cfg.Fetch.Burst = raw.Fetch.Burst
	}
	if defined("fetch", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Fetch.Timeout))
		if err != nil {
			return fmt.Errorf("parse fetch.timeout: %w", err)
		}
		cfg.Fetch.Timeout = d
	}

	redis := raw.Fetch.Redis
	if defined("fetch", "redis", "addr") {
		cfg.Fetch.Redis.Addr = strings.TrimSpace(redis.Addr)
	}
	if defined("fetch", "redis", "password") {
		cfg.Fetch.Redis.Password = redis.Password
	}
	if defined("fetch", "redis", "db") {
		cfg.Fetch.Redis.DB = redis.DB
	}
	if defined("fetch", "redis", "prefix") {
		cfg.Fetch.Redis.Prefix = strings.TrimSpace(redis.Prefix)
	}
	if defined("fetch", "redis", "ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(redis.TTL))
		if err != nil {
			return fmt.Errorf("parse fetch.redis.ttl: %w", err)
		}
		cfg.Fetch.Redis.TTL = d
	}
	return nil
}

func normalizeUnits(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, name := range in {
		v := strings.ToLower(strings.TrimSpace(name))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func Validate(cfg Config) error {
	seen := make(map[string]struct{}, len(cfg.Units))
	for i, name := range cfg.Units {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("units[%d] duplicate unit %q", i, name)
		}
		seen[name] = struct{}{}
	}
	if cfg.MaxForwardDepth < 1 {
		return fmt.Errorf("max_forward_depth must be at least 1")
	}
	if cfg.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("fetch.rate_per_second must not be negative")
	}
	if cfg.Fetch.RatePerSecond > 0 && cfg.Fetch.Burst < 1 {
		return fmt.Errorf("fetch.burst must be at least 1 when rate limiting")
	}
	if cfg.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative")
	}
	if cfg.Fetch.Redis.Addr != "" {
		if cfg.Fetch.Redis.Prefix == "" {
			return fmt.Errorf("fetch.redis.prefix required when redis is enabled")
		}
		if cfg.Fetch.Redis.TTL <= 0 {
			return fmt.Errorf("fetch.redis.ttl must be positive")
		}
	}
	return nil
}
