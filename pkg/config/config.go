// Package config loads tool settings from an optional TOML file and
// CARTOGRAM_* environment variables.
//
// Precedence, lowest first: [Default], the config file, the environment.
// Command line flags are applied on top by the caller. A .env file is
// loaded into the process environment by the entry point before Load runs.
//
//	[cartogram]
//	max_iterations = 20
//	max_average_error = 0.05
//	workers = 4
//
//	[render]
//	width = 1024
//	height = 768
//	palette = "viridis"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "72h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete tool configuration.
type Config struct {
	Cartogram Cartogram `toml:"cartogram"`
	Render    Render    `toml:"render"`
	Cache     Cache     `toml:"cache"`
	Server    Server    `toml:"server"`
}

// Cartogram holds the iteration bounds.
type Cartogram struct {
	MaxIterations   int     `toml:"max_iterations"`
	MaxAverageError float64 `toml:"max_average_error"`
	Workers         int     `toml:"workers"`
}

// Render holds the output frame settings.
type Render struct {
	Width       float64 `toml:"width"`
	Height      float64 `toml:"height"`
	Palette     string  `toml:"palette"`
	StrokeWidth float64 `toml:"stroke_width"`
}

// Cache selects and addresses the result cache.
type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           Duration `toml:"ttl"`

	// Prefix scopes every key so deployments can share one Redis database.
	Prefix string `toml:"prefix"`
}

// Server holds the HTTP API settings.
type Server struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a string such as "36h".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration. Cache.Dir is left empty for
// the caller to fill with a per-user location.
func Default() *Config {
	return &Config{
		Cartogram: Cartogram{MaxIterations: 10, MaxAverageError: 0.1, Workers: 1},
		Render:    Render{Width: 800, Height: 600, Palette: "spectral", StrokeWidth: 0.5},
		Cache:     Cache{Backend: BackendFile, TTL: Duration{7 * 24 * time.Hour}},
		Server:    Server{Addr: ":8080", MaxBodyBytes: 32 << 20},
	}
}

// Load returns the defaults overlaid with the TOML file at path, if path is
// non-empty, and then with the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv overlays CARTOGRAM_* variables found through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, set func(string) error) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		if err := set(v); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "%s=%q", name, v)
		}
		return nil
	}

	str("CARTOGRAM_CACHE_BACKEND", &c.Cache.Backend)
	str("CARTOGRAM_CACHE_DIR", &c.Cache.Dir)
	str("CARTOGRAM_REDIS_ADDR", &c.Cache.RedisAddr)
	str("CARTOGRAM_REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("CARTOGRAM_SERVER_ADDR", &c.Server.Addr)
	str("CARTOGRAM_PALETTE", &c.Render.Palette)
	str("CARTOGRAM_CACHE_PREFIX", &c.Cache.Prefix)

	setters := []struct {
		name string
		set  func(string) error
	}{
		{"CARTOGRAM_REDIS_DB", func(v string) (err error) { c.Cache.RedisDB, err = strconv.Atoi(v); return }},
		{"CARTOGRAM_CACHE_TTL", c.Cache.TTL.set},
		{"CARTOGRAM_MAX_BODY_BYTES", func(v string) (err error) { c.Server.MaxBodyBytes, err = strconv.ParseInt(v, 10, 64); return }},
		{"CARTOGRAM_MAX_ITERATIONS", func(v string) (err error) { c.Cartogram.MaxIterations, err = strconv.Atoi(v); return }},
		{"CARTOGRAM_MAX_AVERAGE_ERROR", func(v string) (err error) { c.Cartogram.MaxAverageError, err = strconv.ParseFloat(v, 64); return }},
		{"CARTOGRAM_WORKERS", func(v string) (err error) { c.Cartogram.Workers, err = strconv.Atoi(v); return }},
	}
	for _, s := range setters {
		if err := num(s.name, s.set); err != nil {
			return err
		}
	}
	return nil
}

func (d *Duration) set(v string) error {
	return d.UnmarshalText([]byte(v))
}

// Validate checks value ranges and the cache backend.
func (c *Config) Validate() error {
	if err := cerrors.ValidateIterationBounds(c.Cartogram.MaxIterations, c.Cartogram.MaxAverageError); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "[cartogram]")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "[render] width and height must be positive")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return cerrors.New(cerrors.ErrCodeInvalidConfig, "[cache] redis backend needs redis_addr")
		}
	default:
		return cerrors.New(cerrors.ErrCodeInvalidConfig,
			"[cache] unknown backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "[cache] ttl must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, "[server] max_body_bytes must be positive")
	}
	return nil
}
