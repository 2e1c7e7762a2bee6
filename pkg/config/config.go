// Package config loads spantower settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/spantower/config.toml (falling back to
// ~/.config/spantower/config.toml). Every setting is optional; command-line
// flags override whatever the file sets.
//
//	track_width = 95
//	formats = ["txt", "svg"]
//
//	[cache]
//	backend = "redis"
//	ttl = "72h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	trace_dir = "/var/lib/spantower/traces"
//	rate = 5
//	burst = 20
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/spantower/pkg/cache"
	"github.com/matzehuels/spantower/pkg/errors"
	"github.com/matzehuels/spantower/pkg/waterfall"
)

// AppName names the config and cache directories.
const AppName = "spantower"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the full set of file settings.
type Config struct {
	TrackWidth float64  `toml:"track_width"`
	Display    bool     `toml:"display"`
	Formats    []string `toml:"formats"`
	Columns    int      `toml:"columns"`

	Cache     CacheConfig     `toml:"cache"`
	Server    ServerConfig    `toml:"server"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// CacheConfig selects and configures the artifact cache.
type CacheConfig struct {
	Backend string      `toml:"backend"`
	TTL     Duration    `toml:"ttl"`
	Dir     string      `toml:"dir"` // file backend; defaults to the XDG cache dir
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig configures the mongo backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures `spantower serve`.
type ServerConfig struct {
	Addr       string   `toml:"addr"`
	TraceDir   string   `toml:"trace_dir"`
	Rate       float64  `toml:"rate"`  // requests per second per client
	Burst      int      `toml:"burst"` // token bucket size
	SessionDir string   `toml:"session_dir"`
	SessionTTL Duration `toml:"session_ttl"`
}

// TelemetryConfig enables OpenTelemetry export of spantower's own spans.
type TelemetryConfig struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Duration is a time.Duration written as a string ("90m", "72h") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TrackWidth: waterfall.DefaultTrackWidth,
		Formats:    []string{"txt"},
		Columns:    60,
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     Duration{cache.DefaultTTL},
			Mongo:   MongoConfig{Database: AppName, Collection: "artifacts"},
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8080",
			TraceDir:   ".",
			Rate:       10,
			Burst:      30,
			SessionTTL: Duration{24 * time.Hour},
		},
		Telemetry: TelemetryConfig{ServiceName: AppName},
	}
}

// Dir returns the config directory, honoring XDG_CONFIG_HOME.
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the cache directory, honoring XDG_CACHE_HOME.
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path on top of [Default]. An empty path
// means [DefaultPath], which may be missing; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// Decode parses TOML into cfg and validates the result. Keys not known to
// Config are rejected so typos do not go unnoticed.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := errors.ValidateTrackWidth(c.TrackWidth); err != nil {
		return err
	}
	if c.Columns < 0 {
		return fmt.Errorf("columns must not be negative")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	case BackendMongo:
		if c.Cache.Mongo.URI == "" {
			return fmt.Errorf("cache.mongo.uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q (must be one of: file, redis, mongo, none)", c.Cache.Backend)
	}
	if c.Server.Rate < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("server.rate and server.burst must not be negative")
	}
	return nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
