package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/spantower/pkg/cache"
	"github.com/matzehuels/spantower/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should be valid: %v", err)
	}
	if cfg.TrackWidth != 95 || cfg.Cache.Backend != BackendFile {
		t.Errorf("Default() = %+v", cfg)
	}
}

func TestDecode(t *testing.T) {
	src := `
track_width = 80
display = true
formats = ["svg", "json"]

[cache]
backend = "redis"
ttl = "90m"

[cache.redis]
addr = "localhost:6379"
db = 2

[server]
addr = ":9000"
rate = 2.5
burst = 5
session_ttl = "1h"

[telemetry]
otlp_endpoint = "localhost:4317"
`
	cfg := Default()
	if err := Decode([]byte(src), &cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.TrackWidth != 80 || !cfg.Display || len(cfg.Formats) != 2 {
		t.Errorf("top-level = %+v", cfg)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute || cfg.Cache.Redis.DB != 2 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Rate != 2.5 || cfg.Server.SessionTTL.Duration != time.Hour {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.TraceDir != "." {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.Telemetry.OTLPEndpoint != "localhost:4317" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":         `trak_width = 50`,
		"bad width":           `track_width = 150`,
		"bad backend":         "[cache]\nbackend = \"memcached\"",
		"redis without addr":  "[cache]\nbackend = \"redis\"",
		"mongo without uri":   "[cache]\nbackend = \"mongo\"",
		"bad duration":        "[cache]\nttl = \"soon\"",
		"negative rate":       "[server]\nrate = -1",
		"malformed":           `track_width = `,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			if err := Decode([]byte(src), &cfg); err == nil {
				t.Errorf("Decode(%q) should fail", src)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// Missing default file is fine
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if cfg.TrackWidth != 95 {
		t.Error("missing file should give defaults")
	}

	// Explicit missing file is an error
	if _, err := Load(filepath.Join(dir, "nope.toml")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("explicit missing file: %v", err)
	}

	path, _ := DefaultPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("columns = 100\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Columns != 100 {
		t.Errorf("Columns = %d", cfg.Columns)
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	if d, _ := Dir(); d != "/tmp/cfg/spantower" {
		t.Errorf("Dir() = %q", d)
	}
	if d, _ := CacheDir(); d != "/tmp/cache/spantower" {
		t.Errorf("CacheDir() = %q", d)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Default()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `ttl = "168h0m0s"`) {
		t.Errorf("durations should encode as strings:\n%s", buf.String())
	}
	cfg := Default()
	if err := Decode(buf.Bytes(), &cfg); err != nil {
		t.Fatalf("written config should decode: %v", err)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	c, err := CacheConfig{Backend: BackendNone}.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("none backend = %T", c)
	}

	c, err = CacheConfig{Backend: BackendFile, Dir: t.TempDir()}.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("file backend = %T", c)
	}

	if _, err := (CacheConfig{Backend: "x"}).OpenCache(ctx); err == nil {
		t.Error("unknown backend should fail")
	}
}
