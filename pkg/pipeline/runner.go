package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spantower/pkg/cache"
	"github.com/matzehuels/spantower/pkg/observability"
	"github.com/matzehuels/spantower/pkg/waterfall"
	"github.com/matzehuels/spantower/pkg/zipkin"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeTrace    = "trace"
	keyTypeArtifact = "artifact"
)

// Runner executes the pipeline against a cache. It keeps no per-run state,
// so one Runner serves concurrent requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner returns a Runner. A nil cache disables caching, a nil keyer
// uses [cache.NewDefaultKeyer] and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.DefaultTTL,
	}
}

// Execute loads, lays out and renders in one go.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	root, hash, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Trace = root
	result.TraceHash = hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.SpanCount = root.Count()
	result.Stats.Depth = root.Depth()
	result.Stats.Services = len(root.Services())
	result.CacheInfo.LoadHit = loadHit

	r.Logger.Info("loaded trace",
		"trace", root.Span.TraceID,
		"spans", result.Stats.SpanCount,
		"services", result.Stats.Services,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	result.Layout = r.Layout(ctx, root, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, hash, result.Layout, root, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo reads and assembles the trace, using the trace cache
// unless Refresh is set. It returns the tree, the content hash of the input
// and whether the tree came from cache.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*zipkin.SpanNode, string, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, "", false, err
	}

	data, err := ReadSource(opts)
	if err != nil {
		return nil, "", false, err
	}
	hash := TraceHash(data)
	cacheKey := r.Keyer.TraceKey(hash)

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if root, err := decodeTree(cached); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeTrace)
				return root, hash, true, nil
			}
			// Undecodable entries fall through to a fresh load
		} else if err != nil {
			opts.Logger.Warn("trace cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeTrace)
	}

	root, err := Load(ctx, data, sourceName(opts))
	if err != nil {
		return nil, "", false, err
	}

	if encoded, err := encodeTree(root); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, encoded, r.TTL); err != nil {
			opts.Logger.Warn("trace cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeTrace, len(encoded))
		}
	}
	return root, hash, false, nil
}

// Load is [Runner.LoadWithCacheInfo] without the hit flag.
func (r *Runner) Load(ctx context.Context, opts Options) (*zipkin.SpanNode, string, error) {
	root, hash, _, err := r.LoadWithCacheInfo(ctx, opts)
	return root, hash, err
}

// Layout computes the waterfall. Layouts are cheap and depend on toggle
// state, so they are never cached.
func (r *Runner) Layout(ctx context.Context, root *zipkin.SpanNode, opts Options) waterfall.Layout {
	r.applyLogger(&opts)
	return GenerateLayout(ctx, root, opts)
}

// RenderWithCacheInfo returns an artifact per requested format, rendering
// only those missing from the cache. hit is true when none were missing.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, traceHash string, l waterfall.Layout, root *zipkin.SpanNode, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if traceHash == "" || opts.Refresh {
			missing = append(missing, format)
			continue
		}
		key := r.Keyer.ArtifactKey(traceHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		return artifacts, true, nil // All artifacts from cache
	}

	rendered, err := renderFormats(ctx, l, root, opts, missing)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		if traceHash == "" {
			continue
		}
		key := r.Keyer.ArtifactKey(traceHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			opts.Logger.Warn("artifact cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return artifacts, false, nil
}

// Render is [Runner.RenderWithCacheInfo] without the hit flag.
func (r *Runner) Render(ctx context.Context, traceHash string, l waterfall.Layout, root *zipkin.SpanNode, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, traceHash, l, root, opts)
	return artifacts, err
}

// Close closes the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger gives opts the runner's logger unless it has its own.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
