package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/observability"
	"github.com/matzehuels/gardengrid/pkg/placement"
	"github.com/matzehuels/gardengrid/pkg/render"
)

// Runner renders states through a cache.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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
	}
}

// StateHash is the content hash of everything that affects a render of s.
func StateHash(s placement.State) (string, error) {
	data, err := json.Marshal(render.NewFrame(s))
	if err != nil {
		return "", fmt.Errorf("serialize state for cache key: %w", err)
	}
	return cache.Hash(data), nil
}

// RenderWithCacheInfo renders s and reports whether every artifact came
// from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s placement.State, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	stateHash, err := StateHash(s)
	if err != nil {
		return nil, false, err
	}
	keyOpts := func(format string) cache.RenderKeyOpts {
		return cache.RenderKeyOpts{Format: format, Scale: s.Viewport.Scale}
	}

	hooks := observability.Cache()
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.RenderKey(stateHash, keyOpts(format)))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnCacheHit(ctx, "render")
			logger.Debug("render cache hit", "formats", opts.Formats)
			return artifacts, true, nil
		}
		hooks.OnCacheMiss(ctx, "render")
	}

	start := time.Now()
	artifacts, err := RenderState(ctx, s, opts)
	if err != nil {
		return nil, false, err
	}
	logger.Debug("rendered garden",
		"formats", opts.Formats,
		"plants", s.Layout.Len(),
		"duration", time.Since(start))

	for format, data := range artifacts {
		key := r.Keyer.RenderKey(stateHash, keyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err != nil {
			logger.Warn("cache render", "format", format, "error", err)
			continue
		}
		hooks.OnCacheSet(ctx, "render", len(data))
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, s placement.State, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
