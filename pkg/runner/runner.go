package runner

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// LayoutTTL and ArtifactTTL bound how long cached entries live.
	LayoutTTL   time.Duration
	ArtifactTTL time.Duration
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
		Cache:       c,
		Keyer:       keyer,
		Logger:      logger,
		LayoutTTL:   cache.TTLLayout,
		ArtifactTTL: cache.TTLArtifact,
	}
}

// Execute runs layout and render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	result := &Result{}

	layoutStart := time.Now()
	m, layoutHit, err := r.LayoutWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Model = m
	result.Stats.StageCount = len(opts.Stages)
	result.Stats.NodeCount = len(m.Nodes)
	result.Stats.ConnectionCount = len(m.Connections)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"nodes", len(m.Nodes),
		"connections", len(m.Connections),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, out, err := r.render(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.LayoutHash = out.layoutHash
	result.SelectedKey = out.selectedKey
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = out.hit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", out.hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes the layout of opts.Stages with caching and
// reports whether it came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, opts Options) (*layout.Model, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	stagesData, err := stage.MarshalJSON(opts.Stages)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidStages, err, "serialize stages for cache key")
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(stagesData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if m, err := layout.UnmarshalModel(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return m, true, nil
			}
			opts.Logger.Debug("discarding unreadable cached layout", "key", cacheKey)
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "key", cacheKey, "error", err)
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, len(opts.Stages))
	m := layout.Layout(opts.Stages, opts.Constants())
	observability.Layout().OnLayoutComplete(ctx, len(m.Nodes), time.Since(start), nil)

	if data, err := layout.MarshalModel(m); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.LayoutTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return m, false, nil
}

// Layout is a convenience wrapper that calls LayoutWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Layout(ctx context.Context, opts Options) (*layout.Model, error) {
	m, _, err := r.LayoutWithCacheInfo(ctx, opts)
	return m, err
}

// RenderWithCacheInfo renders artifacts of m with caching and reports
// whether all of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *layout.Model, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	artifacts, out, err := r.render(ctx, m, opts)
	return artifacts, out.hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, m *layout.Model, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, opts)
	return artifacts, err
}

type renderInfo struct {
	hit         bool
	layoutHash  string
	selectedKey string
}

// render expects validated options.
func (r *Runner) render(ctx context.Context, m *layout.Model, opts Options) (map[string][]byte, renderInfo, error) {
	var info renderInfo

	sel, err := ResolveSelection(m, opts)
	if err != nil {
		return nil, info, err
	}
	info.selectedKey = sel.Key

	layoutData, err := layout.MarshalModel(m)
	if err != nil {
		return nil, info, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	info.layoutHash = cache.Hash(layoutData)

	keys := make(map[string]string, len(opts.Formats))
	for _, format := range opts.Formats {
		keys[format] = r.Keyer.ArtifactKey(info.layoutHash, opts.ArtifactKeyOpts(format, sel.Key))
	}

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, keys[format])
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			info.hit = true
			return artifacts, info, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	start := time.Now()
	observability.Render().OnRenderStart(ctx, opts.Formats)
	artifacts, err := RenderFromModel(ctx, m, sel, opts)
	observability.Render().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, info, err
	}

	for format, data := range artifacts {
		if err := r.Cache.Set(ctx, keys[format], data, r.ArtifactTTL); err != nil {
			opts.Logger.Warn("cache write failed", "key", keys[format], "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, info, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
