package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slocmap/pkg/cache"
	"github.com/matzehuels/slocmap/pkg/observability"
	"github.com/matzehuels/slocmap/pkg/source"
	"github.com/matzehuels/slocmap/pkg/tree"
	"github.com/matzehuels/slocmap/pkg/treemap"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, loader and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Loader *source.Loader
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, loaderOpts ...source.Option) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	loaderOpts = append([]source.Option{source.WithCache(c, keyer)}, loaderOpts...)
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Loader: source.NewLoader(loaderOpts...),
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	src, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Tree = src.Tree
	result.TreeHash = src.Hash
	result.CacheInfo.LoadHit = src.Cached
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Files, result.Stats.Dirs = src.Tree.Stats()
	result.Stats.Code = src.Tree.Value()

	opts.Logger.Info("loaded tree",
		"source", opts.Source,
		"files", result.Stats.Files,
		"dirs", result.Stats.Dirs,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	root, layoutHash, layoutHit, err := r.LayoutWithCacheInfo(ctx, src.Tree, src.Hash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = root
	result.LayoutHash = layoutHash
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"width", opts.Width,
		"height", opts.Height,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, root, layoutHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load resolves the source tree.
func (r *Runner) Load(ctx context.Context, opts Options) (*source.Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	return r.Loader.Load(ctx, opts.SourceSpec())
}

// LayoutWithCacheInfo lays out root with caching. It returns the hierarchy,
// the layout hash used for artifact keys and whether the cache was hit.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, root *tree.Node, treeHash string, opts Options) (_ *treemap.Cell, layoutHash string, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return nil, "", false, err
	}

	if treeHash == "" {
		if treeHash, err = source.Hash(root); err != nil {
			return nil, "", false, err
		}
	}
	cacheKey := r.Keyer.LayoutKey(treeHash, opts.LayoutKeyOpts())
	layoutHash = cache.Hash([]byte(cacheKey))

	files, dirs := root.Stats()
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, files+dirs)
	start := time.Now()
	defer func() { hooks.OnLayoutComplete(ctx, time.Since(start), err) }()

	// Try cache first
	if data, ok, err := r.Cache.Get(ctx, cacheKey); err == nil && ok {
		cell := treemap.NewHierarchy(root)
		if err := treemap.ApplyRects(cell, data); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return cell, layoutHash, true, nil
		}
		// If deserialization fails, fall through to recompute
		opts.Logger.Debug("discarding cached layout", "key", cacheKey)
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	cell := ComputeLayout(root, opts)

	if data, err := treemap.MarshalRects(cell); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout) == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return cell, layoutHash, false, nil
}

// Layout is a convenience wrapper that discards the cache information.
func (r *Runner) Layout(ctx context.Context, root *tree.Node, opts Options) (*treemap.Cell, error) {
	cell, _, _, err := r.LayoutWithCacheInfo(ctx, root, "", opts)
	return cell, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, root *treemap.Cell, layoutHash string, opts Options) (_ map[string][]byte, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	if layoutHash == "" {
		data, err := treemap.MarshalRects(root)
		if err != nil {
			return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
		}
		treeHash, err := source.Hash(root.Node)
		if err != nil {
			return nil, false, err
		}
		layoutHash = cache.Hash(append([]byte(treeHash), data...))
	}

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		data, ok, err := r.Cache.Get(ctx, key)
		if err != nil || !ok {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := Render(ctx, root, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if r.Cache.Set(ctx, key, data, cache.TTLArtifact) == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
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
