package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/cartogram/pkg/cache"
	"github.com/matzehuels/cartogram/pkg/cartogram"
	"github.com/matzehuels/cartogram/pkg/geo"
	pkgio "github.com/matzehuels/cartogram/pkg/io"
	"github.com/matzehuels/cartogram/pkg/observability"
	"github.com/matzehuels/cartogram/pkg/render"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeCartogram = "cartogram"
	keyTypeArtifact  = "artifact"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides cache.TTLCartogram for transform results when positive.
	TTL time.Duration
}

func (r *Runner) cartogramTTL() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLCartogram
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

// Execute transforms c and renders the result. c itself is not modified.
func (r *Runner) Execute(ctx context.Context, c *geo.Collection, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID: uuid.NewString(),
		Stats: Stats{Features: c.Len(), Vertices: c.VertexCount()},
	}
	logger := opts.Logger.With("run", result.RunID)
	opts.Logger = logger

	// Stage 1: Transform
	transformStart := time.Now()
	res, hit, err := r.TransformWithCacheInfo(ctx, c, opts)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	result.Collection = res.Collection
	result.Iterations = res.Iterations
	result.InitialError = res.InitialError
	result.AverageError = res.AverageError
	result.Status = res.Status
	result.Stats.TransformTime = time.Since(transformStart)
	result.CacheInfo.TransformHit = hit

	logger.Info("transformed collection",
		"features", result.Stats.Features,
		"iterations", result.Iterations,
		"average_error", result.AverageError,
		"status", result.Status,
		"cached", hit,
		"duration", result.Stats.TransformTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Collection, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// cachedRun is the cache record of a transform.
type cachedRun struct {
	Collection   json.RawMessage `json:"collection"`
	Values       []float64       `json:"values"`
	Iterations   int             `json:"iterations"`
	InitialError float64         `json:"initial_error"`
	AverageError float64         `json:"average_error"`
	Status       string          `json:"status"`
}

// TransformWithCacheInfo transforms a copy of c with caching and returns
// cache hit info. opts.Refresh skips the lookup but still stores the
// result.
func (r *Runner) TransformWithCacheInfo(ctx context.Context, c *geo.Collection, opts Options) (*cartogram.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForTransform(); err != nil {
		return nil, false, err
	}
	if err := c.Validate(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	inputHash, err := CollectionHash(c)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.CartogramKey(inputHash, opts.CartogramKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil {
			opts.Logger.Warn("cache read failed", "key", cacheKey, "error", err)
		}
		if err == nil && hit {
			if res, err := decodeRun(data); err == nil {
				hooks.OnCacheHit(ctx, keyTypeCartogram)
				return res, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		hooks.OnCacheMiss(ctx, keyTypeCartogram)
	}

	work := c.Clone()
	res, err := cartogram.Transform(ctx, work, opts.CartogramOptions())
	if err != nil {
		return nil, false, err
	}

	if data, err := encodeRun(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.cartogramTTL()); err != nil {
			opts.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypeCartogram, len(data))
		}
	}

	return res, false, nil
}

// Transform is a convenience wrapper that calls TransformWithCacheInfo and discards the cache hit info.
func (r *Runner) Transform(ctx context.Context, c *geo.Collection, opts Options) (*cartogram.Result, error) {
	res, _, err := r.TransformWithCacheInfo(ctx, c, opts)
	return res, err
}

func encodeRun(res *cartogram.Result) ([]byte, error) {
	fc, err := pkgio.MarshalGeoJSON(res.Collection)
	if err != nil {
		return nil, err
	}
	return json.Marshal(cachedRun{
		Collection:   fc,
		Values:       res.Collection.Values,
		Iterations:   res.Iterations,
		InitialError: res.InitialError,
		AverageError: res.AverageError,
		Status:       res.Status.String(),
	})
}

func decodeRun(data []byte) (*cartogram.Result, error) {
	var rec cachedRun
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	status, ok := cartogram.ParseStatus(rec.Status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q", rec.Status)
	}
	c, err := pkgio.UnmarshalGeoJSON(rec.Collection, rec.Values)
	if err != nil {
		return nil, err
	}
	return &cartogram.Result{
		Collection:   c,
		Iterations:   rec.Iterations,
		InitialError: rec.InitialError,
		AverageError: rec.AverageError,
		Status:       status,
	}, nil
}

// CollectionHash returns a content hash over the geometry, properties and
// values of c.
func CollectionHash(c *geo.Collection) (string, error) {
	fc, err := pkgio.MarshalGeoJSON(c)
	if err != nil {
		return "", fmt.Errorf("serialize collection for cache key: %w", err)
	}
	values, err := json.Marshal(c.Values)
	if err != nil {
		return "", fmt.Errorf("serialize values for cache key: %w", err)
	}
	return cache.Hash(append(fc, values...)), nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, c *geo.Collection, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	resultHash, err := CollectionHash(c)
	if err != nil {
		return nil, false, err
	}

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, keyTypeArtifact)
			break
		}
		hooks.OnCacheHit(ctx, keyTypeArtifact)
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, c, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "key", key, "error", err)
			continue
		}
		hooks.OnCacheSet(ctx, keyTypeArtifact, len(data))
	}

	return rendered, false, nil
}

// Render renders c in every requested format without caching.
func Render(ctx context.Context, c *geo.Collection, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	hooks := observability.Render()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)

	artifacts, err := renderAll(c, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderAll(c *geo.Collection, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatGeoJSON:
			var buf bytes.Buffer
			if err := pkgio.WriteGeoJSON(c, &buf); err != nil {
				return nil, err
			}
			artifacts[format] = buf.Bytes()
		case FormatSVG:
			artifacts[format] = render.SVG(c, opts.RenderOptions()...)
		case FormatPNG:
			data, err := render.PNG(c, opts.RenderOptions()...)
			if err != nil {
				return nil, err
			}
			artifacts[format] = data
		}
	}
	return artifacts, nil
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
