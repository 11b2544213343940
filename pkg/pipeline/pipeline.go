// Package pipeline runs the transform → render pipeline shared by the CLI
// and the HTTP server.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Transform: turn the input collection into a cartogram
//  2. Render: produce output in various formats (GeoJSON, SVG, PNG)
//
// Both stages are cached through a [cache.Cache]. The transform is keyed by
// a hash of the input geometry and values plus the iteration bounds, each
// artifact by a hash of the transformed collection plus its render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Attribute = "population"
//	opts.Formats = []string{"svg", "geojson"}
//	result, err := runner.Execute(ctx, collection, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cartogram/pkg/cache"
	"github.com/matzehuels/cartogram/pkg/cartogram"
	cerrors "github.com/matzehuels/cartogram/pkg/errors"
	"github.com/matzehuels/cartogram/pkg/geo"
	"github.com/matzehuels/cartogram/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default frame width in pixels.
	DefaultWidth = render.DefaultWidth

	// DefaultHeight is the default frame height in pixels.
	DefaultHeight = render.DefaultHeight

	// DefaultStrokeWidth is the default outline width in pixels.
	DefaultStrokeWidth = render.DefaultStrokeWidth

	// DefaultPalette is the default fill palette.
	DefaultPalette = render.DefaultPalette
)

// Format constants for output formats.
const (
	FormatGeoJSON = "geojson"
	FormatSVG     = "svg"
	FormatPNG     = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatGeoJSON: true,
	FormatSVG:     true,
	FormatPNG:     true,
}

// ContentTypes maps each format to its media type.
var ContentTypes = map[string]string{
	FormatGeoJSON: "application/geo+json",
	FormatSVG:     "image/svg+xml",
	FormatPNG:     "image/png",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline. Iteration bounds are
// used as given; start from [DefaultOptions] for the usual values.
type Options struct {
	// Transform options
	Attribute       string  `json:"attribute"`
	MaxIterations   int     `json:"max_iterations"`
	MaxAverageError float64 `json:"max_average_error"`
	Workers         int     `json:"workers,omitempty"`
	Refresh         bool    `json:"refresh,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Width       float64  `json:"width,omitempty"`
	Height      float64  `json:"height,omitempty"`
	Palette     string   `json:"palette,omitempty"`
	StrokeWidth float64  `json:"stroke_width,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger        `json:"-"`
	Observer cartogram.Observer `json:"-"`
}

// DefaultOptions returns options with the default iteration bounds and
// render settings. Attribute is left empty.
func DefaultOptions() Options {
	return Options{
		MaxIterations:   cartogram.DefaultMaxIterations,
		MaxAverageError: cartogram.DefaultMaxAverageError,
		Workers:         1,
		Formats:         []string{FormatGeoJSON},
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		Palette:         DefaultPalette,
		StrokeWidth:     DefaultStrokeWidth,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// Collection is the transformed collection.
	Collection *geo.Collection

	Iterations   int
	InitialError float64
	AverageError float64
	Status       cartogram.Status

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Features      int
	Vertices      int
	TransformTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TransformHit bool // Whether the transformed collection came from cache
	RenderHit    bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return cerrors.New(cerrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: geojson, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePalette checks that a palette name is known.
func ValidatePalette(name string) error {
	_, err := render.LookupPalette(name)
	return err
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateForTransform checks the attribute and iteration bounds.
func (o *Options) ValidateForTransform() error {
	if err := cerrors.ValidateAttributeName(o.Attribute); err != nil {
		return err
	}
	if err := cerrors.ValidateIterationBounds(o.MaxIterations, o.MaxAverageError); err != nil {
		return err
	}
	o.setLogger()
	return nil
}

// ValidateForRender applies render defaults and checks formats and palette.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidatePalette(o.Palette)
}

// Validate checks everything Execute needs.
func (o *Options) Validate() error {
	if err := o.ValidateForTransform(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// SetRenderDefaults fills unset render options.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatGeoJSON}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Palette == "" {
		o.Palette = DefaultPalette
	}
	o.setLogger()
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// CartogramOptions returns the options for [cartogram.Transform].
func (o *Options) CartogramOptions() cartogram.Options {
	return cartogram.Options{
		MaxIterations:   o.MaxIterations,
		MaxAverageError: o.MaxAverageError,
		Workers:         o.Workers,
		Observer:        o.Observer,
		Logger:          o.Logger,
	}
}

// RenderOptions returns the options for the render package. The palette
// must have been validated.
func (o *Options) RenderOptions() []render.Option {
	palette, _ := render.LookupPalette(o.Palette)
	return []render.Option{
		render.WithSize(o.Width, o.Height),
		render.WithPalette(palette),
		render.WithStroke(o.StrokeWidth),
	}
}

// CartogramKeyOpts returns cache key options for the transform.
func (o *Options) CartogramKeyOpts() cache.CartogramKeyOpts {
	return cache.CartogramKeyOpts{
		Attribute:       o.Attribute,
		MaxIterations:   o.MaxIterations,
		MaxAverageError: o.MaxAverageError,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		Width:       o.Width,
		Height:      o.Height,
		Palette:     o.Palette,
		StrokeWidth: o.StrokeWidth,
	}
}
