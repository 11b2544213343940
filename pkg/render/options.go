package render

import colorful "github.com/lucasb-eyer/go-colorful"

// Default frame settings.
const (
	DefaultWidth       = 800.0
	DefaultHeight      = 600.0
	DefaultPadding     = 10.0
	DefaultStrokeWidth = 0.5
)

// Option configures SVG and PNG rendering.
type Option func(*options)

type options struct {
	width, height float64
	padding       float64
	strokeWidth   float64
	stroke        colorful.Color
	background    colorful.Color
	palette       Palette
}

func newOptions(opts ...Option) options {
	o := options{
		width:       DefaultWidth,
		height:      DefaultHeight,
		padding:     DefaultPadding,
		strokeWidth: DefaultStrokeWidth,
		stroke:      mustParseHex("#333333"),
		background:  colorful.Color{R: 1, G: 1, B: 1},
		palette:     Spectral,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSize sets the frame size in pixels. Non-positive values keep the
// default.
func WithSize(width, height float64) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
		if height > 0 {
			o.height = height
		}
	}
}

// WithPalette sets the fill gradient. An empty palette keeps the default.
func WithPalette(p Palette) Option {
	return func(o *options) {
		if len(p) > 0 {
			o.palette = p
		}
	}
}

// WithStroke sets the outline width; zero disables outlines.
func WithStroke(width float64) Option {
	return func(o *options) { o.strokeWidth = max(width, 0) }
}

// WithPadding sets the margin between the frame and the geometry.
func WithPadding(p float64) Option {
	return func(o *options) { o.padding = max(p, 0) }
}
