package cache

import "fmt"

// Keyer builds cache keys. Implementations must return different keys
// whenever any option that changes the output differs.
type Keyer interface {
	// CartogramKey identifies a transformed collection.
	CartogramKey(inputHash string, opts CartogramKeyOpts) string

	// ArtifactKey identifies a rendered file of a transformed collection.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// CartogramKeyOpts holds the options that affect a transform.
type CartogramKeyOpts struct {
	Attribute       string  `json:"attribute"`
	MaxIterations   int     `json:"max_iterations"`
	MaxAverageError float64 `json:"max_average_error"`
}

// ArtifactKeyOpts holds the options that affect a rendered artifact.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Palette     string  `json:"palette"`
	StrokeWidth float64 `json:"stroke_width"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CartogramKey returns "cartogram:<hash>".
func (DefaultKeyer) CartogramKey(inputHash string, opts CartogramKeyOpts) string {
	return hashKey("cartogram", inputHash, opts)
}

// ArtifactKey returns "artifact:<format>:<hash>".
func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return hashKey(fmt.Sprintf("artifact:%s", opts.Format), resultHash, opts)
}

var _ Keyer = DefaultKeyer{}
