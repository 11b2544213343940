package cartogram

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/matzehuels/cartogram/pkg/geo"
)

// Feature is the gravitational descriptor of one region for one iteration.
type Feature struct {
	Centroid orb.Point

	// Mass is positive when the region must grow, negative when it must
	// shrink and zero when it exerts no force.
	Mass float64

	// Radius is the radius of a circle with the region's current area.
	Radius float64
}

// NewFeature summarizes a region with the given attribute value under the
// shared area/value ratio.
func NewFeature(value float64, g orb.Geometry, ratio float64) Feature {
	centroid, area := geo.CentroidArea(g)
	radius := math.Sqrt(area / math.Pi)
	target := value * ratio

	mass := 0.0
	if target != 0 {
		mass = math.Sqrt(target/math.Pi) - radius
	}

	return Feature{Centroid: centroid, Mass: mass, Radius: radius}
}

// Summarize returns one Feature per collection entry.
func Summarize(c *geo.Collection, ratio float64) []Feature {
	features := make([]Feature, c.Len())
	for i, p := range c.Pairs() {
		features[i] = NewFeature(p.Value, p.Geometry, ratio)
	}
	return features
}
