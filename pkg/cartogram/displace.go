package cartogram

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/matzehuels/cartogram/pkg/geo"
)

// Force returns the unscaled force a feature exerts on a point at the given
// distance from its centroid.
//
// Outside the feature's radius the force decays with 1/distance. Inside it
// follows the cubic dr²(4−3dr), which is zero at the centroid and equals the
// far-field value at the boundary, so the force is continuous everywhere.
func Force(f Feature, distance float64) float64 {
	if distance == 0 {
		return 0
	}
	if distance > f.Radius {
		return f.Mass * f.Radius / distance
	}
	dr := distance / f.Radius
	return f.Mass * dr * dr * (4 - 3*dr)
}

// Displacer moves points under the combined force of a fixed set of
// features. It is safe for concurrent use.
type Displacer struct {
	features  []Feature
	reduction float64
}

// NewDisplacer freezes the features and reduction factor of one iteration.
// Features without mass are dropped up front.
func NewDisplacer(features []Feature, reductionFactor float64) *Displacer {
	active := make([]Feature, 0, len(features))
	for _, f := range features {
		if f.Mass != 0 {
			active = append(active, f)
		}
	}
	return &Displacer{features: active, reduction: reductionFactor}
}

// Displace returns the new position of p. A point lying exactly on a
// feature's centroid is not moved by that feature.
func (d *Displacer) Displace(p orb.Point) orb.Point {
	x, y := p[0], p[1]
	for _, f := range d.features {
		dx := p[0] - f.Centroid[0]
		dy := p[1] - f.Centroid[1]
		distance := math.Sqrt(dx*dx + dy*dy)
		if distance == 0 {
			continue
		}

		force := Force(f, distance) * d.reduction / distance
		x += dx * force
		y += dy * force
	}
	return orb.Point{x, y}
}

// Geometry returns a displaced copy of g with the same ring structure.
func (d *Displacer) Geometry(g orb.Geometry) orb.Geometry {
	return geo.MapPoints(g, d.Displace)
}
