package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// Area returns the planar area of g. Holes are subtracted.
func Area(g orb.Geometry) float64 {
	_, area := planar.CentroidArea(g)
	return area
}

// Centroid returns the planar area centroid of g. For a geometry with zero
// area the centroid of its outline is returned.
func Centroid(g orb.Geometry) orb.Point {
	c, _ := planar.CentroidArea(g)
	return c
}

// CentroidArea returns centroid and area in one pass.
func CentroidArea(g orb.Geometry) (orb.Point, float64) {
	return planar.CentroidArea(g)
}

// VertexCount returns the number of points stored in g, closing points
// included.
func VertexCount(g orb.Geometry) int {
	switch g := g.(type) {
	case orb.Ring:
		return len(g)
	case orb.Polygon:
		n := 0
		for _, r := range g {
			n += len(r)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, p := range g {
			n += VertexCount(p)
		}
		return n
	}
	return 0
}

// MapPoints returns a copy of g with fn applied to every vertex. The input
// is left untouched and the ring structure of the copy matches the input.
func MapPoints(g orb.Geometry, fn orb.Projection) orb.Geometry {
	return project.Geometry(orb.Clone(g), fn)
}
