// Package geo holds the geometry collection a cartogram is computed on.
//
// A [Collection] is an ordered list of polygonal geometries
// ([orb.Polygon] or [orb.MultiPolygon]) with one numeric attribute value per
// entry, index-aligned. The cartogram engine reads (value, geometry) pairs
// from it and replaces all geometries in bulk once per iteration; the ring
// structure and vertex count of each geometry never change during a run.
//
// # Normalization
//
// [Normalize] is the repair step applied before and after a run. It closes
// open rings, removes repeated consecutive vertices, drops degenerate holes
// and orients rings following RFC 7946 (exterior counter-clockwise, holes
// clockwise). It does not untangle self-intersecting rings.
//
// # Measures
//
// Areas and centroids are planar, computed with [planar.CentroidArea], so
// input in geographic coordinates should be projected first.
//
// [planar.CentroidArea]: https://pkg.go.dev/github.com/paulmach/orb/planar#CentroidArea
package geo
