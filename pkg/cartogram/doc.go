// Package cartogram computes continuous area cartograms.
//
// Given a [geo.Collection] of polygons with one attribute value each, the
// engine repeatedly moves every vertex so that each region's area drifts
// toward being proportional to its value. It follows Dougenik, Chrisman and
// Niemeyer (1985): every region acts as a point mass at its centroid that
// pushes vertices away when the region is too small and pulls them in when
// it is too large.
//
// # Pipeline of one iteration
//
//  1. [Derive] summarizes the current geometry into a [State]: areas, the
//     area/value ratio, one [Feature] per region and the average error.
//  2. A [Displacer] built from that frozen State maps every vertex of every
//     geometry to its new position.
//  3. The collection's geometries are replaced and the State is discarded.
//
// [Transform] drives the loop until the average error drops to the
// requested threshold or the iteration budget is spent.
//
// # Degenerate cases
//
// A region whose current or target area is zero counts as a perfect fit
// (error 1.0) rather than failing the run. A vertex that sits exactly on a
// region's centroid receives no displacement from that region; the force
// formula has a removable singularity there.
//
// # Concurrency
//
// Iterations are strictly sequential. Within one iteration geometries are
// independent, so [Options.Workers] greater than one displaces them in
// parallel against the same read-only State.
package cartogram
