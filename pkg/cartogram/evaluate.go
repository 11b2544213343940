package cartogram

import (
	"math"

	"github.com/matzehuels/cartogram/pkg/geo"
)

// FeatureError returns how far a region's area is from its target as the
// ratio of the larger to the smaller of the two. A perfect fit is 1.0.
// If either area is zero the ratio is undefined and the region counts as a
// perfect fit.
func FeatureError(area, target float64) float64 {
	lo, hi := math.Min(area, target), math.Max(area, target)
	if lo == 0 {
		return 1.0
	}
	return hi / lo
}

// AreaValueRatio returns the area granted per unit of attribute value.
func AreaValueRatio(totalArea, totalValue float64) float64 {
	return totalArea / totalValue
}

// AverageError returns the mean of the per-feature errors minus one, so a
// perfect cartogram scores zero.
func AverageError(errs []float64) float64 {
	if len(errs) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range errs {
		sum += e
	}
	return sum/float64(len(errs)) - 1.0
}

// ReductionFactor damps the displacement of one iteration. It lies in
// (0, 1] and approaches 1 as the average error approaches zero.
func ReductionFactor(averageError float64) float64 {
	return 1.0 / (averageError + 1.0)
}

// State is everything derived from the geometry at the start of one
// iteration. It is never updated: after the geometry changes a new State is
// derived and the old one discarded.
type State struct {
	// Version is the number of displacement passes the geometry had been
	// through when this State was derived.
	Version int

	TotalArea  float64
	TotalValue float64
	Ratio      float64

	Areas    []float64
	Targets  []float64
	Errors   []float64
	Features []Feature

	AverageError    float64
	ReductionFactor float64
}

// Derive computes a fresh State from the current geometry of c.
func Derive(c *geo.Collection, version int) *State {
	n := c.Len()
	s := &State{
		Version: version,
		Areas:   make([]float64, n),
		Targets: make([]float64, n),
		Errors:  make([]float64, n),
	}

	for i, g := range c.Geometries {
		s.Areas[i] = geo.Area(g)
		s.TotalArea += s.Areas[i]
	}
	s.TotalValue = c.TotalValue()
	s.Ratio = AreaValueRatio(s.TotalArea, s.TotalValue)

	for i, v := range c.Values {
		s.Targets[i] = v * s.Ratio
		s.Errors[i] = FeatureError(s.Areas[i], s.Targets[i])
	}
	s.Features = Summarize(c, s.Ratio)

	s.AverageError = AverageError(s.Errors)
	s.ReductionFactor = ReductionFactor(s.AverageError)
	return s
}
