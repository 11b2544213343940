package render

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/matzehuels/cartogram/pkg/geo"
)

// frame maps collection coordinates to pixel coordinates.
type frame struct {
	bound   orb.Bound
	scale   float64
	offsetX float64
	offsetY float64
	height  float64
}

func newFrame(b orb.Bound, o options) frame {
	w, h := b.Right()-b.Left(), b.Top()-b.Bottom()
	availW := math.Max(o.width-2*o.padding, 1)
	availH := math.Max(o.height-2*o.padding, 1)

	scale := 1.0
	switch {
	case w > 0 && h > 0:
		scale = math.Min(availW/w, availH/h)
	case w > 0:
		scale = availW / w
	case h > 0:
		scale = availH / h
	}

	return frame{
		bound:   b,
		scale:   scale,
		offsetX: o.padding + (availW-w*scale)/2,
		offsetY: o.padding + (availH-h*scale)/2,
		height:  o.height,
	}
}

func (f frame) project(p orb.Point) (x, y float64) {
	x = f.offsetX + (p[0]-f.bound.Left())*f.scale
	y = f.height - f.offsetY - (p[1]-f.bound.Bottom())*f.scale
	return x, y
}

// polygons flattens a geometry into its member polygons.
func polygons(g orb.Geometry) []orb.Polygon {
	switch g := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return g
	}
	return nil
}

// densities returns value/area per feature scaled to [0,1]. Features
// without area get 1; a uniform collection gets 0.5 everywhere.
func densities(c *geo.Collection) []float64 {
	out := make([]float64, c.Len())
	lo, hi := math.Inf(1), math.Inf(-1)
	areas := c.Areas()
	for i, v := range c.Values {
		if areas[i] <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = v / areas[i]
		lo, hi = math.Min(lo, out[i]), math.Max(hi, out[i])
	}

	for i, d := range out {
		switch {
		case math.IsNaN(d):
			out[i] = 1
		case hi > lo:
			out[i] = (d - lo) / (hi - lo)
		default:
			out[i] = 0.5
		}
	}
	return out
}
