package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Normalize repairs a polygonal geometry without moving any vertex.
//
// Rings are closed and stripped of repeated consecutive points. Holes with
// fewer than four points or zero area are dropped. Exterior rings are
// oriented counter-clockwise and holes clockwise. Member polygons of a
// multipolygon whose exterior has collapsed are dropped as long as one
// member remains. Other geometry types are returned unchanged.
func Normalize(g orb.Geometry) orb.Geometry {
	switch g := g.(type) {
	case orb.Polygon:
		return normalizePolygon(g)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, 0, len(g))
		for _, p := range g {
			np := normalizePolygon(p)
			if len(np) == 0 || len(np[0]) < 4 || planar.Area(np) == 0 {
				continue
			}
			out = append(out, np)
		}
		if len(out) == 0 && len(g) > 0 {
			out = append(out, normalizePolygon(g[0]))
		}
		return out
	}
	return g
}

func normalizePolygon(p orb.Polygon) orb.Polygon {
	if len(p) == 0 {
		return p
	}
	out := make(orb.Polygon, 0, len(p))
	out = append(out, normalizeRing(p[0], orb.CCW))
	for _, hole := range p[1:] {
		r := normalizeRing(hole, orb.CW)
		if len(r) < 4 || planar.Area(r) == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// normalizeRing returns a closed, de-duplicated copy of r wound in the
// requested direction. Rings without area keep their winding.
func normalizeRing(r orb.Ring, want orb.Orientation) orb.Ring {
	out := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}

	if o := out.Orientation(); (o == orb.CCW || o == orb.CW) && o != want {
		out.Reverse()
	}
	return out
}
