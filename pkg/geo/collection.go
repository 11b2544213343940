package geo

import (
	"github.com/paulmach/orb"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
)

// Collection is an ordered set of polygonal geometries with one attribute
// value per geometry.
type Collection struct {
	Geometries []orb.Geometry
	Values     []float64

	// Properties carries the per-feature properties read from the source
	// file so they can be written back unchanged. It may be nil.
	Properties []map[string]any
}

// Pair is one (value, geometry) entry of a Collection.
type Pair struct {
	Value    float64
	Geometry orb.Geometry
}

// NewCollection creates a validated collection from index-aligned slices.
func NewCollection(geoms []orb.Geometry, values []float64) (*Collection, error) {
	c := &Collection{Geometries: geoms, Values: values}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Collection) Len() int { return len(c.Geometries) }

// Validate checks the preconditions of a cartogram run: slices are aligned,
// every geometry is a non-empty Polygon or MultiPolygon, and the values
// pass [cerrors.ValidateValues].
func (c *Collection) Validate() error {
	if len(c.Geometries) != len(c.Values) {
		return cerrors.New(cerrors.ErrCodeInvalidInput,
			"%d geometries but %d attribute values", len(c.Geometries), len(c.Values))
	}
	if c.Properties != nil && len(c.Properties) != len(c.Geometries) {
		return cerrors.New(cerrors.ErrCodeInvalidInput,
			"%d geometries but %d property sets", len(c.Geometries), len(c.Properties))
	}
	for i, g := range c.Geometries {
		if err := ValidateGeometry(g); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInvalidGeometry, err, "feature %d", i)
		}
	}
	return cerrors.ValidateValues(c.Values)
}

// ValidateGeometry reports an error unless g is a non-empty Polygon or
// MultiPolygon.
func ValidateGeometry(g orb.Geometry) error {
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) == 0 {
			return cerrors.New(cerrors.ErrCodeInvalidGeometry, "empty polygon")
		}
	case orb.MultiPolygon:
		if len(g) == 0 {
			return cerrors.New(cerrors.ErrCodeInvalidGeometry, "empty multipolygon")
		}
		for _, p := range g {
			if len(p) == 0 || len(p[0]) == 0 {
				return cerrors.New(cerrors.ErrCodeInvalidGeometry, "multipolygon has an empty member")
			}
		}
	case nil:
		return cerrors.New(cerrors.ErrCodeInvalidGeometry, "missing geometry")
	default:
		return cerrors.New(cerrors.ErrCodeInvalidGeometry,
			"only POLYGON or MULTIPOLYGON geometries supported, found %s", g.GeoJSONType())
	}
	return nil
}

// Pairs returns the (value, geometry) pairs in collection order.
func (c *Collection) Pairs() []Pair {
	pairs := make([]Pair, len(c.Geometries))
	for i, g := range c.Geometries {
		pairs[i] = Pair{Value: c.Values[i], Geometry: g}
	}
	return pairs
}

// Replace swaps in a new set of geometries. The replacement must have the
// same length as the collection.
func (c *Collection) Replace(geoms []orb.Geometry) error {
	if len(geoms) != len(c.Geometries) {
		return cerrors.New(cerrors.ErrCodeInternal,
			"replace: got %d geometries, collection has %d", len(geoms), len(c.Geometries))
	}
	c.Geometries = geoms
	return nil
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	out := &Collection{
		Geometries: make([]orb.Geometry, len(c.Geometries)),
		Values:     append([]float64(nil), c.Values...),
	}
	for i, g := range c.Geometries {
		out.Geometries[i] = orb.Clone(g)
	}
	if c.Properties != nil {
		out.Properties = make([]map[string]any, len(c.Properties))
		for i, p := range c.Properties {
			cp := make(map[string]any, len(p))
			for k, v := range p {
				cp[k] = v
			}
			out.Properties[i] = cp
		}
	}
	return out
}

// Normalize applies [Normalize] to every geometry in place.
func (c *Collection) Normalize() {
	for i, g := range c.Geometries {
		c.Geometries[i] = Normalize(g)
	}
}

// HasMultiPolygons reports whether any entry is a MultiPolygon.
func (c *Collection) HasMultiPolygons() bool {
	for _, g := range c.Geometries {
		if _, ok := g.(orb.MultiPolygon); ok {
			return true
		}
	}
	return false
}

// Areas returns the current planar area of every geometry.
func (c *Collection) Areas() []float64 {
	areas := make([]float64, len(c.Geometries))
	for i, g := range c.Geometries {
		areas[i] = Area(g)
	}
	return areas
}

// TotalArea returns the sum of all geometry areas.
func (c *Collection) TotalArea() float64 {
	total := 0.0
	for _, g := range c.Geometries {
		total += Area(g)
	}
	return total
}

// TotalValue returns the sum of all attribute values.
func (c *Collection) TotalValue() float64 {
	total := 0.0
	for _, v := range c.Values {
		total += v
	}
	return total
}

// VertexCount returns the number of vertices over all geometries.
func (c *Collection) VertexCount() int {
	n := 0
	for _, g := range c.Geometries {
		n += VertexCount(g)
	}
	return n
}

// Bound returns the bounding box of all geometries.
func (c *Collection) Bound() orb.Bound {
	if len(c.Geometries) == 0 {
		return orb.Bound{}
	}
	b := c.Geometries[0].Bound()
	for _, g := range c.Geometries[1:] {
		b = b.Union(g.Bound())
	}
	return b
}
