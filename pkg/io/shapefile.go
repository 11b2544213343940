package io

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
	"github.com/matzehuels/cartogram/pkg/geo"
)

// ImportShapefile reads a polygon shapefile at path. The .shx index and
// .dbf table must sit next to it; attribute names a .dbf column. Every
// .dbf column is kept as a string property.
func ImportShapefile(path, attribute string) (*geo.Collection, error) {
	if err := cerrors.ValidateAttributeName(attribute); err != nil {
		return nil, err
	}
	if err := cerrors.ValidatePath(path); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	table := strings.TrimSuffix(path, filepath.Ext(path)) + ".dbf"
	if _, err := os.Stat(table); os.IsNotExist(err) {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "%s: attribute table %s", path, table)
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidFormat, err, "open shapefile %s", path)
	}
	defer r.Close()

	if r.GeometryType != shp.POLYGON {
		return nil, cerrors.New(cerrors.ErrCodeInvalidGeometry,
			"%s: only POLYGON shapefiles supported, found shape type %d", path, r.GeometryType)
	}

	fields := r.Fields()
	column := -1
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
		if names[i] == attribute {
			column = i
		}
	}
	if column < 0 {
		return nil, cerrors.New(cerrors.ErrCodeInvalidAttribute, "%s: no attribute column %q", path, attribute)
	}

	c := &geo.Collection{}
	for r.Next() {
		n, s := r.Shape()
		poly, ok := s.(*shp.Polygon)
		if !ok {
			return nil, cerrors.New(cerrors.ErrCodeInvalidGeometry, "%s: feature %d is not a polygon", path, n)
		}
		g := polygonGeometry(poly)
		if err := geo.ValidateGeometry(g); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidGeometry, err, "%s: feature %d", path, n)
		}

		props := make(map[string]any, len(names))
		for i, name := range names {
			// DBF values are padded with spaces or NULs.
			props[name] = strings.Trim(r.ReadAttribute(n, i), " \x00")
		}
		raw := props[attribute].(string)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, cerrors.New(cerrors.ErrCodeInvalidAttribute,
				"%s: feature %d: attribute %q is not numeric: %q", path, n, attribute, raw)
		}

		c.Geometries = append(c.Geometries, g)
		c.Values = append(c.Values, v)
		c.Properties = append(c.Properties, props)
	}
	if err := r.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidFormat, err, "read shapefile %s", path)
	}
	return c, nil
}

// polygonGeometry groups the parts of a shapefile polygon into exteriors
// and holes. Shapefiles wind exteriors clockwise and holes
// counter-clockwise; a hole belongs to the first exterior that contains it
// and becomes an exterior of its own when none does.
func polygonGeometry(p *shp.Polygon) orb.Geometry {
	var exteriors []orb.Polygon
	var holes []orb.Ring

	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) == 0 {
			continue
		}

		if ring.Orientation() == orb.CCW && len(exteriors) > 0 {
			holes = append(holes, ring)
			continue
		}
		exteriors = append(exteriors, orb.Polygon{ring})
	}

	n := len(exteriors)
	for _, h := range holes {
		owner := -1
		for i, e := range exteriors[:n] {
			if planar.RingContains(e[0], h[0]) {
				owner = i
				break
			}
		}
		if owner < 0 {
			// Not inside any exterior: a wrongly wound part.
			exteriors = append(exteriors, orb.Polygon{h})
			continue
		}
		exteriors[owner] = append(exteriors[owner], h)
	}

	switch len(exteriors) {
	case 0:
		return orb.Polygon{}
	case 1:
		return exteriors[0]
	}
	return orb.MultiPolygon(exteriors)
}
