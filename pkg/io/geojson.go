package io

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
	"github.com/matzehuels/cartogram/pkg/geo"
)

// ReadGeoJSON decodes a FeatureCollection from r and extracts attribute as
// the value of every feature. ReadGeoJSON does not close r.
func ReadGeoJSON(r io.Reader, attribute string) (*geo.Collection, error) {
	if err := cerrors.ValidateAttributeName(attribute); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidFormat, err, "decode geojson")
	}
	return fromFeatures(fc.Features, attribute)
}

// ImportGeoJSON reads the GeoJSON file at path.
func ImportGeoJSON(path, attribute string) (*geo.Collection, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ReadGeoJSON(f, attribute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func fromFeatures(features []*geojson.Feature, attribute string) (*geo.Collection, error) {
	c := &geo.Collection{
		Geometries: make([]orb.Geometry, len(features)),
		Values:     make([]float64, len(features)),
		Properties: make([]map[string]any, len(features)),
	}

	for i, f := range features {
		if err := geo.ValidateGeometry(f.Geometry); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidGeometry, err, "feature %d", i)
		}
		v, err := attributeValue(f.Properties[attribute], attribute)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidAttribute, err, "feature %d", i)
		}

		c.Geometries[i] = f.Geometry
		c.Values[i] = v
		c.Properties[i] = map[string]any(f.Properties.Clone())
	}
	return c, nil
}

// attributeValue converts a property value to a number.
func attributeValue(raw any, attribute string) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, cerrors.New(cerrors.ErrCodeInvalidAttribute, "attribute %q is missing or null", attribute)
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, cerrors.New(cerrors.ErrCodeInvalidAttribute, "attribute %q is not numeric: %q", attribute, v)
		}
		return f, nil
	}
	return 0, cerrors.New(cerrors.ErrCodeInvalidAttribute, "attribute %q has non-numeric type %T", attribute, raw)
}

// UnmarshalGeoJSON decodes a FeatureCollection whose values are supplied
// separately, as written by [MarshalGeoJSON] for a collection that may not
// carry its values in the feature properties.
func UnmarshalGeoJSON(data []byte, values []float64) (*geo.Collection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidFormat, err, "decode geojson")
	}

	c := &geo.Collection{
		Geometries: make([]orb.Geometry, len(fc.Features)),
		Values:     values,
		Properties: make([]map[string]any, len(fc.Features)),
	}
	for i, f := range fc.Features {
		c.Geometries[i] = f.Geometry
		c.Properties[i] = map[string]any(f.Properties)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MarshalGeoJSON encodes c as a FeatureCollection. The properties read with
// the collection are written back; a collection without properties gets
// empty property objects.
func MarshalGeoJSON(c *geo.Collection) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i, g := range c.Geometries {
		f := geojson.NewFeature(g)
		if c.Properties != nil && c.Properties[i] != nil {
			f.Properties = geojson.Properties(c.Properties[i]).Clone()
		}
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

// WriteGeoJSON encodes c as a FeatureCollection and writes it to w.
func WriteGeoJSON(c *geo.Collection, w io.Writer) error {
	data, err := MarshalGeoJSON(c)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportGeoJSON writes c to a GeoJSON file at path.
func ExportGeoJSON(c *geo.Collection, path string) error {
	if err := cerrors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGeoJSON(c, f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
