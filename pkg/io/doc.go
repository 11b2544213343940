// Package io reads and writes the polygon collections a cartogram operates
// on.
//
// # Formats
//
// GeoJSON FeatureCollections are read with [ReadGeoJSON] or [ImportGeoJSON]
// and written with [WriteGeoJSON], [ExportGeoJSON] or [MarshalGeoJSON].
// ESRI shapefiles are read with [ImportShapefile]; the attribute is taken
// from the accompanying .dbf table. [Import] picks the reader from the file
// extension.
//
// # Attributes
//
// Every feature must carry the named attribute as a number or a numeric
// string. A missing, null or non-numeric attribute is reported as an
// INVALID_ATTRIBUTE error naming the feature index, and a geometry that is
// not a Polygon or MultiPolygon as INVALID_GEOMETRY. All other properties
// are kept on the collection and written back unchanged, so an exported
// cartogram carries the same attribute table as its input.
//
//	c, err := io.Import("states.geojson", "population")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := cartogram.Transform(ctx, c, cartogram.DefaultOptions()); err != nil {
//	    log.Fatal(err)
//	}
//	err = io.ExportGeoJSON(c, "states-cartogram.geojson")
package io
