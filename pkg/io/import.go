package io

import (
	"os"
	"path/filepath"
	"strings"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
	"github.com/matzehuels/cartogram/pkg/geo"
)

// Import reads path with the reader matching its extension: .geojson and
// .json are GeoJSON, .shp is a shapefile.
func Import(path, attribute string) (*geo.Collection, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return ImportGeoJSON(path, attribute)
	case ".shp":
		return ImportShapefile(path, attribute)
	}
	return nil, cerrors.New(cerrors.ErrCodeInvalidFormat,
		"unsupported input %q (want .geojson, .json or .shp)", filepath.Base(path))
}

// open validates path and opens it, mapping a missing file to
// FILE_NOT_FOUND.
func open(path string) (*os.File, error) {
	if err := cerrors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "open %s", path)
	}
	return f, nil
}
