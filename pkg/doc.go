// Package pkg provides the core libraries for continuous area cartograms.
//
// # Overview
//
// A cartogram resizes every region of a map so that its area is proportional
// to a statistic such as population, while neighbouring regions stay joined.
// The pkg directory is organized into four main areas:
//
//  1. [geo] and [cartogram] - Domain logic (geometry measures, the iteration)
//  2. [io] and [render] - Formats (GeoJSON, shapefiles, SVG, PNG)
//  3. [cache] and [observability] - Infrastructure (result caching, metrics)
//  4. [pipeline] - Orchestration (transform → render)
//
// # Architecture
//
// The typical data flow:
//
//	GeoJSON / Shapefile
//	         ↓
//	    [io] package (regions + attribute values)
//	         ↓
//	    [cartogram] package (iterative displacement)
//	         ↓
//	    [render] package (choropleth of value density)
//	         ↓
//	    GeoJSON/SVG/PNG output
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/cartogram/pkg/cartogram"
//	    "github.com/matzehuels/cartogram/pkg/io"
//	    "github.com/matzehuels/cartogram/pkg/render"
//	)
//
//	// 1. Load regions and the driving attribute
//	c, _ := io.ImportGeoJSON("states.geojson", "population")
//
//	// 2. Transform in place
//	res, _ := cartogram.Transform(context.Background(), c, cartogram.DefaultOptions())
//
//	// 3. Render to SVG
//	svg := render.SVG(res.Collection)
//
// # Main Packages
//
// [geo] - The collection type pairing geometries with values, plus area,
// centroid, vertex mapping and ring orientation helpers built on orb.
//
// [cartogram] - The Dougenik, Chrisman and Niemeyer algorithm: per-region
// mass and radius, the force law, and the bounded iteration driver.
//
// [io] - GeoJSON FeatureCollection and ESRI shapefile import, GeoJSON export.
//
// [render] - SVG and PNG output with HCL colour palettes.
//
// [cache] - File, Redis and null caches with content-addressed keys.
//
// [pipeline] - Cached transform and render used by both the CLI and the API
// server. Ensures consistent behavior across entry points.
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Coded errors and input validation.
//
// [observability] - Hooks for iterations, renders, cache and HTTP traffic,
// with a Prometheus implementation.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/cartogram/...          # Specific package
//
// [geo]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/geo
// [cartogram]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/cartogram
// [io]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/cartogram/pkg/observability
package pkg
