// Package render draws a polygon collection as a choropleth map.
//
// [SVG] writes one path per feature; [PNG] rasterizes the same picture with
// gg. The collection is fitted into the frame with its aspect ratio kept
// and the y axis pointing up, so projected coordinates come out the right
// way round.
//
// Each feature is filled by its value density, the attribute value divided
// by the current area, mapped onto a [Palette]. On a converged cartogram
// every density is close to the mean and the map turns a single colour; on
// the input map the palette shows which regions are over- or
// under-represented.
//
//	svg := render.SVG(c, render.WithSize(1024, 768))
//	png, err := render.PNG(c, render.WithPalette(render.Viridis))
package render
