package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/cartogram/pkg/geo"
)

// PNG rasterizes c at the configured frame size.
func PNG(c *geo.Collection, opts ...Option) ([]byte, error) {
	o := newOptions(opts...)
	f := newFrame(c.Bound(), o)
	dens := densities(c)

	dc := gg.NewContext(int(math.Ceil(o.width)), int(math.Ceil(o.height)))
	dc.SetColor(o.background)
	dc.Clear()
	dc.SetFillRuleEvenOdd()
	dc.SetLineWidth(o.strokeWidth)

	for i, g := range c.Geometries {
		for _, p := range polygons(g) {
			for _, ring := range p {
				dc.NewSubPath()
				for j, pt := range ring {
					x, y := f.project(pt)
					if j == 0 {
						dc.MoveTo(x, y)
					} else {
						dc.LineTo(x, y)
					}
				}
				dc.ClosePath()
			}
		}

		dc.SetColor(o.palette.At(dens[i]))
		if o.strokeWidth > 0 {
			dc.FillPreserve()
			dc.SetColor(o.stroke)
			dc.Stroke()
		} else {
			dc.Fill()
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
