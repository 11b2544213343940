package render

import (
	"bytes"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/matzehuels/cartogram/pkg/geo"
)

// SVG renders c as an SVG document with one <path> per feature, in
// collection order. Holes are cut out with the even-odd fill rule.
func SVG(c *geo.Collection, opts ...Option) []byte {
	o := newOptions(opts...)
	f := newFrame(c.Bound(), o)
	dens := densities(c)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		o.width, o.height, o.width, o.height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", o.background.Hex())

	for i, g := range c.Geometries {
		fmt.Fprintf(&buf, `  <path id="feature-%d" fill="%s" fill-rule="evenodd"`, i, o.palette.At(dens[i]).Hex())
		if o.strokeWidth > 0 {
			fmt.Fprintf(&buf, ` stroke="%s" stroke-width="%.2f" stroke-linejoin="round"`, o.stroke.Hex(), o.strokeWidth)
		}
		buf.WriteString(` d="`)
		writePathData(&buf, f, g)
		buf.WriteString(`"/>` + "\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writePathData(buf *bytes.Buffer, f frame, g orb.Geometry) {
	for _, p := range polygons(g) {
		for _, ring := range p {
			for j, pt := range ring {
				x, y := f.project(pt)
				cmd := 'L'
				if j == 0 {
					cmd = 'M'
				}
				fmt.Fprintf(buf, "%c%.2f,%.2f", cmd, x, y)
			}
			buf.WriteByte('Z')
		}
	}
}
