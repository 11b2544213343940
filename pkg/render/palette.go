package render

import (
	"slices"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
)

// Palette is a colour gradient given by sorted keypoints in [0,1].
type Palette []struct {
	Col colorful.Color
	Pos float64
}

// At returns the colour at t, blending the two surrounding keypoints in
// HCL space. Values outside the keypoints take the end colours.
func (p Palette) At(t float64) colorful.Color {
	switch {
	case t <= p[0].Pos:
		return p[0].Col
	case t >= p[len(p)-1].Pos:
		return p[len(p)-1].Col
	}
	for i := 0; i < len(p)-1; i++ {
		c1, c2 := p[i], p[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			u := (t - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Col.BlendHcl(c2.Col, u).Clamped()
		}
	}
	return p[len(p)-1].Col
}

func mustParseHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("render: bad palette colour " + s + ": " + err.Error())
	}
	return c
}

func evenly(hexes ...string) Palette {
	p := make(Palette, len(hexes))
	for i, h := range hexes {
		p[i].Col = mustParseHex(h)
		p[i].Pos = float64(i) / float64(len(hexes)-1)
	}
	return p
}

// Built-in palettes.
var (
	Spectral = evenly("#5e4fa2", "#3288bd", "#66c2a5", "#abdda4", "#e6f598",
		"#ffffbf", "#fee090", "#fdae61", "#f46d43", "#d53e4f", "#9e0142")
	Viridis = evenly("#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725")
	Greys = evenly("#f7f7f7", "#d9d9d9", "#bdbdbd", "#969696", "#737373",
		"#525252", "#252525")
)

// DefaultPalette is the name of the palette used when none is chosen.
const DefaultPalette = "spectral"

var palettes = map[string]Palette{
	"spectral": Spectral,
	"viridis":  Viridis,
	"greys":    Greys,
}

// LookupPalette returns the built-in palette with the given name.
func LookupPalette(name string) (Palette, error) {
	p, ok := palettes[strings.ToLower(name)]
	if !ok {
		return nil, cerrors.New(cerrors.ErrCodeInvalidPalette,
			"unknown palette %q (want one of %s)", name, strings.Join(PaletteNames(), ", "))
	}
	return p, nil
}

// PaletteNames lists the built-in palettes in sorted order.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for n := range palettes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
