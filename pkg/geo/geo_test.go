package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	cerrors "github.com/matzehuels/cartogram/pkg/errors"
)

func square(x, y, size float64) orb.Polygon {
	return orb.Polygon{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}}
}

func TestNewCollection(t *testing.T) {
	tests := []struct {
		name     string
		geoms    []orb.Geometry
		values   []float64
		wantCode cerrors.Code
	}{
		{
			name:   "polygon and multipolygon",
			geoms:  []orb.Geometry{square(0, 0, 10), orb.MultiPolygon{square(20, 0, 5)}},
			values: []float64{1, 2},
		},
		{
			name:     "length mismatch",
			geoms:    []orb.Geometry{square(0, 0, 10)},
			values:   []float64{1, 2},
			wantCode: cerrors.ErrCodeInvalidInput,
		},
		{
			name:     "point geometry",
			geoms:    []orb.Geometry{orb.Point{1, 1}},
			values:   []float64{1},
			wantCode: cerrors.ErrCodeInvalidGeometry,
		},
		{
			name:     "nil geometry",
			geoms:    []orb.Geometry{nil},
			values:   []float64{1},
			wantCode: cerrors.ErrCodeInvalidGeometry,
		},
		{
			name:     "empty polygon",
			geoms:    []orb.Geometry{orb.Polygon{}},
			values:   []float64{1},
			wantCode: cerrors.ErrCodeInvalidGeometry,
		},
		{
			name:     "nan value",
			geoms:    []orb.Geometry{square(0, 0, 10)},
			values:   []float64{math.NaN()},
			wantCode: cerrors.ErrCodeInvalidAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCollection(tt.geoms, tt.values)
			if got := cerrors.GetCode(err); got != tt.wantCode {
				t.Errorf("NewCollection() code = %q, want %q (err: %v)", got, tt.wantCode, err)
			}
			if tt.wantCode != "" && !cerrors.IsInvalidInput(err) {
				t.Errorf("IsInvalidInput(%v) = false, want true", err)
			}
		})
	}
}

func TestCollectionTotals(t *testing.T) {
	c, err := NewCollection(
		[]orb.Geometry{square(0, 0, 10), square(10, 0, 20)},
		[]float64{1, 4},
	)
	if err != nil {
		t.Fatalf("NewCollection() error: %v", err)
	}

	if got := c.TotalArea(); math.Abs(got-500) > 1e-9 {
		t.Errorf("TotalArea() = %v, want 500", got)
	}
	if got := c.TotalValue(); got != 5 {
		t.Errorf("TotalValue() = %v, want 5", got)
	}
	if got := c.VertexCount(); got != 10 {
		t.Errorf("VertexCount() = %d, want 10", got)
	}

	b := c.Bound()
	if b.Min != (orb.Point{0, 0}) || b.Max != (orb.Point{30, 20}) {
		t.Errorf("Bound() = %v, want [0 0]-[30 20]", b)
	}

	pairs := c.Pairs()
	if len(pairs) != 2 || pairs[1].Value != 4 {
		t.Errorf("Pairs() = %v, want 2 pairs with second value 4", pairs)
	}
}

func TestAreaAndCentroid(t *testing.T) {
	withHole := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
	}
	if got := Area(withHole); math.Abs(got-96) > 1e-9 {
		t.Errorf("Area(withHole) = %v, want 96", got)
	}

	c := Centroid(square(0, 0, 10))
	if math.Abs(c[0]-5) > 1e-9 || math.Abs(c[1]-5) > 1e-9 {
		t.Errorf("Centroid(square) = %v, want [5 5]", c)
	}

	clockwise := orb.Polygon{{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}}
	if got := Area(clockwise); math.Abs(got-100) > 1e-9 {
		t.Errorf("Area(clockwise) = %v, want 100", got)
	}
}

func TestReplace(t *testing.T) {
	c, _ := NewCollection([]orb.Geometry{square(0, 0, 1)}, []float64{1})

	if err := c.Replace([]orb.Geometry{square(5, 5, 1)}); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}
	if got := Centroid(c.Geometries[0]); math.Abs(got[0]-5.5) > 1e-9 {
		t.Errorf("centroid after Replace = %v, want [5.5 5.5]", got)
	}

	if err := c.Replace(nil); err == nil {
		t.Error("Replace(nil) should fail on length mismatch")
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := &Collection{
		Geometries: []orb.Geometry{square(0, 0, 1)},
		Values:     []float64{1},
		Properties: []map[string]any{{"name": "a"}},
	}
	cp := c.Clone()

	cp.Geometries[0].(orb.Polygon)[0][0] = orb.Point{99, 99}
	cp.Values[0] = 7
	cp.Properties[0]["name"] = "b"

	if c.Geometries[0].(orb.Polygon)[0][0] != (orb.Point{0, 0}) {
		t.Error("Clone() shares geometry with the original")
	}
	if c.Values[0] != 1 {
		t.Error("Clone() shares values with the original")
	}
	if c.Properties[0]["name"] != "a" {
		t.Error("Clone() shares properties with the original")
	}
}

func TestNormalize(t *testing.T) {
	t.Run("already normal", func(t *testing.T) {
		in := square(0, 0, 10)
		if got := Normalize(in); !orb.Equal(got, in) {
			t.Errorf("Normalize() = %v, want %v", got, in)
		}
	})

	t.Run("closes and dedupes", func(t *testing.T) {
		in := orb.Polygon{{{0, 0}, {10, 0}, {10, 0}, {10, 10}, {0, 10}}}
		want := square(0, 0, 10)
		if got := Normalize(in); !orb.Equal(got, want) {
			t.Errorf("Normalize() = %v, want %v", got, want)
		}
	})

	t.Run("orients exterior ccw and holes cw", func(t *testing.T) {
		in := orb.Polygon{
			{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
			{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
		}
		got := Normalize(in).(orb.Polygon)
		if o := got[0].Orientation(); o != orb.CCW {
			t.Errorf("exterior orientation = %v, want CCW", o)
		}
		if o := got[1].Orientation(); o != orb.CW {
			t.Errorf("hole orientation = %v, want CW", o)
		}
	})

	t.Run("drops degenerate hole", func(t *testing.T) {
		in := orb.Polygon{
			{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
			{{4, 4}, {6, 6}, {4, 4}},
		}
		got := Normalize(in).(orb.Polygon)
		if len(got) != 1 {
			t.Errorf("len(rings) = %d, want 1", len(got))
		}
	})

	t.Run("drops collapsed multipolygon member", func(t *testing.T) {
		in := orb.MultiPolygon{
			square(0, 0, 10),
			{{{20, 20}, {21, 21}, {20, 20}}},
		}
		got := Normalize(in).(orb.MultiPolygon)
		if len(got) != 1 {
			t.Errorf("len(polygons) = %d, want 1", len(got))
		}
	})
}

func TestMapPoints(t *testing.T) {
	in := orb.MultiPolygon{square(0, 0, 1), square(5, 5, 2)}
	shift := func(p orb.Point) orb.Point { return orb.Point{p[0] + 1, p[1] - 1} }

	out := MapPoints(in, shift).(orb.MultiPolygon)

	if VertexCount(out) != VertexCount(in) {
		t.Errorf("VertexCount = %d, want %d", VertexCount(out), VertexCount(in))
	}
	if out[1][0][0] != (orb.Point{6, 4}) {
		t.Errorf("mapped point = %v, want [6 4]", out[1][0][0])
	}
	if in[1][0][0] != (orb.Point{5, 5}) {
		t.Error("MapPoints() modified its input")
	}
}
