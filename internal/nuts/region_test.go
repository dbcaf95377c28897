package nuts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func TestNewRegion(t *testing.T) {
	feat := squareFeature("DE12", 2, 0, 0, 10)
	feat.Properties["NAME_LATN"] = "Karlsruhe"

	r, err := NewRegion(feat, 0)
	require.NoError(t, err)

	assert.Equal(t, "DE12", r.ID())
	assert.Equal(t, 2, r.Level())
	assert.Equal(t, "Karlsruhe", r.Properties()["NAME_LATN"])
	assert.Same(t, feat, r.Feature())
	assert.Equal(t, "NUTS2:DE12", r.String())

	b := r.BBox()
	assert.Equal(t, 0.0, b.Min(0))
	assert.Equal(t, 10.0, b.Max(0))
}

func TestNewRegion_BufferExpandsBBox(t *testing.T) {
	r, err := NewRegion(squareFeature("DE", 0, 0, 0, 10), 0.5)
	require.NoError(t, err)

	b := r.BBox()
	assert.Equal(t, -0.5, b.Min(0))
	assert.Equal(t, -0.5, b.Min(1))
	assert.Equal(t, 10.5, b.Max(0))
	assert.Equal(t, 10.5, b.Max(1))
}

func TestNewRegion_LevelDerivedFromIdentifier(t *testing.T) {
	feat := squareFeature("DE123", 0, 0, 0, 10)
	delete(feat.Properties, "LEVL_CODE")

	r, err := NewRegion(feat, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Level())
}

func TestNewRegion_LevelFromStringProperty(t *testing.T) {
	// DBF attributes arrive as strings.
	feat := squareFeature("DE1", 0, 0, 0, 10)
	feat.Properties["LEVL_CODE"] = "1"

	r, err := NewRegion(feat, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Level())
}

func TestNewRegion_Invalid(t *testing.T) {
	t.Run("nil feature", func(t *testing.T) {
		_, err := NewRegion(nil, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing geometry", func(t *testing.T) {
		_, err := NewRegion(&geojson.Feature{ID: "DE", Properties: map[string]any{"NUTS_ID": "DE"}}, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unsupported geometry", func(t *testing.T) {
		ls := geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{0, 0}, {1, 1}})
		_, err := NewRegion(&geojson.Feature{ID: "DE", Geometry: ls, Properties: map[string]any{"NUTS_ID": "DE"}}, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing identifier", func(t *testing.T) {
		feat := squareFeature("", 0, 0, 0, 10)
		delete(feat.Properties, "NUTS_ID")
		_, err := NewRegion(feat, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("short identifier without level", func(t *testing.T) {
		feat := squareFeature("X", 0, 0, 0, 10)
		delete(feat.Properties, "LEVL_CODE")
		_, err := NewRegion(feat, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative buffer", func(t *testing.T) {
		_, err := NewRegion(squareFeature("DE", 0, 0, 0, 10), -1)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestNewRegion_FeatureIDFallback(t *testing.T) {
	feat := squareFeature("DE", 0, 0, 0, 10)
	delete(feat.Properties, "NUTS_ID")
	feat.ID = "DE"

	r, err := NewRegion(feat, 0)
	require.NoError(t, err)
	assert.Equal(t, "DE", r.ID())
}

func TestIntProp(t *testing.T) {
	props := map[string]any{
		"int":    3,
		"float":  2.0,
		"frac":   2.5,
		"string": "1",
		"junk":   "abc",
	}

	for key, want := range map[string]int{"int": 3, "float": 2, "string": 1} {
		got, ok := intProp(props, key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	for _, key := range []string{"frac", "junk", "missing"} {
		_, ok := intProp(props, key)
		assert.False(t, ok, key)
	}
}
