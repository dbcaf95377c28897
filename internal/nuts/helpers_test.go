package nuts

import (
	"testing"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// squareFeature builds a square test region with its bottom-left corner at
// (minX, minY).
func squareFeature(id string, level int, minX, minY, size float64) *geojson.Feature {
	poly := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY},
		{minX + size, minY},
		{minX + size, minY + size},
		{minX, minY + size},
		{minX, minY},
	}})
	return &geojson.Feature{
		ID:       id,
		Geometry: poly,
		Properties: map[string]any{
			"NUTS_ID":   id,
			"LEVL_CODE": float64(level),
		},
	}
}

// triangleFeature builds a right triangle spanning the bottom-left half of
// the square with corner (minX, minY); its bbox is the full square.
func triangleFeature(id string, level int, minX, minY, size float64) *geojson.Feature {
	poly := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY},
		{minX + size, minY},
		{minX, minY + size},
		{minX, minY},
	}})
	return &geojson.Feature{
		ID:       id,
		Geometry: poly,
		Properties: map[string]any{
			"NUTS_ID":   id,
			"LEVL_CODE": float64(level),
		},
	}
}

// nestedFeatures is a four-level chain: DE (0..16 square) > DE1 (0..8) >
// DE11 (0..4) > DE111 (0..2), plus a sibling country FR to the east.
func nestedFeatures() []*geojson.Feature {
	return []*geojson.Feature{
		squareFeature("DE", 0, 0, 0, 16),
		squareFeature("DE1", 1, 0, 0, 8),
		squareFeature("DE11", 2, 0, 0, 4),
		squareFeature("DE111", 3, 0, 0, 2),
		squareFeature("FR", 0, 20, 0, 16),
		squareFeature("FR1", 1, 20, 0, 8),
	}
}

func featureFromGeom(t testing.TB, id string, level int, g geom.T) *geojson.Feature {
	t.Helper()
	return &geojson.Feature{
		ID:       id,
		Geometry: g,
		Properties: map[string]any{
			"NUTS_ID":   id,
			"LEVL_CODE": float64(level),
		},
	}
}

func regionIDs(regions []*Region) []string {
	ids := make([]string, 0, len(regions))
	for _, r := range regions {
		ids = append(ids, r.ID())
	}
	return ids
}
