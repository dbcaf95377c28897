package nuts

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// Shapefile ring orientation: clockwise rings are shells, counter-clockwise
// rings are holes.
func cwRing(minX, minY, size float64) []shp.Point {
	return []shp.Point{
		{X: minX, Y: minY},
		{X: minX, Y: minY + size},
		{X: minX + size, Y: minY + size},
		{X: minX + size, Y: minY},
		{X: minX, Y: minY},
	}
}

func ccwRing(minX, minY, size float64) []shp.Point {
	return []shp.Point{
		{X: minX, Y: minY},
		{X: minX + size, Y: minY},
		{X: minX + size, Y: minY + size},
		{X: minX, Y: minY + size},
		{X: minX, Y: minY},
	}
}

func shpPolygon(rings ...[]shp.Point) *shp.Polygon {
	var points []shp.Point
	var parts []int32
	for _, ring := range rings {
		parts = append(parts, int32(len(points)))
		points = append(points, ring...)
	}
	return &shp.Polygon{
		NumParts: int32(len(parts)),
		Parts:    parts,
		Points:   points,
	}
}

func TestPolygonToGeom_SingleShell(t *testing.T) {
	g := polygonToGeom(shpPolygon(cwRing(0, 0, 10)))
	require.NotNil(t, g)

	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 1, mp.Polygon(0).NumLinearRings())
}

func TestPolygonToGeom_ShellWithHole(t *testing.T) {
	g := polygonToGeom(shpPolygon(cwRing(0, 0, 10), ccwRing(3, 3, 4)))
	require.NotNil(t, g)

	mp := g.(*geom.MultiPolygon)
	require.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings())
}

func TestPolygonToGeom_TwoShells(t *testing.T) {
	g := polygonToGeom(shpPolygon(cwRing(0, 0, 5), cwRing(20, 0, 5)))
	require.NotNil(t, g)

	mp := g.(*geom.MultiPolygon)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestPolygonToGeom_Empty(t *testing.T) {
	assert.Nil(t, polygonToGeom(nil))
	assert.Nil(t, polygonToGeom(&shp.Polygon{}))
}

func TestPolygonToGeom_ContainmentRoundTrip(t *testing.T) {
	g := polygonToGeom(shpPolygon(cwRing(0, 0, 10), ccwRing(3, 3, 4)))
	require.NotNil(t, g)

	r, err := NewRegion(featureFromGeom(t, "DE", 0, g), 0)
	require.NoError(t, err)

	assert.True(t, r.containsPoint(geom.Coord{1, 1}))
	assert.False(t, r.containsPoint(geom.Coord{5, 5}), "inside the hole")
	assert.False(t, r.containsPoint(geom.Coord{15, 5}))
}
