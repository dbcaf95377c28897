package nuts

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/lineintersector"
)

// Exact geometric predicates over go-geom. Buffering is evaluated here
// rather than by materializing buffered polygons: a point is inside the
// buffered region if it is inside the polygon or within the buffer distance
// of its boundary. For point queries this is equivalent to testing against a
// polygon buffered by the same distance.
//
// Ring containment uses xy.IsPointInRing, whose ray-crossing convention
// reports points exactly on a ring edge as inside. With a zero buffer a
// point on the shared edge of two sibling regions therefore matches both.

// containsPoint reports whether the point lies within the region's buffered
// geometry.
func (r *Region) containsPoint(p geom.Coord) bool {
	switch g := r.geometry.(type) {
	case *geom.Polygon:
		return polygonContains(g, r.buffer, p)
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			if polygonContains(g.Polygon(i), r.buffer, p) {
				return true
			}
		}
	}
	return false
}

// intersectsRect reports whether the region's buffered geometry intersects
// the axis-aligned rectangle.
func (r *Region) intersectsRect(b *geom.Bounds) bool {
	switch g := r.geometry.(type) {
	case *geom.Polygon:
		return polygonIntersectsRect(g, r.buffer, b)
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			if polygonIntersectsRect(g.Polygon(i), r.buffer, b) {
				return true
			}
		}
	}
	return false
}

func polygonContains(poly *geom.Polygon, buffer float64, p geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	outer := poly.LinearRing(0).FlatCoords()

	if !xy.IsPointInRing(poly.Layout(), p, outer) {
		// Outside the shell: only a buffer can still capture the point.
		return buffer > 0 && xy.DistanceFromPointToLineString(poly.Layout(), p, outer) <= buffer
	}

	for i := 1; i < poly.NumLinearRings(); i++ {
		hole := poly.LinearRing(i).FlatCoords()
		if !xy.IsPointInRing(poly.Layout(), p, hole) {
			continue
		}
		// Inside a hole; the buffer shrinks holes from their boundary.
		if buffer == 0 || xy.DistanceFromPointToLineString(poly.Layout(), p, hole) > buffer {
			return false
		}
	}
	return true
}

// polygonIntersectsRect tests rectangle/polygon intersection by the three
// disjoint cases: a rectangle corner inside the polygon, a polygon vertex
// inside the rectangle, or a shell edge crossing a rectangle edge.
func polygonIntersectsRect(poly *geom.Polygon, buffer float64, b *geom.Bounds) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}

	corners := []geom.Coord{
		{b.Min(0), b.Min(1)},
		{b.Min(0), b.Max(1)},
		{b.Max(0), b.Max(1)},
		{b.Max(0), b.Min(1)},
	}
	for _, c := range corners {
		if polygonContains(poly, buffer, c) {
			return true
		}
	}

	outer := poly.LinearRing(0).FlatCoords()
	stride := poly.Layout().Stride()
	for i := 0; i+1 < len(outer); i += stride {
		if b.OverlapsPoint(poly.Layout(), geom.Coord{outer[i], outer[i+1]}) {
			return true
		}
	}

	for i := 0; i+stride+1 < len(outer); i += stride {
		s := geom.Coord{outer[i], outer[i+1]}
		e := geom.Coord{outer[i+stride], outer[i+stride+1]}
		for j := range corners {
			if segmentsIntersect(s, e, corners[j], corners[(j+1)%4]) {
				return true
			}
		}
	}

	return false
}

func segmentsIntersect(s1, e1, s2, e2 geom.Coord) bool {
	res := lineintersector.LineIntersectsLine(lineintersector.RobustLineIntersector{}, s1, e1, s2, e2)
	return res.HasIntersection()
}
