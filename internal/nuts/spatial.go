package nuts

import (
	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// R-tree node sizes, tuned for a few thousand regions.
const (
	minChildren = 25
	maxChildren = 50
)

// pointTol pads the degenerate rectangle used for point searches; candidates
// are re-checked against their own bounding boxes afterwards, so the padding
// cannot introduce false positives.
const pointTol = 1e-9

// CandidateSource produces bounding-box candidates for queries. It must be
// exhaustive with respect to bbox containment (no false negatives); exact
// geometric confirmation happens in the Finder. Implementations must be safe
// for concurrent reads once built.
type CandidateSource interface {
	// CandidatesForPoint returns the regions whose bbox contains the point.
	CandidatesForPoint(lon, lat float64) []*Region

	// CandidatesForRect returns the regions whose bbox intersects the
	// rectangle.
	CandidatesForRect(b *geom.Bounds) []*Region
}

// IndexBuilder constructs a CandidateSource over a fixed region set. The
// Finder is polymorphic over candidate retrieval so that alternative
// strategies (e.g. a linear scan for verification and benchmarking) can be
// swapped in.
type IndexBuilder func(regions []*Region) (CandidateSource, error)

type rtreeEntry struct {
	region *Region
	rect   rtreego.Rect
}

func (e *rtreeEntry) Bounds() rtreego.Rect { return e.rect }

type rtreeIndex struct {
	tree *rtreego.Rtree
}

// NewRTreeIndex bulk-loads an R-tree over the regions' bounding boxes. This
// is the default CandidateSource.
func NewRTreeIndex(regions []*Region) (CandidateSource, error) {
	entries := make([]rtreego.Spatial, 0, len(regions))
	for _, r := range regions {
		rect, err := boundsToRect(r.bbox)
		if err != nil {
			return nil, eris.Wrapf(err, "nuts: index region %s", r.id)
		}
		entries = append(entries, &rtreeEntry{region: r, rect: rect})
	}
	return &rtreeIndex{tree: rtreego.NewTree(2, minChildren, maxChildren, entries...)}, nil
}

func (idx *rtreeIndex) CandidatesForPoint(lon, lat float64) []*Region {
	probe := rtreego.Point{lon, lat}.ToRect(pointTol)
	p := geom.Coord{lon, lat}

	var out []*Region
	for _, hit := range idx.tree.SearchIntersect(probe) {
		r := hit.(*rtreeEntry).region
		if r.bbox.OverlapsPoint(geom.XY, p) {
			out = append(out, r)
		}
	}
	return out
}

func (idx *rtreeIndex) CandidatesForRect(b *geom.Bounds) []*Region {
	probe, err := boundsToRect(b)
	if err != nil {
		return nil
	}

	var out []*Region
	for _, hit := range idx.tree.SearchIntersect(probe) {
		r := hit.(*rtreeEntry).region
		if r.bbox.Overlaps(geom.XY, b) {
			out = append(out, r)
		}
	}
	return out
}

func boundsToRect(b *geom.Bounds) (rtreego.Rect, error) {
	lengths := []float64{
		max(b.Max(0)-b.Min(0), pointTol),
		max(b.Max(1)-b.Min(1), pointTol),
	}
	return rtreego.NewRect(rtreego.Point{b.Min(0), b.Min(1)}, lengths)
}

// linearIndex is the brute-force CandidateSource: a sequential bbox test of
// every region. It exists to verify and benchmark the R-tree path.
type linearIndex struct {
	regions []*Region
}

// NewLinearIndex returns a CandidateSource that scans all regions.
func NewLinearIndex(regions []*Region) (CandidateSource, error) {
	return &linearIndex{regions: regions}, nil
}

func (idx *linearIndex) CandidatesForPoint(lon, lat float64) []*Region {
	p := geom.Coord{lon, lat}
	var out []*Region
	for _, r := range idx.regions {
		if r.bbox.OverlapsPoint(geom.XY, p) {
			out = append(out, r)
		}
	}
	return out
}

func (idx *linearIndex) CandidatesForRect(b *geom.Bounds) []*Region {
	var out []*Region
	for _, r := range idx.regions {
		if r.bbox.Overlaps(geom.XY, b) {
			out = append(out, r)
		}
	}
	return out
}
