package nuts

import (
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMinLevel and DefaultMaxLevel cover the four standard NUTS levels.
const (
	DefaultMinLevel = 0
	DefaultMaxLevel = 3
)

// Finder answers which regions contain a point or intersect a bounding box.
// Its state is immutable after construction; queries are read-only and safe
// to issue concurrently.
type Finder struct {
	regions   []*Region // sorted by (level, id)
	hierarchy *hierarchy
	index     CandidateSource

	minLevel  int
	maxLevel  int
	loadedMin int // finest/coarsest levels actually present
	loadedMax int
	buffer    float64
	bounds    *geom.Bounds
}

type options struct {
	minLevel int
	maxLevel int
	buffer   float64
	strict   bool
	builder  IndexBuilder
}

// Option configures a Finder at construction.
type Option func(*options)

// WithLevelRange restricts which levels are loaded and indexed (inclusive
// bounds).
func WithLevelRange(minLevel, maxLevel int) Option {
	return func(o *options) {
		o.minLevel = minLevel
		o.maxLevel = maxLevel
	}
}

// WithBuffer expands every region's geometry by the given distance (in
// dataset units) before bbox computation and exact testing. This absorbs
// floating-point trouble for points near region boundaries, at the cost of
// boundary points matching multiple sibling regions.
func WithBuffer(d float64) Option {
	return func(o *options) { o.buffer = d }
}

// WithStrictHierarchy makes construction fail if any region above the lowest
// loaded level has no parent in the loaded set.
func WithStrictHierarchy() Option {
	return func(o *options) { o.strict = true }
}

// WithIndex replaces the default R-tree candidate retrieval strategy.
func WithIndex(b IndexBuilder) Option {
	return func(o *options) { o.builder = b }
}

// NewFinder builds a Finder from GeoJSON features. Features outside the
// configured level range are skipped; the rest must convert to valid
// regions, otherwise construction fails with ErrInvalidInput.
func NewFinder(features []*geojson.Feature, opts ...Option) (*Finder, error) {
	o := options{
		minLevel: DefaultMinLevel,
		maxLevel: DefaultMaxLevel,
		builder:  NewRTreeIndex,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.minLevel > o.maxLevel {
		return nil, eris.Wrapf(ErrInvalidInput, "nuts: min level %d above max level %d", o.minLevel, o.maxLevel)
	}
	if o.buffer < 0 || math.IsNaN(o.buffer) {
		return nil, eris.Wrapf(ErrInvalidInput, "nuts: negative buffer %v", o.buffer)
	}

	start := time.Now()

	regions, err := buildRegions(features, o)
	if err != nil {
		return nil, err
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].level != regions[j].level {
			return regions[i].level < regions[j].level
		}
		return regions[i].id < regions[j].id
	})

	h, err := newHierarchy(regions, o.strict, o.minLevel)
	if err != nil {
		return nil, err
	}

	index, err := o.builder(regions)
	if err != nil {
		return nil, eris.Wrap(err, "nuts: build spatial index")
	}

	f := &Finder{
		regions:   regions,
		hierarchy: h,
		index:     index,
		minLevel:  o.minLevel,
		maxLevel:  o.maxLevel,
		loadedMin: -1,
		loadedMax: -1,
		buffer:    o.buffer,
		bounds:    geom.NewBounds(geom.XY),
	}
	for _, r := range regions {
		if f.loadedMin == -1 || r.level < f.loadedMin {
			f.loadedMin = r.level
		}
		if r.level > f.loadedMax {
			f.loadedMax = r.level
		}
		f.bounds = f.bounds.Extend(r.geometry)
	}

	zap.L().Debug("finder built",
		zap.Int("regions", len(regions)),
		zap.Int("min_level", o.minLevel),
		zap.Int("max_level", o.maxLevel),
		zap.Float64("buffer", o.buffer),
		zap.Duration("elapsed", time.Since(start)),
	)

	return f, nil
}

// buildRegions converts in-range features to regions concurrently. Bounding
// box computation dominates for large multi-polygons, so the work is spread
// across cores.
func buildRegions(features []*geojson.Feature, o options) ([]*Region, error) {
	type slot struct {
		feature *geojson.Feature
	}

	var in []slot
	for _, feat := range features {
		if feat == nil {
			return nil, eris.Wrap(ErrInvalidInput, "nuts: nil feature")
		}
		if lvl, ok := intProp(feat.Properties, "LEVL_CODE"); ok && (lvl < o.minLevel || lvl > o.maxLevel) {
			continue
		}
		in = append(in, slot{feature: feat})
	}

	out := make([]*Region, len(in))
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range in {
		i, s := i, s
		g.Go(func() error {
			r, err := NewRegion(s.feature, o.buffer)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Features without LEVL_CODE get their level derived in NewRegion and
	// are range-filtered here.
	filtered := out[:0]
	for _, r := range out {
		if r.level >= o.minLevel && r.level <= o.maxLevel {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Len returns the number of loaded regions.
func (f *Finder) Len() int { return len(f.regions) }

// Regions returns the loaded regions ordered by level, then identifier.
func (f *Finder) Regions() []*Region {
	out := make([]*Region, len(f.regions))
	copy(out, f.regions)
	return out
}

// Region returns the loaded region with the given identifier.
func (f *Finder) Region(id string) (*Region, bool) { return f.hierarchy.Region(id) }

// Children returns the direct children of a region present in the loaded set.
func (f *Finder) Children(id string) []*Region { return f.hierarchy.ChildrenOf(id) }

// Bounds returns the extent of all loaded geometries (without buffer).
func (f *Finder) Bounds() *geom.Bounds { return f.bounds }

// Buffer returns the configured buffer distance.
func (f *Finder) Buffer() float64 { return f.buffer }

// FindAll returns all regions containing the point, ordered from coarsest to
// finest level. With validPoint the caller asserts that the point lies
// strictly inside some region, allowing the exact containment test to be
// skipped and the bbox candidates to be trusted; a false assertion silently
// yields whatever the skipped-verification path produces.
func (f *Finder) FindAll(lon, lat float64, validPoint bool) ([]*Region, error) {
	if err := checkPoint(lon, lat); err != nil {
		return nil, err
	}
	matched, _ := f.matchPoint(lon, lat, validPoint)
	return f.withAncestors(matched), nil
}

// FindAtLevel returns the region(s) at exactly the requested level
// containing the point. A level outside the loaded range yields an empty
// result. Sibling regions are non-overlapping in the source dataset, so more
// than one match signals overlapping input geometries (or a buffer); all
// matches are returned rather than silently dropped.
func (f *Finder) FindAtLevel(lon, lat float64, level int, validPoint bool) ([]*Region, error) {
	if err := checkPoint(lon, lat); err != nil {
		return nil, err
	}
	if level < f.loadedMin || level > f.loadedMax {
		return nil, nil
	}

	matched, matchLevel := f.matchPoint(lon, lat, validPoint)
	switch {
	case matchLevel == level:
		return append([]*Region(nil), matched...), nil
	case matchLevel > level:
		// The requested level is an ancestor level of the match.
		var out []*Region
		seen := make(map[string]bool)
		for _, r := range matched {
			for _, a := range f.hierarchy.AncestorsOf(r.id) {
				if a.level == level && !seen[a.id] {
					seen[a.id] = true
					out = append(out, a)
				}
			}
		}
		return out, nil
	default:
		// Matched only coarser than requested, or not at all.
		return nil, nil
	}
}

// FindBBox returns all regions intersecting the rectangle (west, south,
// east, north), ordered from coarsest to finest level.
func (f *Finder) FindBBox(west, south, east, north float64) ([]*Region, error) {
	for _, v := range []float64{west, south, east, north} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, eris.Wrapf(ErrQueryInput, "nuts: non-finite bbox (%v, %v, %v, %v)", west, south, east, north)
		}
	}
	if west >= east || south >= north {
		return nil, eris.Wrapf(ErrQueryInput, "nuts: degenerate bbox (%v, %v, %v, %v)", west, south, east, north)
	}

	b := geom.NewBounds(geom.XY).Set(west, south, east, north)
	cands := f.index.CandidatesForRect(b)
	matched, _ := f.confirm(cands, func(r *Region) bool { return r.intersectsRect(b) })
	return f.withAncestors(matched), nil
}

// FilterLevels filters a previously obtained result set to the given levels,
// preserving order.
func FilterLevels(regions []*Region, levels ...int) []*Region {
	want := make(map[int]bool, len(levels))
	for _, l := range levels {
		want[l] = true
	}
	var out []*Region
	for _, r := range regions {
		if want[r.level] {
			out = append(out, r)
		}
	}
	return out
}

// matchPoint retrieves bbox candidates once and confirms them at the finest
// loaded level, falling back to progressively coarser levels until one
// yields a confirmed match. Ancestors are never geometrically tested; they
// are resolved by identifier afterwards.
func (f *Finder) matchPoint(lon, lat float64, validPoint bool) ([]*Region, int) {
	cands := f.index.CandidatesForPoint(lon, lat)
	p := geom.Coord{lon, lat}
	return f.confirm(cands, func(r *Region) bool {
		return validPoint || r.containsPoint(p)
	})
}

func (f *Finder) confirm(cands []*Region, confirmed func(*Region) bool) ([]*Region, int) {
	if len(cands) == 0 {
		return nil, -1
	}
	for level := f.loadedMax; level >= f.loadedMin; level-- {
		var matched []*Region
		for _, r := range cands {
			if r.level != level {
				continue
			}
			if confirmed(r) {
				matched = append(matched, r)
			}
		}
		if len(matched) > 0 {
			// Candidate order depends on the index; fix it by identifier.
			sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })
			return matched, level
		}
	}
	return nil, -1
}

// withAncestors resolves the ancestor chain of every matched region and
// returns the combined result ordered by ascending level; within a level
// regions keep the identifier order established by confirm.
func (f *Finder) withAncestors(matched []*Region) []*Region {
	if len(matched) == 0 {
		return nil
	}
	seen := make(map[string]bool, 2*len(matched))
	out := make([]*Region, 0, 2*len(matched))
	for _, r := range matched {
		for _, a := range f.hierarchy.AncestorsOf(r.id) {
			if !seen[a.id] {
				seen[a.id] = true
				out = append(out, a)
			}
		}
		if !seen[r.id] {
			seen[r.id] = true
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].level < out[j].level })
	return out
}

func checkPoint(lon, lat float64) error {
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return eris.Wrapf(ErrQueryInput, "nuts: non-finite point (%v, %v)", lon, lat)
	}
	return nil
}
