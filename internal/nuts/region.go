// Package nuts implements point-to-region lookup for the NUTS administrative
// hierarchy (levels 0-3). A Finder is built once from a set of polygon
// regions and answers point and bounding-box queries by combining an R-tree
// candidate search with exact geometric confirmation and identifier-based
// ancestor resolution. All finder state is immutable after construction, so
// queries may run concurrently without coordination.
package nuts

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Region is one NUTS region at one hierarchy level. Regions are immutable
// after construction; identity is by identifier.
type Region struct {
	id       string
	level    int
	geometry geom.T
	bbox     *geom.Bounds
	buffer   float64
	props    map[string]any
	feature  *geojson.Feature
}

// NewRegion builds a Region from a GeoJSON feature. The feature must carry a
// Polygon or MultiPolygon geometry and a NUTS_ID property (the feature ID is
// accepted as a fallback). The level comes from LEVL_CODE, or is derived from
// the identifier length when absent. A positive buffer expands the bounding
// box and widens the containment test by the same distance.
func NewRegion(feature *geojson.Feature, buffer float64) (*Region, error) {
	if feature == nil {
		return nil, eris.Wrap(ErrInvalidInput, "nuts: nil feature")
	}
	if buffer < 0 || math.IsNaN(buffer) {
		return nil, eris.Wrapf(ErrInvalidInput, "nuts: negative buffer %v", buffer)
	}

	switch feature.Geometry.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
	case nil:
		return nil, eris.Wrapf(ErrInvalidInput, "nuts: feature %q has no geometry", feature.ID)
	default:
		return nil, eris.Wrapf(ErrInvalidInput, "nuts: feature %q has unsupported geometry type %T", feature.ID, feature.Geometry)
	}

	id := stringProp(feature.Properties, "NUTS_ID")
	if id == "" {
		id = feature.ID
	}
	if id == "" {
		return nil, eris.Wrap(ErrInvalidInput, "nuts: feature has no NUTS_ID")
	}

	level, ok := intProp(feature.Properties, "LEVL_CODE")
	if !ok {
		// NUTS identifiers are a 2-char country code plus one char per level.
		if len(id) < 2 {
			return nil, eris.Wrapf(ErrInvalidInput, "nuts: feature %q has no level and identifier is too short to derive one", id)
		}
		level = len(id) - 2
	}
	if level < 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "nuts: feature %q has negative level %d", id, level)
	}

	b := feature.Geometry.Bounds()
	bbox := geom.NewBounds(geom.XY).Set(
		b.Min(0)-buffer, b.Min(1)-buffer,
		b.Max(0)+buffer, b.Max(1)+buffer,
	)

	return &Region{
		id:       id,
		level:    level,
		geometry: feature.Geometry,
		bbox:     bbox,
		buffer:   buffer,
		props:    feature.Properties,
		feature:  feature,
	}, nil
}

// ID returns the region identifier, e.g. "DE12".
func (r *Region) ID() string { return r.id }

// Level returns the hierarchy level, 0 being the coarsest.
func (r *Region) Level() int { return r.level }

// Geometry returns the region polygon or multi-polygon.
func (r *Region) Geometry() geom.T { return r.geometry }

// BBox returns the bounding box of the geometry, expanded by the configured
// buffer distance.
func (r *Region) BBox() *geom.Bounds { return r.bbox }

// Buffer returns the buffer distance the region was built with.
func (r *Region) Buffer() float64 { return r.buffer }

// Properties returns the source record's property map, passed through
// unmodified.
func (r *Region) Properties() map[string]any { return r.props }

// Feature returns the original GeoJSON feature, for round-trip output.
func (r *Region) Feature() *geojson.Feature { return r.feature }

func (r *Region) String() string { return fmt.Sprintf("NUTS%d:%s", r.level, r.id) }

// stringProp reads a string property, tolerating absent keys.
func stringProp(props map[string]any, key string) string {
	if props == nil {
		return ""
	}
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

// intProp reads an integer property. JSON decoding yields float64, DBF
// attributes yield strings; both are accepted.
func intProp(props map[string]any, key string) (int, bool) {
	if props == nil {
		return 0, false
	}
	switch v := props[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
