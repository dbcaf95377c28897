package nuts

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// readShapefile reads an Eurostat NUTS shapefile into GeoJSON features.
// Every DBF attribute is carried into the feature properties so that the
// region keeps its full source record.
func readShapefile(path string) ([]*geojson.Feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "nuts: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var features []*geojson.Feature
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		g := polygonToGeom(poly)
		if g == nil {
			skipped++
			continue
		}

		props := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				props[name] = val
			}
		}

		features = append(features, &geojson.Feature{
			ID:         stringProp(props, "NUTS_ID"),
			Geometry:   g,
			Properties: props,
		})
	}

	if skipped > 0 {
		zap.L().Debug("nuts: skipped shapefile records",
			zap.String("file", path),
			zap.Int("skipped", skipped),
		)
	}

	return features, nil
}

// polygonToGeom converts a shapefile polygon to a geom.MultiPolygon. Per the
// shapefile spec, clockwise rings are shells and counter-clockwise rings are
// holes of the preceding shell.
func polygonToGeom(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var current *geom.Polygon

	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("nuts: skipping malformed polygon part", zap.Error(err))
		}
		current = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if xy.IsRingCounterClockwise(geom.XY, flat) && current != nil {
			// Hole of the preceding shell.
			if err := current.Push(ring); err != nil {
				zap.L().Debug("nuts: skipping malformed hole ring", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		flush()
		current = geom.NewPolygon(geom.XY)
		if err := current.Push(ring); err != nil {
			zap.L().Debug("nuts: skipping malformed shell ring", zap.Int32("part", i), zap.Error(err))
			current = nil
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
