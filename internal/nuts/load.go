package nuts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// Dataset identifies an Eurostat NUTS distribution file.
type Dataset struct {
	Scale int // map scale in millions, e.g. 20 for 1:20M
	Year  int
	EPSG  int
}

// Eurostat naming convention, e.g. NUTS_RG_20M_2021_4326.geojson.
var filenameRe = regexp.MustCompile(`NUTS_RG_(\d{1,2})M_(\d+)_(\d+)`)

// ParseFilename extracts scale, year, and coordinate reference system from a
// file path following Eurostat's naming convention.
func ParseFilename(path string) (Dataset, error) {
	m := filenameRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return Dataset{}, eris.Wrapf(ErrInvalidInput, "nuts: file %q does not follow the NUTS_RG_<SCALE>M_<YEAR>_<EPSG> naming convention", path)
	}
	scale, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	epsg, _ := strconv.Atoi(m[3])
	return Dataset{Scale: scale, Year: year, EPSG: epsg}, nil
}

// LoadFile builds a Finder from an Eurostat NUTS file. GeoJSON and shapefile
// distributions are supported, chosen by extension.
func LoadFile(path string, opts ...Option) (*Finder, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "nuts.load"), zap.String("file", path))

	var (
		features []*geojson.Feature
		err      error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "nuts: read %s", path)
		}
		features, err = ParseFeatureCollection(data)
	case ".shp":
		features, err = readShapefile(path)
	default:
		return nil, eris.Wrapf(ErrInvalidInput, "nuts: unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	f, err := NewFinder(features, opts...)
	if err != nil {
		return nil, err
	}

	log.Info("loaded regions",
		zap.Int("features", len(features)),
		zap.Int("regions", f.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return f, nil
}

// ParseFeatureCollection decodes a GeoJSON FeatureCollection. Some Eurostat
// exports are code page 850 rather than UTF-8; such input is transcoded
// before decoding.
func ParseFeatureCollection(data []byte) ([]*geojson.Feature, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.CodePage850.NewDecoder().Bytes(data)
		if err != nil {
			return nil, eris.Wrap(err, "nuts: transcode feature collection")
		}
		data = decoded
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(ErrInvalidInput, "nuts: decode feature collection: %v", err)
	}
	return fc.Features, nil
}
