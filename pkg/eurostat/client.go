// Package eurostat downloads NUTS boundary files from the Eurostat GISCO
// distribution API.
package eurostat

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the GISCO NUTS distribution endpoint.
const DefaultBaseURL = "https://gisco-services.ec.europa.eu/distribution/v2/nuts"

// AllLevels requests the combined file covering every NUTS level.
const AllLevels = -1

// FileSpec identifies one file in the GISCO NUTS distribution. See
// https://gisco-services.ec.europa.eu/distribution/v2/nuts/nuts-2021-files.html
// for the parameter space.
type FileSpec struct {
	GeomType string // "RG" (regions), "BN" (boundaries), "LB" (labels)
	Scale    int    // map scale in millions: 1, 3, 10, 20, 60
	Year     int
	EPSG     int    // 4326, 3035, 3857
	Format   string // "geojson", "pbf", "shp", "svg", "topojson"
	Level    int    // a single NUTS level, or AllLevels
}

var (
	validGeomTypes = map[string]bool{"RG": true, "BN": true, "LB": true}
	validScales    = map[int]bool{1: true, 3: true, 10: true, 20: true, 60: true}
	validYears     = map[int]bool{2003: true, 2006: true, 2010: true, 2013: true, 2016: true, 2021: true, 2024: true}
	validEPSG      = map[int]bool{4326: true, 3035: true, 3857: true}
	validFormats   = map[string]bool{"geojson": true, "pbf": true, "shp": true, "svg": true, "topojson": true}
)

// Validate checks the spec against the parameter sets GISCO actually serves.
func (s FileSpec) Validate() error {
	if !validGeomTypes[strings.ToUpper(s.GeomType)] {
		return eris.Errorf("eurostat: invalid geometry type %q", s.GeomType)
	}
	if !validScales[s.Scale] {
		return eris.Errorf("eurostat: invalid scale %d", s.Scale)
	}
	if !validYears[s.Year] {
		return eris.Errorf("eurostat: invalid year %d", s.Year)
	}
	if !validEPSG[s.EPSG] {
		return eris.Errorf("eurostat: invalid EPSG code %d", s.EPSG)
	}
	if !validFormats[strings.ToLower(s.Format)] {
		return eris.Errorf("eurostat: invalid format %q", s.Format)
	}
	if s.Level != AllLevels && (s.Level < 0 || s.Level > 3) {
		return eris.Errorf("eurostat: invalid NUTS level %d", s.Level)
	}
	return nil
}

// Filename returns the distribution filename for the spec, e.g.
// NUTS_RG_20M_2021_4326.geojson. The shapefile distribution ships zipped.
func (s FileSpec) Filename() string {
	format := strings.ToLower(s.Format)
	ext := format
	switch format {
	case "topojson":
		ext = "json"
	case "shp":
		ext = "shp.zip"
	}

	suffix := ""
	if s.Level != AllLevels {
		suffix = fmt.Sprintf("_LEVL_%d", s.Level)
	}
	return fmt.Sprintf("NUTS_%s_%02dM_%d_%d%s.%s", strings.ToUpper(s.GeomType), s.Scale, s.Year, s.EPSG, suffix, ext)
}

// URL returns the download URL for the spec under the given base URL.
func (s FileSpec) URL(base string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), strings.ToLower(s.Format), s.Filename())
}

// Client fetches NUTS distribution files with rate limiting and a local
// file cache (a file that already exists with content is not re-fetched).
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides the GISCO endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithRateLimit sets the requests-per-second limit for distribution fetches.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a distribution client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(2, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the file described by spec into destDir and returns the
// local path. For the shapefile format the ZIP is extracted and the path of
// the contained .shp file is returned.
func (c *Client) Fetch(ctx context.Context, spec FileSpec, destDir string) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "eurostat: create dest dir")
	}

	dest := filepath.Join(destDir, spec.Filename())
	log := zap.L().With(
		zap.String("component", "eurostat.fetch"),
		zap.String("file", spec.Filename()),
	)

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		log.Debug("file already exists, skipping download")
	} else {
		log.Info("downloading NUTS file", zap.String("url", spec.URL(c.baseURL)))
		if err := c.download(ctx, spec.URL(c.baseURL), dest); err != nil {
			return "", eris.Wrapf(err, "eurostat: fetch %s", spec.Filename())
		}
	}

	if strings.ToLower(spec.Format) != "shp" {
		return dest, nil
	}

	extractDir := strings.TrimSuffix(dest, ".shp.zip")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrap(err, "eurostat: create extract dir")
	}
	if err := extractZIP(dest, extractDir); err != nil {
		return "", eris.Wrap(err, "eurostat: extract ZIP")
	}
	shpPath, err := findFileByExt(extractDir, ".shp")
	if err != nil {
		return "", eris.Wrap(err, "eurostat: find .shp file")
	}
	return shpPath, nil
}

// FetchLevels downloads one per-level file for each requested level,
// concurrently. Returns the local paths in the order of levels.
func (c *Client) FetchLevels(ctx context.Context, spec FileSpec, destDir string, levels []int) ([]string, error) {
	paths := make([]string, len(levels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, level := range levels {
		i := i
		levelSpec := spec
		levelSpec.Level = level
		g.Go(func() error {
			path, err := c.Fetch(gctx, levelSpec, destDir)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (c *Client) download(ctx context.Context, url, dest string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = os.Remove(dest)
		return eris.Wrap(err, "write file")
	}
	return nil
}

// extractZIP unpacks an archive into destDir, flattening any directory
// structure and refusing paths that escape the destination.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, file := range r.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(file.Name)
		if name == "." || name == ".." || strings.Contains(name, "..") {
			continue
		}

		dest := filepath.Join(destDir, name)
		if err := extractFile(file, dest); err != nil {
			return eris.Wrapf(err, "extract %s", name)
		}
	}
	return nil
}

func extractFile(file *zip.File, dest string) error {
	src, err := file.Open()
	if err != nil {
		return eris.Wrap(err, "open entry")
	}
	defer src.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, src); err != nil {
		return eris.Wrap(err, "copy")
	}
	return nil
}

func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read dir")
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
