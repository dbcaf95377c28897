package eurostat

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgSpec() FileSpec {
	return FileSpec{GeomType: "RG", Scale: 20, Year: 2021, EPSG: 4326, Format: "geojson", Level: AllLevels}
}

func TestFileSpec_Filename(t *testing.T) {
	assert.Equal(t, "NUTS_RG_20M_2021_4326.geojson", rgSpec().Filename())

	spec := rgSpec()
	spec.Level = 2
	assert.Equal(t, "NUTS_RG_20M_2021_4326_LEVL_2.geojson", spec.Filename())

	spec = rgSpec()
	spec.Scale = 1
	spec.Format = "topojson"
	assert.Equal(t, "NUTS_RG_01M_2021_4326.json", spec.Filename())

	spec = rgSpec()
	spec.Format = "shp"
	assert.Equal(t, "NUTS_RG_20M_2021_4326.shp.zip", spec.Filename())
}

func TestFileSpec_URL(t *testing.T) {
	assert.Equal(t,
		"https://gisco-services.ec.europa.eu/distribution/v2/nuts/geojson/NUTS_RG_20M_2021_4326.geojson",
		rgSpec().URL(DefaultBaseURL),
	)
}

func TestFileSpec_Validate(t *testing.T) {
	assert.NoError(t, rgSpec().Validate())

	cases := map[string]func(*FileSpec){
		"geom type": func(s *FileSpec) { s.GeomType = "XX" },
		"scale":     func(s *FileSpec) { s.Scale = 2 },
		"year":      func(s *FileSpec) { s.Year = 1999 },
		"epsg":      func(s *FileSpec) { s.EPSG = 27700 },
		"format":    func(s *FileSpec) { s.Format = "csv" },
		"level":     func(s *FileSpec) { s.Level = 7 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			spec := rgSpec()
			mutate(&spec)
			assert.Error(t, spec.Validate())
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/geojson/NUTS_RG_20M_2021_4326.geojson", r.URL.Path)
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	path, err := c.Fetch(context.Background(), rgSpec(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "NUTS_RG_20M_2021_4326.geojson"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")

	// Second fetch hits the local file, not the server.
	_, err = c.Fetch(context.Background(), rgSpec(), dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1), requests.Load())
}

func TestClient_Fetch_InvalidSpec(t *testing.T) {
	c := NewClient()
	spec := rgSpec()
	spec.Scale = 42

	_, err := c.Fetch(context.Background(), spec, t.TempDir())
	assert.Error(t, err)
}

func TestClient_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.Fetch(context.Background(), rgSpec(), t.TempDir())
	assert.Error(t, err)
}

func TestClient_Fetch_ShapefileZIP(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"NUTS_RG_20M_2021_4326.shp", "NUTS_RG_20M_2021_4326.dbf"} {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte("stub"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shp/NUTS_RG_20M_2021_4326.shp.zip", r.URL.Path)
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	spec := rgSpec()
	spec.Format = "shp"
	path, err := c.Fetch(context.Background(), spec, dir)
	require.NoError(t, err)
	assert.Equal(t, ".shp", filepath.Ext(path))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestClient_FetchLevels(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithRateLimit(100))

	paths, err := c.FetchLevels(context.Background(), rgSpec(), dir, []int{0, 1, 2, 3})
	require.NoError(t, err)
	require.Len(t, paths, 4)
	assert.Contains(t, paths[2], "LEVL_2")
	assert.Equal(t, int64(4), requests.Load())
}
