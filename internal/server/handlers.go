package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/nutsfind/internal/nuts"
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"regions": s.finder.Len(),
	})
}

// handleFind resolves the region chain for a point. Query parameters: lon,
// lat (required), level (optional), valid (optional bool, skips the exact
// containment test).
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lon")
		return
	}
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lat")
		return
	}
	valid := false
	if v := q.Get("valid"); v != "" {
		if valid, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid valid flag")
			return
		}
	}

	var regions []*nuts.Region
	if lvl := q.Get("level"); lvl != "" {
		level, convErr := strconv.Atoi(lvl)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "invalid level")
			return
		}
		regions, err = s.finder.FindAtLevel(lon, lat, level, valid)
	} else {
		regions, err = s.finder.FindAll(lon, lat, valid)
	}
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	writeRegions(w, regions)
}

// handleBBox resolves the regions intersecting a rectangle. Query
// parameters: west, south, east, north.
func (s *Server) handleBBox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var coords [4]float64
	for i, name := range []string{"west", "south", "east", "north"} {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		coords[i] = v
	}

	regions, err := s.finder.FindBBox(coords[0], coords[1], coords[2], coords[3])
	if err != nil {
		writeQueryError(w, r, err)
		return
	}

	writeRegions(w, regions)
}

// writeRegions responds with a GeoJSON FeatureCollection of the regions'
// source features, preserving geometry and properties verbatim.
func writeRegions(w http.ResponseWriter, regions []*nuts.Region) {
	features := make([]*geojson.Feature, 0, len(regions))
	for _, r := range regions {
		features = append(features, r.Feature())
	}
	writeJSON(w, http.StatusOK, &geojson.FeatureCollection{Features: features})
}

func writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, nuts.ErrQueryInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zap.L().Error("query failed",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}
