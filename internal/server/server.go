// Package server exposes a loaded Finder over a read-only JSON API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/nutsfind/internal/nuts"
)

// Server serves point and bbox lookups against an immutable Finder. The
// Finder is safe for concurrent reads, so handlers share it without locking.
type Server struct {
	finder *nuts.Finder
	router chi.Router
}

// New builds the router. origins configures CORS; empty means same-origin
// only.
func New(finder *nuts.Finder, origins []string) *Server {
	s := &Server{finder: finder}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet},
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/find", s.handleFind)
	r.Get("/v1/bbox", s.handleBBox)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

type ctxKey string

const requestIDKey ctxKey = "request_id"

// requestID tags every request with a UUID, echoed in the X-Request-ID
// response header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
