// Package api exposes the HTTP interface for the catalog service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shopsight/shopsight/internal/product"
	"github.com/shopsight/shopsight/internal/store"
)

// ScrapeRunner runs a scrape and reports where its snapshot lands.
type ScrapeRunner interface {
	ScrapeProducts(ctx context.Context, categoryURLs []string, maxProducts int) ([]product.Scraped, error)
	SnapshotPath() string
}

// SnapshotImporter loads a snapshot file into the store.
type SnapshotImporter interface {
	ImportSnapshot(ctx context.Context, path string) (added, updated int, err error)
}

// Answerer turns a catalog context and a question into an answer.
type Answerer interface {
	Answer(ctx context.Context, contextBlock, question string) (string, error)
}

// Server wires HTTP handlers to the store, scraper and insights client.
type Server struct {
	router   chi.Router
	store    store.ProductStore
	scraper  ScrapeRunner
	importer SnapshotImporter
	insights Answerer
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	st store.ProductStore,
	scraper ScrapeRunner,
	importer SnapshotImporter,
	insights Answerer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		store:    st,
		scraper:  scraper,
		importer: importer,
		insights: insights,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(10 * time.Minute))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Get("/stats", s.productStats)
			r.Get("/{product_id}", s.getProduct)
		})
		r.Post("/scrape", s.runScrape)
		r.Post("/insights", s.askInsights)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Stats(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
