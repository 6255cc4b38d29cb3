// Package reportapi serves the run history over HTTP so a catalog UI can
// pick the best provider for a title without running the probe itself.
package reportapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazyhaar/streamprobe/history"
	"github.com/hazyhaar/streamprobe/idgen"
	"github.com/hazyhaar/streamprobe/provider"
)

// Server exposes a history.Store.
type Server struct {
	store   history.Store
	logger  *slog.Logger
	metrics http.Handler
	origin  string
	ids     idgen.Generator
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMetrics replaces the default Prometheus handler served on /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// WithAllowedOrigin enables CORS for origin ("*" for any).
func WithAllowedOrigin(origin string) Option { return func(s *Server) { s.origin = origin } }

// WithIDGenerator sets the trace ID generator.
func WithIDGenerator(g idgen.Generator) Option { return func(s *Server) { s.ids = g } }

// New creates a Server.
func New(store history.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		logger:  slog.Default(),
		metrics: promhttp.Handler(),
		ids:     idgen.Prefixed("req_", idgen.Default),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// BestResponse is the body of GET /api/best.
type BestResponse struct {
	Provider string  `json:"provider"`
	Quality  string  `json:"quality"`
	Score    float64 `json:"score"`
	TestDate string  `json:"testDate"`
	RecordID string  `json:"recordId"`
	Working  int     `json:"workingCount"`
	Total    int     `json:"totalCount"`
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(headToGet)
	r.Use(traceID(s.logger, s.ids))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiHeaders(s.origin))

		r.Get("/history", s.listHistory)
		r.Delete("/history", s.clearHistory)
		r.Get("/history/{id}", s.getRecord)
		r.Delete("/history/{id}", s.deleteRecord)
		r.Get("/best", s.best)
	})
	return r
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.internal(w, r, err)
		return
	}
	loggerFrom(r.Context()).Info("reportapi: history cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) best(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ, err := provider.ParseMediaType(q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "type must be movie or tv")
		return
	}
	id, err := strconv.Atoi(q.Get("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	rec, err := history.Latest(r.Context(), s.store, string(typ), id)
	if errors.Is(err, history.ErrNotFound) || (err == nil && len(rec.Results) == 0) {
		writeError(w, http.StatusNotFound, "no run recorded for this title")
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BestResponse{
		Provider: rec.BestProvider,
		Quality:  rec.BestQuality,
		Score:    rec.BestScore,
		TestDate: rec.TestDate,
		RecordID: rec.ID,
		Working:  rec.WorkingCount,
		Total:    rec.TotalCount,
	})
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	loggerFrom(r.Context()).Error("reportapi: store failure", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
