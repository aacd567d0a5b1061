package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osmquality/osmquality/internal/engine"
	"github.com/osmquality/osmquality/internal/registry"
)

// Builder is the slice of the engine the HTTP layer needs.
type Builder interface {
	BuildIndicator(ctx context.Context, req engine.IndicatorRequest, opts engine.Options) (*engine.Document, error)
	BuildReport(ctx context.Context, req engine.ReportRequest, opts engine.Options) (*engine.Document, error)
}

// Server exposes the quality API over HTTP.
type Server struct {
	builder Builder
	reg     *registry.Registry
}

// New wires the HTTP layer.
func New(builder Builder, reg *registry.Registry) *Server {
	return &Server{builder: builder, reg: reg}
}

// Routes returns the router with all endpoints mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/indicators/{name}", s.handleIndicator)
	r.Post("/reports/{name}", s.handleReport)

	r.Get("/indicators", s.handleListIndicators)
	r.Get("/reports", s.handleListReports)
	r.Get("/layers", s.handleListLayers)
	r.Get("/datasets", s.handleListDatasets)
	r.Get("/combinations", s.handleListCombinations)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndicator builds one indicator. Ad-hoc geometries over HTTP are
// always size restricted; the bulk path is the only unrestricted consumer.
func (s *Server) handleIndicator(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body IndicatorBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	req, err := body.Request(name)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.Info("api: indicator request", "indicator", name, "layer", body.Layer)
	doc, err := s.builder.BuildIndicator(r.Context(), req, engine.Options{SizeRestricted: true})
	if err != nil {
		s.writeBuildError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body ReportBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	req, err := body.Request(name)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.Info("api: report request", "report", name)
	doc, err := s.builder.BuildReport(r.Context(), req, engine.Options{SizeRestricted: true})
	if err != nil {
		s.writeBuildError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListIndicators(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Layers      []string `json:"layers"`
	}
	out := make([]entry, 0)
	for _, name := range s.reg.IndicatorNames() {
		meta, _ := s.reg.IndicatorMetadata(name)
		out = append(out, entry{
			Name:        name,
			Description: meta.Description,
			Layers:      s.reg.ValidLayers(name),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	out := make([]entry, 0)
	for _, name := range s.reg.ReportNames() {
		meta, _ := s.reg.ReportMetadata(name)
		out = append(out, entry{Name: name, Description: meta.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListLayers(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Endpoint    string `json:"endpoint"`
		Filter      string `json:"filter"`
	}
	out := make([]entry, 0)
	for _, name := range s.reg.LayerNames() {
		def, _ := s.reg.LayerDefinition(name)
		out = append(out, entry{
			Name:        name,
			Description: def.Description,
			Endpoint:    def.Endpoint,
			Filter:      def.Filter,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.DatasetNames())
}

func (s *Server) handleListCombinations(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Indicator string `json:"indicator"`
		Layer     string `json:"layer"`
	}
	out := make([]entry, 0)
	for _, c := range s.reg.Combinations() {
		out = append(out, entry{Indicator: c.Indicator, Layer: c.Layer})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"error":  http.StatusText(code),
		"detail": msg,
	})
}
