// Package server exposes the query engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/engine"
	"github.com/KaramelBytes/tabula-cli/internal/session"
)

const (
	// MaxBodyBytes bounds request bodies, which carry whole datasets.
	MaxBodyBytes = 32 << 20
	// MaxBatchQueries bounds one batch request.
	MaxBatchQueries = 100
)

// Handler serves the analysis API.
type Handler struct {
	Engine   *engine.Engine
	Sessions *session.Store
	// Default answers requests that carry no rows, such as a dataset loaded
	// at startup. It may be nil.
	Default *dataset.Dataset
	// BatchConcurrency bounds parallel questions in one batch request.
	BatchConcurrency int
	// Gatherer backs GET /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
}

// Router wires middleware and routes.
func (h *Handler) Router(opts Options) http.Handler {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(h.requestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Tabula-Tier"},
		MaxAge:         300,
	}))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
	r.Post("/api/analyze", h.Analyze)
	r.Post("/api/analyze/batch", h.AnalyzeBatch)
	r.Post("/api/sessions", h.CreateSession)
	r.Delete("/api/sessions/{id}", h.DeleteSession)
	g := h.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// requestLog tags every request with an ID and logs its outcome.
func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.Logger.Info("request",
			slog.String("request_id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

// AnalyzeRequest is the body of POST /api/analyze. Rows and Columns describe
// the dataset; when both are empty the server's default dataset is used.
type AnalyzeRequest struct {
	Rows          []map[string]any `json:"rows"`
	Columns       []string         `json:"columns"`
	Query         string           `json:"query"`
	PriorDialogue []ai.Message     `json:"priorDialogue,omitempty"`
	SessionID     string           `json:"sessionId,omitempty"`
}

// AnalyzeResponse wraps the result with the session it was recorded in.
type AnalyzeResponse struct {
	engine.Result
	SessionID string `json:"sessionId,omitempty"`
}

// BatchRequest is the body of POST /api/analyze/batch.
type BatchRequest struct {
	Rows    []map[string]any `json:"rows"`
	Columns []string         `json:"columns"`
	Queries []string         `json:"queries"`
}

// BatchResponse holds one result per query, in request order.
type BatchResponse struct {
	Results []engine.Result `json:"results"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.Sessions.Len(),
		"dataset":  h.Default != nil,
	})
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, err := h.dataset(req.Columns, req.Rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	history := req.PriorDialogue
	sid := ""
	if req.SessionID != "" {
		sid = h.Sessions.Ensure(req.SessionID)
		history = append(h.Sessions.History(sid), history...)
	}
	res := h.Engine.Analyze(r.Context(), engine.Request{Dataset: ds, Query: req.Query, History: history})
	if sid != "" {
		h.Sessions.Append(sid, req.Query, res.Message)
	}
	w.Header().Set("X-Tabula-Tier", string(res.Tier))
	writeJSON(w, http.StatusOK, AnalyzeResponse{Result: res, SessionID: sid})
}

func (h *Handler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("queries must not be empty"))
		return
	}
	if len(req.Queries) > MaxBatchQueries {
		writeError(w, http.StatusBadRequest, fmt.Errorf("at most %d queries per batch", MaxBatchQueries))
		return
	}
	ds, err := h.dataset(req.Columns, req.Rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out := h.Engine.AnalyzeBatch(r.Context(), ds, req.Queries, h.BatchConcurrency)
	writeJSON(w, http.StatusOK, BatchResponse{Results: out})
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": h.Sessions.Create()})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// dataset builds the request dataset. An empty one is valid: the engine
// answers it with sample charts.
func (h *Handler) dataset(columns []string, rows []map[string]any) (*dataset.Dataset, error) {
	if len(columns) == 0 && len(rows) == 0 {
		return h.Default, nil
	}
	ds, err := dataset.FromMaps("request", columns, rows)
	if err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	return ds, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("unsupported content type %q", ct)
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
