package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/disruptwatch/internal/geo"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/logpanel"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/metrics"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/stream"
	"github.com/gyaneshwarpardhi/disruptwatch/internal/surface"
)

// Deps are the live session parts exposed over HTTP.
type Deps struct {
	Surface   *surface.Layers
	Panel     *logpanel.Panel
	Nodes     geo.NodeMap
	Highlight func(id geo.NodeID)
	// StreamState reports the log stream state for readiness.
	StreamState func() stream.State
	// QueueUtilization reports the line dispatch queue fill (0–1).
	QueueUtilization func() float64
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	deps Deps
	mux  *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(deps Deps) http.Handler {
	h := &Handler{deps: deps, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/map.geojson", h.mapGeoJSON)
	h.mux.HandleFunc("GET /v1/logs", h.logs)
	h.mux.HandleFunc("POST /v1/highlight/{id}", h.highlight)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// GET /v1/map.geojson: everything currently drawn, in drawing order.
func (h *Handler) mapGeoJSON(w http.ResponseWriter, r *http.Request) {
	fc := h.deps.Surface.FeatureCollection()
	body, err := fc.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// GET /v1/logs: panel lines, oldest first.
func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"open":  h.deps.Panel.Open(),
		"label": h.deps.Panel.Label(),
		"lines": h.deps.Panel.Lines(),
	})
}

// POST /v1/highlight/{id}: mark a node as the selected place.
func (h *Handler) highlight(w http.ResponseWriter, r *http.Request) {
	id := geo.NodeID(r.PathValue("id"))
	n, ok := h.deps.Nodes.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node "+string(id))
		return
	}
	h.deps.Highlight(id)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":   id,
		"city": n.City,
		"x":    n.X,
		"y":    n.Y,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 once the log stream has closed.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	state := h.deps.StreamState()
	var util float64
	if h.deps.QueueUtilization != nil {
		util = h.deps.QueueUtilization()
	}
	metrics.QueueUtilization.Set(util)
	body := map[string]interface{}{
		"stream":            state.String(),
		"queue_utilization": util,
		"surface":           h.deps.Surface.Stats(),
	}
	if state == stream.Closed {
		body["status"] = "stream closed"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ready"
	writeJSON(w, http.StatusOK, body)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.APIRequests.WithLabelValues(r.Method, routeLabel(r), statusClass(rec.status)).Inc()
		logRequest(r, rec.status, time.Since(start))
	})
}
