// ABOUTME: HTTP boundary: today's stats, waist recording, ledger export and readiness.
// ABOUTME: Routes are served with gorilla/mux; /metrics exposes prometheus collectors.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/harperreed/wellness/internal/garmin"
	"github.com/harperreed/wellness/internal/ledger"
	"github.com/harperreed/wellness/internal/observability"
	"github.com/harperreed/wellness/internal/report"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 16

// Handler serves the HTTP API.
type Handler struct {
	assembler *report.Assembler
	store     *ledger.Store
	router    *mux.Router
}

// NewHandler wires routes. store may be nil when storage is disabled.
func NewHandler(assembler *report.Assembler, store *ledger.Store) *Handler {
	h := &Handler{assembler: assembler, store: store, router: mux.NewRouter()}

	h.router.Use(instrument)
	api := h.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/waist", h.handleWaist).Methods(http.MethodPost)
	api.HandleFunc("/export", h.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	h.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	rep, err := h.assembler.Build(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rep)
	case isSessionError(err):
		writeError(w, http.StatusServiceUnavailable, err)
	case rep != nil:
		// The report is still usable; the ledger write is what failed.
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":  err.Error(),
			"report": rep,
		})
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type waistRequest struct {
	Inches float64 `json:"inches"`
}

func (h *Handler) handleWaist(w http.ResponseWriter, r *http.Request) {
	var req waistRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("body must be JSON like {\"inches\": 33.5}"))
		return
	}

	row, err := h.assembler.RecordWaist(r.Context(), req.Inches)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"date":  row.Date,
			"waist": row.Waist,
		})
	case errors.Is(err, report.ErrInvalidWaist):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, report.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, report.ErrStorageDisabled)
		return
	}
	format, err := ledger.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := h.store.Export(r.Context(), format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", ledger.ContentType(format))
	w.Header().Set("Content-Disposition", "attachment; filename="+exportFilename(h.store.Name(), format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// exportFilename swaps the ledger name's extension for non-CSV formats.
func exportFilename(name, format string) string {
	if format == ledger.FormatCSV {
		return name
	}
	return strings.TrimSuffix(name, path.Ext(name)) + "." + format
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.assembler.Status(r.Context())
	status := http.StatusOK
	if !st.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

func isSessionError(err error) bool {
	return errors.Is(err, garmin.ErrNoSession) || errors.Is(err, garmin.ErrSessionExpired)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		observability.RecordHTTPRequest(r.Method, route, rec.status, elapsed)
		log.Info().Str("method", r.Method).Str("route", route).Int("status", rec.status).Dur("elapsed", elapsed).Msg("request")
	})
}
