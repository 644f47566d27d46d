// Package handlers serves the read-only dashboard API over the persisted
// pipeline artifacts. Dashboards have no write access to anything.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/mkaplan/fastbreak/internal/store"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	store store.Store
}

// NewHandler creates a new handler
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "dashboard-api",
	})
}

// GetPredictions returns the prediction rows for a date
func (h *Handler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !datePattern.MatchString(date) {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rows, err := h.store.ReadPredictions(date)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// GetSummary returns the per-bucket evaluation summary for a date
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !datePattern.MatchString(date) {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rows, err := h.store.ReadSummary(date)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// GetRollingAccuracy returns the rolling accuracy series
func (h *Handler) GetRollingAccuracy(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ReadRollingAccuracy()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// GetRollingROI returns the rolling ROI series
func (h *Handler) GetRollingROI(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ReadRollingROI()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
