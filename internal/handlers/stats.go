package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/promoter-admin-go/internal/services/analytics"
	"github.com/promoter-admin-go/internal/storage"
	"github.com/sirupsen/logrus"
)

// StatsHandler serves the aggregate statistics endpoints. Reports are always
// recomputed from the log store; nothing here is persisted.
type StatsHandler struct {
	analytics *analytics.Service
	events    *storage.EventStore
	logger    *logrus.Logger
}

func NewStatsHandler(a *analytics.Service, events *storage.EventStore, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{analytics: a, events: events, logger: logger}
}

// Report returns the full dashboard report for the current instant.
func (h *StatsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.BuildReport(r.Context(), time.Now().UTC(), h.events)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build aggregate report")
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Daily returns the daily histogram. An unparseable days parameter is
// ignored in favor of the default.
func (h *StatsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	days := analytics.DefaultDailyDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}

	histogram, err := h.analytics.DailyHistogram(r.Context(), time.Now().UTC(), days)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build daily histogram")
		respondError(w, http.StatusInternalServerError, "failed to build daily histogram")
		return
	}
	respondJSON(w, http.StatusOK, histogram)
}

// Hourly returns the all-time 24-bucket hourly histogram.
func (h *StatsHandler) Hourly(w http.ResponseWriter, r *http.Request) {
	histogram, err := h.analytics.HourlyHistogram(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to build hourly histogram")
		respondError(w, http.StatusInternalServerError, "failed to build hourly histogram")
		return
	}
	respondJSON(w, http.StatusOK, histogram)
}

// TopUsers returns the most active users.
func (h *StatsHandler) TopUsers(w http.ResponseWriter, r *http.Request) {
	limit := analytics.DefaultTopUsers
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	users, err := h.analytics.TopUsers(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query top users")
		respondError(w, http.StatusInternalServerError, "failed to query top users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// ExportCSV streams the per-user aggregate table as CSV.
func (h *StatsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analytics.UserActivityTable(r.Context(), "")
	if err != nil {
		h.logger.WithError(err).Error("Failed to build user activity table")
		respondError(w, http.StatusInternalServerError, "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="conversaciones.csv"`)
	if err := analytics.WriteUserActivityCSV(w, rows); err != nil {
		h.logger.WithError(err).Error("Failed to write CSV export")
	}
}
