package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/promoter-admin-go/internal/services/analytics"
	"github.com/promoter-admin-go/internal/storage"
	"github.com/sirupsen/logrus"
)

// ConversationsHandler serves the per-user conversation views.
type ConversationsHandler struct {
	analytics *analytics.Service
	convs     *storage.ConversationStore
	logger    *logrus.Logger
}

func NewConversationsHandler(a *analytics.Service, convs *storage.ConversationStore, logger *logrus.Logger) *ConversationsHandler {
	return &ConversationsHandler{analytics: a, convs: convs, logger: logger}
}

// List returns the per-user aggregate table, optionally filtered by a
// case-insensitive search over user ids and message content.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	rows, err := h.analytics.UserActivityTable(r.Context(), search)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build conversation table")
		respondError(w, http.StatusInternalServerError, "failed to build conversation table")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// Recent returns the latest user messages for the dashboard feed.
func (h *ConversationsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	rows, err := h.convs.RecentUserMessages(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list recent messages")
		respondError(w, http.StatusInternalServerError, "failed to list recent messages")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// Detail returns one user's conversation in chronological order. The
// optional from/to filters are ignored when unparseable rather than failing
// the whole view.
func (h *ConversationsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	from := parseDateFilter(r.URL.Query().Get("from"), false)
	to := parseDateFilter(r.URL.Query().Get("to"), true)

	rows, err := h.convs.ListByUser(r.Context(), userID, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load conversation detail")
		respondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// parseDateFilter parses an optional YYYY-MM-DD or RFC3339 filter value. An
// end-of-range date-only value covers the whole day. Invalid input yields
// nil (filter ignored).
func parseDateFilter(raw string, endOfDay bool) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t
	}

	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t
}
