package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/promoter-admin-go/internal/models"
	"github.com/promoter-admin-go/internal/services/analytics"
	"github.com/promoter-admin-go/internal/storage"
	"github.com/sirupsen/logrus"
)

// EventsHandler serves event records and event analytics.
type EventsHandler struct {
	events    *storage.EventStore
	analytics *analytics.Service
	mentions  *analytics.MentionAnalyzer
	logger    *logrus.Logger
}

func NewEventsHandler(events *storage.EventStore, a *analytics.Service, mentions *analytics.MentionAnalyzer, logger *logrus.Logger) *EventsHandler {
	return &EventsHandler{events: events, analytics: a, mentions: mentions, logger: logger}
}

// List returns active events by date, or every event with ?all=true.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "true"

	events, err := h.events.List(r.Context(), all)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list events")
		respondError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

type createEventRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Venue       string `json:"venue"`
	Theme       string `json:"theme"`
	Description string `json:"description"`
	DJInfo      string `json:"dj_info"`
	Capacity    int    `json:"capacity"`
	EntryPrice  string `json:"entry_price"`
	EntryLink   string `json:"entry_link"`
	ImageURL    string `json:"image_url"`
	Active      *bool  `json:"active"`
}

// Create inserts a new event.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Venue == "" {
		respondError(w, http.StatusBadRequest, "name and venue are required")
		return
	}

	date, err := parseTimestamp(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	event := &models.Event{
		Name:        req.Name,
		Date:        date,
		Venue:       req.Venue,
		Theme:       req.Theme,
		Description: req.Description,
		DJInfo:      req.DJInfo,
		Capacity:    req.Capacity,
		EntryPrice:  req.EntryPrice,
		EntryLink:   req.EntryLink,
		ImageURL:    req.ImageURL,
		Active:      active,
	}

	if err := h.events.Create(r.Context(), event); err != nil {
		h.logger.WithError(err).Error("Failed to create event")
		respondError(w, http.StatusInternalServerError, "failed to create event")
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// Get returns one event by id.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Mentions returns how often the event's name appears in user messages.
func (h *EventsHandler) Mentions(w http.ResponseWriter, r *http.Request) {
	event, ok := h.loadEvent(w, r)
	if !ok {
		return
	}

	report, err := h.mentions.EventMentions(r.Context(), event.Name)
	if err != nil {
		h.logger.WithError(err).Error("Failed to analyze event mentions")
		respondError(w, http.StatusInternalServerError, "failed to analyze mentions")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Breakdown groups events by venue (default) or theme.
func (h *EventsHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	var (
		rows []analytics.BucketCount
		err  error
	)
	switch r.URL.Query().Get("by") {
	case "theme":
		rows, err = h.analytics.ThemeBreakdown(r.Context())
	default:
		rows, err = h.analytics.VenueBreakdown(r.Context())
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to build event breakdown")
		respondError(w, http.StatusInternalServerError, "failed to build breakdown")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *EventsHandler) loadEvent(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event id")
		return nil, false
	}

	event, err := h.events.GetByID(r.Context(), uint(id))
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "event not found")
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load event")
		respondError(w, http.StatusInternalServerError, "failed to load event")
		return nil, false
	}
	return event, true
}

// parseTimestamp accepts RFC3339 or the date-only and datetime forms the
// bot integration sends.
func parseTimestamp(raw string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
