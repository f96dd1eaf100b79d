package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/promoter-admin-go/internal/middleware"
)

// RouterDeps collects everything the API router needs.
type RouterDeps struct {
	Stats         *StatsHandler
	Insights      *InsightsHandler
	Events        *EventsHandler
	Conversations *ConversationsHandler
	Messages      *MessagesHandler
	Metrics       *middleware.Metrics
	RateLimiter   *middleware.RateLimiter
	APIKeyAuth    func(http.Handler) http.Handler
}

// NewRouter wires the admin API routes and middlewares.
func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(deps.Metrics.Instrument)
	api.Use(deps.RateLimiter.Middleware)
	api.Use(deps.APIKeyAuth)

	api.HandleFunc("/stats", deps.Stats.Report).Methods(http.MethodGet)
	api.HandleFunc("/stats/daily", deps.Stats.Daily).Methods(http.MethodGet)
	api.HandleFunc("/stats/hourly", deps.Stats.Hourly).Methods(http.MethodGet)
	api.HandleFunc("/stats/top-users", deps.Stats.TopUsers).Methods(http.MethodGet)

	api.HandleFunc("/insights", deps.Insights.Get).Methods(http.MethodGet)

	api.HandleFunc("/events", deps.Events.List).Methods(http.MethodGet)
	api.HandleFunc("/events", deps.Events.Create).Methods(http.MethodPost)
	api.HandleFunc("/events/breakdown", deps.Events.Breakdown).Methods(http.MethodGet)
	api.HandleFunc("/events/{id:[0-9]+}", deps.Events.Get).Methods(http.MethodGet)
	api.HandleFunc("/events/{id:[0-9]+}/mentions", deps.Events.Mentions).Methods(http.MethodGet)

	api.HandleFunc("/conversations", deps.Conversations.List).Methods(http.MethodGet)
	api.HandleFunc("/conversations/recent", deps.Conversations.Recent).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{userID}", deps.Conversations.Detail).Methods(http.MethodGet)

	api.HandleFunc("/messages", deps.Messages.Create).Methods(http.MethodPost)

	api.HandleFunc("/export/conversations.csv", deps.Stats.ExportCSV).Methods(http.MethodGet)

	return router
}
