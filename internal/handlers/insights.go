package handlers

import (
	"net/http"

	"github.com/promoter-admin-go/internal/models"
	"github.com/promoter-admin-go/internal/services/insights"
	"github.com/promoter-admin-go/pkg/markdown"
	"github.com/sirupsen/logrus"
)

// InsightsHandler serves the cached AI summary.
type InsightsHandler struct {
	insights *insights.Service
	logger   *logrus.Logger
}

func NewInsightsHandler(service *insights.Service, logger *logrus.Logger) *InsightsHandler {
	return &InsightsHandler{insights: service, logger: logger}
}

// Get returns the insight report, optionally with fields rendered to HTML
// (?format=html). Generation failures surface as 502 with an error payload;
// the aggregate-report endpoints are unaffected.
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.insights.GetInsights(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get insights")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "html" {
		report = &models.InsightReport{
			FrequentQuestions: markdown.ToInlineHTML(report.FrequentQuestions),
			PopularVenues:     markdown.ToInlineHTML(report.PopularVenues),
			Sentiment:         markdown.ToInlineHTML(report.Sentiment),
			Suggestions:       markdown.ToInlineHTML(report.Suggestions),
		}
	}

	respondJSON(w, http.StatusOK, report)
}
