package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/promoter-admin-go/internal/config"
	"github.com/promoter-admin-go/internal/i18n"
	"github.com/promoter-admin-go/internal/middleware"
	"github.com/promoter-admin-go/internal/models"
	"github.com/promoter-admin-go/internal/services/analytics"
	"github.com/promoter-admin-go/internal/services/insights"
	"github.com/promoter-admin-go/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubSummarizer struct {
	response string
	err      error
}

func (s *stubSummarizer) Enabled() bool { return true }

func (s *stubSummarizer) Complete(ctx context.Context, messages []models.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Conversation{}, &models.Event{}))
	return db
}

func newTestRouter(t *testing.T, db *gorm.DB, summarizer *stubSummarizer, apiKey string, rateCfg *config.RateLimitConfig) http.Handler {
	t.Helper()
	log := testLogger()

	convs := storage.NewConversationStore(db, log)
	events := storage.NewEventStore(db, log)

	loc, err := i18n.NewLocalizer(&config.I18nConfig{
		DefaultLanguage: "es",
		Languages:       []string{"es", "en"},
	})
	require.NoError(t, err)

	metrics := middleware.NewMetrics()
	svc := analytics.New(db, log)
	mentions := analytics.NewMentionAnalyzer(svc, false, 0, log)

	store, err := insights.NewStore(&config.InsightsConfig{Store: "memory"}, time.Now, log)
	require.NoError(t, err)
	insightSvc := insights.NewService(convs, summarizer, store, loc, metrics, log, insights.Options{})

	if rateCfg == nil {
		rateCfg = &config.RateLimitConfig{Enabled: false}
	}

	return NewRouter(RouterDeps{
		Stats:         NewStatsHandler(svc, events, log),
		Insights:      NewInsightsHandler(insightSvc, log),
		Events:        NewEventsHandler(events, svc, mentions, log),
		Conversations: NewConversationsHandler(svc, convs, log),
		Messages:      NewMessagesHandler(convs, log),
		Metrics:       metrics,
		RateLimiter:   middleware.NewRateLimiter(rateCfg, metrics, log),
		APIKeyAuth:    middleware.APIKeyAuth(apiKey, log),
	})
}

func doRequest(t *testing.T, h http.Handler, method, target, apiKey string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIKeyRequired(t *testing.T) {
	db := openTestDB(t)
	router := newTestRouter(t, db, &stubSummarizer{}, "secreto", nil)

	rec := doRequest(t, router, http.MethodGet, "/api/stats/hourly", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid api key"}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/stats/hourly", "equivocada", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/stats/hourly", "secreto", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthSkipsAuth(t *testing.T) {
	db := openTestDB(t)
	router := newTestRouter(t, db, &stubSummarizer{}, "secreto", nil)

	rec := doRequest(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestInsightsEndpoint(t *testing.T) {
	db := openTestDB(t)
	log := testLogger()
	convs := storage.NewConversationStore(db, log)
	for _, content := range []string{"¿precio?", "¿horario?", "¿sala?"} {
		require.NoError(t, convs.Insert(context.Background(), &models.Conversation{
			UserID: "ana", Role: models.RoleUser, Content: content,
		}))
	}

	summary := `{"frequent_questions":"Precios.","popular_venues":"Sala A.","sentiment":"Bien.","suggestions":"Responder antes."}`
	router := newTestRouter(t, db, &stubSummarizer{response: summary}, "", nil)

	rec := doRequest(t, router, http.MethodGet, "/api/insights", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.InsightReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "Precios.", report.FrequentQuestions)
	assert.Equal(t, "Sala A.", report.PopularVenues)
}

func TestInsightsEndpointFailure(t *testing.T) {
	db := openTestDB(t)
	log := testLogger()
	convs := storage.NewConversationStore(db, log)
	for _, content := range []string{"hola", "qué tal", "entradas"} {
		require.NoError(t, convs.Insert(context.Background(), &models.Conversation{
			UserID: "ana", Role: models.RoleUser, Content: content,
		}))
	}

	router := newTestRouter(t, db, &stubSummarizer{err: errors.New("upstream down")}, "", nil)

	rec := doRequest(t, router, http.MethodGet, "/api/insights", "", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload["error"], "insight generation failed")
}

func TestStatsDailyBucketCount(t *testing.T) {
	db := openTestDB(t)
	router := newTestRouter(t, db, &stubSummarizer{}, "", nil)

	rec := doRequest(t, router, http.MethodGet, "/api/stats/daily?days=7", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var buckets []analytics.DayCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buckets))
	assert.Len(t, buckets, 7, "zero-filled even with no data")
}

func TestMessageIngestionAndRecent(t *testing.T) {
	db := openTestDB(t)
	router := newTestRouter(t, db, &stubSummarizer{}, "", nil)

	body := []byte(`{"user_id":"ana","role":"user","content":"quiero entradas"}`)
	rec := doRequest(t, router, http.MethodPost, "/api/messages", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/conversations/recent", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var msgs []models.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "ana", msgs[0].UserID)
	assert.Equal(t, "quiero entradas", msgs[0].Content)
}

func TestMessageIngestionRejectsEmptyContent(t *testing.T) {
	db := openTestDB(t)
	router := newTestRouter(t, db, &stubSummarizer{}, "", nil)

	rec := doRequest(t, router, http.MethodPost, "/api/messages", "", []byte(`{"user_id":"ana"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventLifecycle(t *testing.T) {
	db := openTestDB(t)
	router := newTestRouter(t, db, &stubSummarizer{}, "", nil)

	body := []byte(`{"name":"Neon Night","date":"2026-10-01 23:00:00","venue":"Sala A","theme":"Techno"}`)
	rec := doRequest(t, router, http.MethodPost, "/api/events", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	assert.True(t, created.Active)

	rec = doRequest(t, router, http.MethodGet, "/api/events/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Neon Night", list[0].Name)
}

func TestExportCSV(t *testing.T) {
	db := openTestDB(t)
	log := testLogger()
	convs := storage.NewConversationStore(db, log)
	require.NoError(t, convs.Insert(context.Background(), &models.Conversation{
		UserID:    "ana",
		Role:      models.RoleUser,
		Content:   "hola",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}))

	router := newTestRouter(t, db, &stubSummarizer{}, "", nil)

	rec := doRequest(t, router, http.MethodGet, "/api/export/conversations.csv", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="conversaciones.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "User ID,Mensajes,Primera Vez,Ultimo Mensaje,Dias Activo", lines[0])
	assert.Equal(t, "ana,1,2024-05-01 10:00,2024-05-01 10:00,1", lines[1])
}

func TestRateLimit(t *testing.T) {
	db := openTestDB(t)
	router := newTestRouter(t, db, &stubSummarizer{}, "", &config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		Burst:             1,
	})

	rec := doRequest(t, router, http.MethodGet, "/api/stats/hourly", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/stats/hourly", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}
