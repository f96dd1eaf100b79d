package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promoter-admin-go/internal/i18n"
	"github.com/promoter-admin-go/internal/middleware"
	"github.com/promoter-admin-go/internal/models"
	"github.com/promoter-admin-go/internal/services/ai"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrInsightGeneration is returned when the summarizer call fails or times
// out. Aggregate reports are unaffected; the two paths are independent.
var ErrInsightGeneration = errors.New("insight generation failed")

// rawPrefixLimit bounds the raw-response prefix used in the degraded report.
const rawPrefixLimit = 200

// MessageSource supplies the recent user messages to summarize.
type MessageSource interface {
	RecentUserMessages(ctx context.Context, limit int) ([]models.Conversation, error)
}

// FailureNotifier is told about generation failures (operator alerting).
type FailureNotifier interface {
	InsightFailure(err error)
}

// Service caches a 4-field AI summary of recent user activity behind a TTL
// so the dashboard does not hit the summarizer on every view.
//
// Expiry is checked lazily on access; there is no background refresh. A
// singleflight group guards the regeneration so concurrent callers racing
// past an expired slot trigger at most one summarizer call.
type Service struct {
	source   MessageSource
	ai       ai.Summarizer
	store    Store
	group    singleflight.Group
	ttl      time.Duration
	recent   int
	min      int
	now      func() time.Time
	loc      *i18n.Localizer
	metrics  *middleware.Metrics
	notifier FailureNotifier
	logger   *logrus.Logger
}

// Options tunes the cache. Zero values fall back to the production defaults.
type Options struct {
	TTL            time.Duration
	RecentMessages int
	MinMessages    int
	Now            func() time.Time
	Notifier       FailureNotifier
}

// NewService creates the insight cache.
func NewService(source MessageSource, summarizer ai.Summarizer, store Store, loc *i18n.Localizer, metrics *middleware.Metrics, logger *logrus.Logger, opts Options) *Service {
	if opts.TTL == 0 {
		opts.TTL = time.Hour
	}
	if opts.RecentMessages == 0 {
		opts.RecentMessages = 100
	}
	if opts.MinMessages == 0 {
		opts.MinMessages = 3
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		source:   source,
		ai:       summarizer,
		store:    store,
		ttl:      opts.TTL,
		recent:   opts.RecentMessages,
		min:      opts.MinMessages,
		now:      opts.Now,
		loc:      loc,
		metrics:  metrics,
		notifier: opts.Notifier,
		logger:   logger,
	}
}

// GetInsights returns the current insight report, regenerating it when the
// cached one has expired.
//
// Contract on failure: if regeneration fails while an expired report is
// still held, that stale report is served and the error is only logged and
// counted. The error surfaces to the caller only when no report was ever
// generated.
func (s *Service) GetInsights(ctx context.Context) (*models.InsightReport, error) {
	if report, ok := s.store.Get(ctx); ok {
		s.metrics.RecordInsightCacheHit()
		return report, nil
	}
	s.metrics.RecordInsightCacheMiss()

	v, err, _ := s.group.Do("insights", func() (interface{}, error) {
		// A concurrent caller may have refreshed the slot while this one
		// waited on the group.
		if report, ok := s.store.Get(ctx); ok {
			return report, nil
		}

		report, genErr := s.generate(ctx)
		if genErr != nil {
			s.metrics.RecordInsightGeneration("error")
			s.logger.WithError(genErr).Error("Insight generation failed")
			if s.notifier != nil {
				s.notifier.InsightFailure(genErr)
			}
			if stale, ok := s.store.GetStale(ctx); ok {
				s.logger.Warn("Serving stale insight report after failed regeneration")
				return stale, nil
			}
			return nil, genErr
		}

		if setErr := s.store.Set(ctx, report, s.now().Add(s.ttl)); setErr != nil {
			s.logger.WithError(setErr).Warn("Failed to store insight report")
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.InsightReport), nil
}

// generate produces a fresh report. Degenerate inputs (no credential, too few
// messages) yield fixed placeholder reports without calling the summarizer.
func (s *Service) generate(ctx context.Context) (*models.InsightReport, error) {
	if !s.ai.Enabled() {
		s.metrics.RecordInsightGeneration("placeholder")
		return s.placeholderReport(i18n.MsgInsightsNoAPIKey), nil
	}

	messages, err := s.source.RecentUserMessages(ctx, s.recent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsightGeneration, err)
	}

	if len(messages) < s.min {
		s.metrics.RecordInsightGeneration("placeholder")
		main := s.loc.Default(i18n.MsgInsightsNotEnoughMain, map[string]interface{}{"Min": s.min})
		rest := s.loc.Default(i18n.MsgInsightsNotEnoughData, nil)
		return &models.InsightReport{
			FrequentQuestions: main,
			PopularVenues:     rest,
			Sentiment:         rest,
			Suggestions:       rest,
		}, nil
	}

	start := time.Now()
	raw, err := s.ai.Complete(ctx, s.buildPrompt(messages))
	if err != nil {
		s.metrics.RecordAIRequest("error", time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrInsightGeneration, err)
	}
	s.metrics.RecordAIRequest("success", time.Since(start))

	report, outcome := parseReport(raw)
	switch outcome {
	case parsedDirect:
		s.metrics.RecordInsightGeneration("ok")
	case parsedFenced:
		s.metrics.RecordInsightGeneration("fenced")
		s.logger.Debug("Insight report extracted from fenced block")
	case unparseable:
		// Never an error for the caller: degrade to a report carrying a
		// prefix of whatever the model said.
		s.metrics.RecordInsightGeneration("fallback")
		s.logger.WithField("raw_prefix", truncate(raw, 80)).Warn("Unparseable insight response")
		parseMsg := s.loc.Default(i18n.MsgInsightsParseError, nil)
		report = &models.InsightReport{
			FrequentQuestions: truncate(raw, rawPrefixLimit),
			PopularVenues:     parseMsg,
			Sentiment:         parseMsg,
			Suggestions:       parseMsg,
		}
	}

	return report, nil
}

func (s *Service) placeholderReport(messageID string) *models.InsightReport {
	text := s.loc.Default(messageID, nil)
	return &models.InsightReport{
		FrequentQuestions: text,
		PopularVenues:     text,
		Sentiment:         text,
		Suggestions:       text,
	}
}

const systemPrompt = `Eres un analista de datos para una empresa de fiestas y eventos para jóvenes en Madrid. ` +
	`Analiza los mensajes de usuarios del bot de Telegram y genera un informe conciso.

Responde SOLO con JSON válido (sin markdown, sin ` + "```" + `), con estas 4 claves:
- "frequent_questions": resumen de 2-4 líneas sobre qué preguntan más los usuarios (temas, dudas recurrentes)
- "popular_venues": qué salas o locales generan más interés según las conversaciones
- "sentiment": análisis breve del tono general de los usuarios (entusiasmados, confundidos, etc.)
- "suggestions": 2-3 sugerencias concretas para mejorar la comunicación del bot

Sé directo y conciso, máximo 3-4 líneas por sección. Escribe en español.`

func (s *Service) buildPrompt(messages []models.Conversation) []models.Message {
	var sb strings.Builder
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	user := fmt.Sprintf("Estos son los últimos %d mensajes de usuarios:\n\n%s", len(messages), sb.String())

	return []models.Message{
		{Role: "system", Content: systemPrompt},
		{Role: models.RoleUser, Content: user},
	}
}
