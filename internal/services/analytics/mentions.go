package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// MentionReport summarizes how often an event name appears in user messages.
// Timeline only lists days with at least one mention.
type MentionReport struct {
	EventName    string     `json:"event_name"`
	MentionCount int64      `json:"mention_count"`
	UniqueUsers  int64      `json:"unique_users"`
	Timeline     []DayCount `json:"timeline"`
}

// MentionAnalyzer scans user messages for case-insensitive event-name
// mentions. Results are memoized for a short TTL because the dashboard polls
// them on every view.
type MentionAnalyzer struct {
	service *Service
	cache   *gocache.Cache
	logger  *logrus.Logger
}

func NewMentionAnalyzer(service *Service, enabled bool, ttl time.Duration, logger *logrus.Logger) *MentionAnalyzer {
	a := &MentionAnalyzer{service: service, logger: logger}
	if enabled {
		a.cache = gocache.New(ttl, ttl*2)
	}
	return a
}

// EventMentions counts messages mentioning eventName as a case-insensitive
// substring and the distinct users behind them.
func (a *MentionAnalyzer) EventMentions(ctx context.Context, eventName string) (*MentionReport, error) {
	key := mentionKey(eventName)
	if a.cache != nil {
		if val, found := a.cache.Get(key); found {
			report := val.(*MentionReport)
			a.logger.WithField("event", eventName).Debug("Mention cache hit")
			return report, nil
		}
	}

	report, err := a.compute(ctx, eventName)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		a.cache.SetDefault(key, report)
	}
	return report, nil
}

func (a *MentionAnalyzer) compute(ctx context.Context, eventName string) (*MentionReport, error) {
	pattern := "%" + strings.ToLower(eventName) + "%"
	report := &MentionReport{EventName: eventName, Timeline: []DayCount{}}

	base := a.service.userMessages(ctx).Where("LOWER(content) LIKE ?", pattern)
	if err := base.Count(&report.MentionCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count mentions: %w", err)
	}

	base = a.service.userMessages(ctx).Where("LOWER(content) LIKE ?", pattern)
	if err := base.Distinct("user_id").Count(&report.UniqueUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count mention users: %w", err)
	}

	type row struct {
		Day string
		Cnt int64
	}
	var rows []row
	err := a.service.userMessages(ctx).
		Select(a.service.dayFormatExpr()+" AS day, COUNT(*) AS cnt").
		Where("LOWER(content) LIKE ?", pattern).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query mention timeline: %w", err)
	}

	for _, r := range rows {
		report.Timeline = append(report.Timeline, DayCount{Date: r.Day, Count: r.Cnt})
	}
	return report, nil
}

func mentionKey(eventName string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(eventName)))
	return hex.EncodeToString(hash[:])
}
