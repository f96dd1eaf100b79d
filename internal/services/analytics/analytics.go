package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/promoter-admin-go/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PeakHourNoData is the label returned by PeakHour when the log is empty.
const PeakHourNoData = "Sin datos"

// KPIs holds the headline message counters for the dashboard.
type KPIs struct {
	Today       int64 `json:"today"`
	Week        int64 `json:"week"`
	Month       int64 `json:"month"`
	Total       int64 `json:"total"`
	UniqueUsers int64 `json:"unique_users"`
}

// DayCount is one daily histogram bucket. Date is formatted YYYY-MM-DD.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// HourCount is one hourly histogram bucket. Hour is formatted HH:00.
type HourCount struct {
	Hour  string `json:"hour"`
	Count int64  `json:"count"`
}

// BucketCount is a generic name/count pair for breakdowns.
type BucketCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// UserActivity is one row of the per-user aggregate table. Timestamps are
// pre-formatted YYYY-MM-DD HH:MM, the format the admin screens and the CSV
// export present.
type UserActivity struct {
	UserID       string `json:"user_id"`
	MessageCount int64  `json:"message_count"`
	FirstSeen    string `json:"first_seen"`
	LastActive   string `json:"last_active"`
	DaysActive   int64  `json:"days_active"`
}

// Service computes time-windowed statistics over the conversation log. All
// operations are reads; the reference instant is always supplied by the
// caller so results are deterministic under test.
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func New(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// userMessages scopes a query to the entries that count toward statistics.
func (s *Service) userMessages(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("role = ?", models.RoleUser)
}

// dayFormatExpr returns the SQL expression formatting created_at as YYYY-MM-DD.
func (s *Service) dayFormatExpr() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m-%d', created_at)"
	}
	return "DATE_FORMAT(created_at, '%Y-%m-%d')"
}

// hourExpr returns the SQL expression extracting the UTC hour of created_at.
func (s *Service) hourExpr() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "CAST(strftime('%H', created_at) AS INTEGER)"
	}
	return "HOUR(created_at)"
}

// minuteFormatExpr formats a timestamp expression as YYYY-MM-DD HH:MM.
func (s *Service) minuteFormatExpr(inner string) string {
	if s.db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m-%d %H:%M', " + inner + ")"
	}
	return "DATE_FORMAT(" + inner + ", '%Y-%m-%d %H:%i')"
}

// DayStart truncates now to the start of its UTC calendar day.
func DayStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the start of now's week. Weeks start on Monday.
func WeekStart(now time.Time) time.Time {
	day := DayStart(now)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of now's month.
func MonthStart(now time.Time) time.Time {
	day := DayStart(now)
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// KPIs counts role=user messages for today, this week (Monday start), this
// month and all time, plus the all-time distinct user count.
func (s *Service) KPIs(ctx context.Context, now time.Time) (*KPIs, error) {
	out := &KPIs{}
	windows := []struct {
		dst   *int64
		since time.Time
	}{
		{&out.Today, DayStart(now)},
		{&out.Week, WeekStart(now)},
		{&out.Month, MonthStart(now)},
	}

	for _, w := range windows {
		if err := s.userMessages(ctx).Where("created_at >= ?", w.since).Count(w.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to count window: %w", err)
		}
	}

	if err := s.userMessages(ctx).Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count total: %w", err)
	}

	if err := s.userMessages(ctx).Distinct("user_id").Count(&out.UniqueUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count unique users: %w", err)
	}

	return out, nil
}

// DailyHistogram returns exactly days buckets in chronological order ending
// at now's day, zero-filled for days without messages.
func (s *Service) DailyHistogram(ctx context.Context, now time.Time, days int) ([]DayCount, error) {
	start := DayStart(now).AddDate(0, 0, -(days - 1))

	type row struct {
		Day string
		Cnt int64
	}
	var rows []row
	err := s.userMessages(ctx).
		Select(s.dayFormatExpr()+" AS day, COUNT(*) AS cnt").
		Where("created_at >= ?", start).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query daily histogram: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Day] = r.Cnt
	}

	out := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		out = append(out, DayCount{Date: day, Count: counts[day]})
	}
	return out, nil
}

// HourlyHistogram returns 24 buckets covering all-time traffic by UTC hour.
func (s *Service) HourlyHistogram(ctx context.Context) ([]HourCount, error) {
	type row struct {
		H   int
		Cnt int64
	}
	var rows []row
	err := s.userMessages(ctx).
		Select(s.hourExpr() + " AS h, COUNT(*) AS cnt").
		Group("h").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly histogram: %w", err)
	}

	counts := make(map[int]int64, len(rows))
	for _, r := range rows {
		counts[r.H] = r.Cnt
	}

	out := make([]HourCount, 0, 24)
	for h := 0; h < 24; h++ {
		out = append(out, HourCount{Hour: fmt.Sprintf("%02d:00", h), Count: counts[h]})
	}
	return out, nil
}

// TopUsers returns at most limit users ordered by descending message count.
// Ties break by ascending user id so repeated calls stay stable.
func (s *Service) TopUsers(ctx context.Context, limit int) ([]UserActivity, error) {
	rows, err := s.userActivity(ctx, "", "msg_count DESC, user_id ASC", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	return rows, nil
}

// UserGrowth returns the month-over-month distinct-user growth percentage,
// rounded to the nearest integer. When the previous month had no users the
// result is 100 if this month has any, else 0; that is a fixed policy to
// avoid dividing by zero, not a derived value.
func (s *Service) UserGrowth(ctx context.Context, now time.Time) (int, error) {
	monthStart := MonthStart(now)
	prevStart := monthStart.AddDate(0, -1, 0)

	var current, previous int64
	err := s.userMessages(ctx).
		Where("created_at >= ?", monthStart).
		Distinct("user_id").
		Count(&current).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count current month users: %w", err)
	}

	err = s.userMessages(ctx).
		Where("created_at >= ? AND created_at < ?", prevStart, monthStart).
		Distinct("user_id").
		Count(&previous).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count previous month users: %w", err)
	}

	if previous == 0 {
		if current > 0 {
			return 100, nil
		}
		return 0, nil
	}

	growth := float64(current-previous) / float64(previous) * 100
	return int(math.Round(growth)), nil
}

// PeakHour returns the busiest hour label, breaking ties by the smallest
// hour. With an empty log it returns PeakHourNoData.
func (s *Service) PeakHour(ctx context.Context) (string, error) {
	histogram, err := s.HourlyHistogram(ctx)
	if err != nil {
		return "", err
	}

	best := -1
	var bestCount int64
	for h, bucket := range histogram {
		if bucket.Count > bestCount {
			best = h
			bestCount = bucket.Count
		}
	}

	if best < 0 {
		return PeakHourNoData, nil
	}
	return histogram[best].Hour, nil
}

// VenueBreakdown groups events by venue, most frequent first.
func (s *Service) VenueBreakdown(ctx context.Context) ([]BucketCount, error) {
	return s.eventBreakdown(ctx, "venue")
}

// ThemeBreakdown groups events by theme, most frequent first.
func (s *Service) ThemeBreakdown(ctx context.Context) ([]BucketCount, error) {
	return s.eventBreakdown(ctx, "theme")
}

func (s *Service) eventBreakdown(ctx context.Context, column string) ([]BucketCount, error) {
	var rows []BucketCount
	err := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Select(column + " AS name, COUNT(*) AS count").
		Group(column).
		Order("count DESC, name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query %s breakdown: %w", column, err)
	}
	return rows, nil
}

// UserActivityTable returns the per-user aggregate table ordered by
// descending message count. search optionally filters by user id or message
// content, case-insensitive.
func (s *Service) UserActivityTable(ctx context.Context, search string) ([]UserActivity, error) {
	rows, err := s.userActivity(ctx, search, "msg_count DESC, user_id ASC", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to query user activity: %w", err)
	}
	return rows, nil
}

func (s *Service) userActivity(ctx context.Context, search, order string, limit int) ([]UserActivity, error) {
	type row struct {
		UserID     string
		MsgCount   int64
		FirstSeen  string
		LastActive string
		DaysActive int64
	}

	q := s.userMessages(ctx).
		Select("user_id, COUNT(*) AS msg_count, " +
			s.minuteFormatExpr("MIN(created_at)") + " AS first_seen, " +
			s.minuteFormatExpr("MAX(created_at)") + " AS last_active, " +
			"COUNT(DISTINCT " + s.dayFormatExpr() + ") AS days_active").
		Group("user_id")

	if search != "" {
		pattern := "%" + search + "%"
		sub := s.userMessages(ctx).
			Select("DISTINCT user_id").
			Where("LOWER(content) LIKE LOWER(?)", pattern)
		q = q.Where("LOWER(user_id) LIKE LOWER(?) OR user_id IN (?)", pattern, sub)
	}

	q = q.Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]UserActivity, 0, len(rows))
	for _, r := range rows {
		out = append(out, UserActivity{
			UserID:       r.UserID,
			MessageCount: r.MsgCount,
			FirstSeen:    r.FirstSeen,
			LastActive:   r.LastActive,
			DaysActive:   r.DaysActive,
		})
	}
	return out, nil
}
