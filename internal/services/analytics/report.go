package analytics

import (
	"context"
	"time"

	"github.com/promoter-admin-go/internal/models"
	"github.com/promoter-admin-go/internal/storage"
)

// Report is the full dashboard view model. It is rebuilt from the log store
// on every request and discarded after serialization; the sub-queries are
// independent reads, so counts may reflect slightly different snapshots when
// the bot writes mid-report.
type Report struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	KPIs           KPIs           `json:"kpis"`
	Daily          []DayCount     `json:"daily"`
	Hourly         []HourCount    `json:"hourly"`
	TopUsers       []UserActivity `json:"top_users"`
	UserGrowth     int            `json:"user_growth"`
	PeakHour       string         `json:"peak_hour"`
	Venues         []BucketCount  `json:"venues"`
	Themes         []BucketCount  `json:"themes"`
	ActiveEvents   int64          `json:"active_events"`
	TotalEvents    int64          `json:"total_events"`
	UpcomingEvents []models.Event `json:"upcoming_events"`
}

// DefaultDailyDays is the daily histogram window of the dashboard.
const DefaultDailyDays = 30

// DefaultTopUsers is the top-users limit of the dashboard.
const DefaultTopUsers = 10

// BuildReport assembles the complete aggregate report for the given instant.
// Any store failure aborts the whole report; stale statistics are worse than
// an explicit error.
func (s *Service) BuildReport(ctx context.Context, now time.Time, events *storage.EventStore) (*Report, error) {
	report := &Report{GeneratedAt: now.UTC()}

	kpis, err := s.KPIs(ctx, now)
	if err != nil {
		return nil, err
	}
	report.KPIs = *kpis

	if report.Daily, err = s.DailyHistogram(ctx, now, DefaultDailyDays); err != nil {
		return nil, err
	}
	if report.Hourly, err = s.HourlyHistogram(ctx); err != nil {
		return nil, err
	}
	if report.TopUsers, err = s.TopUsers(ctx, DefaultTopUsers); err != nil {
		return nil, err
	}
	if report.UserGrowth, err = s.UserGrowth(ctx, now); err != nil {
		return nil, err
	}
	if report.PeakHour, err = s.PeakHour(ctx); err != nil {
		return nil, err
	}
	if report.Venues, err = s.VenueBreakdown(ctx); err != nil {
		return nil, err
	}
	if report.Themes, err = s.ThemeBreakdown(ctx); err != nil {
		return nil, err
	}

	if report.ActiveEvents, report.TotalEvents, err = events.Counts(ctx); err != nil {
		return nil, err
	}
	if report.UpcomingEvents, err = events.Upcoming(ctx, now, 5); err != nil {
		return nil, err
	}

	return report, nil
}
