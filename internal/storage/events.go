package storage

import (
	"context"
	"errors"
	"time"

	"github.com/promoter-admin-go/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EventStore manages event records.
type EventStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewEventStore(db *gorm.DB, logger *logrus.Logger) *EventStore {
	return &EventStore{db: db, logger: logger}
}

// List returns active events by ascending date, or every event by descending
// date when all is true.
func (s *EventStore) List(ctx context.Context, all bool) ([]models.Event, error) {
	q := s.db.WithContext(ctx).Model(&models.Event{})
	if all {
		q = q.Order("date DESC")
	} else {
		q = q.Where("active = ?", true).Order("date ASC")
	}

	var rows []models.Event
	err := q.Find(&rows).Error
	return rows, err
}

// GetByID returns one event or ErrNotFound.
func (s *EventStore) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event.
func (s *EventStore) Create(ctx context.Context, event *models.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Theme == "" {
		event.Theme = "Normal"
	}
	return s.db.WithContext(ctx).Create(event).Error
}

// Upcoming returns the next limit active events on or after now.
func (s *EventStore) Upcoming(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	var rows []models.Event
	err := s.db.WithContext(ctx).
		Where("active = ? AND date >= ?", true, now).
		Order("date ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Counts returns the active and total event counts.
func (s *EventStore) Counts(ctx context.Context) (active, total int64, err error) {
	if err = s.db.WithContext(ctx).Model(&models.Event{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = s.db.WithContext(ctx).Model(&models.Event{}).Where("active = ?", true).Count(&active).Error
	return active, total, err
}
