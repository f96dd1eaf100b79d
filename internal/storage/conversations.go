package storage

import (
	"context"
	"time"

	"github.com/promoter-admin-go/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ConversationStore reads and appends bot chat-log entries. Entries are
// immutable once written; there is no update or delete path.
type ConversationStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewConversationStore(db *gorm.DB, logger *logrus.Logger) *ConversationStore {
	return &ConversationStore{db: db, logger: logger}
}

// Insert appends one conversation entry. A zero CreatedAt defaults to the
// current UTC time.
func (s *ConversationStore) Insert(ctx context.Context, conv *models.Conversation) error {
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(conv).Error
}

// RecentUserMessages returns up to limit of the most recent role=user entries,
// newest first.
func (s *ConversationStore) RecentUserMessages(ctx context.Context, limit int) ([]models.Conversation, error) {
	var rows []models.Conversation
	err := s.db.WithContext(ctx).
		Where("role = ?", models.RoleUser).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListByUser returns one user's conversation in chronological order,
// optionally bounded by from/to.
func (s *ConversationStore) ListByUser(ctx context.Context, userID string, from, to *time.Time) ([]models.Conversation, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}

	var rows []models.Conversation
	err := q.Order("created_at ASC").Find(&rows).Error
	return rows, err
}
