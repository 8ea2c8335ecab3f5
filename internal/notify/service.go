package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/gerai-erp/gerai-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, n Notification) (Notification, error)
	ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, recipientID, id int64) error
}

// Service is the notification sink: it persists entries and pushes them to
// the recipient's Redis channel for UI consumption.
type Service struct {
	repo   RepositoryPort
	redis  *redis.Client
	logger *slog.Logger
}

// NewService constructs Service. redis may be nil, in which case entries are
// persisted without a push.
func NewService(repo RepositoryPort, redisClient *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, redis: redisClient, logger: logger}
}

// Push stores a notification and publishes it to the recipient channel. The
// publish is fire-and-forget: a pub/sub failure is logged, not returned.
func (s *Service) Push(ctx context.Context, recipientID int64, title, description, link string) error {
	if recipientID <= 0 || title == "" {
		return fmt.Errorf("%w: notifikasi membutuhkan penerima dan judul", shared.ErrValidation)
	}
	n, err := s.repo.Insert(ctx, Notification{
		RecipientID: recipientID,
		Title:       title,
		Description: description,
		Link:        link,
	})
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	if s.redis == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return nil
	}
	if err := s.redis.Publish(ctx, Channel(recipientID), payload).Err(); err != nil {
		s.logger.Warn("notification publish failed",
			slog.Int64("recipient_id", recipientID), slog.Any("error", err))
	}
	return nil
}

// List returns the newest notifications of one recipient.
func (s *Service) List(ctx context.Context, recipientID int64, limit int) ([]Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID, limit)
}

// MarkRead stamps one notification as read.
func (s *Service) MarkRead(ctx context.Context, recipientID, id int64) error {
	return s.repo.MarkRead(ctx, recipientID, id)
}
