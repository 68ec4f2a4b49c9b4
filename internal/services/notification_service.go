package services

import (
	"context"
	"encoding/json"

	"github.com/Townsmeet/imentor-sub000/internal/models"
	"github.com/Townsmeet/imentor-sub000/internal/repository"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Notifier is the fire-and-forget notification sink. It is only called after
// the owning transaction has committed, and a delivery failure can never roll
// back a state transition: errors are swallowed here and logged.
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind, title, body string)
}

// notificationPusher delivers a payload to a user's live connections.
type notificationPusher interface {
	Push(userID int64, payload []byte)
}

type NotificationService struct {
	repo   *repository.NotificationRepository
	pusher notificationPusher
	logger *zap.Logger
}

func NewNotificationService(
	repo *repository.NotificationRepository,
	pusher notificationPusher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher, logger: logger}
}

func (s *NotificationService) Notify(ctx context.Context, userID int64, kind, title, body string) {
	notification, err := s.repo.Create(ctx, repository.CreateNotificationInput{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	})
	if err != nil {
		s.logger.Warn("store notification",
			zap.Int64("user_id", userID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return
	}

	if s.pusher == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		s.logger.Warn("encode notification", zap.Int64("id", notification.ID), zap.Error(err))
		return
	}
	s.pusher.Push(userID, payload)
}

func (s *NotificationService) List(
	ctx context.Context,
	userID int64,
	page, limit int,
) ([]models.Notification, int, error) {
	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	notifications, err := s.repo.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID int64, notificationID int64) error {
	updated, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return pgx.ErrNoRows
	}
	return nil
}
