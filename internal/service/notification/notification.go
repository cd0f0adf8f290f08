package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
)

type NotificationRepository interface {
	GetByID(ctx context.Context, notificationID int64) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID int64, limit int, isRead *bool) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, notificationID, userID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, notificationID, userID int64) (bool, error)
}

// NotificationService serves a user's own inbox. Entries are produced by
// the team, invite, issue and comment services inside their transactions;
// this service only reads and acknowledges them.
type NotificationService struct {
	notificationRepo NotificationRepository
	lg               *slog.Logger
}

func NewNotificationService(notificationRepo NotificationRepository, lg *slog.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		lg:               lg,
	}
}

// GetNotifications returns the newest entries plus the total unread
// count. A non-nil isRead narrows the page; the unread count always
// covers the whole inbox.
func (s *NotificationService) GetNotifications(ctx context.Context, userID int64, limit int, isRead *bool) (*domain.NotificationSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = domain.DefaultNotificationLimit
	}

	list, err := s.notificationRepo.ListByUser(ctx, userID, limit, isRead)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.notificationRepo.UnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread: %w", err)
	}

	return &domain.NotificationSummary{
		UnreadCount:   unread,
		Notifications: list,
	}, nil
}

func (s *NotificationService) GetNotification(ctx context.Context, notificationID, userID int64) (*domain.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if n.UserID != userID {
		return nil, domain.ErrPermissionDenied
	}
	return n, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.notificationRepo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

// MarkAsRead acknowledges one notification. Another user's notification
// reads as missing, not as forbidden.
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	ok, err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	return nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID, userID int64) error {
	ok, err := s.notificationRepo.Delete(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotificationNotFound
	}
	s.lg.Info("notification deleted", slog.Int64("notification_id", notificationID))
	return nil
}
