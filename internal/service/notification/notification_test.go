package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/internal/repository"
)

type fakeNotificationRepo struct {
	nextID        int64
	notifications map[int64]*domain.Notification
}

func (f *fakeNotificationRepo) add(userID int64, kind domain.NotificationType, read bool) *domain.Notification {
	f.nextID++
	n := &domain.Notification{ID: f.nextID, UserID: userID, Type: kind, Title: "t", IsRead: read}
	f.notifications[n.ID] = n
	return n
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, notificationID int64) (*domain.Notification, error) {
	n, ok := f.notifications[notificationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID int64, limit int, isRead *bool) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.notifications {
		if n.UserID != userID {
			continue
		}
		if isRead != nil && n.IsRead != *isRead {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationRepo) UnreadCount(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, notificationID, userID int64) (bool, error) {
	n, ok := f.notifications[notificationID]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID int64) error {
	for _, n := range f.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, notificationID, userID int64) (bool, error) {
	n, ok := f.notifications[notificationID]
	if !ok || n.UserID != userID {
		return false, nil
	}
	delete(f.notifications, notificationID)
	return true, nil
}

func newFixture() (*NotificationService, *fakeNotificationRepo) {
	repo := &fakeNotificationRepo{notifications: map[int64]*domain.Notification{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotificationService(repo, logger), repo
}

func TestGetNotificationsSummary(t *testing.T) {
	t.Parallel()
	svc, repo := newFixture()
	ctx := context.Background()

	repo.add(10, domain.NotificationIssueAssigned, false)
	repo.add(10, domain.NotificationIssueCommented, true)
	repo.add(10, domain.NotificationTeamInvite, false)
	repo.add(11, domain.NotificationTeamInvite, false)

	summary, err := svc.GetNotifications(ctx, 10, 0, nil)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if summary.UnreadCount != 2 {
		t.Errorf("unread count: got %d, want 2", summary.UnreadCount)
	}
	if len(summary.Notifications) != 3 {
		t.Errorf("page size: got %d, want 3", len(summary.Notifications))
	}

	// Filtering to unread keeps the full unread count.
	unread := false
	summary, err = svc.GetNotifications(ctx, 10, 0, &unread)
	if err != nil {
		t.Fatalf("filtered GetNotifications: %v", err)
	}
	if len(summary.Notifications) != 2 || summary.UnreadCount != 2 {
		t.Errorf("unread filter: got %d entries, count %d, want 2/2", len(summary.Notifications), summary.UnreadCount)
	}
}

func TestGetNotificationOwnOnly(t *testing.T) {
	t.Parallel()
	svc, repo := newFixture()
	ctx := context.Background()

	n := repo.add(10, domain.NotificationTeamInvite, false)

	got, err := svc.GetNotification(ctx, n.ID, 10)
	if err != nil || got.ID != n.ID {
		t.Fatalf("own notification: got %+v, err %v", got, err)
	}
	if _, err := svc.GetNotification(ctx, n.ID, 11); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("foreign notification: got %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.GetNotification(ctx, 999, 10); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Errorf("missing notification: got %v, want ErrNotificationNotFound", err)
	}
}

func TestMarkAsRead(t *testing.T) {
	t.Parallel()
	svc, repo := newFixture()
	ctx := context.Background()

	n := repo.add(10, domain.NotificationIssueAssigned, false)

	if err := svc.MarkAsRead(ctx, n.ID, 10); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if !repo.notifications[n.ID].IsRead {
		t.Error("notification still unread")
	}

	// Another user's notification reads as missing.
	other := repo.add(11, domain.NotificationIssueAssigned, false)
	if err := svc.MarkAsRead(ctx, other.ID, 10); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Errorf("foreign mark: got %v, want ErrNotificationNotFound", err)
	}
	if repo.notifications[other.ID].IsRead {
		t.Error("foreign notification was marked read")
	}
}

func TestMarkAllAsRead(t *testing.T) {
	t.Parallel()
	svc, repo := newFixture()
	ctx := context.Background()

	repo.add(10, domain.NotificationIssueAssigned, false)
	repo.add(10, domain.NotificationIssueCommented, false)
	keep := repo.add(11, domain.NotificationIssueAssigned, false)

	if err := svc.MarkAllAsRead(ctx, 10); err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}
	count, err := svc.GetUnreadCount(ctx, 10)
	if err != nil || count != 0 {
		t.Errorf("unread after mark-all: got %d, err %v", count, err)
	}
	if repo.notifications[keep.ID].IsRead {
		t.Error("another user's notification was marked read")
	}
}

func TestDeleteNotification(t *testing.T) {
	t.Parallel()
	svc, repo := newFixture()
	ctx := context.Background()

	n := repo.add(10, domain.NotificationTeamInvite, false)
	other := repo.add(11, domain.NotificationTeamInvite, false)

	if err := svc.DeleteNotification(ctx, other.ID, 10); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Errorf("foreign delete: got %v, want ErrNotificationNotFound", err)
	}
	if err := svc.DeleteNotification(ctx, n.ID, 10); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.notifications[n.ID]; ok {
		t.Error("notification still present")
	}
	if _, ok := repo.notifications[other.ID]; !ok {
		t.Error("another user's notification was deleted")
	}
}
