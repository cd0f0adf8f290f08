package repository

import (
	"context"
	"fmt"

	"github.com/planora/planora-backend/internal/domain"
	"github.com/planora/planora-backend/pkg/database"
)

type NotificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = "id, user_id, type, title, message, payload, is_read, created_at"

// Create inserts an unread notification. Producers call this inside the
// transaction of the mutation that triggered it, so a rollback takes the
// notification with it.
func (r *NotificationRepository) Create(ctx context.Context, n domain.Notification) (*domain.Notification, error) {
	conn := r.db.Conn(ctx)

	payload := n.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	var out domain.Notification
	err := conn.QueryRowContext(ctx,
		"INSERT INTO notifications (user_id, type, title, message, payload) VALUES ($1, $2, $3, $4, $5) RETURNING "+notificationColumns,
		n.UserID, n.Type, n.Title, n.Message, payload,
	).Scan(&out.ID, &out.UserID, &out.Type, &out.Title, &out.Message, &out.Payload, &out.IsRead, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	return &out, nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, notificationID int64) (*domain.Notification, error) {
	conn := r.db.Conn(ctx)

	var n domain.Notification
	err := conn.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = $1",
		notificationID,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Payload, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &n, nil
}

// ListByUser returns the newest notifications first. A non-nil isRead
// narrows the page to read or unread entries.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int, isRead *bool) ([]domain.Notification, error) {
	conn := r.db.Conn(ctx)

	query := "SELECT " + notificationColumns + ` FROM notifications
		WHERE user_id = $1 AND ($2::boolean IS NULL OR is_read = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`
	rows, err := conn.QueryContext(ctx, query, userID, isRead, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Payload, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return list, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	conn := r.db.Conn(ctx)

	var count int
	err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead reports false when the notification does not exist or belongs
// to another user.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID int64) (bool, error) {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2",
		notificationID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check marked rows: %w", err)
	}
	return affected > 0, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read",
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// Delete reports false when the notification does not exist or belongs
// to another user.
func (r *NotificationRepository) Delete(ctx context.Context, notificationID, userID int64) (bool, error) {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx,
		"DELETE FROM notifications WHERE id = $1 AND user_id = $2",
		notificationID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check deleted rows: %w", err)
	}
	return affected > 0, nil
}
