package store

import (
	"context"

	"github.com/google/uuid"

	"moneybot/internal/models"
)

// SaveNotification records a notification for its user.
func (s *SQLiteStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}

	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, message, alert_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, string(n.Kind), n.Title, n.Message, n.AlertID, n.CreatedAt.UTC())
	if err != nil {
		return persistErr("save_notification", err)
	}
	return nil
}

// ListNotifications returns the user's latest notifications, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, user_id, kind, title, message, alert_id, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, persistErr("list_notifications", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var (
			n    models.Notification
			kind string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.Title, &n.Message, &n.AlertID, &n.CreatedAt); err != nil {
			return nil, persistErr("list_notifications", err)
		}
		n.Kind = models.NotificationKind(kind)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list_notifications", err)
	}
	return out, nil
}
