package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"librarydesk/models"
)

// CreateNotification stores an in-app notification row. Identical pending
// messages for the same member are collapsed so a repeated scan does not
// fill the bell menu; the email channel stays at-least-once.
func (s *MySQLStore) CreateNotification(ctx context.Context, memberID, message string) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE member_id = ? AND message = ?",
		memberID, message).Scan(&count)
	if err != nil {
		return errors.Wrap(err, "check notification")
	}
	if count > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO notifications (member_id, message, is_read, created_at) VALUES (?, ?, FALSE, ?)",
		memberID, message, time.Now())
	if err != nil {
		return errors.Wrap(err, "insert notification")
	}
	return nil
}

func (s *MySQLStore) ListNotifications(ctx context.Context, memberID string) ([]models.Notification, error) {
	var notifs []models.Notification
	err := s.db.SelectContext(ctx, &notifs,
		"SELECT id, member_id, message, is_read, created_at FROM notifications WHERE member_id = ? ORDER BY created_at DESC",
		memberID)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	return notifs, nil
}

func (s *MySQLStore) MarkNotificationRead(ctx context.Context, memberID string, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = ? AND member_id = ?", id, memberID)
	return errors.Wrap(err, "mark notification read")
}
