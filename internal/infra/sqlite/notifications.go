package sqlite

import (
	"fmt"
	"time"

	"github.com/habitloop/habitloop/internal/domain"
)

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification creates a new notification.
func (d *DB) InsertNotification(n domain.Notification) (int64, error) {
	result, err := d.db.Exec(
		`INSERT INTO notifications (type, title, body, created_at, shown)
		 VALUES (?, ?, ?, ?, ?)`,
		string(n.Type), n.Title, n.Body, n.CreatedAt.Unix(), n.Shown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// NotificationCountSince returns how many notifications of the given types
// were created at or after since. No types means all types.
func (d *DB) NotificationCountSince(since time.Time, types ...domain.NotificationType) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE created_at >= ?`
	args := []any{since.Unix()}
	if len(types) > 0 {
		query += ` AND type IN (?` + repeatPlaceholder(len(types)-1) + `)`
		for _, t := range types {
			args = append(args, string(t))
		}
	}

	var count int
	err := d.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

// ListPendingNotifications returns unshown notifications, newest first.
func (d *DB) ListPendingNotifications(limit int) ([]domain.Notification, error) {
	rows, err := d.db.Query(
		`SELECT id, type, title, body, created_at, shown
		 FROM notifications WHERE shown = 0 ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, *n)
	}
	return notifs, rows.Err()
}

// MarkNotificationShown marks a notification as shown. Marking one twice is
// fine; an unknown id is ErrNotificationNotFound.
func (d *DB) MarkNotificationShown(id int64) error {
	result, err := d.db.Exec(`UPDATE notifications SET shown = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrNotificationNotFound, id)
	}
	return nil
}

func scanNotification(s scanner) (*domain.Notification, error) {
	var n domain.Notification
	var createdAt int64
	if err := s.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &createdAt, &n.Shown); err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(createdAt, 0)
	return &n, nil
}

func repeatPlaceholder(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ", ?"
	}
	return s
}
