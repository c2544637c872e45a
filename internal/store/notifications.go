package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) InsertNotification(ctx context.Context, item Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, profile_id, entity_type, entity_id, title, body, link_path, read)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), $8)
	`, item.ID, item.ProfileID, item.EntityType, item.EntityID, item.Title, item.Body, item.LinkPath, item.Read)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, profileID string, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, profile_id, entity_type, entity_id, title, COALESCE(body,''), COALESCE(link_path,''), read, created_at
		FROM notifications WHERE profile_id=$1`
	if unreadOnly {
		query += ` AND read=FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0)
	for rows.Next() {
		var item Notification
		if err := rows.Scan(&item.ID, &item.ProfileID, &item.EntityType, &item.EntityID, &item.Title,
			&item.Body, &item.LinkPath, &item.Read, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE id=$1`, notificationID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, profileID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE profile_id=$1`, profileID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
