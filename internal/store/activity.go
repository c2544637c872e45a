package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) InsertActivityLog(ctx context.Context, item ActivityLog) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO activity_logs (entity_type, entity_id, action, actor, detail, link_path)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''))
		RETURNING id
	`, item.EntityType, item.EntityID, item.Action, item.Actor, item.Detail, item.LinkPath).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert activity log: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListActivityLogs(ctx context.Context, limit int) ([]ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, action, actor, COALESCE(detail,''), COALESCE(link_path,''), created_at
		FROM activity_logs ORDER BY created_at DESC, id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	items := make([]ActivityLog, 0)
	for rows.Next() {
		var item ActivityLog
		if err := rows.Scan(&item.ID, &item.EntityType, &item.EntityID, &item.Action, &item.Actor,
			&item.Detail, &item.LinkPath, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity logs: %w", err)
	}
	return items, nil
}
