package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *PostgresStore) ListTeamMembers(ctx context.Context) ([]TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, active, created_at FROM team_members ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	items := make([]TeamMember, 0)
	for rows.Next() {
		var item TeamMember
		if err := rows.Scan(&item.ID, &item.Name, &item.Email, &item.Role, &item.Active, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertTeamMember(ctx context.Context, item TeamMember) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (id, name, email, role, active)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.Name, item.Email, item.Role, item.Active)
	if err != nil {
		return fmt.Errorf("insert team member: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertTimeEntry(ctx context.Context, item TimeEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, team_member_id, client_id, task_id, hours, note, entry_date)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7)
	`, item.ID, item.TeamMemberID, item.ClientID, item.TaskID, item.Hours, item.Note, item.EntryDate)
	if err != nil {
		return fmt.Errorf("insert time entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTimeEntries(ctx context.Context, clientID string, limit int) ([]TimeEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	wb := &whereBuilder{}
	wb.eq("client_id", clientID)
	query := `
		SELECT id, team_member_id, client_id, task_id, hours, COALESCE(note,''), entry_date, created_at
		FROM time_entries` + wb.clause() + fmt.Sprintf(` ORDER BY entry_date DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	items := make([]TimeEntry, 0)
	for rows.Next() {
		var item TimeEntry
		if err := rows.Scan(&item.ID, &item.TeamMemberID, &item.ClientID, &item.TaskID,
			numeric{&item.Hours}, &item.Note, &item.EntryDate, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time entries: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetWorkspaceSettings(ctx context.Context) (WorkspaceSettings, error) {
	var item WorkspaceSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, default_currency, timezone, updated_at FROM workspace_settings LIMIT 1
	`).Scan(&item.ID, &item.Name, &item.DefaultCurrency, &item.Timezone, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return WorkspaceSettings{}, nil
	}
	if err != nil {
		return WorkspaceSettings{}, fmt.Errorf("get workspace settings: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpsertWorkspaceSettings(ctx context.Context, item WorkspaceSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspace_settings (id, name, default_currency, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, default_currency=EXCLUDED.default_currency,
			timezone=EXCLUDED.timezone, updated_at=NOW()
	`, item.ID, item.Name, item.DefaultCurrency, item.Timezone)
	if err != nil {
		return fmt.Errorf("upsert workspace settings: %w", err)
	}
	return nil
}
