package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *PostgresStore) InsertPortalAccess(ctx context.Context, item PortalAccess) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portal_access (id, client_id, token_hash, contact_name, contact_email, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (client_id) DO UPDATE SET token_hash=EXCLUDED.token_hash,
			contact_name=EXCLUDED.contact_name, contact_email=EXCLUDED.contact_email, active=EXCLUDED.active
	`, item.ID, item.ClientID, item.TokenHash, item.ContactName, item.ContactEmail, item.Active)
	if err != nil {
		return fmt.Errorf("insert portal access: %w", err)
	}
	return nil
}

// GetPortalAccessByTokenHash resolves an active portal grant; an inactive or
// unknown token reads as not found.
func (s *PostgresStore) GetPortalAccessByTokenHash(ctx context.Context, tokenHash string) (*PortalAccess, error) {
	var item PortalAccess
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, token_hash, contact_name, contact_email, active, created_at, last_used_at
		FROM portal_access WHERE token_hash=$1 AND active=TRUE
	`, tokenHash).Scan(&item.ID, &item.ClientID, &item.TokenHash, &item.ContactName,
		&item.ContactEmail, &item.Active, &item.CreatedAt, &item.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup portal access: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) GetActivePortalAccessByClient(ctx context.Context, clientID string) (*PortalAccess, error) {
	var item PortalAccess
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, token_hash, contact_name, contact_email, active, created_at, last_used_at
		FROM portal_access WHERE client_id=$1 AND active=TRUE
	`, clientID).Scan(&item.ID, &item.ClientID, &item.TokenHash, &item.ContactName,
		&item.ContactEmail, &item.Active, &item.CreatedAt, &item.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup portal access by client: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) GetPortalAccess(ctx context.Context, portalAccessID string) (*PortalAccess, error) {
	var item PortalAccess
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, token_hash, contact_name, contact_email, active, created_at, last_used_at
		FROM portal_access WHERE id=$1
	`, portalAccessID).Scan(&item.ID, &item.ClientID, &item.TokenHash, &item.ContactName,
		&item.ContactEmail, &item.Active, &item.CreatedAt, &item.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get portal access: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) TouchPortalAccess(ctx context.Context, portalAccessID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE portal_access SET last_used_at=NOW() WHERE id=$1`, portalAccessID); err != nil {
		return fmt.Errorf("touch portal access: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetPortalAccessActive(ctx context.Context, portalAccessID string, active bool) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE portal_access SET active=$2 WHERE id=$1`, portalAccessID, active); err != nil {
		return fmt.Errorf("set portal access active: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertPortalMessage(ctx context.Context, item PortalMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portal_messages (id, client_id, sender, sender_name, body)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.ClientID, item.Sender, item.SenderName, item.Body)
	if err != nil {
		return fmt.Errorf("insert portal message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPortalMessages(ctx context.Context, clientID string, limit int) ([]PortalMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, sender, sender_name, body, created_at
		FROM portal_messages WHERE client_id=$1 ORDER BY created_at DESC LIMIT $2
	`, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list portal messages: %w", err)
	}
	defer rows.Close()

	items := make([]PortalMessage, 0)
	for rows.Next() {
		var item PortalMessage
		if err := rows.Scan(&item.ID, &item.ClientID, &item.Sender, &item.SenderName, &item.Body, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan portal message: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portal messages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertPortalFile(ctx context.Context, item PortalFile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portal_files (id, client_id, file_name, file_type, size_bytes, storage_key, uploaded_by)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7)
	`, item.ID, item.ClientID, item.FileName, item.FileType, item.SizeBytes, item.StorageKey, item.UploadedBy)
	if err != nil {
		return fmt.Errorf("insert portal file: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPortalFiles(ctx context.Context, clientID string) ([]PortalFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, file_name, COALESCE(file_type,''), size_bytes, storage_key, uploaded_by, created_at
		FROM portal_files WHERE client_id=$1 ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list portal files: %w", err)
	}
	defer rows.Close()

	items := make([]PortalFile, 0)
	for rows.Next() {
		var item PortalFile
		if err := rows.Scan(&item.ID, &item.ClientID, &item.FileName, &item.FileType,
			&item.SizeBytes, &item.StorageKey, &item.UploadedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan portal file: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portal files: %w", err)
	}
	return items, nil
}
