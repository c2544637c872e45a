package store

import (
	"context"
	"fmt"
	"time"
)

const profileColumns = `id, display_name, email, password_hash, role, deactivated_at, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var item Profile
	err := row.Scan(
		&item.ID,
		&item.DisplayName,
		&item.Email,
		&item.PasswordHash,
		&item.Role,
		&item.DeactivatedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE LOWER(email)=LOWER($1)`, email)
	return scanProfile(row)
}

func (s *PostgresStore) GetProfileByID(ctx context.Context, profileID string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, profileID)
	return scanProfile(row)
}

func (s *PostgresStore) CreateProfile(ctx context.Context, item Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.DisplayName, item.Email, item.PasswordHash, item.Role)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProfilePassword(ctx context.Context, profileID, passwordHash string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, profileID, passwordHash); err != nil {
		return fmt.Errorf("update profile password: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	items := make([]Profile, 0)
	for rows.Next() {
		item, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return items, nil
}

// Refresh sessions fall back to Postgres when Redis is not configured.

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, profileID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, profile_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET profile_id=EXCLUDED.profile_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, profileID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (Profile, error) {
	const query = `
		SELECT p.id, p.display_name, p.email, p.password_hash, p.role, p.deactivated_at, p.created_at, p.updated_at
		FROM refresh_sessions rs
		JOIN profiles p ON p.id = rs.profile_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	row := s.db.QueryRowContext(ctx, query, tokenHash)
	return scanProfile(row)
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
