package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type ContentPatch struct {
	Title       *string
	ClientID    *string
	ContentType *string
	Platform    *string
	Status      *string
	Body        *string
}

func (p ContentPatch) patch() *rowPatch {
	rp := &rowPatch{}
	rp.setText("title", p.Title)
	rp.setNullText("client_id", p.ClientID)
	rp.setText("content_type", p.ContentType)
	rp.setNullText("platform", p.Platform)
	rp.setText("status", p.Status)
	rp.setNullText("body", p.Body)
	return rp
}

const contentColumns = `id, client_id, title, content_type, COALESCE(platform,''), status,
	COALESCE(body,''), created_at, updated_at`

func scanContentItem(row interface{ Scan(...any) error }) (ContentItem, error) {
	var item ContentItem
	err := row.Scan(
		&item.ID,
		&item.ClientID,
		&item.Title,
		&item.ContentType,
		&item.Platform,
		&item.Status,
		&item.Body,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListContentItems(ctx context.Context, filter ContentFilter) ([]ContentItem, error) {
	wb := &whereBuilder{}
	wb.eq("client_id", filter.ClientID)
	wb.eq("status", filter.Status)
	wb.eq("content_type", filter.ContentType)
	wb.eq("platform", filter.Platform)

	query := `SELECT ` + contentColumns + ` FROM content_items` + wb.clause() + ` ORDER BY updated_at DESC`
	rows, err := s.db.QueryContext(ctx, query, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	items := make([]ContentItem, 0)
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetContentItem(ctx context.Context, contentID string) (ContentItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE id=$1`, contentID)
	return scanContentItem(row)
}

func (s *PostgresStore) InsertContentItem(ctx context.Context, item ContentItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_items (id, client_id, title, content_type, platform, status, body)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, NULLIF($7,''))
	`, item.ID, item.ClientID, item.Title, item.ContentType, item.Platform, item.Status, item.Body)
	if err != nil {
		return fmt.Errorf("insert content item: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateContentItem(ctx context.Context, contentID string, patch ContentPatch) error {
	rp := patch.patch()
	if rp.empty() {
		return nil
	}
	clause, args := rp.clause(2)
	query := `UPDATE content_items SET ` + clause + `, updated_at=NOW() WHERE id=$1`
	if _, err := s.db.ExecContext(ctx, query, append([]any{contentID}, args...)...); err != nil {
		return fmt.Errorf("update content item: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteContentItem(ctx context.Context, contentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM content_items WHERE id=$1`, contentID); err != nil {
		return fmt.Errorf("delete content item: %w", err)
	}
	return nil
}

// Quality scores and performance rows are 1:1 children keyed by the content
// item; writes upsert on the parent id.

func (s *PostgresStore) GetQualityScore(ctx context.Context, contentID string) (*QualityScore, error) {
	var item QualityScore
	err := s.db.QueryRowContext(ctx, `
		SELECT content_id, score, COALESCE(notes,''), updated_at
		FROM quality_scores WHERE content_id=$1
	`, contentID).Scan(&item.ContentID, &item.Score, &item.Notes, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quality score: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) UpsertQualityScore(ctx context.Context, item QualityScore) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quality_scores (content_id, score, notes)
		VALUES ($1, $2, NULLIF($3,''))
		ON CONFLICT (content_id) DO UPDATE SET score=EXCLUDED.score, notes=EXCLUDED.notes, updated_at=NOW()
	`, item.ContentID, item.Score, item.Notes)
	if err != nil {
		return fmt.Errorf("upsert quality score: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetContentPerformance(ctx context.Context, contentID string) (*ContentPerformance, error) {
	var item ContentPerformance
	err := s.db.QueryRowContext(ctx, `
		SELECT content_id, views, clicks, engagement, updated_at
		FROM content_performance WHERE content_id=$1
	`, contentID).Scan(&item.ContentID, &item.Views, &item.Clicks, numeric{&item.Engagement}, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content performance: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) UpsertContentPerformance(ctx context.Context, item ContentPerformance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_performance (content_id, views, clicks, engagement)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_id) DO UPDATE SET views=EXCLUDED.views, clicks=EXCLUDED.clicks,
			engagement=EXCLUDED.engagement, updated_at=NOW()
	`, item.ContentID, item.Views, item.Clicks, item.Engagement)
	if err != nil {
		return fmt.Errorf("upsert content performance: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertContentVersion(ctx context.Context, item ContentVersion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_versions (id, content_id, version, body, created_by)
		VALUES ($1, $2, (SELECT COALESCE(MAX(version),0)+1 FROM content_versions WHERE content_id=$2), $3, $4)
	`, item.ID, item.ContentID, item.Body, item.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert content version: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListContentVersions(ctx context.Context, contentID string) ([]ContentVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_id, version, body, COALESCE(created_by,''), created_at
		FROM content_versions WHERE content_id=$1 ORDER BY version DESC
	`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list content versions: %w", err)
	}
	defer rows.Close()

	items := make([]ContentVersion, 0)
	for rows.Next() {
		var item ContentVersion
		if err := rows.Scan(&item.ID, &item.ContentID, &item.Version, &item.Body, &item.CreatedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan content version: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content versions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertContentReview(ctx context.Context, item ContentReview) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_reviews (id, content_id, decision, note, reviewer)
		VALUES ($1, $2, $3, NULLIF($4,''), $5)
	`, item.ID, item.ContentID, item.Decision, item.Note, item.Reviewer)
	if err != nil {
		return fmt.Errorf("insert content review: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListContentReviews(ctx context.Context, contentID string) ([]ContentReview, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_id, decision, COALESCE(note,''), reviewer, created_at
		FROM content_reviews WHERE content_id=$1 ORDER BY created_at DESC
	`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list content reviews: %w", err)
	}
	defer rows.Close()

	items := make([]ContentReview, 0)
	for rows.Next() {
		var item ContentReview
		if err := rows.Scan(&item.ID, &item.ContentID, &item.Decision, &item.Note, &item.Reviewer, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan content review: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content reviews: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertContentRequest(ctx context.Context, item ContentRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_requests (id, client_id, request_type, brief, status)
		VALUES ($1, $2, $3, $4, $5)
	`, item.ID, item.ClientID, item.RequestType, item.Brief, item.Status)
	if err != nil {
		return fmt.Errorf("insert content request: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListContentRequests(ctx context.Context, clientID string) ([]ContentRequest, error) {
	wb := &whereBuilder{}
	wb.eq("client_id", clientID)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, request_type, brief, status, created_at
		FROM content_requests`+wb.clause()+` ORDER BY created_at DESC
	`, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("list content requests: %w", err)
	}
	defer rows.Close()

	items := make([]ContentRequest, 0)
	for rows.Next() {
		var item ContentRequest
		if err := rows.Scan(&item.ID, &item.ClientID, &item.RequestType, &item.Brief, &item.Status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan content request: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content requests: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateContentRequestStatus(ctx context.Context, requestID, status string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE content_requests SET status=$2 WHERE id=$1`, requestID, status); err != nil {
		return fmt.Errorf("update content request status: %w", err)
	}
	return nil
}
