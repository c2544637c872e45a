package store

import (
	"context"
	"fmt"
)

func (s *PostgresStore) ListRetainerTiers(ctx context.Context) ([]RetainerTier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, monthly_blogs, monthly_pages, monthly_campaigns, price_monthly
		FROM retainer_tiers ORDER BY price_monthly
	`)
	if err != nil {
		return nil, fmt.Errorf("list retainer tiers: %w", err)
	}
	defer rows.Close()

	items := make([]RetainerTier, 0)
	for rows.Next() {
		var item RetainerTier
		if err := rows.Scan(&item.ID, &item.Name, &item.MonthlyBlogs, &item.MonthlyPages,
			&item.MonthlyCampaigns, numeric{&item.PriceMonthly}); err != nil {
			return nil, fmt.Errorf("scan retainer tier: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retainer tiers: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertRetainerTier(ctx context.Context, item RetainerTier) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO retainer_tiers (id, name, monthly_blogs, monthly_pages, monthly_campaigns, price_monthly)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, item.ID, item.Name, item.MonthlyBlogs, item.MonthlyPages, item.MonthlyCampaigns, item.PriceMonthly)
	if err != nil {
		return fmt.Errorf("insert retainer tier: %w", err)
	}
	return nil
}

// UpsertRetainerUsage bumps a client's usage counters for one month.
func (s *PostgresStore) UpsertRetainerUsage(ctx context.Context, item RetainerUsage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO retainer_usage (id, client_id, month, blogs_used, pages_used, campaigns_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (client_id, month) DO UPDATE SET blogs_used=EXCLUDED.blogs_used,
			pages_used=EXCLUDED.pages_used, campaigns_used=EXCLUDED.campaigns_used
	`, item.ID, item.ClientID, item.Month, item.BlogsUsed, item.PagesUsed, item.CampaignsUsed)
	if err != nil {
		return fmt.Errorf("upsert retainer usage: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRetainerUsage(ctx context.Context, clientID, month string) (*RetainerUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, month, blogs_used, pages_used, campaigns_used
		FROM retainer_usage WHERE client_id=$1 AND month=$2
	`, clientID, month)
	if err != nil {
		return nil, fmt.Errorf("get retainer usage: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		// Absent usage is a valid empty state, not an error.
		return nil, rows.Err()
	}
	var item RetainerUsage
	if err := rows.Scan(&item.ID, &item.ClientID, &item.Month, &item.BlogsUsed, &item.PagesUsed, &item.CampaignsUsed); err != nil {
		return nil, fmt.Errorf("scan retainer usage: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) ListSLADefinitions(ctx context.Context) ([]SLADefinition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT content_type, total_days FROM sla_definitions ORDER BY content_type`)
	if err != nil {
		return nil, fmt.Errorf("list sla definitions: %w", err)
	}
	defer rows.Close()

	items := make([]SLADefinition, 0)
	for rows.Next() {
		var item SLADefinition
		if err := rows.Scan(&item.ContentType, &item.TotalDays); err != nil {
			return nil, fmt.Errorf("scan sla definition: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sla definitions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpsertSLADefinition(ctx context.Context, item SLADefinition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sla_definitions (content_type, total_days)
		VALUES ($1, $2)
		ON CONFLICT (content_type) DO UPDATE SET total_days=EXCLUDED.total_days
	`, item.ContentType, item.TotalDays)
	if err != nil {
		return fmt.Errorf("upsert sla definition: %w", err)
	}
	return nil
}
