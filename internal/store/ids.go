package store

import (
	"context"
	"fmt"
)

// Human-readable entity codes (CLT-0001, DLV-0001, ...) come from server-side
// sequence functions so concurrent inserts never collide.

func (s *PostgresStore) GenerateClientCode(ctx context.Context) (string, error) {
	return s.generateCode(ctx, "generate_client_id")
}

func (s *PostgresStore) GenerateDeliverableCode(ctx context.Context) (string, error) {
	return s.generateCode(ctx, "generate_deliverable_id")
}

func (s *PostgresStore) GenerateInvoiceCode(ctx context.Context) (string, error) {
	return s.generateCode(ctx, "generate_invoice_id")
}

func (s *PostgresStore) GenerateTaskCode(ctx context.Context) (string, error) {
	return s.generateCode(ctx, "generate_task_id")
}

func (s *PostgresStore) generateCode(ctx context.Context, fn string) (string, error) {
	var code string
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s()`, fn)).Scan(&code); err != nil {
		return "", fmt.Errorf("%s: %w", fn, err)
	}
	return code, nil
}
