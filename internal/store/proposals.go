package store

import (
	"context"
	"fmt"
)

type ProposalPatch struct {
	Title    *string
	Amount   *float64
	Currency *string
	Status   *string
	SentAt   *string
}

func (p ProposalPatch) patch() *rowPatch {
	rp := &rowPatch{}
	rp.setText("title", p.Title)
	rp.setNumber("amount", p.Amount)
	rp.setText("currency", p.Currency)
	rp.setText("status", p.Status)
	rp.setDate("sent_at", p.SentAt)
	return rp
}

const proposalColumns = `id, client_id, title, amount, currency, status, sent_at, created_at, updated_at`

func scanProposal(row interface{ Scan(...any) error }) (Proposal, error) {
	var item Proposal
	err := row.Scan(
		&item.ID,
		&item.ClientID,
		&item.Title,
		numeric{&item.Amount},
		&item.Currency,
		&item.Status,
		&item.SentAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListProposals(ctx context.Context, filter ProposalFilter) ([]Proposal, error) {
	wb := &whereBuilder{}
	wb.eq("client_id", filter.ClientID)
	wb.eq("status", filter.Status)

	query := `SELECT ` + proposalColumns + ` FROM proposals` + wb.clause() + ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	items := make([]Proposal, 0)
	for rows.Next() {
		item, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProposal(ctx context.Context, proposalID string) (Proposal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id=$1`, proposalID)
	return scanProposal(row)
}

func (s *PostgresStore) InsertProposal(ctx context.Context, item Proposal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proposals (id, client_id, title, amount, currency, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, item.ID, item.ClientID, item.Title, item.Amount, item.Currency, item.Status, nullTime{item.SentAt})
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProposal(ctx context.Context, proposalID string, patch ProposalPatch) error {
	rp := patch.patch()
	if rp.empty() {
		return nil
	}
	clause, args := rp.clause(2)
	query := `UPDATE proposals SET ` + clause + `, updated_at=NOW() WHERE id=$1`
	if _, err := s.db.ExecContext(ctx, query, append([]any{proposalID}, args...)...); err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteProposal(ctx context.Context, proposalID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM proposals WHERE id=$1`, proposalID); err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	return nil
}
