package store

import (
	"context"
	"fmt"
)

type InvoicePatch struct {
	Month       *string
	Amount      *float64
	Currency    *string
	Status      *string
	PaymentDate *string
}

func (p InvoicePatch) patch() *rowPatch {
	rp := &rowPatch{}
	rp.setText("month", p.Month)
	rp.setNumber("amount", p.Amount)
	rp.setText("currency", p.Currency)
	rp.setText("status", p.Status)
	rp.setDate("payment_date", p.PaymentDate)
	return rp
}

const invoiceColumns = `id, code, client_id, month, amount, currency, status, payment_date, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (Invoice, error) {
	var item Invoice
	err := row.Scan(
		&item.ID,
		&item.Code,
		&item.ClientID,
		&item.Month,
		numeric{&item.Amount},
		&item.Currency,
		&item.Status,
		&item.PaymentDate,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	wb := &whereBuilder{}
	wb.eq("client_id", filter.ClientID)
	wb.eq("status", filter.Status)
	wb.eq("month", filter.Month)

	query := `SELECT ` + invoiceColumns + ` FROM invoices` + wb.clause() + ` ORDER BY month DESC, created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	items := make([]Invoice, 0)
	for rows.Next() {
		item, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetInvoice(ctx context.Context, invoiceID string) (Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, invoiceID)
	return scanInvoice(row)
}

func (s *PostgresStore) InsertInvoice(ctx context.Context, item Invoice) error {
	if item.Amount <= 0 {
		return fmt.Errorf("insert invoice: amount must be positive")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, code, client_id, month, amount, currency, status, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, item.Code, item.ClientID, item.Month, item.Amount, item.Currency, item.Status, nullTime{item.PaymentDate})
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateInvoice(ctx context.Context, invoiceID string, patch InvoicePatch) error {
	rp := patch.patch()
	if rp.empty() {
		return nil
	}
	clause, args := rp.clause(2)
	query := `UPDATE invoices SET ` + clause + `, updated_at=NOW() WHERE id=$1`
	if _, err := s.db.ExecContext(ctx, query, append([]any{invoiceID}, args...)...); err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteInvoice(ctx context.Context, invoiceID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id=$1`, invoiceID); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}
