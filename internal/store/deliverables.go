package store

import (
	"context"
	"fmt"
)

type DeliverablePatch struct {
	Name           *string
	ServiceType    *string
	Priority       *string
	Status         *string
	DueDate        *string
	DeliveryDate   *string
	ClientApproved *bool
	Notes          *string
}

func (p DeliverablePatch) patch() *rowPatch {
	rp := &rowPatch{}
	rp.setText("name", p.Name)
	rp.setNullText("service_type", p.ServiceType)
	rp.setText("priority", p.Priority)
	rp.setText("status", p.Status)
	rp.setDate("due_date", p.DueDate)
	rp.setDate("delivery_date", p.DeliveryDate)
	rp.setBool("client_approved", p.ClientApproved)
	rp.setNullText("notes", p.Notes)
	return rp
}

const deliverableColumns = `id, code, client_id, name, COALESCE(service_type,''), priority, status,
	due_date, delivery_date, client_approved, COALESCE(notes,''), created_at, updated_at`

func scanDeliverable(row interface{ Scan(...any) error }) (Deliverable, error) {
	var item Deliverable
	err := row.Scan(
		&item.ID,
		&item.Code,
		&item.ClientID,
		&item.Name,
		&item.ServiceType,
		&item.Priority,
		&item.Status,
		&item.DueDate,
		&item.DeliveryDate,
		&item.ClientApproved,
		&item.Notes,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListDeliverables(ctx context.Context, filter DeliverableFilter) ([]Deliverable, error) {
	wb := &whereBuilder{}
	wb.eq("client_id", filter.ClientID)
	wb.eq("status", filter.Status)
	wb.eq("priority", filter.Priority)

	query := `SELECT ` + deliverableColumns + ` FROM deliverables` + wb.clause() + ` ORDER BY due_date NULLS LAST, created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	defer rows.Close()

	items := make([]Deliverable, 0)
	for rows.Next() {
		item, err := scanDeliverable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deliverable: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliverables: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDeliverable(ctx context.Context, deliverableID string) (Deliverable, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+deliverableColumns+` FROM deliverables WHERE id=$1`, deliverableID)
	return scanDeliverable(row)
}

func (s *PostgresStore) InsertDeliverable(ctx context.Context, item Deliverable) error {
	if item.ClientID == "" {
		return fmt.Errorf("insert deliverable: client id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliverables (id, code, client_id, name, service_type, priority, status,
			due_date, delivery_date, client_approved, notes)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7, $8, $9, $10, NULLIF($11,''))
	`, item.ID, item.Code, item.ClientID, item.Name, item.ServiceType, item.Priority, item.Status,
		nullTime{item.DueDate}, nullTime{item.DeliveryDate}, item.ClientApproved, item.Notes)
	if err != nil {
		return fmt.Errorf("insert deliverable: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDeliverable(ctx context.Context, deliverableID string, patch DeliverablePatch) error {
	rp := patch.patch()
	if rp.empty() {
		return nil
	}
	clause, args := rp.clause(2)
	query := `UPDATE deliverables SET ` + clause + `, updated_at=NOW() WHERE id=$1`
	if _, err := s.db.ExecContext(ctx, query, append([]any{deliverableID}, args...)...); err != nil {
		return fmt.Errorf("update deliverable: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteDeliverable(ctx context.Context, deliverableID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM deliverables WHERE id=$1`, deliverableID); err != nil {
		return fmt.Errorf("delete deliverable: %w", err)
	}
	return nil
}
