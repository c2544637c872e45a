package store

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ClientPatch carries partial-update form values. Nil fields are not touched;
// empty-string optionals become NULL.
type ClientPatch struct {
	Name          *string
	Market        *string
	Industry      *string
	PlanTier      *string
	Status        *string
	MonthlyValue  *float64
	ContractStart *string
	ContractEnd   *string
	PipelineStage *string
	ContactName   *string
	ContactEmail  *string
}

func (p ClientPatch) patch() *rowPatch {
	rp := &rowPatch{}
	rp.setText("name", p.Name)
	rp.setText("market", p.Market)
	rp.setNullText("industry", p.Industry)
	rp.setText("plan_tier", p.PlanTier)
	rp.setText("status", p.Status)
	rp.setNumber("monthly_value", p.MonthlyValue)
	rp.setDate("contract_start", p.ContractStart)
	rp.setDate("contract_end", p.ContractEnd)
	rp.setText("pipeline_stage", p.PipelineStage)
	rp.setNullText("contact_name", p.ContactName)
	rp.setNullText("contact_email", p.ContactEmail)
	return rp
}

const clientColumns = `id, code, name, market, COALESCE(industry,''), plan_tier, status,
	monthly_value, contract_start, contract_end, pipeline_stage,
	COALESCE(contact_name,''), COALESCE(contact_email,''), created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (Client, error) {
	var item Client
	err := row.Scan(
		&item.ID,
		&item.Code,
		&item.Name,
		&item.Market,
		&item.Industry,
		&item.PlanTier,
		&item.Status,
		numeric{&item.MonthlyValue},
		&item.ContractStart,
		&item.ContractEnd,
		&item.PipelineStage,
		&item.ContactName,
		&item.ContactEmail,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListClients(ctx context.Context, filter ClientFilter) ([]Client, error) {
	wb := &whereBuilder{}
	wb.eq("market", filter.Market)
	wb.eq("status", filter.Status)
	wb.eq("plan_tier", filter.PlanTier)
	wb.eq("pipeline_stage", filter.PipelineStage)

	query := `SELECT ` + clientColumns + ` FROM clients` + wb.clause() + ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	items := make([]Client, 0)
	for rows.Next() {
		item, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetClient(ctx context.Context, clientID string) (Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, clientID)
	return scanClient(row)
}

func (s *PostgresStore) InsertClient(ctx context.Context, item Client) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, code, name, market, industry, plan_tier, status,
			monthly_value, contract_start, contract_end, pipeline_stage, contact_name, contact_email)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7, $8, $9, $10, $11, NULLIF($12,''), NULLIF($13,''))
	`, item.ID, item.Code, item.Name, item.Market, item.Industry, item.PlanTier, item.Status,
		item.MonthlyValue, nullTime{item.ContractStart}, nullTime{item.ContractEnd},
		item.PipelineStage, item.ContactName, item.ContactEmail)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateClient(ctx context.Context, clientID string, patch ClientPatch) error {
	rp := patch.patch()
	if rp.empty() {
		return nil
	}
	clause, args := rp.clause(2)
	query := `UPDATE clients SET ` + clause + `, updated_at=NOW() WHERE id=$1`
	if _, err := s.db.ExecContext(ctx, query, append([]any{clientID}, args...)...); err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateClientStage(ctx context.Context, clientID, stage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE clients SET pipeline_stage=$2, updated_at=NOW() WHERE id=$1
	`, clientID, stage)
	if err != nil {
		return fmt.Errorf("update client stage: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteClient(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, clientID); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}
