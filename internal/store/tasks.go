package store

import (
	"context"
	"fmt"
)

type TaskPatch struct {
	Name          *string
	ClientID      *string
	DeliverableID *string
	Assignee      *string
	Category      *string
	Status        *string
	DueDate       *string
	Notes         *string
}

func (p TaskPatch) patch() *rowPatch {
	rp := &rowPatch{}
	rp.setText("name", p.Name)
	rp.setNullText("client_id", p.ClientID)
	rp.setNullText("deliverable_id", p.DeliverableID)
	rp.setNullText("assignee", p.Assignee)
	rp.setNullText("category", p.Category)
	rp.setText("status", p.Status)
	rp.setDate("due_date", p.DueDate)
	rp.setNullText("notes", p.Notes)
	return rp
}

const taskColumns = `id, code, client_id, deliverable_id, name, COALESCE(assignee,''),
	COALESCE(category,''), status, due_date, COALESCE(notes,''), created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var item Task
	err := row.Scan(
		&item.ID,
		&item.Code,
		&item.ClientID,
		&item.DeliverableID,
		&item.Name,
		&item.Assignee,
		&item.Category,
		&item.Status,
		&item.DueDate,
		&item.Notes,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	wb := &whereBuilder{}
	wb.eq("client_id", filter.ClientID)
	wb.eq("assignee", filter.Assignee)
	wb.eq("status", filter.Status)
	wb.eq("category", filter.Category)

	query := `SELECT ` + taskColumns + ` FROM tasks` + wb.clause() + ` ORDER BY due_date NULLS LAST, created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, wb.args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]Task, 0)
	for rows.Next() {
		item, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, taskID string) (Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, taskID)
	return scanTask(row)
}

func (s *PostgresStore) InsertTask(ctx context.Context, item Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, code, client_id, deliverable_id, name, assignee, category, status, due_date, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), $8, $9, NULLIF($10,''))
	`, item.ID, item.Code, item.ClientID, item.DeliverableID, item.Name, item.Assignee,
		item.Category, item.Status, nullTime{item.DueDate}, item.Notes)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) error {
	rp := patch.patch()
	if rp.empty() {
		return nil
	}
	clause, args := rp.clause(2)
	query := `UPDATE tasks SET ` + clause + `, updated_at=NOW() WHERE id=$1`
	if _, err := s.db.ExecContext(ctx, query, append([]any{taskID}, args...)...); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=$1`, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
