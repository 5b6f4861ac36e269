package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cashtrackr/internal/core"
)

func (r *Repository) CreateBudget(ctx context.Context, b *core.Budget) error {
	query := `INSERT INTO budgets (name, amount_cents, user_id)
	          VALUES (?, ?, ?)
	          RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, b.Name, b.Amount.Cents, b.UserID).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"budget_id", b.ID, "user_id", b.UserID, "amount_cents", b.Amount.Cents)
	return nil
}

// ListBudgets returns the caller's budgets, newest first.
func (r *Repository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	query := `SELECT id, name, amount_cents, user_id, created_at, updated_at
	          FROM budgets WHERE user_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.UserID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *Repository) GetBudget(ctx context.Context, id int64) (*core.Budget, error) {
	query := `SELECT id, name, amount_cents, user_id, created_at, updated_at
	          FROM budgets WHERE id = ?`

	b := &core.Budget{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.Name, &b.Amount.Cents, &b.UserID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select budget: %w", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b *core.Budget) error {
	query := `UPDATE budgets SET name = ?, amount_cents = ?, updated_at = CURRENT_TIMESTAMP
	          WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, b.Name, b.Amount.Cents, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBudget removes the budget; its expenses go with it via the
// foreign-key cascade.
func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Budget deleted", "budget_id", id)
	return nil
}
