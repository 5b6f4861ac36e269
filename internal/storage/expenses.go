package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cashtrackr/internal/core"
)

func (r *Repository) CreateExpense(ctx context.Context, e *core.Expense) error {
	query := `INSERT INTO expenses (name, amount_cents, budget_id)
	          VALUES (?, ?, ?)
	          RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, e.Name, e.Amount.Cents, e.BudgetID).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense created",
		"expense_id", e.ID, "budget_id", e.BudgetID, "amount_cents", e.Amount.Cents)
	return nil
}

// GetExpense looks up an expense scoped to its parent budget. An existing
// expense under a different budget is ErrNotFound, not a permission error.
func (r *Repository) GetExpense(ctx context.Context, id, budgetID int64) (*core.Expense, error) {
	query := `SELECT id, name, amount_cents, budget_id, created_at, updated_at
	          FROM expenses WHERE id = ? AND budget_id = ?`

	e := &core.Expense{}
	err := r.db.QueryRowContext(ctx, query, id, budgetID).
		Scan(&e.ID, &e.Name, &e.Amount.Cents, &e.BudgetID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select expense: %w", err)
	}
	return e, nil
}

func (r *Repository) ListExpenses(ctx context.Context, budgetID int64) ([]core.Expense, error) {
	query := `SELECT id, name, amount_cents, budget_id, created_at, updated_at
	          FROM expenses WHERE budget_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount.Cents, &e.BudgetID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *Repository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	query := `UPDATE expenses SET name = ?, amount_cents = ?, updated_at = CURRENT_TIMESTAMP
	          WHERE id = ? AND budget_id = ?`

	res, err := r.db.ExecContext(ctx, query, e.Name, e.Amount.Cents, e.ID, e.BudgetID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id, budgetID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND budget_id = ?`, id, budgetID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Expense deleted", "expense_id", id, "budget_id", budgetID)
	return nil
}
