package http

import (
	"context"

	"cashtrackr/internal/core"
)

// ctxKey keeps request-scoped values typed and collision free: the budget
// and expense loaders can both run on one request without clobbering each
// other.
type ctxKey int

const (
	identityCtxKey ctxKey = iota
	budgetCtxKey
	expenseCtxKey
)

func withIdentity(ctx context.Context, ident core.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, ident)
}

func identityFrom(ctx context.Context) (core.Identity, bool) {
	ident, ok := ctx.Value(identityCtxKey).(core.Identity)
	return ident, ok
}

func withBudget(ctx context.Context, b *core.Budget) context.Context {
	return context.WithValue(ctx, budgetCtxKey, b)
}

func budgetFrom(ctx context.Context) (*core.Budget, bool) {
	b, ok := ctx.Value(budgetCtxKey).(*core.Budget)
	return b, ok
}

func withExpense(ctx context.Context, e *core.Expense) context.Context {
	return context.WithValue(ctx, expenseCtxKey, e)
}

func expenseFrom(ctx context.Context) (*core.Expense, bool) {
	e, ok := ctx.Value(expenseCtxKey).(*core.Expense)
	return e, ok
}
