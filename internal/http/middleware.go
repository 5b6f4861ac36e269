package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cashtrackr/internal/storage"
)

// authenticate verifies the bearer token and attaches the caller's identity
// to the request context. Every failure mode collapses into a plain 401 so
// the response does not leak whether the token was malformed, expired or
// belongs to a deleted account.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, value, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || value == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := s.tokens.VerifySession(value)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		identity, err := s.users.GetUserByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			respondInternal(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), *identity)))
	})
}

// requireBudget validates the budgetId route parameter, loads the budget and
// checks ownership before the handler runs. The ownership guard is wrapped by
// the loader here so a route can never mount one without the other.
func (s *Server) requireBudget(next http.Handler) http.Handler {
	return s.loadBudget(s.guardBudgetOwner(next))
}

func (s *Server) loadBudget(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ferr := parseRouteID(chi.URLParam(r, "budgetId"), "budgetId")
		if ferr != nil {
			respondValidation(w, []FieldError{*ferr})
			return
		}

		budget, err := s.budgets.GetBudget(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Budget not found")
				return
			}
			respondInternal(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withBudget(r.Context(), budget)))
	})
}

func (s *Server) guardBudgetOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		budget, bok := budgetFrom(r.Context())
		if !ok || !bok || budget.UserID != identity.ID {
			respondError(w, http.StatusUnauthorized, "Unauthorized action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireExpense validates the expenseId route parameter and loads the
// expense scoped to the budget already on the context. An expense that exists
// under a different budget is indistinguishable from one that does not exist.
func (s *Server) requireExpense(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ferr := parseRouteID(chi.URLParam(r, "expenseId"), "expenseId")
		if ferr != nil {
			respondValidation(w, []FieldError{*ferr})
			return
		}

		budget, ok := budgetFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized action")
			return
		}

		expense, err := s.expenses.GetExpense(r.Context(), id, budget.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondError(w, http.StatusNotFound, "Expense not found")
				return
			}
			respondInternal(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withExpense(r.Context(), expense)))
	})
}
