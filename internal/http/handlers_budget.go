package http

import (
	"net/http"

	"cashtrackr/internal/core"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	budgets, err := s.budgets.ListBudgets(r.Context(), identity.ID)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	respondJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req budgetRequest
	if !readBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	budget := &core.Budget{
		Name:   req.Name,
		Amount: req.amount,
		UserID: identity.ID,
	}
	if err := s.budgets.CreateBudget(r.Context(), budget); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Budget created successfully")
}

// budgetWithExpenses is the detail view: the budget plus its expenses.
type budgetWithExpenses struct {
	core.Budget
	Expenses []core.Expense `json:"expenses"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	budget, ok := budgetFrom(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "Budget not found")
		return
	}

	expenses, err := s.expenses.ListExpenses(r.Context(), budget.ID)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, budgetWithExpenses{Budget: *budget, Expenses: expenses})
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	budget, ok := budgetFrom(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "Budget not found")
		return
	}

	var req budgetRequest
	if !readBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	budget.Name = req.Name
	budget.Amount = req.amount
	if err := s.budgets.UpdateBudget(r.Context(), budget); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Budget updated successfully")
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	budget, ok := budgetFrom(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "Budget not found")
		return
	}

	if err := s.budgets.DeleteBudget(r.Context(), budget.ID); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Budget deleted successfully")
}
