package http

import (
	"net/http"

	"cashtrackr/internal/core"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
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

	expense := &core.Expense{
		Name:     req.Name,
		Amount:   req.amount,
		BudgetID: budget.ID,
	}
	if err := s.expenses.CreateExpense(r.Context(), expense); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Expense created successfully")
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, ok := expenseFrom(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "Expense not found")
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	expense, ok := expenseFrom(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "Expense not found")
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

	expense.Name = req.Name
	expense.Amount = req.amount
	if err := s.expenses.UpdateExpense(r.Context(), expense); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Expense updated successfully")
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expense, ok := expenseFrom(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "Expense not found")
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), expense.ID, expense.BudgetID); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Expense deleted successfully")
}
