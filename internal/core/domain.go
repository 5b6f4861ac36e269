package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Identity is the authenticated caller, resolved once per request from a
	// verified session token. It never carries the password hash.
	Identity struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// User is the full credential record as persisted.
	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		Confirmed    bool
		Token        string // one-time confirmation/reset token, empty when none active
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Budget struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Amount    Money     `json:"amount"`
		UserID    int64     `json:"userId"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Expense struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Amount    Money     `json:"amount"`
		BudgetID  int64     `json:"budgetId"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
)

// Identity returns the projection of a user that may be attached to a
// request context.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	return b.Amount.Validate()
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	return e.Amount.Validate()
}
