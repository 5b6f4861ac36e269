package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cashtrackr/internal/core"
)

// CreateUser inserts a new user and fills in the generated id. A duplicate
// email yields ErrDuplicate.
func (r *Repository) CreateUser(ctx context.Context, u *core.User) error {
	query := `INSERT INTO users (name, email, password_hash, confirmed, token)
	          VALUES (?, ?, ?, ?, ?)
	          RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.Confirmed, nullableToken(u.Token),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "email", u.Email)
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.getUser(ctx, "email = ?", email)
}

// GetUserByToken finds the user holding an active one-time token.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (*core.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.getUser(ctx, "token = ?", token)
}

// GetUserByID returns the identity projection only: the password hash must
// never travel with a request context.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*core.Identity, error) {
	query := `SELECT id, name, email FROM users WHERE id = ?`

	ident := &core.Identity{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ident.ID, &ident.Name, &ident.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user by id: %w", err)
	}
	return ident, nil
}

// ConfirmUser marks the account confirmed and clears the one-time token in
// the same statement, so the token cannot be replayed.
func (r *Repository) ConfirmUser(ctx context.Context, id int64) error {
	return r.execUser(ctx,
		`UPDATE users SET confirmed = 1, token = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
}

// SetUserToken stores a fresh one-time token, replacing any previous one.
func (r *Repository) SetUserToken(ctx context.Context, id int64, token string) error {
	return r.execUser(ctx,
		`UPDATE users SET token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, token, id)
}

// UpdateUserPassword swaps in a new password hash and clears the one-time
// token that authorized the reset.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execUser(ctx,
		`UPDATE users SET password_hash = ?, token = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id)
}

func (r *Repository) getUser(ctx context.Context, where string, arg any) (*core.User, error) {
	query := `SELECT id, name, email, password_hash, confirmed, token, created_at, updated_at
	          FROM users WHERE ` + where

	u := &core.User{}
	var token sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Confirmed, &token, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Token = token.String
	return u, nil
}

func (r *Repository) execUser(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableToken(token string) sql.NullString {
	return sql.NullString{String: token, Valid: token != ""}
}
