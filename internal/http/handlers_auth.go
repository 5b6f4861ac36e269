package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashtrackr/internal/core"
	applog "cashtrackr/internal/log"
	"cashtrackr/internal/mail"
	"cashtrackr/internal/storage"
	"cashtrackr/internal/token"
)

// readBody decodes the JSON request body into dst. An absent body decodes to
// the zero value so field validation produces the errors, not the decoder.
func readBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// dispatchMail publishes an auth email best-effort: a broker outage must not
// fail the signup or reset request that triggered it.
func (s *Server) dispatchMail(r *http.Request, kind mail.Kind, u *core.User) {
	msg := mail.NewMessage(kind, u.Name, u.Email, u.Token)
	if err := s.dispatcher.Dispatch(r.Context(), msg); err != nil {
		slog.ErrorContext(r.Context(), "Failed to dispatch email",
			applog.FieldError, err,
			applog.FieldMailKind, string(kind),
			applog.FieldUserID, u.ID)
	}
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !readBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	if _, err := s.users.GetUserByEmail(r.Context(), req.Email); err == nil {
		respondError(w, http.StatusConflict, "User with this email already exists")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		respondInternal(w, r, err)
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	user := &core.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Token:        token.NewOneTimeToken(),
	}
	if err := s.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			respondError(w, http.StatusConflict, "User with this email already exists")
			return
		}
		respondInternal(w, r, err)
		return
	}

	s.dispatchMail(r, mail.KindConfirmation, user)
	respondJSON(w, http.StatusCreated, "Account created successfully")
}

func (s *Server) handleConfirmAccount(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !readBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	user, err := s.users.GetUserByToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		respondInternal(w, r, err)
		return
	}

	if err := s.users.ConfirmUser(r.Context(), user.ID); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Account confirmed successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !readBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondInternal(w, r, err)
		return
	}

	if !user.Confirmed {
		respondError(w, http.StatusForbidden, "Account not confirmed")
		return
	}
	if !s.hasher.Check(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	session, err := s.tokens.IssueSession(user.ID)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !readBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondInternal(w, r, err)
		return
	}

	// A new token replaces any previous one; only the latest is valid.
	user.Token = token.NewOneTimeToken()
	if err := s.users.SetUserToken(r.Context(), user.ID, user.Token); err != nil {
		respondInternal(w, r, err)
		return
	}

	s.dispatchMail(r, mail.KindPasswordReset, user)
	respondJSON(w, http.StatusOK, "Check your email for password reset instructions")
}

func (s *Server) handleValidateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !readBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	if _, err := s.users.GetUserByToken(r.Context(), req.Token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Invalid token")
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Token is valid")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if !readBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	user, err := s.users.GetUserByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Invalid token")
			return
		}
		respondInternal(w, r, err)
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	// UpdateUserPassword clears the one-time token, making it single use.
	if err := s.users.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Password reset successfully")
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, identity)
}
