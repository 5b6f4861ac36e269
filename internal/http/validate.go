package http

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"cashtrackr/internal/core"
	"cashtrackr/internal/token"
)

// FieldError is a single validation failure for a request field.
type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param"`
}

const minPasswordLength = 8

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Reject display names and angle brackets: the parsed address must be
	// exactly the input.
	return addr.Address == email
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *createAccountRequest) validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Msg: "Name is required", Param: "name"})
	}
	if len(req.Password) < minPasswordLength {
		errs = append(errs, FieldError{Msg: "Password must be at least 8 characters long", Param: "password"})
	}
	if !validEmail(req.Email) {
		errs = append(errs, FieldError{Msg: "Email is invalid", Param: "email"})
	}
	return errs
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *loginRequest) validate() []FieldError {
	var errs []FieldError
	if !validEmail(req.Email) {
		errs = append(errs, FieldError{Msg: "Email is invalid", Param: "email"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Msg: "Password is required", Param: "password"})
	}
	return errs
}

type tokenRequest struct {
	Token string `json:"token"`
}

func (req *tokenRequest) validate() []FieldError {
	if len(req.Token) != token.OneTimeTokenLength {
		return []FieldError{{Msg: "Invalid token", Param: "token"}}
	}
	return nil
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (req *forgotPasswordRequest) validate() []FieldError {
	if !validEmail(req.Email) {
		return []FieldError{{Msg: "Email is invalid", Param: "email"}}
	}
	return nil
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (req *passwordRequest) validate() []FieldError {
	if len(req.Password) < minPasswordLength {
		return []FieldError{{Msg: "Password must be at least 8 characters long", Param: "password"}}
	}
	return nil
}

// budgetRequest covers budget and expense create/update payloads, which share
// the same shape. Amount is kept raw so a missing field, a non-numeric value
// and a non-positive value each get their own message.
type budgetRequest struct {
	Name   string          `json:"name"`
	Amount json.RawMessage `json:"amount"`

	amount core.Money
}

func (req *budgetRequest) validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, FieldError{Msg: "Name is required", Param: "name"})
	}
	switch {
	case len(req.Amount) == 0 || string(req.Amount) == "null":
		errs = append(errs, FieldError{Msg: "Amount is required", Param: "amount"})
	default:
		raw := strings.Trim(string(req.Amount), `"`)
		cents, err := core.ParseDecimalToCents(raw)
		if err != nil {
			if _, ferr := strconv.ParseFloat(raw, 64); ferr != nil {
				errs = append(errs, FieldError{Msg: "Amount must be a number", Param: "amount"})
			} else {
				errs = append(errs, FieldError{Msg: "Amount must be greater than 0", Param: "amount"})
			}
		} else {
			req.amount = core.Money{Cents: cents}
		}
	}
	return errs
}

// decodeJSON reads the request body into dst. A malformed body is reported as
// a validation failure rather than a server error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

// parseRouteID parses a positive integer route parameter.
func parseRouteID(raw, param string) (int64, *FieldError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &FieldError{Msg: "ID not valid", Param: param}
	}
	if id <= 0 {
		return 0, &FieldError{Msg: "ID must be greater than 0", Param: param}
	}
	return id, nil
}
