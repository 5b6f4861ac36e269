package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"cashtrackr/internal/auth"
	"cashtrackr/internal/core"
	"cashtrackr/internal/mail"
	"cashtrackr/internal/token"
)

// UserStore is the slice of the repository the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	GetUserByToken(ctx context.Context, token string) (*core.User, error)
	GetUserByID(ctx context.Context, id int64) (*core.Identity, error)
	ConfirmUser(ctx context.Context, id int64) error
	SetUserToken(ctx context.Context, id int64, token string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

type BudgetStore interface {
	CreateBudget(ctx context.Context, b *core.Budget) error
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	GetBudget(ctx context.Context, id int64) (*core.Budget, error)
	UpdateBudget(ctx context.Context, b *core.Budget) error
	DeleteBudget(ctx context.Context, id int64) error
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *core.Expense) error
	GetExpense(ctx context.Context, id, budgetID int64) (*core.Expense, error)
	ListExpenses(ctx context.Context, budgetID int64) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, id, budgetID int64) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server

	users    UserStore
	budgets  BudgetStore
	expenses ExpenseStore
	pinger   Pinger

	tokens     *token.Codec
	hasher     *auth.Hasher
	dispatcher mail.Dispatcher

	limiter      *rateLimiter
	shutdownOnce sync.Once
}

// Store bundles the persistence surface the server depends on. The SQLite
// repository satisfies it.
type Store interface {
	UserStore
	BudgetStore
	ExpenseStore
	Pinger
}

// NewServer configures the route tree and returns a ready-to-run server.
func NewServer(addr string, store Store, tokens *token.Codec, hasher *auth.Hasher, dispatcher mail.Dispatcher) *Server {
	s := &Server{
		users:      store,
		budgets:    store,
		expenses:   store,
		pinger:     store,
		tokens:     tokens,
		hasher:     hasher,
		dispatcher: dispatcher,
		limiter:    newRateLimiter(),
	}

	r := chi.NewRouter()
	r.Use(s.trace)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(s.limitAuth)
		r.Post("/create-account", s.handleCreateAccount)
		r.Post("/confirm-account", s.handleConfirmAccount)
		r.Post("/login", s.handleLogin)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/validate-token", s.handleValidateToken)
		r.Post("/reset-password/{token}", s.handleResetPassword)
		r.With(s.authenticate).Get("/user", s.handleUser)
	})

	r.Route("/api/budgets", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.handleListBudgets)
		r.Post("/", s.handleCreateBudget)

		r.Route("/{budgetId}", func(r chi.Router) {
			r.Use(s.requireBudget)
			r.Get("/", s.handleGetBudget)
			r.Put("/", s.handleUpdateBudget)
			r.Delete("/", s.handleDeleteBudget)

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", s.handleCreateExpense)

				r.Route("/{expenseId}", func(r chi.Router) {
					r.Use(s.requireExpense)
					r.Get("/", s.handleGetExpense)
					r.Put("/", s.handleUpdateExpense)
					r.Delete("/", s.handleDeleteExpense)
				})
			})
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Shutdown drains in-flight requests and stops background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.pinger.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "Database not reachable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
