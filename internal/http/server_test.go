package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashtrackr/internal/auth"
	"cashtrackr/internal/core"
	"cashtrackr/internal/mail"
	"cashtrackr/internal/storage"
	"cashtrackr/internal/token"
)

type mockStore struct {
	users    map[string]*core.User // keyed by email
	byToken  map[string]*core.User
	byID     map[int64]*core.User
	budgets  map[int64]*core.Budget
	expenses map[int64]*core.Expense

	getBudgetCalls  int
	getExpenseCalls int
	confirmCalls    int
	nextID          int64
}

func newMockStore() *mockStore {
	return &mockStore{
		users:    make(map[string]*core.User),
		byToken:  make(map[string]*core.User),
		byID:     make(map[int64]*core.User),
		budgets:  make(map[int64]*core.Budget),
		expenses: make(map[int64]*core.Expense),
		nextID:   1,
	}
}

func (m *mockStore) addUser(u *core.User) {
	if u.ID == 0 {
		u.ID = m.nextID
		m.nextID++
	}
	m.users[u.Email] = u
	m.byID[u.ID] = u
	if u.Token != "" {
		m.byToken[u.Token] = u
	}
}

func (m *mockStore) CreateUser(_ context.Context, u *core.User) error {
	if _, ok := m.users[u.Email]; ok {
		return storage.ErrDuplicate
	}
	m.addUser(u)
	return nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) GetUserByToken(_ context.Context, tok string) (*core.User, error) {
	u, ok := m.byToken[tok]
	if !ok || tok == "" {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (m *mockStore) GetUserByID(_ context.Context, id int64) (*core.Identity, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	ident := u.Identity()
	return &ident, nil
}

func (m *mockStore) ConfirmUser(_ context.Context, id int64) error {
	m.confirmCalls++
	u, ok := m.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(m.byToken, u.Token)
	u.Confirmed = true
	u.Token = ""
	return nil
}

func (m *mockStore) SetUserToken(_ context.Context, id int64, tok string) error {
	u, ok := m.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(m.byToken, u.Token)
	u.Token = tok
	m.byToken[tok] = u
	return nil
}

func (m *mockStore) UpdateUserPassword(_ context.Context, id int64, hash string) error {
	u, ok := m.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(m.byToken, u.Token)
	u.Token = ""
	u.PasswordHash = hash
	return nil
}

func (m *mockStore) CreateBudget(_ context.Context, b *core.Budget) error {
	b.ID = m.nextID
	m.nextID++
	m.budgets[b.ID] = b
	return nil
}

func (m *mockStore) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockStore) GetBudget(_ context.Context, id int64) (*core.Budget, error) {
	m.getBudgetCalls++
	b, ok := m.budgets[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockStore) UpdateBudget(_ context.Context, b *core.Budget) error {
	m.budgets[b.ID] = b
	return nil
}

func (m *mockStore) DeleteBudget(_ context.Context, id int64) error {
	delete(m.budgets, id)
	return nil
}

func (m *mockStore) CreateExpense(_ context.Context, e *core.Expense) error {
	e.ID = m.nextID
	m.nextID++
	m.expenses[e.ID] = e
	return nil
}

func (m *mockStore) GetExpense(_ context.Context, id, budgetID int64) (*core.Expense, error) {
	m.getExpenseCalls++
	e, ok := m.expenses[id]
	if !ok || e.BudgetID != budgetID {
		return nil, storage.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockStore) ListExpenses(_ context.Context, budgetID int64) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range m.expenses {
		if e.BudgetID == budgetID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateExpense(_ context.Context, e *core.Expense) error {
	m.expenses[e.ID] = e
	return nil
}

func (m *mockStore) DeleteExpense(_ context.Context, id, _ int64) error {
	delete(m.expenses, id)
	return nil
}

func (m *mockStore) Ping(context.Context) error { return nil }

type recordingDispatcher struct {
	messages []*mail.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg *mail.Message) error {
	d.messages = append(d.messages, msg)
	return nil
}

func newTestServer(t *testing.T, store Store) (*Server, *token.Codec, *recordingDispatcher) {
	t.Helper()
	codec, err := token.NewCodec([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	dispatcher := &recordingDispatcher{}
	s := NewServer(":0", store, codec, auth.NewHasher(4), dispatcher)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, codec, dispatcher
}

func doRequest(s *Server, method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func errMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func fieldErrors(t *testing.T, rec *httptest.ResponseRecorder) []FieldError {
	t.Helper()
	var body map[string][]FieldError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["errors"]
}

func seedConfirmedUser(t *testing.T, store *mockStore, email, password string) *core.User {
	t.Helper()
	hash, err := auth.NewHasher(4).Hash(password)
	require.NoError(t, err)
	u := &core.User{Name: "Ada", Email: email, PasswordHash: hash, Confirmed: true}
	store.addUser(u)
	return u
}

func TestAuthenticate(t *testing.T) {
	store := newMockStore()
	user := seedConfirmedUser(t, store, "ada@example.com", "hunter2hunter2")
	s, codec, _ := newTestServer(t, store)

	t.Run("missing header", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/budgets/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", errMessage(t, rec))
		assert.Zero(t, store.getBudgetCalls)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/budgets/", nil)
		req.Header.Set("Authorization", "Basic abc123")
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/budgets/", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for a deleted user", func(t *testing.T) {
		session, err := codec.IssueSession(9999)
		require.NoError(t, err)
		rec := doRequest(s, http.MethodGet, "/api/budgets/", session, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", errMessage(t, rec))
	})

	t.Run("valid token resolves identity", func(t *testing.T) {
		session, err := codec.IssueSession(user.ID)
		require.NoError(t, err)
		rec := doRequest(s, http.MethodGet, "/api/auth/user", session, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var ident core.Identity
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ident))
		assert.Equal(t, user.ID, ident.ID)
		assert.Equal(t, "ada@example.com", ident.Email)
	})
}

func TestRouteIDValidation(t *testing.T) {
	store := newMockStore()
	user := seedConfirmedUser(t, store, "ada@example.com", "hunter2hunter2")
	s, codec, _ := newTestServer(t, store)
	session, err := codec.IssueSession(user.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		msg  string
	}{
		{"non-integer id", "/api/budgets/abc", "ID not valid"},
		{"zero id", "/api/budgets/0", "ID must be greater than 0"},
		{"negative id", "/api/budgets/-3", "ID must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := store.getBudgetCalls
			rec := doRequest(s, http.MethodGet, tt.path, session, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			errs := fieldErrors(t, rec)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.msg, errs[0].Msg)
			assert.Equal(t, before, store.getBudgetCalls, "store must not be hit for an invalid id")
		})
	}
}

func TestBudgetOwnerGuard(t *testing.T) {
	store := newMockStore()
	owner := seedConfirmedUser(t, store, "owner@example.com", "hunter2hunter2")
	intruder := seedConfirmedUser(t, store, "intruder@example.com", "hunter2hunter2")
	store.budgets[100] = &core.Budget{ID: 100, Name: "Groceries", Amount: core.Money{Cents: 50000}, UserID: owner.ID}

	s, codec, _ := newTestServer(t, store)

	t.Run("foreign budget", func(t *testing.T) {
		session, err := codec.IssueSession(intruder.ID)
		require.NoError(t, err)
		rec := doRequest(s, http.MethodGet, "/api/budgets/100", session, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized action", errMessage(t, rec))
	})

	t.Run("own budget", func(t *testing.T) {
		session, err := codec.IssueSession(owner.ID)
		require.NoError(t, err)
		rec := doRequest(s, http.MethodGet, "/api/budgets/100", session, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got budgetWithExpenses
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Groceries", got.Name)
		assert.NotNil(t, got.Expenses)
	})

	t.Run("missing budget", func(t *testing.T) {
		session, err := codec.IssueSession(owner.ID)
		require.NoError(t, err)
		rec := doRequest(s, http.MethodGet, "/api/budgets/999", session, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Budget not found", errMessage(t, rec))
	})
}

func TestExpenseScopedToBudget(t *testing.T) {
	store := newMockStore()
	owner := seedConfirmedUser(t, store, "owner@example.com", "hunter2hunter2")
	store.budgets[100] = &core.Budget{ID: 100, Name: "Groceries", Amount: core.Money{Cents: 50000}, UserID: owner.ID}
	store.budgets[200] = &core.Budget{ID: 200, Name: "Travel", Amount: core.Money{Cents: 90000}, UserID: owner.ID}
	store.expenses[7] = &core.Expense{ID: 7, Name: "Milk", Amount: core.Money{Cents: 250}, BudgetID: 100}

	s, codec, _ := newTestServer(t, store)
	session, err := codec.IssueSession(owner.ID)
	require.NoError(t, err)

	t.Run("under its own budget", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/budgets/100/expenses/7", session, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got core.Expense
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Milk", got.Name)
	})

	t.Run("under the wrong budget", func(t *testing.T) {
		rec := doRequest(s, http.MethodGet, "/api/budgets/200/expenses/7", session, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Expense not found", errMessage(t, rec))
	})
}

func TestCreateAccount(t *testing.T) {
	t.Run("empty body yields three field errors", func(t *testing.T) {
		store := newMockStore()
		s, _, _ := newTestServer(t, store)

		rec := doRequest(s, http.MethodPost, "/api/auth/create-account", "", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errs := fieldErrors(t, rec)
		require.Len(t, errs, 3)
		params := []string{errs[0].Param, errs[1].Param, errs[2].Param}
		assert.ElementsMatch(t, []string{"name", "password", "email"}, params)
	})

	t.Run("duplicate email", func(t *testing.T) {
		store := newMockStore()
		s, _, dispatcher := newTestServer(t, store)
		body := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "hunter2hunter2"}

		rec := doRequest(s, http.MethodPost, "/api/auth/create-account", "", body)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, dispatcher.messages, 1)
		assert.Equal(t, mail.KindConfirmation, dispatcher.messages[0].Kind)
		assert.Len(t, dispatcher.messages[0].Token, token.OneTimeTokenLength)

		rec = doRequest(s, http.MethodPost, "/api/auth/create-account", "", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "User with this email already exists", errMessage(t, rec))
	})
}

func TestConfirmAccount(t *testing.T) {
	store := newMockStore()
	u := &core.User{Name: "Ada", Email: "ada@example.com", Token: "483920"}
	store.addUser(u)
	s, _, _ := newTestServer(t, store)

	t.Run("unknown token", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/auth/confirm-account", "", map[string]string{"token": "000000"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token", errMessage(t, rec))
	})

	t.Run("token is single use", func(t *testing.T) {
		body := map[string]string{"token": "483920"}
		rec := doRequest(s, http.MethodPost, "/api/auth/confirm-account", "", body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, u.Confirmed)

		rec = doRequest(s, http.MethodPost, "/api/auth/confirm-account", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 1, store.confirmCalls)
	})
}

func TestLogin(t *testing.T) {
	store := newMockStore()
	seedConfirmedUser(t, store, "ada@example.com", "correct-horse")
	unconfirmed := &core.User{Name: "Bob", Email: "bob@example.com"}
	store.addUser(unconfirmed)
	s, codec, _ := newTestServer(t, store)

	t.Run("unknown email", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "who@example.com", "password": "whatever"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", errMessage(t, rec))
	})

	t.Run("unconfirmed account", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "bob@example.com", "password": "whatever"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Account not confirmed", errMessage(t, rec))
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid password", errMessage(t, rec))
	})

	t.Run("success returns a verifiable session", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "correct-horse"})
		require.Equal(t, http.StatusOK, rec.Code)

		var session string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
		_, err := codec.VerifySession(session)
		assert.NoError(t, err)
	})
}

func TestPasswordReset(t *testing.T) {
	store := newMockStore()
	u := seedConfirmedUser(t, store, "ada@example.com", "old-password")
	s, _, dispatcher := newTestServer(t, store)

	rec := doRequest(s, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ada@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, dispatcher.messages, 1)
	require.Equal(t, mail.KindPasswordReset, dispatcher.messages[0].Kind)
	reset := dispatcher.messages[0].Token

	rec = doRequest(s, http.MethodPost, "/api/auth/validate-token", "", map[string]string{"token": reset})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/auth/reset-password/"+reset, "", map[string]string{"password": "new-password-123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, auth.NewHasher(4).Check("new-password-123", u.PasswordHash))

	// the token was cleared on first use
	rec = doRequest(s, http.MethodPost, "/api/auth/reset-password/"+reset, "", map[string]string{"password": "another-password"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid token", errMessage(t, rec))
}

func TestBudgetCRUD(t *testing.T) {
	store := newMockStore()
	owner := seedConfirmedUser(t, store, "ada@example.com", "hunter2hunter2")
	s, codec, _ := newTestServer(t, store)
	session, err := codec.IssueSession(owner.ID)
	require.NoError(t, err)

	t.Run("amount validation", func(t *testing.T) {
		tests := []struct {
			name string
			body map[string]any
			msg  string
		}{
			{"missing amount", map[string]any{"name": "Rent"}, "Amount is required"},
			{"non-numeric amount", map[string]any{"name": "Rent", "amount": "abc"}, "Amount must be a number"},
			{"negative amount", map[string]any{"name": "Rent", "amount": -5}, "Amount must be greater than 0"},
			{"zero amount", map[string]any{"name": "Rent", "amount": 0}, "Amount must be greater than 0"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := doRequest(s, http.MethodPost, "/api/budgets/", session, tt.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				errs := fieldErrors(t, rec)
				require.Len(t, errs, 1)
				assert.Equal(t, tt.msg, errs[0].Msg)
			})
		}
	})

	t.Run("create list update delete", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/budgets/", session, map[string]any{"name": "Rent", "amount": 1200.50})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doRequest(s, http.MethodGet, "/api/budgets/", session, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var budgets []core.Budget
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &budgets))
		require.Len(t, budgets, 1)
		assert.Equal(t, int64(120050), budgets[0].Amount.Cents)
		id := budgets[0].ID

		rec = doRequest(s, http.MethodPut, fmt.Sprintf("/api/budgets/%d", id), session, map[string]any{"name": "Rent 2026", "amount": 1300})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(130000), store.budgets[id].Amount.Cents)

		rec = doRequest(s, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", id), session, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, store.budgets)
	})
}

func TestExpenseCRUD(t *testing.T) {
	store := newMockStore()
	owner := seedConfirmedUser(t, store, "ada@example.com", "hunter2hunter2")
	store.budgets[100] = &core.Budget{ID: 100, Name: "Groceries", Amount: core.Money{Cents: 50000}, UserID: owner.ID}
	s, codec, _ := newTestServer(t, store)
	session, err := codec.IssueSession(owner.ID)
	require.NoError(t, err)

	rec := doRequest(s, http.MethodPost, "/api/budgets/100/expenses/", session, map[string]any{"name": "Milk", "amount": 2.50})
	require.Equal(t, http.StatusCreated, rec.Code)

	var id int64
	for eid, e := range store.expenses {
		require.Equal(t, int64(100), e.BudgetID)
		require.Equal(t, int64(250), e.Amount.Cents)
		id = eid
	}

	rec = doRequest(s, http.MethodPut, fmt.Sprintf("/api/budgets/100/expenses/%d", id), session, map[string]any{"name": "Oat milk", "amount": 3.10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(310), store.expenses[id].Amount.Cents)

	rec = doRequest(s, http.MethodDelete, fmt.Sprintf("/api/budgets/100/expenses/%d", id), session, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.expenses)
}

func TestHealthEndpoints(t *testing.T) {
	store := newMockStore()
	s, _, _ := newTestServer(t, store)

	rec := doRequest(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
