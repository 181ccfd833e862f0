package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediq/mediq/internal/platform/api"
)

// -- Mock repository --

type mockAccountRepo struct {
	accounts map[uuid.UUID]*Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[uuid.UUID]*Account)}
}

func (m *mockAccountRepo) Create(_ context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (m *mockAccountRepo) GetByUsername(_ context.Context, username string) (*Account, error) {
	for _, a := range m.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockAccountRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	a, ok := m.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.PasswordHash = hash
	return nil
}

func seedAccount(t *testing.T, repo *mockAccountRepo, username, password string) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	a := &Account{ID: uuid.New(), Username: username, PasswordHash: string(hash)}
	repo.accounts[a.ID] = a
	return a
}

// -- Tests --

func TestLogin_Success(t *testing.T) {
	repo := newMockAccountRepo()
	seedAccount(t, repo, "admin", "secret123")
	svc := NewService(repo, "test-secret")

	token, account, err := svc.Login(context.Background(), "admin", "secret123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if token == "" {
		t.Error("expected non-empty token")
	}
	if account.Username != "admin" {
		t.Errorf("expected username admin, got %s", account.Username)
	}

	claims, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken() error: %v", err)
	}
	if claims.Subject != account.ID.String() {
		t.Errorf("expected subject %s, got %s", account.ID, claims.Subject)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockAccountRepo()
	seedAccount(t, repo, "admin", "secret123")
	svc := NewService(repo, "test-secret")

	_, _, err := svc.Login(context.Background(), "admin", "wrong")
	if err == nil {
		t.Fatal("expected error for wrong password")
	}
	if api.AsError(err).Code != api.CodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %s", api.AsError(err).Code)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewService(repo, "test-secret")

	_, _, err := svc.Login(context.Background(), "ghost", "whatever")
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
	if api.AsError(err).Code != api.CodeUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %s", api.AsError(err).Code)
	}
}

func TestLogin_EmptyCredentials(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewService(repo, "test-secret")

	_, _, err := svc.Login(context.Background(), "", "")
	if err == nil {
		t.Fatal("expected error for empty credentials")
	}
	if api.AsError(err).Code != api.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", api.AsError(err).Code)
	}
}

func TestCurrent_Success(t *testing.T) {
	repo := newMockAccountRepo()
	a := seedAccount(t, repo, "admin", "secret123")
	svc := NewService(repo, "test-secret")

	got, err := svc.Current(context.Background(), a.ID.String())
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if got.Username != "admin" {
		t.Errorf("expected username admin, got %s", got.Username)
	}
}

func TestCurrent_BadID(t *testing.T) {
	svc := NewService(newMockAccountRepo(), "test-secret")

	if _, err := svc.Current(context.Background(), "not-a-uuid"); err == nil {
		t.Error("expected error for bad account ID")
	}
}

func TestChangePassword_Success(t *testing.T) {
	repo := newMockAccountRepo()
	a := seedAccount(t, repo, "admin", "oldpass")
	svc := NewService(repo, "test-secret")

	err := svc.ChangePassword(context.Background(), a.ID.String(), "oldpass", "newpass")
	if err != nil {
		t.Fatalf("ChangePassword() error: %v", err)
	}

	// Old password no longer works; new one does
	if _, _, err := svc.Login(context.Background(), "admin", "oldpass"); err == nil {
		t.Error("expected old password to be rejected")
	}
	if _, _, err := svc.Login(context.Background(), "admin", "newpass"); err != nil {
		t.Errorf("expected new password to work: %v", err)
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	repo := newMockAccountRepo()
	a := seedAccount(t, repo, "admin", "oldpass")
	svc := NewService(repo, "test-secret")

	err := svc.ChangePassword(context.Background(), a.ID.String(), "wrong", "newpass")
	if err == nil {
		t.Fatal("expected error for wrong current password")
	}
	if api.AsError(err).Code != api.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", api.AsError(err).Code)
	}
}

func TestChangePassword_TooShort(t *testing.T) {
	repo := newMockAccountRepo()
	a := seedAccount(t, repo, "admin", "oldpass")
	svc := NewService(repo, "test-secret")

	err := svc.ChangePassword(context.Background(), a.ID.String(), "oldpass", "12345")
	if err == nil {
		t.Fatal("expected error for short password")
	}
	if api.AsError(err).Code != api.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", api.AsError(err).Code)
	}
}

func TestCreateAccount_Success(t *testing.T) {
	repo := newMockAccountRepo()
	svc := NewService(repo, "test-secret")

	a, err := svc.CreateAccount(context.Background(), "reception", "secret123")
	if err != nil {
		t.Fatalf("CreateAccount() error: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected account ID to be assigned")
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("secret123")) != nil {
		t.Error("expected stored hash to match password")
	}
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	repo := newMockAccountRepo()
	seedAccount(t, repo, "admin", "secret123")
	svc := NewService(repo, "test-secret")

	if _, err := svc.CreateAccount(context.Background(), "admin", "secret123"); err == nil {
		t.Error("expected error for duplicate username")
	}
}
