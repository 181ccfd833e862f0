package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediq/mediq/internal/platform/api"
)

const minPasswordLength = 6

// Service handles login, session lookup and password changes.
type Service struct {
	repo   AccountRepository
	secret string
	now    func() time.Time
}

func NewService(repo AccountRepository, secret string) *Service {
	return &Service{repo: repo, secret: secret, now: time.Now}
}

// Login verifies the credentials and returns a signed session token together
// with the account. Unknown usernames and wrong passwords are reported with
// the same message.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, api.Validation("ユーザー名とパスワードを入力してください")
	}

	account, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, api.Unauthorized("ユーザー名またはパスワードが正しくありません")
		}
		return "", nil, api.Database("アカウントの取得に失敗しました", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, api.Unauthorized("ユーザー名またはパスワードが正しくありません")
	}

	token, err := SignToken(s.secret, account, s.now())
	if err != nil {
		return "", nil, api.Database("セッションの発行に失敗しました", err)
	}

	return token, account, nil
}

// Current returns the account behind a session.
func (s *Service) Current(ctx context.Context, accountID string) (*Account, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, api.Unauthorized("セッションが無効です")
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.Unauthorized("セッションが無効です")
		}
		return nil, api.Database("アカウントの取得に失敗しました", err)
	}
	return account, nil
}

// ChangePassword re-verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return api.Validation("パスワードは6文字以上で入力してください")
	}

	account, err := s.Current(ctx, accountID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)) != nil {
		return api.Validation("現在のパスワードが正しくありません")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return api.Database("パスワードの更新に失敗しました", err)
	}

	if err := s.repo.UpdatePassword(ctx, account.ID, string(hash)); err != nil {
		return api.Database("パスワードの更新に失敗しました", err)
	}
	return nil
}

// CreateAccount registers a new administrator account. Used by the CLI
// bootstrap command.
func (s *Service) CreateAccount(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, api.Validation("ユーザー名を入力してください")
	}
	if len(password) < minPasswordLength {
		return nil, api.Validation("パスワードは6文字以上で入力してください")
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, api.Validation("このユーザー名は既に使用されています")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, api.Database("アカウントの取得に失敗しました", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, api.Database("アカウントの作成に失敗しました", err)
	}

	account := &Account{Username: username, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, api.Database("アカウントの作成に失敗しました", err)
	}
	return account, nil
}
