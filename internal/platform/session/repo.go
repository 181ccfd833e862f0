package session

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository persists administrator accounts.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}
