package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediq/mediq/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewAccountRepoPG(pool *pgxpool.Pool) AccountRepository { return &accountRepoPG{pool: pool} }

func (r *accountRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const accountCols = `id, username, password_hash, created_at, updated_at`

func (r *accountRepoPG) scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admin_account (id, username, password_hash)
		VALUES ($1, $2, $3)`,
		a.ID, a.Username, a.PasswordHash)
	return err
}

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM admin_account WHERE id = $1`, id))
}

func (r *accountRepoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.scanAccount(r.conn(ctx).QueryRow(ctx,
		`SELECT `+accountCols+` FROM admin_account WHERE username = $1`, username))
}

func (r *accountRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admin_account SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	return err
}
