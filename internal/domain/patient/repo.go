package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCode(ctx context.Context, code string) (*Patient, error)
	List(ctx context.Context, search string, limit int) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CodeTaken(ctx context.Context, code string, exclude uuid.UUID) (bool, error)
	HasSchedules(ctx context.Context, id uuid.UUID) (bool, error)
}
