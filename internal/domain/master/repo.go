package master

import (
	"context"

	"github.com/google/uuid"
)

// NamedRepository persists one name-only reference table.
type NamedRepository interface {
	Create(ctx context.Context, e *NamedEntity) error
	GetByID(ctx context.Context, id uuid.UUID) (*NamedEntity, error)
	List(ctx context.Context) ([]*NamedEntity, error)
	Update(ctx context.Context, e *NamedEntity) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// NameTaken reports whether a non-deleted row other than exclude already
	// uses name. Pass uuid.Nil to check against every row.
	NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	// InUse reports whether non-deleted rows elsewhere still reference id.
	InUse(ctx context.Context, id uuid.UUID) (bool, error)
}

// DoctorRepository persists doctors.
type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	InUse(ctx context.Context, id uuid.UUID) (bool, error)
}
