package clinic

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("clinic not found")
	// ErrInUse is returned when deleting a clinic still referenced by
	// patients, users, or test results. Deletion is restricted, never
	// cascaded.
	ErrInUse = errors.New("clinic is referenced by existing records")
)

type Repository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	List(ctx context.Context, district string, limit, offset int) ([]*Clinic, int, error)
	Update(ctx context.Context, c *Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
}
