package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("patient not found")
	ErrDuplicateNational = errors.New("national id already registered")
	ErrClinicMissing     = errors.New("referenced clinic does not exist")
	ErrInUse             = errors.New("patient has recorded test results")
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error)
	Search(ctx context.Context, term string, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
}
