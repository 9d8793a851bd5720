package result

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("test result not found")

// StatusCounts summarizes the sync state of the whole result collection.
type StatusCounts struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
}

type Repository interface {
	Create(ctx context.Context, r *TestResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*TestResult, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*TestResult, int, error)
	// ListBySyncStatus returns every row in the given sync state, oldest first.
	ListBySyncStatus(ctx context.Context, status string) ([]*TestResult, error)
	// Update persists the reviewable and confirmation fields and touches
	// updated_at.
	Update(ctx context.Context, r *TestResult) error
	SetSyncStatus(ctx context.Context, id uuid.UUID, status string, syncedAt *time.Time) error
	// ResetFailedToPending flips one row from failed back to pending.
	// The flip is conditional on the row still being failed; it reports
	// whether the transition happened.
	ResetFailedToPending(ctx context.Context, id uuid.UUID) (bool, error)
	StatusCounts(ctx context.Context) (StatusCounts, error)
}
