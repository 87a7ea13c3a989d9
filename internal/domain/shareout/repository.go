package shareout

import (
	"context"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter selects shareouts for history listings
type Filter struct {
	GroupID *uuid.UUID
	CycleID *uuid.UUID
	Status  *Status
}

// ShareoutRepository persists shareouts and their distributions
type ShareoutRepository interface {
	Create(ctx context.Context, s *Shareout) error
	Save(ctx context.Context, s *Shareout) error
	FindByID(ctx context.Context, id uuid.UUID) (*Shareout, error)
	// FindByIDForUpdate loads the shareout with a row lock; calculation and
	// completion of one shareout are serialized by it
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Shareout, error)
	// FindLiveByCycle returns the non-terminal shareout of a cycle, nil if none
	FindLiveByCycle(ctx context.Context, cycleID uuid.UUID) (*Shareout, error)
	List(ctx context.Context, filter Filter, page shared.Pagination) ([]Shareout, int64, error)

	// ReplaceDistributions deletes every distribution of the shareout and
	// inserts the given set
	ReplaceDistributions(ctx context.Context, shareoutID uuid.UUID, ds []Distribution) error
	ListDistributions(ctx context.Context, shareoutID uuid.UUID) ([]Distribution, error)
	SaveDistributions(ctx context.Context, ds []Distribution) error
}
