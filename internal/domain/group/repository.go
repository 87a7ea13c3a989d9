package group

import (
	"context"

	"github.com/google/uuid"
)

// GroupRepository persists groups
type GroupRepository interface {
	Create(ctx context.Context, g *Group) error
	FindByID(ctx context.Context, id uuid.UUID) (*Group, error)
	// FindByIDForUpdate loads the group and holds a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Group, error)
}

// CycleRepository persists cycles
type CycleRepository interface {
	Create(ctx context.Context, c *Cycle) error
	Save(ctx context.Context, c *Cycle) error
	FindByID(ctx context.Context, id uuid.UUID) (*Cycle, error)
	// FindByIDForUpdate loads the cycle with a row lock; used to serialize
	// meeting numbering, shareout initiation and cycle closing
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Cycle, error)
	FindActiveByGroup(ctx context.Context, groupID uuid.UUID) (*Cycle, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]Cycle, error)
}

// MemberRepository persists members
type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
	FindByGroup(ctx context.Context, groupID uuid.UUID) ([]Member, error)
	FindByGroupAndUser(ctx context.Context, groupID, userID uuid.UUID) (*Member, error)
}
