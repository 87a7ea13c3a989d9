package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything with a stable identity inside a group's books.
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries the identity and audit timestamps every persisted
// record shares. Timestamps are UTC.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *BaseEntity) GetID() uuid.UUID { return e.ID }

// NewBaseEntity assigns a fresh identity stamped now.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch marks the entity as modified.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}
