package group

import (
	"strings"

	"github.com/farmsupport/vsla/internal/domain/shared"
)

// Category classifies a group; only VSLA groups hold savings meetings
type Category string

const (
	CategoryVSLA        Category = "vsla"
	CategoryCooperative Category = "cooperative"
	CategoryFarmerGroup Category = "farmer_group"
)

// IsValid checks if the category is known
func (c Category) IsValid() bool {
	switch c {
	case CategoryVSLA, CategoryCooperative, CategoryFarmerGroup:
		return true
	}
	return false
}

// Status represents the lifecycle of a group
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Group is a savings association. It owns its cycles and members by reference.
type Group struct {
	shared.BaseAggregateRoot
	Name     string
	Code     string
	Category Category
	Status   Status
	District string
}

// NewGroup creates a new active group
func NewGroup(name, code string, category Category) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("name", "group name cannot be empty")
	}
	if !category.IsValid() {
		return nil, shared.NewValidationError("category", "unknown group category")
	}
	return &Group{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Code:              strings.ToUpper(strings.TrimSpace(code)),
		Category:          category,
		Status:            StatusActive,
	}, nil
}

// IsVSLA reports whether the group is a savings and loan association
func (g *Group) IsVSLA() bool {
	return g.Category == CategoryVSLA
}

// EnsureAcceptsMeetings checks the group may receive meeting batches
func (g *Group) EnsureAcceptsMeetings() error {
	if !g.IsVSLA() {
		return shared.ErrCycleState.WithMessage("group %s is a %s group, not a VSLA", g.ID, g.Category)
	}
	if g.Status != StatusActive {
		return shared.ErrCycleState.WithMessage("group %s is not active", g.ID)
	}
	return nil
}
