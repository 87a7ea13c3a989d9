package group

import (
	"strings"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
)

// Role is a member's office within the group
type Role string

const (
	RoleChairperson Role = "chairperson"
	RoleSecretary   Role = "secretary"
	RoleTreasurer   Role = "treasurer"
	RoleMember      Role = "member"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleChairperson, RoleSecretary, RoleTreasurer, RoleMember:
		return true
	}
	return false
}

// IsAdmin reports whether the role may approve group decisions such as a shareout
func (r Role) IsAdmin() bool {
	return r == RoleChairperson || r == RoleSecretary || r == RoleTreasurer
}

// MemberStatus is the membership state
type MemberStatus string

const (
	MemberStatusActive MemberStatus = "active"
	MemberStatusLeft   MemberStatus = "left"
)

// Member belongs to exactly one group
type Member struct {
	shared.BaseEntity
	GroupID uuid.UUID
	UserID  *uuid.UUID
	Name    string
	Phone   string
	Role    Role
	Status  MemberStatus
}

// NewMember creates an active member
func NewMember(groupID uuid.UUID, name, phone string, role Role) (*Member, error) {
	if groupID == uuid.Nil {
		return nil, shared.NewValidationError("group_id", "group is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "member name cannot be empty")
	}
	if role == "" {
		role = RoleMember
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("role", "unknown member role")
	}
	return &Member{
		BaseEntity: shared.NewBaseEntity(),
		GroupID:    groupID,
		Name:       strings.TrimSpace(name),
		Phone:      strings.TrimSpace(phone),
		Role:       role,
		Status:     MemberStatusActive,
	}, nil
}

// LinkUser binds the member to a platform user account
func (m *Member) LinkUser(userID uuid.UUID) {
	m.UserID = &userID
	m.Touch()
}

// IsActive reports whether the member is still in the group
func (m *Member) IsActive() bool {
	return m.Status == MemberStatusActive
}
