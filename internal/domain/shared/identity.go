package shared

import (
	"slices"

	"github.com/google/uuid"
)

// Platform roles carried in access tokens
const (
	RolePlatformAdmin = "admin"
	RoleFieldOfficer  = "field_officer"
)

// Actor is the authenticated caller of an operation. It is passed explicitly
// through every write so that services never consult ambient session state.
type Actor struct {
	UserID   uuid.UUID
	MemberID *uuid.UUID
	GroupID  *uuid.UUID
	Roles    []string
}

// SystemActor is used by background jobs and migrations
var SystemActor = Actor{UserID: uuid.Nil, Roles: []string{RolePlatformAdmin}}

// NewActor creates an actor for a user id
func NewActor(userID uuid.UUID, roles ...string) Actor {
	return Actor{UserID: userID, Roles: roles}
}

// WithMember returns a copy of the actor bound to a group member
func (a Actor) WithMember(memberID, groupID uuid.UUID) Actor {
	a.MemberID = &memberID
	a.GroupID = &groupID
	return a
}

// HasRole reports whether the actor carries the given platform role
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// IsPlatformAdmin reports whether the actor is a platform administrator
func (a Actor) IsPlatformAdmin() bool {
	return a.HasRole(RolePlatformAdmin)
}

// IsAnonymous reports whether no user is attached
func (a Actor) IsAnonymous() bool {
	return a.UserID == uuid.Nil && len(a.Roles) == 0
}
