package group

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateGroupRequest represents a request to register a group
type CreateGroupRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Code     string `json:"code" binding:"required,min=1,max=50"`
	Category string `json:"category" binding:"omitempty,oneof=vsla cooperative farmer_group"`
	District string `json:"district" binding:"max=100"`
}

// AddMemberRequest represents a request to add a member to a group
type AddMemberRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=200"`
	Phone  string `json:"phone" binding:"max=50"`
	Role   string `json:"role" binding:"omitempty,oneof=chairperson secretary treasurer member"`
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// OpenCycleRequest represents a request to open a group's next cycle
type OpenCycleRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=200"`
	CycleType      string          `json:"cycle_type" binding:"omitempty,oneof=savings_association project"`
	SavingType     string          `json:"saving_type" binding:"omitempty,oneof=fixed_share free_amount"`
	ShareUnitValue decimal.Decimal `json:"share_unit_value" binding:"dnonneg"`
	StartDate      string          `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate        string          `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// Dates parses the cycle's start and end dates
func (r OpenCycleRequest) Dates() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, shared.NewValidationError("start_date", "must be YYYY-MM-DD")
	}
	end, err := time.Parse(time.DateOnly, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, shared.NewValidationError("end_date", "must be YYYY-MM-DD")
	}
	return start, end, nil
}

// GroupResponse represents a group in API responses
type GroupResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	District  string    `json:"district,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberResponse represents a member in API responses
type MemberResponse struct {
	ID        uuid.UUID  `json:"id"`
	GroupID   uuid.UUID  `json:"group_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// CycleResponse represents a cycle in API responses
type CycleResponse struct {
	ID             uuid.UUID       `json:"id"`
	GroupID        uuid.UUID       `json:"group_id"`
	Name           string          `json:"name"`
	CycleType      string          `json:"cycle_type"`
	SavingType     string          `json:"saving_type"`
	ShareUnitValue decimal.Decimal `json:"share_unit_value"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	IsActiveCycle  bool            `json:"is_active_cycle"`
	Status         string          `json:"status"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
}

// ToGroupResponse converts a domain group to a response
func ToGroupResponse(g *group.Group) GroupResponse {
	return GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Code:      g.Code,
		Category:  string(g.Category),
		Status:    string(g.Status),
		District:  g.District,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

// ToMemberResponse converts a domain member to a response
func ToMemberResponse(m *group.Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		GroupID:   m.GroupID,
		UserID:    m.UserID,
		Name:      m.Name,
		Phone:     m.Phone,
		Role:      string(m.Role),
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

// ToCycleResponse converts a domain cycle to a response
func ToCycleResponse(c *group.Cycle) CycleResponse {
	return CycleResponse{
		ID:             c.ID,
		GroupID:        c.GroupID,
		Name:           c.Name,
		CycleType:      string(c.CycleType),
		SavingType:     string(c.SavingType),
		ShareUnitValue: c.ShareUnitValue,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		IsActiveCycle:  c.IsActiveCycle,
		Status:         string(c.Status),
		ClosedAt:       c.ClosedAt,
	}
}
