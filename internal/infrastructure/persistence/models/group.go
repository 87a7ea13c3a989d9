package models

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/group"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GroupModel is the persistence model for the Group aggregate root
type GroupModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(200);not null"`
	Code     string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Category string `gorm:"type:varchar(30);not null;index"`
	Status   string `gorm:"type:varchar(20);not null;default:'active'"`
	District string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (GroupModel) TableName() string {
	return "vsla_groups"
}

// ToDomain converts the persistence model to a domain Group
func (m *GroupModel) ToDomain() *group.Group {
	return &group.Group{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Code:              m.Code,
		Category:          group.Category(m.Category),
		Status:            group.Status(m.Status),
		District:          m.District,
	}
}

// GroupModelFromDomain creates a persistence model from a domain Group
func GroupModelFromDomain(g *group.Group) *GroupModel {
	m := &GroupModel{
		Name:     g.Name,
		Code:     g.Code,
		Category: string(g.Category),
		Status:   string(g.Status),
		District: g.District,
	}
	m.FromDomainAggregateRoot(g.BaseAggregateRoot)
	return m
}

// CycleModel is the persistence model for the Cycle aggregate root
type CycleModel struct {
	AggregateModel
	GroupID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name           string          `gorm:"type:varchar(200);not null"`
	CycleType      string          `gorm:"type:varchar(30);not null"`
	SavingType     string          `gorm:"type:varchar(30);not null"`
	ShareUnitValue decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	StartDate      time.Time       `gorm:"type:date;not null"`
	EndDate        time.Time       `gorm:"type:date;not null"`
	IsActiveCycle  bool            `gorm:"not null;default:false;index"`
	Status         string          `gorm:"type:varchar(20);not null;default:'open'"`
	ClosedAt       *time.Time
}

// TableName returns the table name for GORM
func (CycleModel) TableName() string {
	return "cycles"
}

// ToDomain converts the persistence model to a domain Cycle
func (m *CycleModel) ToDomain() *group.Cycle {
	return &group.Cycle{
		BaseAggregateRoot: m.ToAggregateRoot(),
		GroupID:           m.GroupID,
		Name:              m.Name,
		CycleType:         group.CycleType(m.CycleType),
		SavingType:        group.SavingType(m.SavingType),
		ShareUnitValue:    m.ShareUnitValue,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		IsActiveCycle:     m.IsActiveCycle,
		Status:            group.CycleStatus(m.Status),
		ClosedAt:          m.ClosedAt,
	}
}

// CycleModelFromDomain creates a persistence model from a domain Cycle
func CycleModelFromDomain(c *group.Cycle) *CycleModel {
	m := &CycleModel{
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
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// MemberModel is the persistence model for the Member entity
type MemberModel struct {
	BaseModel
	GroupID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID  *uuid.UUID `gorm:"type:uuid;index"`
	Name    string     `gorm:"type:varchar(200);not null"`
	Phone   string     `gorm:"type:varchar(30)"`
	Role    string     `gorm:"type:varchar(20);not null;default:'member'"`
	Status  string     `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (MemberModel) TableName() string {
	return "members"
}

// ToDomain converts the persistence model to a domain Member
func (m *MemberModel) ToDomain() *group.Member {
	return &group.Member{
		BaseEntity: m.BaseModel.ToDomain(),
		GroupID:    m.GroupID,
		UserID:     m.UserID,
		Name:       m.Name,
		Phone:      m.Phone,
		Role:       group.Role(m.Role),
		Status:     group.MemberStatus(m.Status),
	}
}

// MemberModelFromDomain creates a persistence model from a domain Member
func MemberModelFromDomain(mem *group.Member) *MemberModel {
	m := &MemberModel{
		GroupID: mem.GroupID,
		UserID:  mem.UserID,
		Name:    mem.Name,
		Phone:   mem.Phone,
		Role:    string(mem.Role),
		Status:  string(mem.Status),
	}
	m.FromDomainBaseEntity(mem.BaseEntity)
	return m
}
