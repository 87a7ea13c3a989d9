package models

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for an immutable ledger entry.
// The unique index on reverses_entry_id allows each entry one reversal.
type LedgerEntryModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	GroupID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_scope,priority:1"`
	CycleID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_scope,priority:2"`
	AccountType     string          `gorm:"type:varchar(20);not null;index:idx_ledger_scope,priority:3"`
	OwnerType       string          `gorm:"type:varchar(10);not null;index:idx_ledger_scope,priority:4"`
	MeetingID       *uuid.UUID      `gorm:"type:uuid;index"`
	MemberID        *uuid.UUID      `gorm:"type:uuid;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description     string          `gorm:"type:varchar(500)"`
	OccurredAt      time.Time       `gorm:"not null;index"`
	ContraEntryID   *uuid.UUID      `gorm:"type:uuid;index"`
	IsContraEntry   bool            `gorm:"not null;default:false"`
	ReversesEntryID *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	CreatedBy       uuid.UUID       `gorm:"type:uuid"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		ID:              m.ID,
		GroupID:         m.GroupID,
		CycleID:         m.CycleID,
		MeetingID:       m.MeetingID,
		OwnerType:       ledger.OwnerType(m.OwnerType),
		MemberID:        m.MemberID,
		AccountType:     ledger.AccountType(m.AccountType),
		Amount:          m.Amount,
		Description:     m.Description,
		OccurredAt:      m.OccurredAt,
		ContraEntryID:   m.ContraEntryID,
		IsContraEntry:   m.IsContraEntry,
		ReversesEntryID: m.ReversesEntryID,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a persistence model from a domain Entry
func LedgerEntryModelFromDomain(e *ledger.Entry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:              e.ID,
		GroupID:         e.GroupID,
		CycleID:         e.CycleID,
		AccountType:     string(e.AccountType),
		OwnerType:       string(e.OwnerType),
		MeetingID:       e.MeetingID,
		MemberID:        e.MemberID,
		Amount:          e.Amount,
		Description:     e.Description,
		OccurredAt:      e.OccurredAt,
		ContraEntryID:   e.ContraEntryID,
		IsContraEntry:   e.IsContraEntry,
		ReversesEntryID: e.ReversesEntryID,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
	}
}
