package models

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/socialfund"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SocialFundTransactionModel is the persistence model for social fund movements
type SocialFundTransactionModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	GroupID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_social_fund_scope,priority:1"`
	CycleID         *uuid.UUID      `gorm:"type:uuid;index:idx_social_fund_scope,priority:2"`
	MemberID        *uuid.UUID      `gorm:"type:uuid;index"`
	MeetingID       *uuid.UUID      `gorm:"type:uuid;index"`
	TransactionType string          `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TransactionDate time.Time       `gorm:"type:date;not null"`
	Description     string          `gorm:"type:varchar(500)"`
	Reason          string          `gorm:"type:varchar(500)"`
	CreatedBy       uuid.UUID       `gorm:"type:uuid"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SocialFundTransactionModel) TableName() string {
	return "social_fund_transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *SocialFundTransactionModel) ToDomain() socialfund.Transaction {
	return socialfund.Transaction{
		ID:              m.ID,
		GroupID:         m.GroupID,
		CycleID:         m.CycleID,
		MemberID:        m.MemberID,
		MeetingID:       m.MeetingID,
		Type:            socialfund.TransactionType(m.TransactionType),
		Amount:          m.Amount,
		TransactionDate: m.TransactionDate,
		Description:     m.Description,
		Reason:          m.Reason,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// SocialFundTransactionModelFromDomain creates a persistence model from a domain Transaction
func SocialFundTransactionModelFromDomain(t *socialfund.Transaction) *SocialFundTransactionModel {
	return &SocialFundTransactionModel{
		ID:              t.ID,
		GroupID:         t.GroupID,
		CycleID:         t.CycleID,
		MemberID:        t.MemberID,
		MeetingID:       t.MeetingID,
		TransactionType: string(t.Type),
		Amount:          t.Amount,
		TransactionDate: t.TransactionDate,
		Description:     t.Description,
		Reason:          t.Reason,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	}
}
