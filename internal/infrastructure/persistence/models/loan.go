package models

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/loan"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanModel is the persistence model for the Loan aggregate root
type LoanModel struct {
	AggregateModel
	GroupID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	CycleID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	MeetingID        *uuid.UUID      `gorm:"type:uuid;index"`
	BorrowerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	LoanAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	InterestRate     decimal.Decimal `gorm:"type:decimal(9,6);not null;default:0"`
	DurationMonths   int             `gorm:"not null"`
	TotalAmountDue   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AmountPaid       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Balance          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DisbursementDate time.Time       `gorm:"type:date;not null"`
	DueDate          time.Time       `gorm:"type:date;not null;index"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	Purpose          string          `gorm:"type:varchar(500)"`
	CreatedBy        uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (LoanModel) TableName() string {
	return "loans"
}

// ToDomain converts the persistence model to a domain Loan
func (m *LoanModel) ToDomain() *loan.Loan {
	return &loan.Loan{
		BaseAggregateRoot: m.ToAggregateRoot(),
		GroupID:           m.GroupID,
		CycleID:           m.CycleID,
		MeetingID:         m.MeetingID,
		BorrowerID:        m.BorrowerID,
		LoanAmount:        m.LoanAmount,
		InterestRate:      m.InterestRate,
		DurationMonths:    m.DurationMonths,
		TotalAmountDue:    m.TotalAmountDue,
		AmountPaid:        m.AmountPaid,
		Balance:           m.Balance,
		DisbursementDate:  m.DisbursementDate,
		DueDate:           m.DueDate,
		Status:            loan.Status(m.Status),
		Purpose:           m.Purpose,
		CreatedBy:         m.CreatedBy,
	}
}

// LoanModelFromDomain creates a persistence model from a domain Loan
func LoanModelFromDomain(l *loan.Loan) *LoanModel {
	m := &LoanModel{
		GroupID:          l.GroupID,
		CycleID:          l.CycleID,
		MeetingID:        l.MeetingID,
		BorrowerID:       l.BorrowerID,
		LoanAmount:       l.LoanAmount,
		InterestRate:     l.InterestRate,
		DurationMonths:   l.DurationMonths,
		TotalAmountDue:   l.TotalAmountDue,
		AmountPaid:       l.AmountPaid,
		Balance:          l.Balance,
		DisbursementDate: l.DisbursementDate,
		DueDate:          l.DueDate,
		Status:           string(l.Status),
		Purpose:          l.Purpose,
		CreatedBy:        l.CreatedBy,
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}

// LoanTransactionModel is the persistence model for the append-only loan trail
type LoanTransactionModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	LoanID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	MeetingID       *uuid.UUID      `gorm:"type:uuid;index"`
	Type            string          `gorm:"column:transaction_type;type:varchar(20);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentMethod   string          `gorm:"type:varchar(50)"`
	TransactionDate time.Time       `gorm:"type:date;not null"`
	Description     string          `gorm:"type:varchar(500)"`
	CreatedBy       uuid.UUID       `gorm:"type:uuid"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LoanTransactionModel) TableName() string {
	return "loan_transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *LoanTransactionModel) ToDomain() loan.Transaction {
	return loan.Transaction{
		ID:              m.ID,
		LoanID:          m.LoanID,
		MeetingID:       m.MeetingID,
		Type:            loan.TransactionType(m.Type),
		Amount:          m.Amount,
		PaymentMethod:   m.PaymentMethod,
		TransactionDate: m.TransactionDate,
		Description:     m.Description,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// LoanTransactionModelFromDomain creates a persistence model from a domain Transaction
func LoanTransactionModelFromDomain(t *loan.Transaction) *LoanTransactionModel {
	return &LoanTransactionModel{
		ID:              t.ID,
		LoanID:          t.LoanID,
		MeetingID:       t.MeetingID,
		Type:            string(t.Type),
		Amount:          t.Amount,
		PaymentMethod:   t.PaymentMethod,
		TransactionDate: t.TransactionDate,
		Description:     t.Description,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
	}
}
