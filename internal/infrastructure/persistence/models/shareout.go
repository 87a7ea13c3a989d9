package models

import (
	"time"

	"github.com/farmsupport/vsla/internal/domain/shareout"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShareoutModel is the persistence model for the Shareout aggregate root
type ShareoutModel struct {
	AggregateModel
	CycleID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	GroupID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status                string          `gorm:"type:varchar(20);not null;index"`
	ShareUnitValue        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DistributableFund     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalSavings          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalShareValue       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalLoanInterest     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalFines            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalMembers          int             `gorm:"not null;default:0"`
	TotalShares           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalOutstandingLoans decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalActualPayout     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	InitiatedBy           uuid.UUID       `gorm:"type:uuid"`
	CalculatedAt          *time.Time
	CalculationCount      int        `gorm:"not null;default:0"`
	ApprovedBy            *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt            *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CancelReason          string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ShareoutModel) TableName() string {
	return "shareouts"
}

// ToDomain converts the persistence model to a domain Shareout
func (m *ShareoutModel) ToDomain() *shareout.Shareout {
	return &shareout.Shareout{
		BaseAggregateRoot:     m.ToAggregateRoot(),
		CycleID:               m.CycleID,
		GroupID:               m.GroupID,
		Status:                shareout.Status(m.Status),
		ShareUnitValue:        m.ShareUnitValue,
		DistributableFund:     m.DistributableFund,
		TotalSavings:          m.TotalSavings,
		TotalShareValue:       m.TotalShareValue,
		TotalLoanInterest:     m.TotalLoanInterest,
		TotalFines:            m.TotalFines,
		TotalMembers:          m.TotalMembers,
		TotalShares:           m.TotalShares,
		TotalOutstandingLoans: m.TotalOutstandingLoans,
		TotalActualPayout:     m.TotalActualPayout,
		InitiatedBy:           m.InitiatedBy,
		CalculatedAt:          m.CalculatedAt,
		CalculationCount:      m.CalculationCount,
		ApprovedBy:            m.ApprovedBy,
		ApprovedAt:            m.ApprovedAt,
		CompletedAt:           m.CompletedAt,
		CancelledAt:           m.CancelledAt,
		CancelReason:          m.CancelReason,
	}
}

// ShareoutModelFromDomain creates a persistence model from a domain Shareout
func ShareoutModelFromDomain(s *shareout.Shareout) *ShareoutModel {
	m := &ShareoutModel{
		CycleID:               s.CycleID,
		GroupID:               s.GroupID,
		Status:                string(s.Status),
		ShareUnitValue:        s.ShareUnitValue,
		DistributableFund:     s.DistributableFund,
		TotalSavings:          s.TotalSavings,
		TotalShareValue:       s.TotalShareValue,
		TotalLoanInterest:     s.TotalLoanInterest,
		TotalFines:            s.TotalFines,
		TotalMembers:          s.TotalMembers,
		TotalShares:           s.TotalShares,
		TotalOutstandingLoans: s.TotalOutstandingLoans,
		TotalActualPayout:     s.TotalActualPayout,
		InitiatedBy:           s.InitiatedBy,
		CalculatedAt:          s.CalculatedAt,
		CalculationCount:      s.CalculationCount,
		ApprovedBy:            s.ApprovedBy,
		ApprovedAt:            s.ApprovedAt,
		CompletedAt:           s.CompletedAt,
		CancelledAt:           s.CancelledAt,
		CancelReason:          s.CancelReason,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// ShareoutDistributionModel is the persistence model for a member's distribution
type ShareoutDistributionModel struct {
	ID                       uuid.UUID       `gorm:"type:uuid;primary_key"`
	ShareoutID               uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_distribution_shareout_member,priority:1"`
	MemberID                 uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_distribution_shareout_member,priority:2"`
	MemberName               string          `gorm:"type:varchar(200)"`
	MemberShares             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SharePercentage          decimal.Decimal `gorm:"type:decimal(9,4);not null"`
	ProportionalDistribution decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SavingsBalance           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	OutstandingPrincipal     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	OutstandingInterest      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	OutstandingLoanTotal     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	FinalPayout              decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CarriedForwardDebt       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentStatus            string          `gorm:"type:varchar(20);not null"`
	PaidAt                   *time.Time
	CreatedAt                time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShareoutDistributionModel) TableName() string {
	return "shareout_distributions"
}

// ToDomain converts the persistence model to a domain Distribution
func (m *ShareoutDistributionModel) ToDomain() shareout.Distribution {
	return shareout.Distribution{
		ID:                       m.ID,
		ShareoutID:               m.ShareoutID,
		MemberID:                 m.MemberID,
		MemberName:               m.MemberName,
		MemberShares:             m.MemberShares,
		SharePercentage:          m.SharePercentage,
		ProportionalDistribution: m.ProportionalDistribution,
		SavingsBalance:           m.SavingsBalance,
		OutstandingPrincipal:     m.OutstandingPrincipal,
		OutstandingInterest:      m.OutstandingInterest,
		OutstandingLoanTotal:     m.OutstandingLoanTotal,
		FinalPayout:              m.FinalPayout,
		CarriedForwardDebt:       m.CarriedForwardDebt,
		PaymentStatus:            shareout.PaymentStatus(m.PaymentStatus),
		PaidAt:                   m.PaidAt,
		CreatedAt:                m.CreatedAt,
	}
}

// ShareoutDistributionModelFromDomain creates a persistence model from a domain Distribution
func ShareoutDistributionModelFromDomain(d *shareout.Distribution) *ShareoutDistributionModel {
	return &ShareoutDistributionModel{
		ID:                       d.ID,
		ShareoutID:               d.ShareoutID,
		MemberID:                 d.MemberID,
		MemberName:               d.MemberName,
		MemberShares:             d.MemberShares,
		SharePercentage:          d.SharePercentage,
		ProportionalDistribution: d.ProportionalDistribution,
		SavingsBalance:           d.SavingsBalance,
		OutstandingPrincipal:     d.OutstandingPrincipal,
		OutstandingInterest:      d.OutstandingInterest,
		OutstandingLoanTotal:     d.OutstandingLoanTotal,
		FinalPayout:              d.FinalPayout,
		CarriedForwardDebt:       d.CarriedForwardDebt,
		PaymentStatus:            string(d.PaymentStatus),
		PaidAt:                   d.PaidAt,
		CreatedAt:                d.CreatedAt,
	}
}
