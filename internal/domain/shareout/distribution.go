package shareout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the payout state of one member's distribution
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentDeferred PaymentStatus = "deferred"
	PaymentWaived   PaymentStatus = "waived"
)

// Distribution is one member's computed share of a shareout
type Distribution struct {
	ID                       uuid.UUID
	ShareoutID               uuid.UUID
	MemberID                 uuid.UUID
	MemberName               string
	MemberShares             decimal.Decimal
	SharePercentage          decimal.Decimal
	ProportionalDistribution decimal.Decimal
	SavingsBalance           decimal.Decimal
	OutstandingPrincipal     decimal.Decimal
	OutstandingInterest      decimal.Decimal
	OutstandingLoanTotal     decimal.Decimal
	FinalPayout              decimal.Decimal
	CarriedForwardDebt       decimal.Decimal
	PaymentStatus            PaymentStatus
	PaidAt                   *time.Time
	CreatedAt                time.Time
}

// HasLoans reports whether the member had loans outstanding
func (d *Distribution) HasLoans() bool {
	return d.OutstandingLoanTotal.IsPositive()
}

// Settle marks the distribution at completion: positive payouts are paid,
// the rest deferred
func (d *Distribution) Settle(at time.Time) {
	if d.FinalPayout.IsPositive() {
		d.PaymentStatus = PaymentPaid
		d.PaidAt = &at
		return
	}
	d.PaymentStatus = PaymentDeferred
}
