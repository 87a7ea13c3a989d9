package loan

import (
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of event on a loan's trail
type TransactionType string

const (
	TxPrincipal  TransactionType = "principal"
	TxInterest   TransactionType = "interest"
	TxPayment    TransactionType = "payment"
	TxPenalty    TransactionType = "penalty"
	TxWaiver     TransactionType = "waiver"
	TxAdjustment TransactionType = "adjustment"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TxPrincipal, TxInterest, TxPayment, TxPenalty, TxWaiver, TxAdjustment:
		return true
	}
	return false
}

// IsCharge reports whether the type increases what the borrower owes.
// Charges are stored negative.
func (t TransactionType) IsCharge() bool {
	return t == TxPrincipal || t == TxInterest || t == TxPenalty
}

// IsCredit reports whether the type reduces what the borrower owes.
// Credits are stored positive.
func (t TransactionType) IsCredit() bool {
	return t == TxPayment || t == TxWaiver
}

// Transaction is an append-only event on a loan
type Transaction struct {
	ID              uuid.UUID
	LoanID          uuid.UUID
	MeetingID       *uuid.UUID
	Type            TransactionType
	Amount          decimal.Decimal
	PaymentMethod   string
	TransactionDate time.Time
	Description     string
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
}

// NewTransaction creates a trail entry. For charges and credits the magnitude
// is given and the sign is applied by type; adjustments are taken as signed.
func NewTransaction(loanID uuid.UUID, txType TransactionType, amount decimal.Decimal, date time.Time, createdBy uuid.UUID) (*Transaction, error) {
	if loanID == uuid.Nil {
		return nil, shared.NewValidationError("loan_id", "loan is required")
	}
	if !txType.IsValid() {
		return nil, shared.NewValidationError("type", "unknown loan transaction type")
	}
	if amount.IsZero() {
		return nil, shared.NewValidationError("amount", "amount cannot be zero")
	}
	signed := shared.RoundMoney(amount)
	switch {
	case txType.IsCharge():
		signed = signed.Abs().Neg()
	case txType.IsCredit():
		signed = signed.Abs()
	}
	if date.IsZero() {
		date = time.Now()
	}
	return &Transaction{
		ID:              uuid.New(),
		LoanID:          loanID,
		Type:            txType,
		Amount:          signed,
		TransactionDate: date,
		CreatedBy:       createdBy,
		CreatedAt:       time.Now(),
	}, nil
}

// WithMeeting ties the transaction to the meeting that recorded it
func (t *Transaction) WithMeeting(meetingID *uuid.UUID) *Transaction {
	t.MeetingID = meetingID
	return t
}

// WithPaymentMethod sets the payment method
func (t *Transaction) WithPaymentMethod(method string) *Transaction {
	t.PaymentMethod = strings.TrimSpace(method)
	return t
}

// WithDescription sets the description
func (t *Transaction) WithDescription(description string) *Transaction {
	t.Description = strings.TrimSpace(description)
	return t
}

// TrailTotals is the projection of a loan's transaction trail
type TrailTotals struct {
	Principal   decimal.Decimal
	Interest    decimal.Decimal
	Penalties   decimal.Decimal
	Payments    decimal.Decimal
	Waivers     decimal.Decimal
	Adjustments decimal.Decimal
}

// Totalize builds trail totals from transactions
func Totalize(trail []Transaction) TrailTotals {
	t := TrailTotals{
		Principal: decimal.Zero, Interest: decimal.Zero, Penalties: decimal.Zero,
		Payments: decimal.Zero, Waivers: decimal.Zero, Adjustments: decimal.Zero,
	}
	for _, tx := range trail {
		t = t.Add(tx)
	}
	return t
}

// Add folds one transaction into the totals
func (t TrailTotals) Add(tx Transaction) TrailTotals {
	switch tx.Type {
	case TxPrincipal:
		t.Principal = t.Principal.Add(tx.Amount.Abs())
	case TxInterest:
		t.Interest = t.Interest.Add(tx.Amount.Abs())
	case TxPenalty:
		t.Penalties = t.Penalties.Add(tx.Amount.Abs())
	case TxPayment:
		t.Payments = t.Payments.Add(tx.Amount)
	case TxWaiver:
		t.Waivers = t.Waivers.Add(tx.Amount)
	case TxAdjustment:
		t.Adjustments = t.Adjustments.Add(tx.Amount)
	}
	return t
}

// TotalDue is everything charged to the borrower. Negative adjustments add to it.
func (t TrailTotals) TotalDue() decimal.Decimal {
	due := t.Principal.Add(t.Interest).Add(t.Penalties)
	if t.Adjustments.IsNegative() {
		due = due.Add(t.Adjustments.Abs())
	}
	return due
}

// AmountPaid is everything credited to the borrower. Positive adjustments add to it.
func (t TrailTotals) AmountPaid() decimal.Decimal {
	paid := t.Payments.Add(t.Waivers)
	if t.Adjustments.IsPositive() {
		paid = paid.Add(t.Adjustments)
	}
	return paid
}

// Balance is the outstanding amount, the negated signed sum of the trail
func (t TrailTotals) Balance() decimal.Decimal {
	return t.TotalDue().Sub(t.AmountPaid())
}
