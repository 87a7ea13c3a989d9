package socialfund

import (
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a social fund movement
type TransactionType string

const (
	TypeContribution TransactionType = "contribution"
	TypeWithdrawal   TransactionType = "withdrawal"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	return t == TypeContribution || t == TypeWithdrawal
}

// Transaction is a signed movement of the group's social fund. Contributions
// are positive, withdrawals negative.
type Transaction struct {
	ID              uuid.UUID
	GroupID         uuid.UUID
	CycleID         *uuid.UUID
	MemberID        *uuid.UUID
	MeetingID       *uuid.UUID
	Type            TransactionType
	Amount          decimal.Decimal
	TransactionDate time.Time
	Description     string
	Reason          string
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
}

// Movement describes a contribution or withdrawal request. Amount is always
// the positive magnitude.
type Movement struct {
	GroupID     uuid.UUID
	CycleID     *uuid.UUID
	MemberID    *uuid.UUID
	MeetingID   *uuid.UUID
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Reason      string
	CreatedBy   uuid.UUID
}

func (m Movement) validate() error {
	if m.GroupID == uuid.Nil {
		return shared.NewValidationError("group_id", "group is required")
	}
	if !m.Amount.IsPositive() {
		return shared.NewValidationError("amount", "amount must be positive")
	}
	return nil
}

func (m Movement) build(t TransactionType, signed decimal.Decimal) *Transaction {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	return &Transaction{
		ID:              uuid.New(),
		GroupID:         m.GroupID,
		CycleID:         m.CycleID,
		MemberID:        m.MemberID,
		MeetingID:       m.MeetingID,
		Type:            t,
		Amount:          signed,
		TransactionDate: date,
		Description:     strings.TrimSpace(m.Description),
		Reason:          strings.TrimSpace(m.Reason),
		CreatedBy:       m.CreatedBy,
		CreatedAt:       time.Now(),
	}
}

// NewContribution creates a contribution
func NewContribution(m Movement) (*Transaction, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m.build(TypeContribution, shared.RoundMoney(m.Amount)), nil
}

// NewWithdrawal creates a withdrawal against the current scope balance. A
// withdrawal that would leave the fund negative is rejected with the current
// balance and requested amount in the error details.
func NewWithdrawal(m Movement, currentBalance decimal.Decimal) (*Transaction, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	amount := shared.RoundMoney(m.Amount)
	if currentBalance.Sub(amount).IsNegative() {
		return nil, shared.ErrInsufficientBalance.
			WithMessage("social fund balance %s is less than requested withdrawal %s", currentBalance.StringFixed(2), amount.StringFixed(2)).
			WithDetails(map[string]any{
				"current_balance":  currentBalance.StringFixed(2),
				"requested_amount": amount.StringFixed(2),
			})
	}
	return m.build(TypeWithdrawal, amount.Neg()), nil
}

// Magnitude returns the unsigned amount
func (t *Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}
