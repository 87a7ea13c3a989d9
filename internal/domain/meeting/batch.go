package meeting

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/farmsupport/vsla/internal/domain/ledger"
	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates in a batch
const DateLayout = "2006-01-02"

// Batch is one offline-collected meeting as submitted by the mobile client
type Batch struct {
	LocalID             string                `json:"local_id" validate:"required,max=100"`
	CycleID             uuid.UUID             `json:"cycle_id"`
	GroupID             *uuid.UUID            `json:"group_id,omitempty"`
	MeetingDate         string                `json:"meeting_date" validate:"required,datetime=2006-01-02"`
	MembersPresent      int                   `json:"members_present" validate:"gte=0"`
	MembersAbsent       *int                  `json:"members_absent,omitempty" validate:"omitempty,gte=0"`
	Notes               string                `json:"notes,omitempty" validate:"max=2000"`
	Attendance          []AttendanceRecord    `json:"attendance_data" validate:"required,min=1,dive"`
	Transactions        []TransactionRecord   `json:"transactions_data,omitempty" validate:"dive"`
	Loans               []LoanRecord          `json:"loans_data,omitempty" validate:"dive"`
	LoanRepayments      []RepaymentRecord     `json:"loan_repayments_data,omitempty" validate:"dive"`
	SharePurchases      []SharePurchaseRecord `json:"share_purchases_data,omitempty" validate:"dive"`
	SocialFund          []SocialFundRecord    `json:"social_fund_contributions_data,omitempty" validate:"dive"`
	PreviousActionPlans []ActionPlanUpdate    `json:"previous_action_plans_data,omitempty" validate:"dive"`
	UpcomingActionPlans []ActionPlanRecord    `json:"upcoming_action_plans_data,omitempty" validate:"dive"`
	ClientTotals        *ClientTotals         `json:"totals,omitempty"`
}

// AttendanceRecord marks one member present or absent
type AttendanceRecord struct {
	MemberID uuid.UUID `json:"member_id"`
	Present  bool      `json:"present"`
	Note     string    `json:"note,omitempty" validate:"max=500"`
}

// TransactionRecord is a member contribution to one account
type TransactionRecord struct {
	MemberID    uuid.UUID          `json:"member_id"`
	AccountType ledger.AccountType `json:"account_type" validate:"required,oneof=savings share fine welfare social_fund"`
	Amount      decimal.Decimal    `json:"amount"`
	Description string             `json:"description,omitempty" validate:"max=500"`
}

// LoanRecord is a loan disbursed at the meeting
type LoanRecord struct {
	MemberID       uuid.UUID       `json:"member_id"`
	Amount         decimal.Decimal `json:"amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	DurationMonths int             `json:"duration_months" validate:"required,gt=0,lte=60"`
	Purpose        string          `json:"purpose,omitempty" validate:"max=500"`
}

// RepaymentRecord is a payment against an existing loan of the cycle
type RepaymentRecord struct {
	LoanID        uuid.UUID       `json:"loan_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty" validate:"max=50"`
}

// SharePurchaseRecord buys shares at the cycle's share unit value. Amount is
// advisory; the posted value is shares times the unit value.
type SharePurchaseRecord struct {
	MemberID       uuid.UUID        `json:"member_id"`
	NumberOfShares int              `json:"number_of_shares" validate:"required,gt=0"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
}

// SocialFundRecord is a social fund contribution or withdrawal
type SocialFundRecord struct {
	MemberID        *uuid.UUID      `json:"member_id,omitempty"`
	TransactionType string          `json:"transaction_type" validate:"omitempty,oneof=contribution withdrawal"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason,omitempty" validate:"max=500"`
}

// IsWithdrawal reports whether the record withdraws from the fund
func (r SocialFundRecord) IsWithdrawal() bool {
	return r.TransactionType == "withdrawal"
}

// ActionPlanUpdate reports progress on a plan agreed at an earlier meeting
type ActionPlanUpdate struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
	Note   string    `json:"note,omitempty" validate:"max=1000"`
}

// ActionPlanRecord is a plan agreed for upcoming meetings
type ActionPlanRecord struct {
	Description      string     `json:"description" validate:"required,max=1000"`
	AssignedMemberID *uuid.UUID `json:"assigned_member_id,omitempty"`
	DueDate          string     `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ClientTotals are the totals computed on the device. They are compared with
// what was posted and never used for posting.
type ClientTotals struct {
	Savings        *decimal.Decimal `json:"total_savings,omitempty"`
	SharesValue    *decimal.Decimal `json:"total_shares_value,omitempty"`
	Fines          *decimal.Decimal `json:"total_fines,omitempty"`
	Welfare        *decimal.Decimal `json:"total_welfare,omitempty"`
	SocialFund     *decimal.Decimal `json:"total_social_fund,omitempty"`
	LoansDisbursed *decimal.Decimal `json:"total_loans_disbursed,omitempty"`
	LoansRepaid    *decimal.Decimal `json:"total_loans_repaid,omitempty"`
}

var (
	validateOnce   sync.Once
	batchValidator *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		batchValidator = validator.New()
		batchValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return batchValidator
}

// FieldError describes one invalid field of a batch
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks the batch shape. Nothing about the cycle or its members is
// looked up here.
func (b *Batch) Validate() error {
	var problems []FieldError
	if err := getValidator().Struct(b); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				problems = append(problems, FieldError{Field: trimNamespace(fe.Namespace()), Message: fe.Tag()})
			}
		} else {
			return shared.ErrValidation.WithMessage("invalid batch: %v", err)
		}
	}

	add := func(field, msg string) {
		problems = append(problems, FieldError{Field: field, Message: msg})
	}
	if b.CycleID == uuid.Nil {
		add("cycle_id", "required")
	}
	if b.GroupID != nil && *b.GroupID == uuid.Nil {
		add("group_id", "invalid")
	}
	for i, r := range b.Attendance {
		if r.MemberID == uuid.Nil {
			add(fmt.Sprintf("attendance_data[%d].member_id", i), "required")
		}
	}
	for i, r := range b.Transactions {
		if r.MemberID == uuid.Nil {
			add(fmt.Sprintf("transactions_data[%d].member_id", i), "required")
		}
		if !r.Amount.IsPositive() {
			add(fmt.Sprintf("transactions_data[%d].amount", i), "gt")
		}
	}
	for i, r := range b.Loans {
		if r.MemberID == uuid.Nil {
			add(fmt.Sprintf("loans_data[%d].member_id", i), "required")
		}
		if !r.Amount.IsPositive() {
			add(fmt.Sprintf("loans_data[%d].amount", i), "gt")
		}
		if r.InterestRate.IsNegative() {
			add(fmt.Sprintf("loans_data[%d].interest_rate", i), "gte")
		}
	}
	for i, r := range b.LoanRepayments {
		if r.LoanID == uuid.Nil {
			add(fmt.Sprintf("loan_repayments_data[%d].loan_id", i), "required")
		}
		if !r.Amount.IsPositive() {
			add(fmt.Sprintf("loan_repayments_data[%d].amount", i), "gt")
		}
	}
	for i, r := range b.SharePurchases {
		if r.MemberID == uuid.Nil {
			add(fmt.Sprintf("share_purchases_data[%d].member_id", i), "required")
		}
	}
	for i, r := range b.SocialFund {
		if !r.Amount.IsPositive() {
			add(fmt.Sprintf("social_fund_contributions_data[%d].amount", i), "gt")
		}
	}
	for i, r := range b.PreviousActionPlans {
		if r.ID == uuid.Nil {
			add(fmt.Sprintf("previous_action_plans_data[%d].id", i), "required")
		}
	}

	if len(problems) > 0 {
		return shared.ErrValidation.
			WithMessage("meeting batch has %d invalid field(s)", len(problems)).
			WithDetails(map[string]any{"fields": problems})
	}
	return nil
}

// trimNamespace drops the root struct name from a validator namespace
func trimNamespace(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Date returns the parsed meeting date
func (b *Batch) Date() time.Time {
	d, err := time.Parse(DateLayout, b.MeetingDate)
	if err != nil {
		return time.Time{}
	}
	return d
}

// Items flattens the money and plan records into the order they are posted
func (b *Batch) Items() []Item {
	items := make([]Item, 0, len(b.Transactions)+len(b.Loans)+len(b.LoanRepayments)+
		len(b.SharePurchases)+len(b.SocialFund)+len(b.PreviousActionPlans)+len(b.UpcomingActionPlans))
	for i, r := range b.Transactions {
		kind := ItemKind(r.AccountType)
		items = append(items, Item{Kind: kind, Index: i, Transaction: &b.Transactions[i]})
	}
	for i := range b.SharePurchases {
		items = append(items, Item{Kind: ItemSharePurchase, Index: i, SharePurchase: &b.SharePurchases[i]})
	}
	for i := range b.SocialFund {
		items = append(items, Item{Kind: ItemSocialFund, Index: i, SocialFund: &b.SocialFund[i]})
	}
	for i := range b.LoanRepayments {
		items = append(items, Item{Kind: ItemLoanRepayment, Index: i, Repayment: &b.LoanRepayments[i]})
	}
	for i := range b.Loans {
		items = append(items, Item{Kind: ItemLoanDisbursement, Index: i, Loan: &b.Loans[i]})
	}
	for i := range b.PreviousActionPlans {
		items = append(items, Item{Kind: ItemActionPlanUpdate, Index: i, PlanUpdate: &b.PreviousActionPlans[i]})
	}
	for i := range b.UpcomingActionPlans {
		items = append(items, Item{Kind: ItemActionPlan, Index: i, Plan: &b.UpcomingActionPlans[i]})
	}
	return items
}

// ItemKind tags a batch item
type ItemKind string

const (
	ItemSavings          ItemKind = "savings"
	ItemShare            ItemKind = "share"
	ItemFine             ItemKind = "fine"
	ItemWelfare          ItemKind = "welfare"
	ItemSocialFundTx     ItemKind = "social_fund"
	ItemSharePurchase    ItemKind = "share_purchase"
	ItemSocialFund       ItemKind = "social_fund_movement"
	ItemLoanDisbursement ItemKind = "loan_disbursement"
	ItemLoanRepayment    ItemKind = "loan_repayment"
	ItemActionPlanUpdate ItemKind = "action_plan_update"
	ItemActionPlan       ItemKind = "action_plan"
)

// Item is one postable record of a batch. Exactly one payload pointer is set,
// matching Kind.
type Item struct {
	Kind          ItemKind
	Index         int
	Transaction   *TransactionRecord
	SharePurchase *SharePurchaseRecord
	SocialFund    *SocialFundRecord
	Loan          *LoanRecord
	Repayment     *RepaymentRecord
	PlanUpdate    *ActionPlanUpdate
	Plan          *ActionPlanRecord
}

// Key identifies the item within its batch; it is stable across reprocessing
func (it Item) Key() string {
	source := string(it.Kind)
	if it.Transaction != nil {
		source = "transaction"
	}
	return fmt.Sprintf("%s:%d", source, it.Index)
}
