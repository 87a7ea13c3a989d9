package ledger

import (
	"strings"
	"time"

	"github.com/farmsupport/vsla/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerType identifies which side of the association an entry belongs to
type OwnerType string

const (
	OwnerGroup  OwnerType = "group"
	OwnerMember OwnerType = "member"
)

// IsValid checks if the owner type is known
func (o OwnerType) IsValid() bool {
	return o == OwnerGroup || o == OwnerMember
}

// AccountType is the category of money an entry moves
type AccountType string

const (
	AccountSavings    AccountType = "savings"
	AccountShare      AccountType = "share"
	AccountLoan       AccountType = "loan"
	AccountFine       AccountType = "fine"
	AccountWelfare    AccountType = "welfare"
	AccountSocialFund AccountType = "social_fund"
)

// AllAccountTypes lists every account category
var AllAccountTypes = []AccountType{AccountSavings, AccountShare, AccountLoan, AccountFine, AccountWelfare, AccountSocialFund}

// IsValid checks if the account type is known
func (a AccountType) IsValid() bool {
	switch a {
	case AccountSavings, AccountShare, AccountLoan, AccountFine, AccountWelfare, AccountSocialFund:
		return true
	}
	return false
}

// String returns the string representation of AccountType
func (a AccountType) String() string {
	return string(a)
}

// Reversible reports whether entries of the account may be corrected with a
// plain offsetting pair. Loan and social fund postings have their own
// sub-ledgers and are corrected through those services.
func (a AccountType) Reversible() bool {
	return a != AccountLoan && a != AccountSocialFund
}

// Entry is an immutable signed monetary record. Entries are never updated or
// deleted; corrections are posted as offsetting pairs.
type Entry struct {
	ID              uuid.UUID
	GroupID         uuid.UUID
	CycleID         uuid.UUID
	MeetingID       *uuid.UUID
	OwnerType       OwnerType
	MemberID        *uuid.UUID
	AccountType     AccountType
	Amount          decimal.Decimal
	Description     string
	OccurredAt      time.Time
	ContraEntryID   *uuid.UUID
	IsContraEntry   bool
	ReversesEntryID *uuid.UUID // set on the member side of a reversal pair
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
}

// IsMemberEntry reports whether the entry is on a member's side
func (e *Entry) IsMemberEntry() bool {
	return e.OwnerType == OwnerMember
}

// PairSpec describes a two-sided movement between a member and the group.
// MemberAmount is signed from the member's side: contributions are positive,
// money the member receives (a loan disbursement) is negative. The group-side
// contra entry carries the negated amount.
type PairSpec struct {
	GroupID      uuid.UUID
	CycleID      uuid.UUID
	MeetingID    *uuid.UUID
	MemberID     uuid.UUID
	AccountType  AccountType
	MemberAmount decimal.Decimal
	Description  string
	OccurredAt   time.Time
	CreatedBy    uuid.UUID
}

// LinkedPair is a member entry and its group-side contra entry
type LinkedPair struct {
	MemberEntry *Entry
	GroupEntry  *Entry
}

// Entries returns both sides, member first
func (p *LinkedPair) Entries() []*Entry {
	return []*Entry{p.MemberEntry, p.GroupEntry}
}

// NewLinkedPair builds a balanced pair from a spec
func NewLinkedPair(spec PairSpec) (*LinkedPair, error) {
	if spec.GroupID == uuid.Nil || spec.CycleID == uuid.Nil {
		return nil, shared.NewValidationError("cycle_id", "group and cycle are required for a ledger posting")
	}
	if spec.MemberID == uuid.Nil {
		return nil, shared.NewValidationError("member_id", "member is required for a ledger posting")
	}
	if !spec.AccountType.IsValid() {
		return nil, shared.NewValidationError("account_type", "unknown account type")
	}
	if spec.MemberAmount.IsZero() {
		return nil, shared.NewValidationError("amount", "amount cannot be zero")
	}
	occurredAt := spec.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	now := time.Now()
	memberID := spec.MemberID
	member := &Entry{
		ID:          uuid.New(),
		GroupID:     spec.GroupID,
		CycleID:     spec.CycleID,
		MeetingID:   spec.MeetingID,
		OwnerType:   OwnerMember,
		MemberID:    &memberID,
		AccountType: spec.AccountType,
		Amount:      shared.RoundMoney(spec.MemberAmount),
		Description: strings.TrimSpace(spec.Description),
		OccurredAt:  occurredAt,
		CreatedBy:   spec.CreatedBy,
		CreatedAt:   now,
	}
	group := &Entry{
		ID:          uuid.New(),
		GroupID:     spec.GroupID,
		CycleID:     spec.CycleID,
		MeetingID:   spec.MeetingID,
		OwnerType:   OwnerGroup,
		MemberID:    &memberID,
		AccountType: spec.AccountType,
		Amount:      member.Amount.Neg(),
		Description: member.Description,
		OccurredAt:  occurredAt,
		CreatedBy:   spec.CreatedBy,
		CreatedAt:   now,
	}
	return link(member, group)
}

// PairFromEntries validates caller-built entries and links them
func PairFromEntries(member, group *Entry) (*LinkedPair, error) {
	if member == nil || group == nil {
		return nil, shared.NewValidationError("entries", "both entries are required")
	}
	if member.OwnerType != OwnerMember || member.MemberID == nil {
		return nil, shared.NewValidationError("owner_type", "first entry must be a member entry")
	}
	if group.OwnerType != OwnerGroup {
		return nil, shared.NewValidationError("owner_type", "second entry must be a group entry")
	}
	if member.AccountType != group.AccountType || !member.AccountType.IsValid() {
		return nil, shared.NewValidationError("account_type", "linked entries must share a valid account type")
	}
	if member.GroupID != group.GroupID || member.CycleID != group.CycleID {
		return nil, shared.NewValidationError("cycle_id", "linked entries must belong to the same group and cycle")
	}
	if member.Amount.IsZero() || !member.Amount.Add(group.Amount).IsZero() {
		return nil, shared.ErrUnbalancedPair.WithDetails(map[string]any{
			"member_amount": member.Amount.String(),
			"group_amount":  group.Amount.String(),
		})
	}
	now := time.Now()
	for _, e := range []*Entry{member, group} {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.OccurredAt.IsZero() {
			e.OccurredAt = now
		}
		e.CreatedAt = now
		e.ReversesEntryID = nil
	}
	if group.MemberID == nil {
		group.MemberID = member.MemberID
	}
	return link(member, group)
}

func link(member, group *Entry) (*LinkedPair, error) {
	memberID, groupID := member.ID, group.ID
	member.ContraEntryID = &groupID
	member.IsContraEntry = false
	group.ContraEntryID = &memberID
	group.IsContraEntry = true
	return &LinkedPair{MemberEntry: member, GroupEntry: group}, nil
}

// IsReversal reports whether the entry offsets an earlier posting
func (e *Entry) IsReversal() bool {
	return e.ReversesEntryID != nil
}

// Reversal builds the offsetting pair for a posted member entry and its
// contra. The new member entry records which entry it reverses.
func Reversal(member, group *Entry, reason string, actor uuid.UUID) (*LinkedPair, error) {
	if member.OwnerType != OwnerMember || member.MemberID == nil {
		return nil, shared.NewValidationError("entry_id", "reversal must start from the member side of a pair")
	}
	if group.ContraEntryID == nil || *group.ContraEntryID != member.ID {
		return nil, shared.NewValidationError("entry_id", "entries are not a linked pair")
	}
	if member.IsReversal() {
		return nil, shared.ErrInvalidState.WithMessage("entry %s is itself a reversal and cannot be reversed", member.ID)
	}
	if !member.AccountType.Reversible() {
		return nil, shared.ErrInvalidState.
			WithMessage("%s entries are corrected through their own service, not by reversal", member.AccountType)
	}
	pair, err := NewLinkedPair(PairSpec{
		GroupID:      member.GroupID,
		CycleID:      member.CycleID,
		MeetingID:    member.MeetingID,
		MemberID:     *member.MemberID,
		AccountType:  member.AccountType,
		MemberAmount: member.Amount.Neg(),
		Description:  "reversal: " + reason,
		OccurredAt:   time.Now(),
		CreatedBy:    actor,
	})
	if err != nil {
		return nil, err
	}
	reversed := member.ID
	pair.MemberEntry.ReversesEntryID = &reversed
	return pair, nil
}
