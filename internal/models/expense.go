package models

import "github.com/shopspring/decimal"

// SplitType names the policy used to divide an expense.
type SplitType string

const (
	SplitEqual   SplitType = "equal"
	SplitExact   SplitType = "exact"
	SplitPercent SplitType = "percent"
)

// GroupExpense is an amount fronted by one member on behalf of the group.
// Expenses are immutable once created.
type GroupExpense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group the expense was added to.
	GroupID string

	// PaidByID is the GroupMember ID of the member who fronted the money.
	PaidByID string

	// Amount is the total expense amount.
	Amount decimal.Decimal

	// Description is the human-readable label (e.g., "Dinner at Toit").
	Description string

	// SplitType records how Amount was divided.
	SplitType SplitType

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Splits are the per-member shares; they always sum to Amount.
	Splits []Split
}

// Split is one member's share of one expense.
type Split struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// ExpenseID is the parent expense.
	ExpenseID string

	// MemberID is the member who owes this share.
	MemberID string

	// Amount is the member's share.
	Amount decimal.Decimal

	// Settled is true once the share has been paid off. The payer's own share
	// is settled at creation.
	Settled bool

	// SettledAt is the Unix timestamp of settlement, zero while unsettled.
	SettledAt int64
}
