package models

import "github.com/shopspring/decimal"

// Group represents a shared-expense group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string

	// Description and Icon are optional presentation fields.
	Description string
	Icon        string

	// CreatedBy is the user ID of the creator. Only the creator may delete the group.
	CreatedBy string

	// Active is false once the group has been soft-deleted.
	Active bool

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// Members and Expenses are populated only by detail reads.
	Members  []GroupMember
	Expenses []GroupExpense
}

// MemberStatus is the invite state of a group member.
type MemberStatus string

const (
	MemberPending  MemberStatus = "pending"
	MemberJoined   MemberStatus = "joined"
	MemberDeclined MemberStatus = "declined"
)

// Valid reports whether s is a known status.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberPending, MemberJoined, MemberDeclined:
		return true
	}
	return false
}

// GroupMember is a participant in exactly one group.
type GroupMember struct {
	// ID is the unique identifier for the membership row (UUID format).
	ID string

	// GroupID is the group this member belongs to.
	GroupID string

	// UserID links the member to an account. Empty for contacts without an
	// account; may be set later when the contact signs up.
	UserID string

	// Name is the display name shown to other members.
	Name string

	// Email and Phone are the contact handles used for duplicate detection.
	Email string
	Phone string

	// Status moves pending -> joined or pending -> declined exactly once.
	Status MemberStatus

	// Balance is the member's net position versus the group.
	// Positive = the group owes this member, negative = the member owes the group.
	Balance decimal.Decimal

	// CreatedAt is the Unix timestamp when the member was added.
	CreatedAt int64
}

// Linked reports whether the member has an associated user account.
func (m *GroupMember) Linked() bool {
	return m.UserID != ""
}

// MemberBalance is the read-only balance projection of one member.
type MemberBalance struct {
	MemberID string
	Name     string
	Balance  decimal.Decimal
}
