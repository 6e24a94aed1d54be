// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate row")
)

// MemberMatch identifies a member by any of its contact handles.
// Empty fields never match.
type MemberMatch struct {
	Email  string
	Phone  string
	UserID string
}

// Queries defines the row-level operations of the ledger schema.
// The same set is available on the connection pool and inside a transaction.
// Lock* methods take row locks where the backend supports them and must be
// called inside InTx to be meaningful.
type Queries interface {
	// CreateUser inserts a new user.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil, nil when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	InsertGroup(ctx context.Context, group *models.Group) error
	// GetGroup returns ErrNotFound if the group does not exist (active or not).
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	LockGroup(ctx context.Context, groupID string) (*models.Group, error)
	SetGroupActive(ctx context.Context, groupID string, active bool) error
	// ListGroupsForUser returns active groups where the user has a non-declined membership.
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
	ListActiveGroupIDs(ctx context.Context) ([]string, error)

	InsertMember(ctx context.Context, member *models.GroupMember) error
	GetMember(ctx context.Context, memberID string) (*models.GroupMember, error)
	LockMember(ctx context.Context, memberID string) (*models.GroupMember, error)
	// ListMembers returns every member of the group in insertion order.
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	// LockJoinedMembers returns the joined members of the group in insertion order.
	LockJoinedMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	// FindMembership returns the user's most relevant membership row in the group
	// (joined, then pending, then declined), or ErrNotFound.
	FindMembership(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	// FindActiveMember returns a non-declined member matching any handle, or ErrNotFound.
	FindActiveMember(ctx context.Context, groupID string, match MemberMatch) (*models.GroupMember, error)
	// ListPendingInvites returns the user's pending memberships in active groups.
	ListPendingInvites(ctx context.Context, userID string) ([]models.GroupMember, error)
	// ResolveInvite moves the user's pending membership in the group to status.
	// It reports false when no pending row matched.
	ResolveInvite(ctx context.Context, groupID, userID string, status models.MemberStatus) (bool, error)
	UpdateMemberBalance(ctx context.Context, memberID string, balance decimal.Decimal) error

	InsertExpense(ctx context.Context, expense *models.GroupExpense) error
	InsertSplit(ctx context.Context, split *models.Split) error
	GetExpense(ctx context.Context, expenseID string) (*models.GroupExpense, error)
	// ListExpenses returns the group's expenses, oldest first, with their splits.
	ListExpenses(ctx context.Context, groupID string) ([]models.GroupExpense, error)
	LockSplit(ctx context.Context, splitID string) (*models.Split, error)
	// MarkSplitSettled flips an unsettled split; it reports false if the split
	// was already settled.
	MarkSplitSettled(ctx context.Context, splitID string, settledAt int64) (bool, error)
}

// Store is a Queries implementation with transactions.
// This abstraction allows swapping storage backends (SQLite, MySQL, etc.)
// without changing the ledger.
type Store interface {
	Queries

	// InTx runs fn inside a single transaction. The transaction commits if fn
	// returns nil and rolls back otherwise. Transient lock conflicts are retried,
	// so fn may run more than once and must not leak state between attempts.
	InTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}
