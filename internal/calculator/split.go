// Package calculator holds the pure money computations of the ledger: dividing an
// expense into per-member allocations and deriving balances from split rows.
package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrNoMembers        = errors.New("no joined members to split with")
	ErrInvalidAmount    = errors.New("amount must be positive with at most two decimal places")
	ErrSumMismatch      = errors.New("shares do not add up to the expense amount")
	ErrNonPositiveShare = errors.New("every share must be positive")
	ErrUnknownMember    = errors.New("share references a member who has not joined the group")
	ErrDuplicateMember  = errors.New("member listed more than once")
	ErrPayerNotMember   = errors.New("payer must be a joined member of the group")
)

var hundred = decimal.NewFromInt(100)

// Allocation is one member's computed share of an expense.
type Allocation struct {
	MemberID string
	Amount   decimal.Decimal
	// Settled is true for the payer's own share, which never needs settling.
	Settled bool
}

// Share is a caller-supplied (member, value) pair. Value is a money amount for
// Exact and a percentage for Percent.
type Share struct {
	MemberID string
	Value    decimal.Decimal
}

// Policy divides an expense amount among members. The set of implementations is
// closed: Equal, Exact and Percent.
type Policy interface {
	Type() models.SplitType
	allocate(amount decimal.Decimal, payerID string, members *memberSet) ([]Allocation, error)
}

// Equal divides the amount evenly across every joined member, payer included.
// Amounts are truncated to cents and the leftover cents go to the payer.
type Equal struct{}

// Exact uses caller-provided amounts verbatim.
type Exact struct {
	Shares []Share
}

// Percent divides the amount by caller-provided percentages summing to 100.
// Leftover cents go to the payer if listed, otherwise to the first share.
type Percent struct {
	Shares []Share
}

func (Equal) Type() models.SplitType   { return models.SplitEqual }
func (Exact) Type() models.SplitType   { return models.SplitExact }
func (Percent) Type() models.SplitType { return models.SplitPercent }

// Allocate runs policy over the joined members of a group. The returned
// allocations always sum to amount exactly. The payer's allocation (if any) and
// zero allocations from tiny equal splits are marked settled.
func Allocate(amount decimal.Decimal, payerID string, members []models.GroupMember, policy Policy) ([]Allocation, error) {
	if !isCents(amount) || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	set := newMemberSet(members)
	if len(set.order) == 0 {
		return nil, ErrNoMembers
	}
	if !set.has(payerID) {
		return nil, ErrPayerNotMember
	}
	if policy == nil {
		policy = Equal{}
	}

	allocs, err := policy.allocate(amount, payerID, set)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range allocs {
		allocs[i].Settled = allocs[i].MemberID == payerID || allocs[i].Amount.IsZero()
		total = total.Add(allocs[i].Amount)
	}
	if !total.Equal(amount) {
		// Unreachable for the built-in policies.
		return nil, fmt.Errorf("%w: allocated %s of %s", ErrSumMismatch, total, amount)
	}
	return allocs, nil
}

func (Equal) allocate(amount decimal.Decimal, payerID string, members *memberSet) ([]Allocation, error) {
	n := decimal.NewFromInt(int64(len(members.order)))
	share := amount.Div(n).RoundDown(2)
	remainder := amount.Sub(share.Mul(n))

	allocs := make([]Allocation, 0, len(members.order))
	for _, id := range members.order {
		a := Allocation{MemberID: id, Amount: share}
		if id == payerID {
			a.Amount = a.Amount.Add(remainder)
		}
		allocs = append(allocs, a)
	}
	return allocs, nil
}

func (p Exact) allocate(amount decimal.Decimal, _ string, members *memberSet) ([]Allocation, error) {
	if err := validateShares(p.Shares, members); err != nil {
		return nil, err
	}

	total := decimal.Zero
	allocs := make([]Allocation, 0, len(p.Shares))
	for _, s := range p.Shares {
		if !isCents(s.Value) {
			return nil, fmt.Errorf("%w: share %s for member %s", ErrInvalidAmount, s.Value, s.MemberID)
		}
		total = total.Add(s.Value)
		allocs = append(allocs, Allocation{MemberID: s.MemberID, Amount: s.Value})
	}
	if !total.Equal(amount) {
		return nil, fmt.Errorf("%w: shares total %s, expense is %s", ErrSumMismatch, total, amount)
	}
	return allocs, nil
}

func (p Percent) allocate(amount decimal.Decimal, payerID string, members *memberSet) ([]Allocation, error) {
	if err := validateShares(p.Shares, members); err != nil {
		return nil, err
	}

	pct := decimal.Zero
	for _, s := range p.Shares {
		pct = pct.Add(s.Value)
	}
	if !pct.Equal(hundred) {
		return nil, fmt.Errorf("%w: percentages total %s, want 100", ErrSumMismatch, pct)
	}

	absorber := 0
	allocated := decimal.Zero
	allocs := make([]Allocation, 0, len(p.Shares))
	for i, s := range p.Shares {
		v := amount.Mul(s.Value).Div(hundred).RoundDown(2)
		allocated = allocated.Add(v)
		allocs = append(allocs, Allocation{MemberID: s.MemberID, Amount: v})
		if s.MemberID == payerID {
			absorber = i
		}
	}
	allocs[absorber].Amount = allocs[absorber].Amount.Add(amount.Sub(allocated))
	for _, a := range allocs {
		if !a.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: member %s rounds to zero", ErrNonPositiveShare, a.MemberID)
		}
	}
	return allocs, nil
}

func validateShares(shares []Share, members *memberSet) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: no shares given", ErrSumMismatch)
	}
	seen := make(map[string]bool, len(shares))
	for _, s := range shares {
		if !s.Value.IsPositive() {
			return fmt.Errorf("%w: member %s has %s", ErrNonPositiveShare, s.MemberID, s.Value)
		}
		if !members.has(s.MemberID) {
			return fmt.Errorf("%w: %s", ErrUnknownMember, s.MemberID)
		}
		if seen[s.MemberID] {
			return fmt.Errorf("%w: %s", ErrDuplicateMember, s.MemberID)
		}
		seen[s.MemberID] = true
	}
	return nil
}

// isCents reports whether d has no fractional part below one cent.
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// memberSet keeps the joined members in store order plus a lookup index.
type memberSet struct {
	order []string
	index map[string]bool
}

func newMemberSet(members []models.GroupMember) *memberSet {
	set := &memberSet{index: make(map[string]bool, len(members))}
	for _, m := range members {
		if m.Status != models.MemberJoined || set.index[m.ID] {
			continue
		}
		set.order = append(set.order, m.ID)
		set.index[m.ID] = true
	}
	return set
}

func (s *memberSet) has(id string) bool {
	return s.index[id]
}
