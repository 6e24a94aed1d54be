package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// expenseDeltas returns the balance change of every member allocated in an
// expense. The payer is credited with everything the other members owe,
// which is the amount minus the payer's own pre-settled share; every other
// member is debited their share. The deltas sum to zero.
func expenseDeltas(expense *models.GroupExpense) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal, len(expense.Splits))
	for _, split := range expense.Splits {
		if split.MemberID == expense.PaidByID {
			continue
		}
		deltas[split.MemberID] = deltas[split.MemberID].Sub(split.Amount)
		deltas[expense.PaidByID] = deltas[expense.PaidByID].Add(split.Amount)
	}
	return deltas
}

// applyExpense writes the balance changes of a freshly inserted expense.
// members must have been read under lock in the same transaction; it is the
// only place besides settlement that mutates balances.
func applyExpense(ctx context.Context, q storage.Queries, expense *models.GroupExpense, members []models.GroupMember) error {
	deltas := expenseDeltas(expense)
	for i := range members {
		m := &members[i]
		delta, ok := deltas[m.ID]
		if !ok || delta.IsZero() {
			continue
		}
		m.Balance = m.Balance.Add(delta)
		if err := q.UpdateMemberBalance(ctx, m.ID, m.Balance); err != nil {
			return err
		}
	}
	return nil
}

// GetBalances returns the joined members' balances, largest creditor first.
func (s *Service) GetBalances(ctx context.Context, groupID string) ([]models.MemberBalance, error) {
	const op = "GetBalances"
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, s.fail(op, err, ErrGroupNotFound, "group_id", groupID)
	}
	if !group.Active {
		return nil, s.fail(op, ErrGroupNotFound, nil, "group_id", groupID)
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, s.fail(op, err, nil, "group_id", groupID)
	}

	balances := make([]models.MemberBalance, 0, len(members))
	for _, m := range members {
		if m.Status != models.MemberJoined {
			continue
		}
		balances = append(balances, models.MemberBalance{
			MemberID: m.ID,
			Name:     m.Name,
			Balance:  m.Balance,
		})
	}
	calculator.SortBalances(balances)
	return balances, nil
}

// SuggestTransfers returns a short list of payments that would bring every
// balance in the group to zero.
func (s *Service) SuggestTransfers(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	balances, err := s.GetBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.SimplifyDebts(balances), nil
}
