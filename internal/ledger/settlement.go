package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
)

// SettleSplit marks a split as paid by the member who owes it. The debtor's
// balance rises by the split amount and the expense payer's falls by the same
// amount, so group balances keep summing to zero.
func (s *Service) SettleSplit(ctx context.Context, splitID, payingMemberID string) (*models.Split, error) {
	const op = "SettleSplit"

	var (
		settled       *models.Split
		debtor, payer *models.GroupMember
		expense       *models.GroupExpense
	)
	err := s.store.InTx(ctx, func(ctx context.Context, q storage.Queries) error {
		split, err := q.LockSplit(ctx, splitID)
		if err != nil {
			return classify(err, ErrSplitNotFound)
		}
		if split.MemberID != payingMemberID {
			return ErrSplitNotFound
		}
		if split.Settled {
			return ErrSplitSettled
		}

		e, err := q.GetExpense(ctx, split.ExpenseID)
		if err != nil {
			return err
		}
		g, err := q.LockGroup(ctx, e.GroupID)
		if err != nil {
			return err
		}
		if !g.Active {
			return ErrGroupInactive
		}

		locked, err := lockMembers(ctx, q, split.MemberID, e.PaidByID)
		if err != nil {
			return err
		}
		d, p := locked[split.MemberID], locked[e.PaidByID]

		now := s.now().Unix()
		ok, err := q.MarkSplitSettled(ctx, split.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSplitSettled
		}
		split.Settled = true
		split.SettledAt = now

		if d.ID != p.ID {
			d.Balance = d.Balance.Add(split.Amount)
			p.Balance = p.Balance.Sub(split.Amount)
			if err := q.UpdateMemberBalance(ctx, d.ID, d.Balance); err != nil {
				return err
			}
			if err := q.UpdateMemberBalance(ctx, p.ID, p.Balance); err != nil {
				return err
			}
		}
		settled, debtor, payer, expense = split, d, p, e
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err, nil, "split_id", splitID, "member_id", payingMemberID)
	}

	metrics.SplitsSettled.Inc()
	s.logger.Info("Split settled",
		"split_id", settled.ID,
		"expense_id", settled.ExpenseID,
		"member_id", debtor.ID,
		"amount", settled.Amount.String(),
	)
	if payer.Linked() && payer.ID != debtor.ID {
		s.notify(ctx, payer.UserID,
			"Split paid",
			fmt.Sprintf("%s paid you %s for %q.",
				debtor.Name, notify.FormatAmount(s.currency, settled.Amount), expense.Description),
			map[string]string{
				"type":       notify.TypeSplitPaid,
				"group_id":   expense.GroupID,
				"expense_id": expense.ID,
				"split_id":   settled.ID,
			},
		)
	}
	return settled, nil
}

// lockMembers locks the given members in ID order so that concurrent
// settlements touching the same pair cannot deadlock.
func lockMembers(ctx context.Context, q storage.Queries, ids ...string) (map[string]*models.GroupMember, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	locked := make(map[string]*models.GroupMember, len(sorted))
	for _, id := range sorted {
		if _, ok := locked[id]; ok {
			continue
		}
		m, err := q.LockMember(ctx, id)
		if err != nil {
			return nil, classify(err, ErrMemberNotFound)
		}
		locked[id] = m
	}
	return locked, nil
}
