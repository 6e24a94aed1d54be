package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
)

// NewExpense describes an expense to add to a group.
type NewExpense struct {
	GroupID string
	// PaidByID is the GroupMember ID of the payer, who must be joined.
	PaidByID    string
	Amount      decimal.Decimal
	Description string
	// Policy divides Amount among the joined members. Nil means Equal.
	Policy calculator.Policy
}

// AddGroupExpense records an expense, its splits and the resulting balance
// changes in one transaction. Linked members who owe a share are notified
// after commit.
func (s *Service) AddGroupExpense(ctx context.Context, in NewExpense) (*models.GroupExpense, error) {
	const op = "AddGroupExpense"
	in.Description = cleanText(in.Description)
	if in.Description == "" {
		return nil, s.fail(op, invalid("description is required"), nil, "group_id", in.GroupID)
	}
	if in.Policy == nil {
		in.Policy = calculator.Equal{}
	}

	var (
		expense *models.GroupExpense
		group   *models.Group
		members []models.GroupMember
	)
	err := s.store.InTx(ctx, func(ctx context.Context, q storage.Queries) error {
		g, err := q.LockGroup(ctx, in.GroupID)
		if err != nil {
			return classify(err, ErrGroupNotFound)
		}
		if !g.Active {
			return ErrGroupInactive
		}

		joined, err := q.LockJoinedMembers(ctx, in.GroupID)
		if err != nil {
			return err
		}
		if len(joined) == 0 {
			return ErrNoMembers
		}

		allocs, err := calculator.Allocate(in.Amount, in.PaidByID, joined, in.Policy)
		if err != nil {
			return splitPolicyErr(err)
		}

		now := s.now().Unix()
		e := &models.GroupExpense{
			ID:          s.newID(),
			GroupID:     in.GroupID,
			PaidByID:    in.PaidByID,
			Amount:      in.Amount,
			Description: in.Description,
			SplitType:   in.Policy.Type(),
			CreatedAt:   now,
		}
		if err := q.InsertExpense(ctx, e); err != nil {
			return err
		}

		e.Splits = make([]models.Split, 0, len(allocs))
		for _, a := range allocs {
			split := models.Split{
				ID:        s.newID(),
				ExpenseID: e.ID,
				MemberID:  a.MemberID,
				Amount:    a.Amount,
				Settled:   a.Settled,
			}
			if split.Settled {
				split.SettledAt = now
			}
			if err := q.InsertSplit(ctx, &split); err != nil {
				return err
			}
			e.Splits = append(e.Splits, split)
		}

		if err := applyExpense(ctx, q, e, joined); err != nil {
			return err
		}
		expense, group, members = e, g, joined
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err, nil, "group_id", in.GroupID, "paid_by_id", in.PaidByID)
	}

	metrics.ExpensesAdded.WithLabelValues(string(expense.SplitType)).Inc()
	s.logger.Info("Expense added",
		"group_id", expense.GroupID,
		"expense_id", expense.ID,
		"amount", expense.Amount.String(),
		"split_type", expense.SplitType,
		"splits", len(expense.Splits),
	)
	s.notifyDebtors(ctx, group, expense, members)
	return expense, nil
}

// ListExpenses returns a group's expenses with their splits, oldest first.
func (s *Service) ListExpenses(ctx context.Context, groupID string) ([]models.GroupExpense, error) {
	expenses, err := s.store.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, s.fail("ListExpenses", err, nil, "group_id", groupID)
	}
	return expenses, nil
}

func (s *Service) notifyDebtors(ctx context.Context, group *models.Group, expense *models.GroupExpense, members []models.GroupMember) {
	byID := make(map[string]*models.GroupMember, len(members))
	for i := range members {
		byID[members[i].ID] = &members[i]
	}
	payer := byID[expense.PaidByID]

	for _, split := range expense.Splits {
		m := byID[split.MemberID]
		if split.Settled || m == nil || !m.Linked() {
			continue
		}
		s.notify(ctx, m.UserID,
			fmt.Sprintf("New expense in %s", group.Name),
			fmt.Sprintf("%s paid for %q. Your share is %s.",
				payer.Name, expense.Description, notify.FormatAmount(s.currency, split.Amount)),
			map[string]string{
				"type":       notify.TypeExpenseAdded,
				"group_id":   group.ID,
				"expense_id": expense.ID,
				"split_id":   split.ID,
			},
		)
	}
}
