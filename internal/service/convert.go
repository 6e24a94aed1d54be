package service

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func timestamp(unix int64) *timestamppb.Timestamp {
	if unix == 0 {
		return nil
	}
	return timestamppb.New(time.Unix(unix, 0))
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   timestamp(u.CreatedAt),
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	out := &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Icon:        g.Icon,
		CreatedBy:   g.CreatedBy,
		Active:      g.Active,
		CreatedAt:   timestamp(g.CreatedAt),
	}
	for i := range g.Members {
		out.Members = append(out.Members, toAPIMember(&g.Members[i]))
	}
	for i := range g.Expenses {
		out.Expenses = append(out.Expenses, toAPIExpense(&g.Expenses[i]))
	}
	return out
}

func toAPIMember(m *models.GroupMember) *api.Member {
	return &api.Member{
		ID:        m.ID,
		GroupID:   m.GroupID,
		UserID:    m.UserID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Status:    string(m.Status),
		Balance:   m.Balance.StringFixed(2),
		CreatedAt: timestamp(m.CreatedAt),
	}
}

func toAPIExpense(e *models.GroupExpense) *api.Expense {
	out := &api.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		PaidByID:    e.PaidByID,
		Amount:      e.Amount.StringFixed(2),
		Description: e.Description,
		SplitType:   string(e.SplitType),
		CreatedAt:   timestamp(e.CreatedAt),
	}
	for i := range e.Splits {
		out.Splits = append(out.Splits, toAPISplit(&e.Splits[i]))
	}
	return out
}

func toAPISplit(s *models.Split) *api.Split {
	return &api.Split{
		ID:        s.ID,
		ExpenseID: s.ExpenseID,
		MemberID:  s.MemberID,
		Amount:    s.Amount.StringFixed(2),
		Settled:   s.Settled,
		SettledAt: timestamp(s.SettledAt),
	}
}

func toAPIBalance(b models.MemberBalance) *api.MemberBalance {
	return &api.MemberBalance{
		MemberID: b.MemberID,
		Name:     b.Name,
		Balance:  b.Balance.StringFixed(2),
	}
}

func toAPITransfer(t calculator.Transfer) *api.Transfer {
	return &api.Transfer{
		FromMemberID: t.FromMemberID,
		ToMemberID:   t.ToMemberID,
		Amount:       t.Amount.StringFixed(2),
	}
}
