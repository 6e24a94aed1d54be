package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService implements the Connect LedgerService on top of the ledger.
// Every call runs as the authenticated user; group-scoped reads require a
// membership row and writes require a joined membership.
type LedgerService struct {
	ledger *ledger.Service
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(l *ledger.Service) *LedgerService {
	return &LedgerService{ledger: l}
}

// CreateGroup creates a group with the caller as its first member.
func (s *LedgerService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "user_id", userID, "name", req.Msg.Name)

	group, err := s.ledger.CreateGroup(ctx, userID, req.Msg.Name, req.Msg.Description, req.Msg.Icon)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("CreateGroup successful", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// AddMember adds a contact or invites a registered user to the group.
func (s *LedgerService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddMember request received", "group_id", req.Msg.GroupID, "user_id", userID)

	member, err := s.ledger.AddMember(ctx, req.Msg.GroupID, userID, req.Msg.Name, req.Msg.Email, req.Msg.Phone)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("AddMember successful", "group_id", member.GroupID, "member_id", member.ID, "status", member.Status)
	return connect.NewResponse(&api.AddMemberResponse{Member: toAPIMember(member)}), nil
}

// RespondToInvite accepts or declines the caller's pending invite.
func (s *LedgerService) RespondToInvite(ctx context.Context, req *connect.Request[api.RespondToInviteRequest]) (*connect.Response[api.RespondToInviteResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RespondToInvite request received", "group_id", req.Msg.GroupID, "user_id", userID, "accept", req.Msg.Accept)

	status, err := s.ledger.RespondToInvite(ctx, userID, req.Msg.GroupID, req.Msg.Accept)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("RespondToInvite successful", "group_id", req.Msg.GroupID, "status", status)
	return connect.NewResponse(&api.RespondToInviteResponse{Status: string(status)}), nil
}

// GetGroup returns the group detail. Groups the caller cannot see are reported
// as not found.
func (s *LedgerService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.ledger.GetGroup(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, connectError(err)
	}
	if group == nil {
		return nil, connectError(ledger.ErrGroupNotFound)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "members", len(group.Members), "expenses", len(group.Expenses))
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// DeleteGroup soft-deletes a group created by the caller.
func (s *LedgerService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := s.ledger.DeleteGroup(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, connectError(err)
	}

	slog.Info("DeleteGroup successful", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// ListGroups returns the caller's active groups.
func (s *LedgerService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListGroups request received", "user_id", userID)

	groups, err := s.ledger.ListGroups(ctx, userID)
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i := range groups {
		out[i] = toAPIGroup(&groups[i])
	}

	slog.Info("ListGroups successful", "count", len(out))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// ListInvites returns the caller's pending invites.
func (s *LedgerService) ListInvites(ctx context.Context, req *connect.Request[api.ListInvitesRequest]) (*connect.Response[api.ListInvitesResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListInvites request received", "user_id", userID)

	invites, err := s.ledger.ListInvites(ctx, userID)
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]*api.Member, len(invites))
	for i := range invites {
		out[i] = toAPIMember(&invites[i])
	}

	slog.Info("ListInvites successful", "count", len(out))
	return connect.NewResponse(&api.ListInvitesResponse{Invites: out}), nil
}

// AddGroupExpense records an expense. The caller must be a joined member.
func (s *LedgerService) AddGroupExpense(ctx context.Context, req *connect.Request[api.AddGroupExpenseRequest]) (*connect.Response[api.AddGroupExpenseResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddGroupExpense request received",
		"group_id", req.Msg.GroupID,
		"paid_by_id", req.Msg.PaidByID,
		"amount", req.Msg.Amount,
		"split_type", req.Msg.SplitType,
	)

	if err := s.requireJoined(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, connectError(err)
	}

	amount, err := parseMoney("amount", req.Msg.Amount)
	if err != nil {
		return nil, connectError(err)
	}
	policy, err := parsePolicy(req.Msg.SplitType, req.Msg.Shares)
	if err != nil {
		return nil, connectError(err)
	}

	expense, err := s.ledger.AddGroupExpense(ctx, ledger.NewExpense{
		GroupID:     req.Msg.GroupID,
		PaidByID:    req.Msg.PaidByID,
		Amount:      amount,
		Description: req.Msg.Description,
		Policy:      policy,
	})
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("AddGroupExpense successful", "expense_id", expense.ID, "splits", len(expense.Splits))
	return connect.NewResponse(&api.AddGroupExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// ListExpenses returns the group's expenses with their splits.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupID)

	if _, err := s.ledger.Membership(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, connectError(err)
	}
	expenses, err := s.ledger.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i := range expenses {
		out[i] = toAPIExpense(&expenses[i])
	}

	slog.Info("ListExpenses successful", "group_id", req.Msg.GroupID, "count", len(out))
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// SettleSplit records that a member paid off their share. The caller must be
// a joined member of the split's group.
func (s *LedgerService) SettleSplit(ctx context.Context, req *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("SettleSplit request received", "split_id", req.Msg.SplitID, "member_id", req.Msg.MemberID)

	member, err := s.ledger.Member(ctx, req.Msg.MemberID)
	if err != nil {
		if ledger.KindOf(err) == ledger.KindNotFound {
			err = ledger.ErrSplitNotFound
		}
		return nil, connectError(err)
	}
	if err := s.requireJoined(ctx, member.GroupID, userID); err != nil {
		return nil, connectError(err)
	}

	split, err := s.ledger.SettleSplit(ctx, req.Msg.SplitID, req.Msg.MemberID)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("SettleSplit successful", "split_id", split.ID, "amount", split.Amount.String())
	return connect.NewResponse(&api.SettleSplitResponse{Split: toAPISplit(split)}), nil
}

// GetBalances returns the joined members' balances and the transfers that
// would clear them.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	if _, err := s.ledger.Membership(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, connectError(err)
	}
	balances, err := s.ledger.GetBalances(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, connectError(err)
	}

	resp := &api.GetBalancesResponse{Balances: make([]*api.MemberBalance, len(balances))}
	for i, b := range balances {
		resp.Balances[i] = toAPIBalance(b)
	}
	for _, t := range calculator.SimplifyDebts(balances) {
		resp.Transfers = append(resp.Transfers, toAPITransfer(t))
	}

	slog.Info("GetBalances successful", "group_id", req.Msg.GroupID, "members", len(balances))
	return connect.NewResponse(resp), nil
}

func (s *LedgerService) requireJoined(ctx context.Context, groupID, userID string) error {
	m, err := s.ledger.Membership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if m.Status != models.MemberJoined {
		return ledger.ErrGroupNotFound
	}
	return nil
}

func currentUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ledger.ErrValidation, fmt.Sprintf(format, args...))
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, invalidArgument("%s %q is not a decimal number", field, value)
	}
	return d, nil
}

// parsePolicy builds the split policy named by splitType. An empty type means
// an equal split.
func parsePolicy(splitType string, shares []*api.Share) (calculator.Policy, error) {
	switch models.SplitType(splitType) {
	case "", models.SplitEqual:
		if len(shares) > 0 {
			return nil, invalidArgument("shares are not accepted for equal splits")
		}
		return calculator.Equal{}, nil
	case models.SplitExact, models.SplitPercent:
		parsed := make([]calculator.Share, 0, len(shares))
		for _, sh := range shares {
			if sh == nil {
				continue
			}
			v, err := parseMoney("share", sh.Value)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, calculator.Share{MemberID: sh.MemberID, Value: v})
		}
		if len(parsed) == 0 {
			return nil, invalidArgument("%s splits need at least one share", splitType)
		}
		if models.SplitType(splitType) == models.SplitExact {
			return calculator.Exact{Shares: parsed}, nil
		}
		return calculator.Percent{Shares: parsed}, nil
	default:
		return nil, invalidArgument("unknown split type %q", splitType)
	}
}
