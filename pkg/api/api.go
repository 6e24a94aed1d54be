// Package api defines the request and response messages of the splitledger
// Connect services. Messages are encoded as JSON; money amounts travel as
// decimal strings and timestamps as google.protobuf.Timestamp.
package api

import "google.golang.org/protobuf/types/known/timestamppb"

type User struct {
	ID          string                 `json:"id"`
	Email       string                 `json:"email"`
	DisplayName string                 `json:"display_name"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at,omitempty"`
}

type Group struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Icon        string                 `json:"icon,omitempty"`
	CreatedBy   string                 `json:"created_by"`
	Active      bool                   `json:"active"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at,omitempty"`
	Members     []*Member              `json:"members,omitempty"`
	Expenses    []*Expense             `json:"expenses,omitempty"`
}

type Member struct {
	ID        string                 `json:"id"`
	GroupID   string                 `json:"group_id"`
	UserID    string                 `json:"user_id,omitempty"`
	Name      string                 `json:"name"`
	Email     string                 `json:"email,omitempty"`
	Phone     string                 `json:"phone,omitempty"`
	Status    string                 `json:"status"`
	Balance   string                 `json:"balance"`
	CreatedAt *timestamppb.Timestamp `json:"created_at,omitempty"`
}

type Expense struct {
	ID          string                 `json:"id"`
	GroupID     string                 `json:"group_id"`
	PaidByID    string                 `json:"paid_by_id"`
	Amount      string                 `json:"amount"`
	Description string                 `json:"description"`
	SplitType   string                 `json:"split_type"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at,omitempty"`
	Splits      []*Split               `json:"splits,omitempty"`
}

type Split struct {
	ID        string                 `json:"id"`
	ExpenseID string                 `json:"expense_id"`
	MemberID  string                 `json:"member_id"`
	Amount    string                 `json:"amount"`
	Settled   bool                   `json:"settled"`
	SettledAt *timestamppb.Timestamp `json:"settled_at,omitempty"`
}

// Share is a caller-supplied allocation: an amount for "exact" splits or a
// percentage for "percent" splits.
type Share struct {
	MemberID string `json:"member_id"`
	Value    string `json:"value"`
}

type MemberBalance struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Balance  string `json:"balance"`
}

// Transfer is a suggested payment that moves balances toward zero.
type Transfer struct {
	FromMemberID string `json:"from_member_id"`
	ToMemberID   string `json:"to_member_id"`
	Amount       string `json:"amount"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
}

type RespondToInviteRequest struct {
	GroupID string `json:"group_id"`
	Accept  bool   `json:"accept"`
}

type RespondToInviteResponse struct {
	Status string `json:"status"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type ListInvitesRequest struct{}

type ListInvitesResponse struct {
	Invites []*Member `json:"invites"`
}

// AddGroupExpenseRequest adds an expense. SplitType is "equal" (default),
// "exact" or "percent"; Shares is required for the latter two.
type AddGroupExpenseRequest struct {
	GroupID     string   `json:"group_id"`
	PaidByID    string   `json:"paid_by_id"`
	Amount      string   `json:"amount"`
	Description string   `json:"description"`
	SplitType   string   `json:"split_type,omitempty"`
	Shares      []*Share `json:"shares,omitempty"`
}

type AddGroupExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type SettleSplitRequest struct {
	SplitID  string `json:"split_id"`
	MemberID string `json:"member_id"`
}

type SettleSplitResponse struct {
	Split *Split `json:"split"`
}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	Balances  []*MemberBalance `json:"balances"`
	Transfers []*Transfer      `json:"transfers,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// ErrorCodeHeader carries the ledger error code (e.g. "MEMBER_EXISTS") on
// failed responses so clients can tell conflicts of the same Connect code apart.
const ErrorCodeHeader = "Ledger-Error-Code"
