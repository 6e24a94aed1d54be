// Package apiconnect wires the splitledger services to Connect handlers and
// clients.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitledger/pkg/api"
)

const (
	// LedgerServiceName is the fully-qualified name of the LedgerService.
	LedgerServiceName = "splitledger.v1.LedgerService"
)

// LedgerService procedure paths.
const (
	LedgerServiceCreateGroupProcedure     = "/splitledger.v1.LedgerService/CreateGroup"
	LedgerServiceAddMemberProcedure       = "/splitledger.v1.LedgerService/AddMember"
	LedgerServiceRespondToInviteProcedure = "/splitledger.v1.LedgerService/RespondToInvite"
	LedgerServiceGetGroupProcedure        = "/splitledger.v1.LedgerService/GetGroup"
	LedgerServiceDeleteGroupProcedure     = "/splitledger.v1.LedgerService/DeleteGroup"
	LedgerServiceListGroupsProcedure      = "/splitledger.v1.LedgerService/ListGroups"
	LedgerServiceListInvitesProcedure     = "/splitledger.v1.LedgerService/ListInvites"
	LedgerServiceAddGroupExpenseProcedure = "/splitledger.v1.LedgerService/AddGroupExpense"
	LedgerServiceListExpensesProcedure    = "/splitledger.v1.LedgerService/ListExpenses"
	LedgerServiceSettleSplitProcedure     = "/splitledger.v1.LedgerService/SettleSplit"
	LedgerServiceGetBalancesProcedure     = "/splitledger.v1.LedgerService/GetBalances"
)

// LedgerServiceHandler is implemented by the server.
type LedgerServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RespondToInvite(context.Context, *connect.Request[api.RespondToInviteRequest]) (*connect.Response[api.RespondToInviteResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[api.DeleteGroupRequest]) (*connect.Response[emptypb.Empty], error)
	ListGroups(context.Context, *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error)
	ListInvites(context.Context, *connect.Request[api.ListInvitesRequest]) (*connect.Response[api.ListInvitesResponse], error)
	AddGroupExpense(context.Context, *connect.Request[api.AddGroupExpenseRequest]) (*connect.Response[api.AddGroupExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	SettleSplit(context.Context, *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for the service and returns
// the path prefix to mount it on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(LedgerServiceCreateGroupProcedure, connect.NewUnaryHandler(LedgerServiceCreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(LedgerServiceAddMemberProcedure, connect.NewUnaryHandler(LedgerServiceAddMemberProcedure, svc.AddMember, opts...))
	mux.Handle(LedgerServiceRespondToInviteProcedure, connect.NewUnaryHandler(LedgerServiceRespondToInviteProcedure, svc.RespondToInvite, opts...))
	mux.Handle(LedgerServiceGetGroupProcedure, connect.NewUnaryHandler(LedgerServiceGetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(LedgerServiceDeleteGroupProcedure, connect.NewUnaryHandler(LedgerServiceDeleteGroupProcedure, svc.DeleteGroup, opts...))
	mux.Handle(LedgerServiceListGroupsProcedure, connect.NewUnaryHandler(LedgerServiceListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(LedgerServiceListInvitesProcedure, connect.NewUnaryHandler(LedgerServiceListInvitesProcedure, svc.ListInvites, opts...))
	mux.Handle(LedgerServiceAddGroupExpenseProcedure, connect.NewUnaryHandler(LedgerServiceAddGroupExpenseProcedure, svc.AddGroupExpense, opts...))
	mux.Handle(LedgerServiceListExpensesProcedure, connect.NewUnaryHandler(LedgerServiceListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(LedgerServiceSettleSplitProcedure, connect.NewUnaryHandler(LedgerServiceSettleSplitProcedure, svc.SettleSplit, opts...))
	mux.Handle(LedgerServiceGetBalancesProcedure, connect.NewUnaryHandler(LedgerServiceGetBalancesProcedure, svc.GetBalances, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// LedgerServiceClient is a client for the LedgerService.
type LedgerServiceClient interface {
	LedgerServiceHandler
}

// NewLedgerServiceClient constructs a client for the service at baseURL
// (e.g. http://localhost:8080).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &ledgerServiceClient{
		createGroup:     connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+LedgerServiceCreateGroupProcedure, opts...),
		addMember:       connect.NewClient[api.AddMemberRequest, api.AddMemberResponse](httpClient, baseURL+LedgerServiceAddMemberProcedure, opts...),
		respondToInvite: connect.NewClient[api.RespondToInviteRequest, api.RespondToInviteResponse](httpClient, baseURL+LedgerServiceRespondToInviteProcedure, opts...),
		getGroup:        connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+LedgerServiceGetGroupProcedure, opts...),
		deleteGroup:     connect.NewClient[api.DeleteGroupRequest, emptypb.Empty](httpClient, baseURL+LedgerServiceDeleteGroupProcedure, opts...),
		listGroups:      connect.NewClient[api.ListGroupsRequest, api.ListGroupsResponse](httpClient, baseURL+LedgerServiceListGroupsProcedure, opts...),
		listInvites:     connect.NewClient[api.ListInvitesRequest, api.ListInvitesResponse](httpClient, baseURL+LedgerServiceListInvitesProcedure, opts...),
		addGroupExpense: connect.NewClient[api.AddGroupExpenseRequest, api.AddGroupExpenseResponse](httpClient, baseURL+LedgerServiceAddGroupExpenseProcedure, opts...),
		listExpenses:    connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+LedgerServiceListExpensesProcedure, opts...),
		settleSplit:     connect.NewClient[api.SettleSplitRequest, api.SettleSplitResponse](httpClient, baseURL+LedgerServiceSettleSplitProcedure, opts...),
		getBalances:     connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+LedgerServiceGetBalancesProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	createGroup     *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	addMember       *connect.Client[api.AddMemberRequest, api.AddMemberResponse]
	respondToInvite *connect.Client[api.RespondToInviteRequest, api.RespondToInviteResponse]
	getGroup        *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	deleteGroup     *connect.Client[api.DeleteGroupRequest, emptypb.Empty]
	listGroups      *connect.Client[api.ListGroupsRequest, api.ListGroupsResponse]
	listInvites     *connect.Client[api.ListInvitesRequest, api.ListInvitesResponse]
	addGroupExpense *connect.Client[api.AddGroupExpenseRequest, api.AddGroupExpenseResponse]
	listExpenses    *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	settleSplit     *connect.Client[api.SettleSplitRequest, api.SettleSplitResponse]
	getBalances     *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
}

func (c *ledgerServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RespondToInvite(ctx context.Context, req *connect.Request[api.RespondToInviteRequest]) (*connect.Response[api.RespondToInviteResponse], error) {
	return c.respondToInvite.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListInvites(ctx context.Context, req *connect.Request[api.ListInvitesRequest]) (*connect.Response[api.ListInvitesResponse], error) {
	return c.listInvites.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AddGroupExpense(ctx context.Context, req *connect.Request[api.AddGroupExpenseRequest]) (*connect.Response[api.AddGroupExpenseResponse], error) {
	return c.addGroupExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SettleSplit(ctx context.Context, req *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error) {
	return c.settleSplit.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}
