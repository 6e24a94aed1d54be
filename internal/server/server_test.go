package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens := auth.NewJWTManager("server-test-secret-key", time.Hour)
	srv := httptest.NewServer(New(Services{
		Ledger: service.NewLedgerService(ledger.New(store)),
		Auth:   service.NewAuthService(auth.NewPasswordAuthenticator(store), tokens, store, nil),
		Tokens: tokens,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	srv := setupServer(t)
	status, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestCORSPreflight(t *testing.T) {
	srv := setupServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+apiconnect.LedgerServiceCreateGroupProcedure, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), api.ErrorCodeHeader)
}

func TestRPCsAreAuthenticatedAndMeasured(t *testing.T) {
	srv := setupServer(t)
	ctx := context.Background()
	authClient := apiconnect.NewAuthServiceClient(http.DefaultClient, srv.URL)
	ledgerClient := apiconnect.NewLedgerServiceClient(http.DefaultClient, srv.URL)

	_, err := ledgerClient.ListGroups(ctx, connect.NewRequest(&api.ListGroupsRequest{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	reg, err := authClient.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "alice@example.com", DisplayName: "Alice", Password: "password123",
	}))
	require.NoError(t, err)

	req := connect.NewRequest(&api.CreateGroupRequest{Name: "Flat"})
	req.Header().Set("Authorization", "Bearer "+reg.Msg.Token)
	_, err = ledgerClient.CreateGroup(ctx, req)
	require.NoError(t, err)

	status, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "splitledger_rpc_duration_seconds")
	assert.Contains(t, body, apiconnect.LedgerServiceCreateGroupProcedure)
}
