package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyMsg struct{}

func TestInterceptor_RecordsOutcome(t *testing.T) {
	interceptor := Interceptor()
	ok := interceptor(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&emptyMsg{}), nil
	})
	failing := interceptor(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("missing"))
	})

	_, err := ok(context.Background(), connect.NewRequest(&emptyMsg{}))
	require.NoError(t, err)
	_, err = failing(context.Background(), connect.NewRequest(&emptyMsg{}))
	require.Error(t, err)

	// One series per status code.
	assert.Equal(t, 2, testutil.CollectAndCount(RPCDuration, "splitledger_rpc_duration_seconds"))
}

func TestHandler_ExposesLedgerMetrics(t *testing.T) {
	SplitsSettled.Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(SplitsSettled), 1.0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "splitledger_splits_settled_total")
}
