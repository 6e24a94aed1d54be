// Package metrics exposes Prometheus instrumentation for the ledger.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitledger"

var (
	// ExpensesAdded counts committed group expenses by split type.
	ExpensesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expenses_added_total",
		Help:      "Group expenses committed, by split type.",
	}, []string{"split_type"})

	// SplitsSettled counts committed settlements.
	SplitsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "splits_settled_total",
		Help:      "Splits marked settled.",
	})

	// Invites counts invite lifecycle events: sent, joined, declined.
	Invites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invites_total",
		Help:      "Group invites by outcome.",
	}, []string{"outcome"})

	// OperationErrors counts failed ledger operations by error kind.
	OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operation_errors_total",
		Help:      "Failed ledger operations, by operation and error kind.",
	}, []string{"operation", "kind"})

	// BalanceDrift is the number of members whose stored balance disagreed with
	// the balance derived from splits during the last reconciliation run.
	BalanceDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "balance_drift_members",
		Help:      "Members with drifted balances found by the last reconciliation.",
	})

	// ReconcileRuns counts reconciliation runs by result: clean, drift, error.
	ReconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_runs_total",
		Help:      "Reconciliation runs by result.",
	}, []string{"result"})

	// RPCDuration observes Connect handler latency.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "Connect RPC latency, by procedure and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure", "code"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Interceptor returns a Connect interceptor that records RPC latency.
func Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeUnknown.String()
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
				}
			}
			RPCDuration.WithLabelValues(req.Spec().Procedure, code).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}
