// Package server assembles the HTTP surface: the Connect services, the
// Prometheus endpoint and a health check, served over h2c.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Services are the RPC implementations mounted by New.
type Services struct {
	Ledger apiconnect.LedgerServiceHandler
	Auth   apiconnect.AuthServiceHandler
	// Tokens validates bearer tokens for both services.
	Tokens middleware.TokenValidator
}

// New returns the root handler. Ledger calls require a valid token; auth calls
// accept one when present.
func New(svc Services) http.Handler {
	mux := http.NewServeMux()

	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(svc.Ledger,
		connect.WithInterceptors(
			metrics.Interceptor(),
			middleware.RequireAuth(svc.Tokens),
			middleware.LoggingInterceptor(),
		),
	)
	mux.Handle(ledgerPath, ledgerHandler)

	authPath, authHandler := apiconnect.NewAuthServiceHandler(svc.Auth,
		connect.WithInterceptors(
			metrics.Interceptor(),
			middleware.OptionalAuth(svc.Tokens),
			middleware.LoggingInterceptor(),
		),
	)
	mux.Handle(authPath, authHandler)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// h2c serves HTTP/2 without TLS, which Connect and gRPC clients need.
	return h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, "+api.ErrorCodeHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
