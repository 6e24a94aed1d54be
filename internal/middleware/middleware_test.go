package middleware

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/models"
)

type emptyMsg struct{}

// identityEcho returns a handler that records the identity it was called with.
func identityEcho(userID, email *string) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*userID = GetUserID(ctx)
		*email = GetEmail(ctx)
		return connect.NewResponse(&emptyMsg{}), nil
	}
}

func request(authorization string) *connect.Request[emptyMsg] {
	req := connect.NewRequest(&emptyMsg{})
	if authorization != "" {
		req.Header().Set("Authorization", authorization)
	}
	return req
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, "header %q", tt.header)
		assert.Equal(t, tt.token, token, "header %q", tt.header)
	}
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("middleware-test-secret", time.Hour)
	user := models.NewUser("alice@example.com", "Alice", "hash")
	token, err := jwtManager.Generate(user)
	require.NoError(t, err)

	var userID, email string
	handler := RequireAuth(jwtManager)(identityEcho(&userID, &email))

	_, err = handler(context.Background(), request(""))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = handler(context.Background(), request("Basic "+token))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = handler(context.Background(), request("Bearer "+token+"x"))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = handler(context.Background(), request("Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, "alice@example.com", email)
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("middleware-test-secret", time.Hour)
	user := models.NewUser("bob@example.com", "Bob", "hash")
	token, err := jwtManager.Generate(user)
	require.NoError(t, err)

	var userID, email string
	handler := OptionalAuth(jwtManager)(identityEcho(&userID, &email))

	_, err = handler(context.Background(), request(""))
	require.NoError(t, err)
	assert.Empty(t, userID)

	_, err = handler(context.Background(), request("Bearer garbage"))
	require.NoError(t, err)
	assert.Empty(t, userID)

	_, err = handler(context.Background(), request("Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	wantErr := connect.NewError(connect.CodeNotFound, assert.AnError)
	handler := LoggingInterceptor()(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, wantErr
	})

	_, err := handler(WithUser(context.Background(), "u1", "u1@example.com"), request(""))
	assert.Same(t, wantErr, err)
}
