package interceptors

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/metrics"
)

var secret = []byte("test-secret")

type ping struct{}

// captureNext records the context it was called with.
func captureNext(got *context.Context) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*got = ctx
		return connect.NewResponse(&ping{}), nil
	}
}

func TestToken_RoundTrip(t *testing.T) {
	raw, err := IssueToken(secret, "user-1", "admin", "acme", time.Hour)
	require.NoError(t, err)

	p, err := ParseToken(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "user-1", Role: "admin", Org: "acme"}, p)

	_, err = ParseToken([]byte("other"), raw)
	assert.Error(t, err)

	expired, err := IssueToken(secret, "user-1", "", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.Error(t, err)
}

func TestAuthInterceptor(t *testing.T) {
	valid, err := IssueToken(secret, "user-7", "viewer", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantUser string
	}{
		{"valid token", "Bearer " + valid, 0, "user-7"},
		{"lowercase scheme", "bearer " + valid, 0, "user-7"},
		{"missing header", "", connect.CodeUnauthenticated, ""},
		{"wrong scheme", "Basic abc", connect.CodeUnauthenticated, ""},
		{"garbage token", "Bearer not-a-jwt", connect.CodeUnauthenticated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got context.Context
			handler := NewAuthInterceptor(secret)(captureNext(&got))

			req := connect.NewRequest(&ping{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}
			_, err := handler(context.Background(), req)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			id, ok := GetUserIDFromContext(got)
			assert.True(t, ok)
			assert.Equal(t, tt.wantUser, id)
		})
	}
}

func TestAuthInterceptor_PublicProcedure(t *testing.T) {
	var got context.Context
	// A bare request has an empty procedure name.
	handler := NewAuthInterceptor(secret, "")(captureNext(&got))

	_, err := handler(context.Background(), connect.NewRequest(&ping{}))

	require.NoError(t, err)
	_, ok := PrincipalFromContext(got)
	assert.False(t, ok)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)

	assert.True(t, limiter.Allow("user:a"))
	assert.True(t, limiter.Allow("user:a"))
	assert.False(t, limiter.Allow("user:a"))
	assert.True(t, limiter.Allow("user:b"), "buckets are per principal")

	var got context.Context
	handler := limiter.Interceptor()(captureNext(&got))
	ctx := WithPrincipal(context.Background(), Principal{UserID: "a"})
	_, err := handler(ctx, connect.NewRequest(&ping{}))
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	failing := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("bad file type"))
	}
	_, err := NewLoggingInterceptor(logger)(failing)(context.Background(), connect.NewRequest(&ping{}))

	require.Error(t, err)
	assert.Contains(t, buf.String(), `"msg":"rpc rejected"`)
	assert.Contains(t, buf.String(), `"code":"invalid_argument"`)
}

func TestMetricsInterceptor(t *testing.T) {
	m := metrics.New()
	var got context.Context

	_, err := NewMetricsInterceptor(m)(captureNext(&got))(context.Background(), connect.NewRequest(&ping{}))

	require.NoError(t, err)
	count, err := m.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range count {
		if mf.GetName() == "dashboard_rpc_requests_total" {
			found = true
		}
	}
	assert.True(t, found)
}
