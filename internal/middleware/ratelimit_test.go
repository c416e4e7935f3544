// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
)

func TestLoginLimiter_LocalFallback(t *testing.T) {
	rl := LoginLimiter(nil, PerMinute(2, 2))
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	limited := send("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, "2", limited.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, limited).Code)

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code, "other clients keep their own bucket")
}

func TestKeyByIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:41000"
	assert.Equal(t, "ip:192.0.2.7", KeyByIP(req))

	req.Header.Set("X-Real-IP", " 198.51.100.3 ")
	assert.Equal(t, "ip:198.51.100.3", KeyByIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.1.1")
	assert.Equal(t, "ip:10.1.1.1", KeyByIP(req))
}

func TestKeyByPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:41000"
	assert.Equal(t, "ip:192.0.2.7", KeyByPrincipal(req))

	ctx := auth.WithPrincipal(context.Background(), auth.Principal{UserID: "u1", Role: auth.RoleClient})
	assert.Equal(t, "user:u1", KeyByPrincipal(req.WithContext(ctx)))
}

func TestLocalLimiter_RejectsBadLimit(t *testing.T) {
	l := &localLimiter{}
	_, err := l.allow("k", PerMinute(0, 1))
	require.ErrorIs(t, err, errBadLimit)
}
