// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/config"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

func newTestCodec(t *testing.T) *auth.Codec {
	t.Helper()

	codec, err := auth.NewCodec(config.JWTConfig{
		Secret:            "0123456789abcdef0123456789abcdef",
		Issuer:            "marketplace-backend",
		Audience:          "marketplace-api",
		AccessTokenExpire: time.Hour,
	})
	require.NoError(t, err)
	return codec
}

func issue(t *testing.T, codec *auth.Codec, userID string, role auth.Role, ttl time.Duration) string {
	t.Helper()

	tok, err := codec.Issue(auth.SessionClaims{UserID: userID, Role: role, Name: "N"}, ttl)
	require.NoError(t, err)
	return tok
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.Error {
	t.Helper()

	var body core.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.False(t, body.Success)
	return *body.Error
}

func TestAuthenticate(t *testing.T) {
	codec := newTestCodec(t)
	authn := auth.NewAuthenticator(codec)

	var seen auth.Principal
	protected := RequireAdmin(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "basic scheme",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "garbage token",
			header:     "Bearer not-a-jwt",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "TOKEN_INVALID",
		},
		{
			name:       "expired token",
			header:     "Bearer " + issue(t, codec, "u1", auth.RoleAdmin, 0),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "TOKEN_EXPIRED",
		},
		{
			name:       "wrong role",
			header:     "Bearer " + issue(t, codec, "u1", auth.RoleTherapist, time.Hour),
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "admin",
			header:     "bearer " + issue(t, codec, "admin-1", auth.RoleAdmin, time.Hour),
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = auth.Principal{}

			req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode == "" {
				assert.Equal(t, "admin-1", seen.UserID)
				assert.Equal(t, auth.RoleAdmin, seen.Role)
				return
			}
			assert.Empty(t, seen.UserID)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestAuthenticate_AnyRole(t *testing.T) {
	codec := newTestCodec(t)
	mw := Authenticate(auth.NewAuthenticator(codec))

	for _, role := range []auth.Role{auth.RoleClient, auth.RoleTherapist, auth.RoleClinicOwner, auth.RoleAdmin} {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, codec, "u-"+string(role), role, time.Hour))
		rec := httptest.NewRecorder()

		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			assert.True(t, ok)
			assert.Equal(t, role, p.Role)
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, role)
	}
}

func TestAuthenticate_DoesNotLeakReason(t *testing.T) {
	other, err := auth.NewCodec(config.JWTConfig{
		Secret:            "ffffffffffffffffffffffffffffffff",
		Issuer:            "marketplace-backend",
		Audience:          "marketplace-api",
		AccessTokenExpire: time.Hour,
	})
	require.NoError(t, err)

	mw := Authenticate(auth.NewAuthenticator(newTestCodec(t)))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, other, "u1", auth.RoleAdmin, time.Hour))
	rec := httptest.NewRecorder()

	mw(http.NotFoundHandler()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "invalid token", e.Message)
	assert.NotContains(t, e.Message, "signature")
}
