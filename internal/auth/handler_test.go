// AngelaMos | 2026
// handler_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

func passthrough(next http.Handler) http.Handler { return next }

func injectPrincipal(p Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func newTestRouter(t *testing.T, users *mockUserProvider, authn func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	svc := NewService(newTestCodec(t, &testClock{t: epoch}), users)
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, authn, passthrough)
	return r
}

func doJSON(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) core.Response {
	t.Helper()
	var resp core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandler_RegisterRejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "admin role",
			body:    `{"email":"a@example.com","password":"password123","name":"A","role":"ADMIN"}`,
			message: "role must be one of [CLIENT THERAPIST CLINIC_OWNER]",
		},
		{
			name:    "unknown role",
			body:    `{"email":"a@example.com","password":"password123","name":"A","role":"WIZARD"}`,
			message: "role must be one of [CLIENT THERAPIST CLINIC_OWNER]",
		},
		{
			name:    "short password",
			body:    `{"email":"a@example.com","password":"short","name":"A","role":"CLIENT"}`,
			message: "password must be at least 8 characters",
		},
		{
			name:    "malformed body",
			body:    `{"email":`,
			message: "invalid request body",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := &mockUserProvider{}
			h := newTestRouter(t, users, passthrough)

			rec := doJSON(h, http.MethodPost, "/auth/register", tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeEnvelope(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			assert.Equal(t, tc.message, resp.Error.Message)
			users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_RegisterCreatesSession(t *testing.T) {
	users := &mockUserProvider{}
	users.On("Register", mock.Anything, mock.MatchedBy(func(u NewUser) bool {
		return u.Role == RoleTherapist && u.Email == "sam@example.com"
	})).Return(&UserInfo{ID: "u-7", Email: "sam@example.com", Name: "Sam", Role: RoleTherapist}, nil)
	h := newTestRouter(t, users, passthrough)

	rec := doJSON(h, http.MethodPost, "/auth/register",
		`{"email":"sam@example.com","password":"password123","name":"Sam","role":"THERAPIST"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u-7", body.Data.User.ID)
	assert.Equal(t, RoleTherapist, body.Data.User.Role)
	assert.NotEmpty(t, body.Data.Tokens.AccessToken)
	users.AssertExpectations(t)
}

func TestHandler_RegisterDuplicateEmail(t *testing.T) {
	users := &mockUserProvider{}
	users.On("Register", mock.Anything, mock.Anything).Return(nil, core.ErrDuplicateKey)
	h := newTestRouter(t, users, passthrough)

	rec := doJSON(h, http.MethodPost, "/auth/register",
		`{"email":"sam@example.com","password":"password123","name":"Sam","role":"CLIENT"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE", decodeEnvelope(t, rec).Error.Code)
}

func TestHandler_LoginUnknownEmail(t *testing.T) {
	users := &mockUserProvider{}
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, core.ErrNotFound)
	h := newTestRouter(t, users, passthrough)

	rec := doJSON(h, http.MethodPost, "/auth/login",
		`{"email":"ghost@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeEnvelope(t, rec).Error.Message)
}

func TestHandler_LoginWrongPassword(t *testing.T) {
	hash, err := core.HashPassword("password123")
	require.NoError(t, err)

	users := &mockUserProvider{}
	users.On("GetByEmail", mock.Anything, "kim@example.com").Return(&UserInfo{
		ID: "u-3", Email: "kim@example.com", PasswordHash: hash, Role: RoleClient,
	}, nil)
	h := newTestRouter(t, users, passthrough)

	rec := doJSON(h, http.MethodPost, "/auth/login",
		`{"email":"kim@example.com","password":"password124"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_GetMe(t *testing.T) {
	t.Run("without principal", func(t *testing.T) {
		users := &mockUserProvider{}
		h := newTestRouter(t, users, passthrough)

		rec := doJSON(h, http.MethodGet, "/auth/me", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("with principal", func(t *testing.T) {
		users := &mockUserProvider{}
		users.On("GetByID", mock.Anything, "u-5").Return(&UserInfo{
			ID: "u-5", Email: "pat@example.com", Name: "Pat", Role: RoleClinicOwner,
		}, nil)
		h := newTestRouter(t, users, injectPrincipal(Principal{UserID: "u-5", Role: RoleClinicOwner}))

		rec := doJSON(h, http.MethodGet, "/auth/me", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data UserResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "pat@example.com", body.Data.Email)
		assert.Equal(t, RoleClinicOwner, body.Data.Role)
	})

	t.Run("deleted user", func(t *testing.T) {
		users := &mockUserProvider{}
		users.On("GetByID", mock.Anything, "u-6").Return(nil, core.ErrNotFound)
		h := newTestRouter(t, users, injectPrincipal(Principal{UserID: "u-6", Role: RoleClient}))

		rec := doJSON(h, http.MethodGet, "/auth/me", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_ChangePasswordWrongCurrent(t *testing.T) {
	hash, err := core.HashPassword("password123")
	require.NoError(t, err)

	users := &mockUserProvider{}
	users.On("GetByID", mock.Anything, "u-8").Return(&UserInfo{ID: "u-8", PasswordHash: hash}, nil)
	h := newTestRouter(t, users, injectPrincipal(Principal{UserID: "u-8", Role: RoleClient}))

	rec := doJSON(h, http.MethodPost, "/auth/change-password",
		`{"current_password":"nope-nope","new_password":"password456"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}
