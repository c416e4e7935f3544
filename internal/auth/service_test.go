// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

type mockUserProvider struct {
	mock.Mock
}

func (m *mockUserProvider) GetByEmail(ctx context.Context, email string) (*UserInfo, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*UserInfo)
	return u, args.Error(1)
}

func (m *mockUserProvider) GetByID(ctx context.Context, id string) (*UserInfo, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*UserInfo)
	return u, args.Error(1)
}

func (m *mockUserProvider) Register(ctx context.Context, u NewUser) (*UserInfo, error) {
	args := m.Called(ctx, u)
	info, _ := args.Get(0).(*UserInfo)
	return info, args.Error(1)
}

func (m *mockUserProvider) UpdatePassword(ctx context.Context, userID, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

func TestService_RegisterIssuesVerifiableToken(t *testing.T) {
	clock := &testClock{t: epoch}
	codec := newTestCodec(t, clock)
	users := &mockUserProvider{}
	svc := NewService(codec, users)

	users.On("Register", mock.Anything, mock.MatchedBy(func(u NewUser) bool {
		return u.Email == "lee@example.com" && u.Role == RoleClinicOwner && u.PasswordHash != "password123"
	})).Return(&UserInfo{
		ID:    "u-100",
		Email: "lee@example.com",
		Name:  "Lee",
		Role:  RoleClinicOwner,
	}, nil)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "lee@example.com",
		Password: "password123",
		Name:     "Lee",
		Role:     RoleClinicOwner,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)
	assert.Equal(t, int(time.Hour.Seconds()), resp.Tokens.ExpiresIn)

	claims, err := codec.Parse(resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-100", claims.UserID)
	assert.Equal(t, RoleClinicOwner, claims.Role)

	users.AssertExpectations(t)
}

func TestService_RegisterRejectsAdmin(t *testing.T) {
	users := &mockUserProvider{}
	svc := NewService(newTestCodec(t, &testClock{t: epoch}), users)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "x@example.com",
		Password: "password123",
		Name:     "X",
		Role:     RoleAdmin,
	})
	assert.ErrorIs(t, err, core.ErrValidation)
	users.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	users := &mockUserProvider{}
	svc := NewService(newTestCodec(t, &testClock{t: epoch}), users)

	users.On("Register", mock.Anything, mock.Anything).
		Return(nil, core.ErrDuplicateKey)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "dup@example.com",
		Password: "password123",
		Name:     "Dup",
		Role:     RoleClient,
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestService_Login(t *testing.T) {
	hash, err := core.HashPassword("correct-horse")
	require.NoError(t, err)

	users := &mockUserProvider{}
	svc := NewService(newTestCodec(t, &testClock{t: epoch}), users)

	users.On("GetByEmail", mock.Anything, "kim@example.com").Return(&UserInfo{
		ID:           "u-7",
		Email:        "kim@example.com",
		Name:         "Kim",
		PasswordHash: hash,
		Role:         RoleClient,
	}, nil)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, core.ErrNotFound)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "kim@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-7", resp.User.ID)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "kim@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
