package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/account-auth/repositories"
	"github.com/upb/account-auth/token"
	"go.uber.org/zap"
)

func newTestAuthService(t *testing.T, repo *MockUserRepository, clock *testClock) (*AuthService, *token.Strategy, *token.Strategy) {
	t.Helper()
	access, refresh := newTestStrategies(t, clock)
	return NewAuthService(newTestManager(repo), access, refresh, zap.NewNop()), access, refresh
}

func TestAuthService_Login(t *testing.T) {
	clock := &testClock{t: time.Now()}
	repo := new(MockUserRepository)
	user := hashedUser(t, "alice@example.com", "wonderland")
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repositories.ErrUserNotFound)

	svc, access, refresh := newTestAuthService(t, repo, clock)

	pair, err := svc.Login(context.Background(), Credentials{Username: "alice@example.com", Password: "wonderland"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	accessClaims, err := access.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), accessClaims.Subject)

	refreshClaims, err := refresh.Validate(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, token.KindRefresh, refreshClaims.Kind)

	_, err = access.Validate(pair.RefreshToken)
	assert.Error(t, err)

	_, err = svc.Login(context.Background(), Credentials{Username: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), Credentials{Username: "ghost@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	clock := &testClock{t: time.Now()}
	user := hashedUser(t, "alice@example.com", "pw")

	t.Run("issues new access token", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		svc, access, refresh := newTestAuthService(t, repo, clock)

		raw, err := refresh.Issue(user)
		require.NoError(t, err)

		got, err := svc.Refresh(context.Background(), raw)
		require.NoError(t, err)

		claims, err := access.Validate(got.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.Subject)
		assert.Equal(t, token.KindAccess, claims.Kind)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, access, _ := newTestAuthService(t, repo, clock)

		raw, err := access.Issue(user)
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("deleted user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByID", mock.Anything, user.ID).Return(nil, repositories.ErrUserNotFound)
		svc, _, refresh := newTestAuthService(t, repo, clock)

		raw, err := refresh.Issue(user)
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		local := &testClock{t: time.Now()}
		repo := new(MockUserRepository)
		svc, _, refresh := newTestAuthService(t, repo, local)

		raw, err := refresh.Issue(user)
		require.NoError(t, err)
		local.Advance(2 * time.Hour)

		_, err = svc.Refresh(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		assert.ErrorIs(t, err, token.ErrExpired)
	})

	t.Run("store failure stays internal", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByID", mock.Anything, user.ID).Return(nil, errors.New("db down"))
		svc, _, refresh := newTestAuthService(t, repo, clock)

		raw, err := refresh.Issue(user)
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), raw)
		assert.True(t, IsInternalError(err))
	})
}

func TestAuthService_Verify(t *testing.T) {
	clock := &testClock{t: time.Now()}
	user := hashedUser(t, "alice@example.com", "pw")

	repo := new(MockUserRepository)
	repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	svc, access, _ := newTestAuthService(t, repo, clock)

	raw, err := access.Issue(user)
	require.NoError(t, err)
	claims, err := access.Validate(raw)
	require.NoError(t, err)

	got, err := svc.Verify(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	missing := token.NewClaims(uuid.NewString(), token.KindAccess, []string{token.DefaultAudience}, clock.Now(), time.Minute)
	repo.On("GetByID", mock.Anything, uuid.MustParse(missing.Subject)).Return(nil, repositories.ErrUserNotFound)
	_, err = svc.Verify(context.Background(), missing)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
	assert.Equal(t, "Invalid token", GetErrorMessage(err))

	garbage := token.NewClaims("not-a-uuid", token.KindAccess, []string{token.DefaultAudience}, clock.Now(), time.Minute)
	_, err = svc.Verify(context.Background(), garbage)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}
