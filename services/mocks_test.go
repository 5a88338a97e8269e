package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/account-auth/models"
	"github.com/upb/account-auth/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(repo *MockUserRepository) *UserManager {
	m := NewUserManager(repo, time.Second, zap.NewNop())
	m.cost = bcrypt.MinCost
	return m
}

func newTestStrategies(t *testing.T, clock *testClock) (*token.Strategy, *token.Strategy) {
	t.Helper()
	access, err := token.NewStrategy(token.KindAccess, "access-secret", 60, token.WithClock(clock.Now))
	require.NoError(t, err)
	refresh, err := token.NewStrategy(token.KindRefresh, "refresh-secret", 3600, token.WithClock(clock.Now))
	require.NoError(t, err)
	return access, refresh
}

func hashedUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return models.NewUser(email, string(hash))
}
