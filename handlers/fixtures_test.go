package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/upb/account-auth/middleware"
	"github.com/upb/account-auth/models"
	"github.com/upb/account-auth/repositories"
	"github.com/upb/account-auth/services"
	"github.com/upb/account-auth/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memUserRepository is an in-memory UserRepository
type memUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (m *memUserRepository) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memUserRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	repo    *memUserRepository
	clock   *testClock
	access  *token.Strategy
	refresh *token.Strategy
	router  http.Handler
	user    *models.User
}

const testPassword = "correct horse"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	clock := &testClock{t: time.Now()}
	repo := newMemUserRepository()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.NewUser("alice@example.com", string(hash))
	require.NoError(t, repo.Create(context.Background(), user))

	access, err := token.NewStrategy(token.KindAccess, "access-secret", 60, token.WithClock(clock.Now))
	require.NoError(t, err)
	refresh, err := token.NewStrategy(token.KindRefresh, "refresh-secret", 3600, token.WithClock(clock.Now))
	require.NoError(t, err)

	manager := services.NewUserManager(repo, time.Second, logger)
	authSvc := services.NewAuthService(manager, access, refresh, logger)
	accountSvc := services.NewAccountService(manager, access, logger)

	accessGate, err := middleware.NewAccessGate(access, refresh, logger)
	require.NoError(t, err)
	refreshGate, err := middleware.NewRefreshGate(refresh, access, logger)
	require.NoError(t, err)

	authHandler := NewAuthHandler(authSvc, logger)
	userHandler := NewUserHandler(accountSvc, logger)

	r := chi.NewRouter()
	r.Post("/auth/jwt/login", authHandler.HandleLogin)
	r.With(refreshGate.Require).Post("/auth/jwt/refresh", authHandler.HandleRefresh)
	r.With(accessGate.Require).Get("/auth/jwt/verify", authHandler.HandleVerify)
	r.With(accessGate.Require).Delete("/user/me", userHandler.HandleDeleteMe)
	r.With(accessGate.Require).Get("/user/protected-route-only-jwt", userHandler.HandleProtected)

	return &fixture{
		repo:    repo,
		clock:   clock,
		access:  access,
		refresh: refresh,
		router:  r,
		user:    user,
	}
}

func loginForm(username, password string) url.Values {
	form := url.Values{}
	if username != "" {
		form.Set("username", username)
	}
	if password != "" {
		form.Set("password", password)
	}
	return form
}
