package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/account-auth/models"
	"github.com/upb/account-auth/repositories"
	"github.com/upb/account-auth/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is the username/password pair submitted to the login form
type Credentials struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// UserManager authenticates and loads principals from the user store
type UserManager struct {
	users         repositories.UserRepository
	lookupTimeout time.Duration
	cost          int
	logger        *zap.Logger

	// dummyHash is compared against for unknown users so they cost as much as known ones
	dummyHash []byte
}

// NewUserManager creates a new user manager
func NewUserManager(users repositories.UserRepository, lookupTimeout time.Duration, logger *zap.Logger) *UserManager {
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to build dummy hash", zap.Error(err))
	}

	return &UserManager{
		users:         users,
		lookupTimeout: lookupTimeout,
		cost:          bcrypt.DefaultCost,
		logger:        logger,
		dummyHash:     dummyHash,
	}
}

func (m *UserManager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.lookupTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.lookupTimeout)
}

// Authenticate checks credentials against the stored bcrypt hash.
// Unknown users, wrong passwords and inactive users all yield ErrInvalidCredentials.
func (m *UserManager) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	user, err := m.users.GetByEmail(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, WrapInternal("failed to load user", err)
		}
		// Hash anyway so unknown users take as long as known ones.
		_ = bcrypt.CompareHashAndPassword(m.dummyHash, []byte(creds.Password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		m.logger.Info("login rejected for inactive user", zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID loads a principal by id. Missing users wrap repositories.ErrUserNotFound;
// store failures are internal errors.
func (m *UserManager) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	user, err := m.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, err
		}
		return nil, WrapInternal("failed to load user", err)
	}
	return user, nil
}

// Delete removes a user. A user that is already gone yields ErrUserNotFound.
func (m *UserManager) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound.Wrap(err)
		}
		return WrapInternal("failed to delete user", err)
	}
	return nil
}

// Register hashes password and creates an active user
func (m *UserManager) Register(ctx context.Context, email, password string, superuser bool) (*models.User, error) {
	email = strings.TrimSpace(email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, ErrInvalidInput.Wrap(err).WithDetail("field", "email")
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, ErrInvalidInput.Wrap(err).WithDetail("field", "password")
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if _, err := m.users.GetByEmail(ctx, email); err == nil {
		return nil, errEmailTaken(nil)
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, WrapInternal("failed to check existing user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(email, string(hash))
	user.IsSuperuser = superuser
	if err := m.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, errEmailTaken(err)
		}
		return nil, WrapInternal("failed to create user", err)
	}

	m.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func errEmailTaken(cause error) error {
	return NewDomainError(ErrorTypeValidation, "A user with this email already exists", cause).WithDetail("field", "email")
}
