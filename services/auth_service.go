package services

import (
	"context"

	"github.com/upb/account-auth/models"
	"github.com/upb/account-auth/token"
	"go.uber.org/zap"
)

// TokenPair is returned by a successful login
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AccessToken is returned by a successful refresh
type AccessToken struct {
	AccessToken string `json:"access_token"`
}

// AuthService issues and checks tokens for the /auth/jwt endpoints
type AuthService struct {
	users   *UserManager
	access  *token.Strategy
	refresh *token.Strategy
	logger  *zap.Logger
}

// NewAuthService creates a new auth service over the two strategies
func NewAuthService(users *UserManager, access, refresh *token.Strategy, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:   users,
		access:  access,
		refresh: refresh,
		logger:  logger,
	}
}

// Login authenticates creds and issues an access and a refresh token
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	user, err := s.users.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.access.Issue(user)
	if err != nil {
		return nil, WrapInternal("failed to issue access token", err)
	}
	refreshToken, err := s.refresh.Issue(user)
	if err != nil {
		return nil, WrapInternal("failed to issue refresh token", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh resolves a refresh token and issues a new access token.
// The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*AccessToken, error) {
	user, err := s.refresh.Resolve(ctx, raw, s.users)
	if err != nil {
		return nil, resolveFailure(err, ErrInvalidRefreshToken)
	}

	accessToken, err := s.access.Issue(user)
	if err != nil {
		return nil, WrapInternal("failed to issue access token", err)
	}

	s.logger.Debug("access token refreshed", zap.String("user_id", user.ID.String()))
	return &AccessToken{AccessToken: accessToken}, nil
}

// Verify loads the principal named by verified access claims
func (s *AuthService) Verify(ctx context.Context, claims *token.Claims) (*models.User, error) {
	user, err := s.access.ResolveClaims(ctx, claims, s.users)
	if err != nil {
		return nil, resolveFailure(err, ErrSubjectNotFound)
	}
	return user, nil
}

// resolveFailure maps a strategy resolve error to sentinel, keeping store failures internal
func resolveFailure(err error, sentinel *DomainError) error {
	if IsInternalError(err) {
		return err
	}
	return sentinel.Wrap(err)
}
