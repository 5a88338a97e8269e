package services

import (
	"context"

	"github.com/upb/account-auth/token"
	"go.uber.org/zap"
)

// AccountService performs actions on the caller's own account
type AccountService struct {
	users  *UserManager
	access *token.Strategy
	logger *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(users *UserManager, access *token.Strategy, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:  users,
		access: access,
		logger: logger,
	}
}

// DeleteOwnAccount deletes the principal named by verified access claims.
// Outstanding tokens are not revoked.
func (s *AccountService) DeleteOwnAccount(ctx context.Context, claims *token.Claims) error {
	user, err := s.access.ResolveClaims(ctx, claims, s.users)
	if err != nil {
		return resolveFailure(err, ErrSubjectNotFound)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info("account deleted", zap.String("user_id", user.ID.String()))
	return nil
}
