package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/upb/account-auth/services"
	"github.com/upb/account-auth/token"
	"go.uber.org/zap"
)

// TokenGate admits requests carrying a valid bearer token of one kind.
// The sibling strategy, when set, lets the gate tell a token of the other kind
// apart from a forged one.
type TokenGate struct {
	strategy *token.Strategy
	sibling  *token.Strategy
	logger   *zap.Logger
}

// NewTokenGate creates a gate accepting tokens of the strategy's kind. sibling may be nil.
func NewTokenGate(strategy, sibling *token.Strategy, logger *zap.Logger) *TokenGate {
	return &TokenGate{
		strategy: strategy,
		sibling:  sibling,
		logger:   logger,
	}
}

// NewAccessGate creates a gate for access tokens
func NewAccessGate(access, refresh *token.Strategy, logger *zap.Logger) (*TokenGate, error) {
	if access == nil || access.Kind() != token.KindAccess {
		return nil, errors.New("access gate requires an access strategy")
	}
	if refresh != nil && refresh.Kind() != token.KindRefresh {
		return nil, errors.New("access gate sibling must be a refresh strategy")
	}
	return NewTokenGate(access, refresh, logger), nil
}

// NewRefreshGate creates a gate for refresh tokens
func NewRefreshGate(refresh, access *token.Strategy, logger *zap.Logger) (*TokenGate, error) {
	if refresh == nil || refresh.Kind() != token.KindRefresh {
		return nil, errors.New("refresh gate requires a refresh strategy")
	}
	if access != nil && access.Kind() != token.KindAccess {
		return nil, errors.New("refresh gate sibling must be an access strategy")
	}
	return NewTokenGate(refresh, access, logger), nil
}

// Kind returns the token kind the gate admits
func (g *TokenGate) Kind() token.Kind { return g.strategy.Kind() }

// Check runs credential extraction, decoding, kind and expiry checks in that order
// and stops at the first failure.
func (g *TokenGate) Check(r *http.Request) (*Verified, error) {
	raw, err := extractBearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := g.decode(raw)
	if err != nil {
		return nil, err
	}

	if claims.Kind != g.strategy.Kind() {
		return nil, services.ErrWrongTokenKind
	}

	if claims.ExpiredAt(g.strategy.Now()) {
		return nil, services.ErrTokenExpired
	}

	return &Verified{Claims: claims, Token: raw}, nil
}

// decode verifies raw with the gate's strategy. A token that only verifies under
// the sibling strategy is returned when it is tagged with the sibling's kind, so
// Check reports it as the wrong kind.
func (g *TokenGate) decode(raw string) (*token.Claims, error) {
	claims, err := g.strategy.Decode(raw)
	if err == nil {
		return claims, nil
	}

	if g.sibling != nil {
		if other, siblingErr := g.sibling.Decode(raw); siblingErr == nil && other.Kind == g.sibling.Kind() {
			return other, nil
		}
	}

	return nil, services.ErrInvalidToken.Wrap(err)
}

// Require is a middleware that rejects requests failing Check
func (g *TokenGate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		verified, err := g.Check(r)
		if err != nil {
			g.logger.Warn("token rejected",
				zap.String("request_id", requestID),
				zap.String("expected_kind", string(g.strategy.Kind())),
				zap.String("code", services.GetErrorCode(err)),
				zap.Error(errors.Unwrap(err)))
			HandleError(w, err)
			return
		}

		g.logger.Debug("token accepted",
			zap.String("request_id", requestID),
			zap.String("kind", string(verified.Claims.Kind)),
			zap.String("sub", verified.Claims.Subject))

		next.ServeHTTP(w, r.WithContext(WithVerified(ctx, verified)))
	})
}

// extractBearerToken reads the credential from "Authorization: Bearer <token>".
// The scheme is matched exactly.
func extractBearerToken(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return "", services.ErrMissingCredential
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", services.ErrBadScheme
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", services.ErrBadScheme
	}
	return raw, nil
}
