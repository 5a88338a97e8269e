package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/account-auth/models"
)

var (
	// ErrInvalidToken is returned by Resolve for any token that cannot be turned into a principal
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongKind is returned when a token is presented to the strategy of the other kind
	ErrWrongKind = errors.New("token kind mismatch")

	// ErrExpired is returned when a token is past its expiry
	ErrExpired = errors.New("token expired")
)

// PrincipalLookup loads a principal by its stable identifier
type PrincipalLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Strategy binds the codec to one secret, lifetime, audience and token kind.
// A Strategy is immutable after construction and safe for concurrent use.
type Strategy struct {
	kind     Kind
	secret   []byte
	lifetime time.Duration
	audience []string
	method   jwt.SigningMethod
	now      func() time.Time
}

// Option configures a Strategy
type Option func(*Strategy)

// WithAudience replaces the default audience set
func WithAudience(audience ...string) Option {
	return func(s *Strategy) {
		s.audience = append([]string(nil), audience...)
	}
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Strategy) {
		s.now = now
	}
}

// NewStrategy creates a strategy for kind signing with secret and issuing
// tokens valid for lifetimeSeconds
func NewStrategy(kind Kind, secret string, lifetimeSeconds int, opts ...Option) (*Strategy, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid token kind %q: must be %q or %q", kind, KindAccess, KindRefresh)
	}
	if secret == "" {
		return nil, fmt.Errorf("%s token secret is required", kind)
	}
	if lifetimeSeconds <= 0 {
		return nil, fmt.Errorf("%s token lifetime must be positive, got %d", kind, lifetimeSeconds)
	}

	s := &Strategy{
		kind:     kind,
		secret:   []byte(secret),
		lifetime: time.Duration(lifetimeSeconds) * time.Second,
		audience: []string{DefaultAudience},
		method:   DefaultSigningMethod,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.audience) == 0 {
		return nil, fmt.Errorf("%s token audience must not be empty", kind)
	}

	return s, nil
}

// Kind returns the token kind this strategy issues and accepts
func (s *Strategy) Kind() Kind { return s.kind }

// Lifetime returns how long issued tokens stay valid
func (s *Strategy) Lifetime() time.Duration { return s.lifetime }

// Now returns the strategy's current time
func (s *Strategy) Now() time.Time { return s.now() }

// Issue creates a signed token for user
func (s *Strategy) Issue(user *models.User) (string, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", fmt.Errorf("issue %s token: principal has no id", s.kind)
	}
	claims := NewClaims(user.ID.String(), s.kind, s.audience, s.now(), s.lifetime)
	return Encode(claims, s.secret, s.method)
}

// Decode runs the codec with this strategy's secret, algorithm and audience
func (s *Strategy) Decode(raw string) (*Claims, error) {
	return Decode(raw, s.secret, s.method, s.audience)
}

// Validate decodes raw and checks its kind and expiry against this strategy
func (s *Strategy) Validate(raw string) (*Claims, error) {
	claims, err := s.Decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.Kind != s.kind {
		return nil, ErrWrongKind
	}
	if claims.ExpiredAt(s.now()) {
		return nil, ErrExpired
	}
	return claims, nil
}

// Resolve validates raw and loads the principal named by its subject.
// Every failure is reported as ErrInvalidToken wrapping the cause.
func (s *Strategy) Resolve(ctx context.Context, raw string, lookup PrincipalLookup) (*models.User, error) {
	claims, err := s.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return s.ResolveClaims(ctx, claims, lookup)
}

// ResolveClaims loads the principal named by already validated claims
func (s *Strategy) ResolveClaims(ctx context.Context, claims *Claims, lookup PrincipalLookup) (*models.User, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a valid id", ErrInvalidToken)
	}
	user, err := lookup.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: subject not found", ErrInvalidToken)
	}
	return user, nil
}
