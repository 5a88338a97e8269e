package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrBadSignature is returned when the signature or signing algorithm does not verify
	ErrBadSignature = errors.New("token signature is invalid")

	// ErrMalformedToken is returned when the token cannot be parsed
	ErrMalformedToken = errors.New("token is malformed")

	// ErrAudienceMismatch is returned when none of the expected audiences is present
	ErrAudienceMismatch = errors.New("token audience mismatch")
)

// DefaultAudience is the audience stamped on every token this service issues
const DefaultAudience = "account-auth:auth"

// DefaultSigningMethod is the algorithm used by both strategies
var DefaultSigningMethod jwt.SigningMethod = jwt.SigningMethodHS256

// Kind tags a token as an access or a refresh token
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Valid reports whether k is one of the known token kinds
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claims is the claim set signed inside every token
type Claims struct {
	Kind Kind `json:"token_type"`
	jwt.RegisteredClaims
}

// NewClaims builds a fresh claim set expiring lifetime after issuedAt
func NewClaims(subject string, kind Kind, audience []string, issuedAt time.Time, lifetime time.Duration) *Claims {
	return &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(lifetime)),
		},
	}
}

// ExpiredAt reports whether the claims are expired at now.
// Claims without an expiry are treated as expired.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !c.ExpiresAt.Time.After(now)
}

// Encode signs claims with secret using method
func Encode(claims *Claims, secret []byte, method jwt.SigningMethod) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("encode token: nil claims")
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature, algorithm and audience of raw and returns its claims.
// Expiry and kind are left to the caller.
func Decode(raw string, secret []byte, method jwt.SigningMethod, audience []string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != method.Alg() {
			return nil, ErrBadSignature
		}
		return secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if !audienceMatches(claims.Audience, audience) {
		return nil, ErrAudienceMismatch
	}

	return claims, nil
}

// classifyParseError folds golang-jwt errors into the codec's own set so
// callers never see parser internals
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, ErrBadSignature),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrBadSignature
	default:
		return ErrMalformedToken
	}
}

func audienceMatches(got jwt.ClaimStrings, expected []string) bool {
	for _, want := range expected {
		for _, aud := range got {
			if aud == want {
				return true
			}
		}
	}
	return false
}
