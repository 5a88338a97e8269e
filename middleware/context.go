package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/account-auth/token"
)

// Context key type to avoid collisions
type contextKey string

// VerifiedKey is the context key for the gate's verification result
const VerifiedKey contextKey = "verified_token"

// Verified is what a gate hands to the route it guards.
// Access routes read Claims; the refresh route reads the raw Token.
type Verified struct {
	Claims *token.Claims
	Token  string
}

// WithVerified adds a verification result to the context
func WithVerified(ctx context.Context, v *Verified) context.Context {
	return context.WithValue(ctx, VerifiedKey, v)
}

// GetVerifiedFromContext retrieves the verification result from context
func GetVerifiedFromContext(ctx context.Context) *Verified {
	if val := ctx.Value(VerifiedKey); val != nil {
		if v, ok := val.(*Verified); ok {
			return v
		}
	}
	return nil
}

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}
