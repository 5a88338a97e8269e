package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	withCause := &DomainError{Type: ErrorTypeUnauthorized, Message: "Invalid token", Err: errors.New("bad signature")}
	assert.Equal(t, "unauthorized: Invalid token (bad signature)", withCause.Error())

	bare := &DomainError{Type: ErrorTypeForbidden, Message: "Authorization token not provided"}
	assert.Equal(t, "forbidden: Authorization token not provided", bare.Error())
}

func TestDomainError_Is(t *testing.T) {
	t.Run("codes distinguish errors of the same type", func(t *testing.T) {
		assert.True(t, errors.Is(ErrTokenExpired, ErrTokenExpired))
		assert.False(t, errors.Is(ErrTokenExpired, ErrInvalidToken))
		assert.False(t, errors.Is(ErrMissingCredential, ErrBadScheme))
	})

	t.Run("wrapped copies still match", func(t *testing.T) {
		cause := errors.New("signature mismatch")
		err := fmt.Errorf("gate: %w", ErrInvalidToken.Wrap(cause))

		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, cause)
		assert.Nil(t, ErrInvalidToken.Err, "sentinel must not be mutated")
	})

	t.Run("uncoded errors match on type", func(t *testing.T) {
		target := NewDomainError(ErrorTypeValidation, "", nil)
		assert.True(t, errors.Is(NewDomainError(ErrorTypeValidation, "other", nil), target))
		assert.False(t, errors.Is(NewDomainError(ErrorTypeInternal, "", nil), target))
	})

	t.Run("non domain target", func(t *testing.T) {
		assert.False(t, errors.Is(ErrInvalidToken, errors.New("invalid token")))
	})
}

func TestDomainError_WithDetail(t *testing.T) {
	withField := ErrInvalidInput.WithDetail("field", "email")

	assert.Equal(t, "email", withField.Details["field"])
	assert.NotContains(t, ErrInvalidInput.Details, "field")
	assert.ErrorIs(t, withField, ErrInvalidInput)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		err      *DomainError
		wantType ErrorType
		wantCode string
	}{
		{ErrMissingCredential, ErrorTypeForbidden, "missing_credential"},
		{ErrBadScheme, ErrorTypeForbidden, "bad_scheme"},
		{ErrInvalidToken, ErrorTypeUnauthorized, "invalid_token"},
		{ErrWrongTokenKind, ErrorTypeValidation, "wrong_token_kind"},
		{ErrTokenExpired, ErrorTypeUnauthorized, "token_expired"},
		{ErrSubjectNotFound, ErrorTypeUnauthorized, "subject_not_found"},
		{ErrInvalidRefreshToken, ErrorTypeUnauthorized, "invalid_refresh_token"},
		{ErrInvalidCredentials, ErrorTypeUnauthorized, "invalid_credentials"},
		{ErrUserNotFound, ErrorTypeNotFound, "user_not_found"},
		{ErrInvalidInput, ErrorTypeUnprocessable, "invalid_input"},
		{ErrInternal, ErrorTypeInternal, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			assert.Equal(t, tt.wantType, GetErrorType(tt.err))
			assert.Equal(t, tt.wantCode, GetErrorCode(tt.err))
			assert.NotEmpty(t, GetErrorMessage(tt.err))
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNotFoundError(ErrUserNotFound))
	assert.True(t, IsValidationError(ErrWrongTokenKind))
	assert.True(t, IsUnprocessableError(ErrInvalidInput))
	assert.True(t, IsUnauthorizedError(ErrTokenExpired))
	assert.True(t, IsForbiddenError(ErrBadScheme))

	internal := WrapInternal("db down", errors.New("dial tcp"))
	assert.True(t, IsInternalError(internal))
	assert.ErrorIs(t, internal, ErrInternal)

	plain := errors.New("plain")
	assert.Equal(t, ErrorType(""), GetErrorType(plain))
	assert.Empty(t, GetErrorCode(plain))
	assert.Empty(t, GetErrorMessage(plain))
	assert.Nil(t, GetErrorDetails(plain))
	assert.NotNil(t, GetErrorDetails(ErrInvalidToken))
}
