package services

import (
	"errors"
	"fmt"
)

// ErrorType is the coarse category a DomainError maps to an HTTP status by
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeUnprocessable ErrorType = "unprocessable"
	ErrorTypeUnauthorized  ErrorType = "unauthorized"
	ErrorTypeForbidden     ErrorType = "forbidden"
	ErrorTypeInternal      ErrorType = "internal"
)

// DomainError is an error the HTTP layer can render: a category, a stable code and a public message
type DomainError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code when both errors carry one, otherwise on Type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Code != "" && t.Code != "" {
		return e.Code == t.Code
	}
	return e.Type == t.Type
}

// Wrap returns a copy of e carrying err as its cause
func (e *DomainError) Wrap(err error) *DomainError {
	return &DomainError{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
		Details: copyDetails(e.Details),
	}
}

// WithDetail returns a copy of e with an extra detail
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	c := e.Wrap(e.Err)
	c.Details[key] = value
	return c
}

// NewDomainError builds an uncoded error of the given category
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// newCodedError creates a sentinel domain error with a taxonomy code
func newCodedError(errType ErrorType, code, message string) *DomainError {
	e := NewDomainError(errType, message, nil)
	e.Code = code
	return e
}

func copyDetails(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Sentinels. Compare with errors.Is; they match on Code.

var (
	// Credential extraction
	ErrMissingCredential = newCodedError(ErrorTypeForbidden, "missing_credential", "Authorization token not provided")
	ErrBadScheme         = newCodedError(ErrorTypeForbidden, "bad_scheme", "Invalid authentication scheme")

	// Token validation
	ErrInvalidToken        = newCodedError(ErrorTypeUnauthorized, "invalid_token", "Invalid token")
	ErrWrongTokenKind      = newCodedError(ErrorTypeValidation, "wrong_token_kind", "Invalid token type")
	ErrTokenExpired        = newCodedError(ErrorTypeUnauthorized, "token_expired", "Token expired")
	ErrSubjectNotFound     = newCodedError(ErrorTypeUnauthorized, "subject_not_found", "Invalid token")
	ErrInvalidRefreshToken = newCodedError(ErrorTypeUnauthorized, "invalid_refresh_token", "Invalid refresh token")

	// Authentication
	ErrInvalidCredentials = newCodedError(ErrorTypeUnauthorized, "invalid_credentials", "Invalid credentials")

	// Accounts
	ErrUserNotFound = newCodedError(ErrorTypeNotFound, "user_not_found", "The user does not exist")

	// Request validation
	ErrInvalidInput = newCodedError(ErrorTypeUnprocessable, "invalid_input", "Validation error - check request format")

	// Internal
	ErrInternal = newCodedError(ErrorTypeInternal, "internal", "internal server error")
)

// Category helpers

func IsNotFoundError(err error) bool      { return GetErrorType(err) == ErrorTypeNotFound }
func IsValidationError(err error) bool    { return GetErrorType(err) == ErrorTypeValidation }
func IsUnprocessableError(err error) bool { return GetErrorType(err) == ErrorTypeUnprocessable }
func IsUnauthorizedError(err error) bool  { return GetErrorType(err) == ErrorTypeUnauthorized }
func IsForbiddenError(err error) bool     { return GetErrorType(err) == ErrorTypeForbidden }
func IsInternalError(err error) bool      { return GetErrorType(err) == ErrorTypeInternal }

// GetErrorType returns the category of err, or "" when err is not a DomainError
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorCode returns the taxonomy code of a domain error, or empty string
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// GetErrorMessage returns the client-facing message of a domain error, or empty string
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// GetErrorDetails returns the details of err, or nil
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal hides err behind a generic internal error; message is logged, never rendered
func WrapInternal(message string, err error) error {
	e := NewDomainError(ErrorTypeInternal, message, err)
	e.Code = ErrInternal.Code
	return e
}
