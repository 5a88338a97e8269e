package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxPasswordBytes is the longest password bcrypt will hash
const MaxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their form name, then json name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			switch name {
			case "":
				continue
			case "-":
				return ""
			default:
				return name
			}
		}
		return fld.Name
	})

	// bcrypt_password: non-empty and short enough to hash without truncation
	_ = v.RegisterValidation("bcrypt_password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && len(s) <= MaxPasswordBytes
	})

	return v
}

// ValidateStruct runs the validate tags of s and returns a *ValidationError on failure
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return NewValidationError(fieldErrs)
	}
	return err
}

// ValidateEmail checks that email is a syntactically valid address
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidatePassword checks that password can be hashed with bcrypt
func ValidatePassword(password string) error {
	if err := validate.Var(password, "bcrypt_password"); err != nil {
		return fmt.Errorf("password must be between 1 and %d bytes", MaxPasswordBytes)
	}
	return nil
}

// ValidationError lists the offending fields of a rejected request
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError converts validator errors into per-field messages
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Message: "Validation failed", Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "bcrypt_password":
		return fmt.Sprintf("%s must be between 1 and %d bytes", fe.Field(), MaxPasswordBytes)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed the %q check", fe.Field(), fe.Tag())
}

// IsValidationError reports whether err is a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields returns the field messages of a *ValidationError, or nil
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
