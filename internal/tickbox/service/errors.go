package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrInvalidToken         = errors.New("invalid_token")
	ErrUserNotFound         = errors.New("user_not_found")
	ErrUnsupportedGrantType = errors.New("unsupported_grant_type")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBadRequest           = errors.New("bad_request")
	ErrNotFound             = errors.New("not_found")
	ErrValidation           = errors.New("validation_failed")
)

// ErrInvalidSubject is an ErrInvalidToken whose registry entry names no user.
var ErrInvalidSubject = fmt.Errorf("%w: missing subject", ErrInvalidToken)

// Validation error codes.
const (
	CodeRequired              = "Required"
	CodeInvalidEmail          = "InvalidEmail"
	CodeDuplicateUserName     = "DuplicateUserName"
	CodeDuplicateEmail        = "DuplicateEmail"
	CodePasswordTooShort      = "PasswordTooShort"
	CodePasswordRequiresDigit = "PasswordRequiresDigit"
	CodePasswordRequiresLower = "PasswordRequiresLower"
	CodePasswordRequiresUpper = "PasswordRequiresUpper"
	CodePasswordRequiresNonAl = "PasswordRequiresNonAlphanumeric"
)

// FieldError is a single broken input rule.
type FieldError struct {
	Field       string
	Code        string
	Description string
}

// ValidationError collects every FieldError for one request. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	codes := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		codes = append(codes, f.Code)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(codes, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) add(field, code, description string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Description: description})
}

// err returns e when any rule was broken, nil otherwise.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
